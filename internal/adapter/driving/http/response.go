package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"failed","message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a failed-status JSON body with the given message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ActionResponse{Status: string(model.RunStatusFailed), Message: message})
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// ActionResponse is the body of the action endpoints and of every error.
type ActionResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Action   string `json:"action,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Skills   string `json:"skills,omitempty"`
}

// RunResponse is the JSON representation of a journaled run.
type RunResponse struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	Trigger    string `json:"trigger"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Attempts   int    `json:"attempts"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
	DurationMS int64  `json:"durationMs"`
}

func toActionResponse(r model.ActionResult) ActionResponse {
	return ActionResponse{
		Status:   string(r.Status),
		Message:  r.Message,
		Action:   string(r.Action),
		Attempts: r.Attempts,
		Skills:   r.Skills,
	}
}

func toRunResponse(run model.ActionRun) RunResponse {
	return RunResponse{
		ID:         run.ID.String(),
		Action:     string(run.Action),
		Trigger:    string(run.Trigger),
		Status:     string(run.Status),
		Message:    run.Message,
		Attempts:   run.Attempts,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
		DurationMS: run.Duration().Milliseconds(),
	}
}
