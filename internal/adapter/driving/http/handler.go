package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/profilekeeper/internal/application"
	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// Handler is the HTTP driving adapter that exposes the profile actions.
type Handler struct {
	runner    application.ActionRunner
	runs      driven.RunStore
	startedAt time.Time
	logger    *slog.Logger
}

// NewHandler creates a Handler. runs may be nil when the journal is disabled.
func NewHandler(
	runner application.ActionRunner,
	runs driven.RunStore,
	startedAt time.Time,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		runner:    runner,
		runs:      runs,
		startedAt: startedAt,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with CORS, logging, and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("GET /update-skills", h.UpdateSkills)
	mux.HandleFunc("GET /reupload-resume", h.ReuploadResume)
	mux.HandleFunc("GET /runs", h.ListRuns)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = corsMiddleware(wrapped)

	return wrapped
}

// Stats reports liveness and process uptime.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}

// UpdateSkills toggles the configured skill and waits for the outcome.
func (h *Handler) UpdateSkills(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, model.ActionUpdateSkills)
}

// ReuploadResume replaces the profile resume and waits for the outcome.
func (h *Handler) ReuploadResume(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, model.ActionReuploadResume)
}

// runAction runs action synchronously. The action is detached from the
// request context: a client hanging up mid-reupload must not leave the
// profile with its resume deleted and nothing attached.
func (h *Handler) runAction(w http.ResponseWriter, r *http.Request, action model.ActionKind) {
	result, err := h.runner.Run(context.WithoutCancel(r.Context()), action, model.TriggerHTTP)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrActionInProgress) {
			status = http.StatusConflict
		}
		writeJSON(w, status, ActionResponse{Status: string(model.RunStatusFailed), Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(result))
}

// ListRuns returns the most recent journaled runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	if h.runs == nil {
		writeJSON(w, http.StatusOK, []RunResponse{})
		return
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}

	writeJSON(w, http.StatusOK, resp)
}
