package model

// ActionKind names a portal maintenance action.
type ActionKind string

const (
	ActionUpdateSkills   ActionKind = "update-skills"
	ActionReuploadResume ActionKind = "reupload-resume"
)

// Trigger records what started an action run.
type Trigger string

const (
	TriggerHTTP     Trigger = "http"
	TriggerSchedule Trigger = "schedule"
	TriggerCLI      Trigger = "cli"
)

// RunStatus is the outcome of an action run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)
