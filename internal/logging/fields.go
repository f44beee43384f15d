package logging

// Standardized attribute keys used across the daemon.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldJobID     = "job_id"
	FieldJobType   = "job_type"
	FieldStage     = "stage"
	FieldProgress  = "progress"
	FieldErrorHint = "error_hint"
)
