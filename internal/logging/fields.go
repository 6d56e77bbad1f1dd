package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCommand carries the NZBGet command (NZBCP_COMMAND) being served.
	FieldCommand = "command"
	// FieldSectionID and FieldSectionTitle identify a Plex library section.
	FieldSectionID    = "section_id"
	FieldSectionTitle = "section_title"
	// FieldCategory is the NZBGet category of the download.
	FieldCategory = "category"
	// FieldEventType classifies decision and failure log lines.
	FieldEventType = "event_type"
	// FieldErrorHint suggests an operator action.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)
