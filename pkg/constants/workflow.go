package constants

// Workflow execution statuses
const (
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
)

// Outcome labels used for logging and metrics
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// ReasonConditionsNotMet is recorded for workflows whose trigger did not fire.
const ReasonConditionsNotMet = "Conditions not met"

// Trigger config keys
const (
	ConfigField     = "field"
	ConfigOldValue  = "old_value"
	ConfigNewValue  = "new_value"
	ConfigCondition = "condition"
	ConfigCron      = "cron"
	ConfigTimezone  = "timezone"
	ConfigEntityID  = "entity_id"
)

// Action config keys
const (
	ConfigSubject     = "subject"
	ConfigDescription = "description"
	ConfigDueDate     = "due_date"
	ConfigDueInDays   = "due_in_days"
	ConfigPriority    = "priority"
	ConfigAssignedTo  = "assigned_to"
	ConfigTo          = "to"
	ConfigToField     = "to_field"
	ConfigTemplate    = "template"
	ConfigBody        = "body"
	ConfigValue       = "value"
	ConfigNoteText    = "note_text"
	ConfigUserID      = "user_id"
	ConfigURL         = "url"
	ConfigMethod      = "method"
	ConfigHeaders     = "headers"
)

// Schedule-related constants
const (
	ScheduleDefaultTimezone = "UTC"
	ScheduleMaxRuntimeMins  = 30
)

// SystemUserID is the acting user recorded for scheduler-driven runs.
const SystemUserID = "00000000-0000-0000-0000-000000000000"
