package constants

// Common system fields
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldCreatedDate      = "created_date"
	FieldLastModifiedDate = "last_modified_date"
	FieldCreatedBy        = "created_by"
	FieldStatus           = "status"
	FieldAssignedTo       = "assigned_to"
	FieldEmail            = "email"
	FieldMessage          = "message"
)

// Workflow fields
const (
	FieldWorkflowName          = "name"
	FieldWorkflowDescription   = "description"
	FieldWorkflowEntityType    = "entity_type"
	FieldWorkflowTriggerType   = "trigger_type"
	FieldWorkflowTriggerConfig = "trigger_config"
	FieldWorkflowActions       = "actions"
	FieldWorkflowEnabled       = "enabled"
)

// Workflow execution fields
const (
	FieldExecutionWorkflowID = "workflow_id"
	FieldExecutionEntityType = "entity_type"
	FieldExecutionEntityID   = "entity_id"
	FieldExecutionTrigger    = "trigger_data"
	FieldExecutionResults    = "results"
	FieldExecutionStatus     = "status"
	FieldExecutionError      = "error_message"
	FieldExecutionTimeMS     = "execution_time_ms"
)

// Task and note fields written by workflow actions
const (
	FieldTaskSubject     = "subject"
	FieldTaskDescription = "description"
	FieldTaskDueDate     = "due_date"
	FieldTaskPriority    = "priority"
	FieldRelatedToType   = "related_to_type"
	FieldRelatedToID     = "related_to_id"
	FieldNoteContent     = "content"
)

// Task defaults
const (
	TaskStatusPending   = "pending"
	TaskPriorityMedium  = "medium"
	DateLayout          = "2006-01-02"
	DefaultQueryLimit   = 100
	MaxQueryLimit       = 1000
	DefaultExecPageSize = 50
)
