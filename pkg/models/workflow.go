package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TriggerType is the event category that may start workflow evaluation.
type TriggerType string

const (
	TriggerOnCreate       TriggerType = "on_create"
	TriggerOnUpdate       TriggerType = "on_update"
	TriggerOnStatusChange TriggerType = "on_status_change"
	TriggerOnFieldChange  TriggerType = "on_field_change"
	TriggerScheduled      TriggerType = "scheduled"
)

// IsValid reports whether t is a known trigger type.
func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerOnCreate, TriggerOnUpdate, TriggerOnStatusChange, TriggerOnFieldChange, TriggerScheduled:
		return true
	}
	return false
}

// UpdateTriggerTypes are evaluated for every record update.
func UpdateTriggerTypes() []TriggerType {
	return []TriggerType{TriggerOnUpdate, TriggerOnStatusChange, TriggerOnFieldChange}
}

// Workflow is a stored automation rule.
type Workflow struct {
	ID               string           `json:"id"`
	Name             string           `json:"name" validate:"required,max=255"`
	Description      *string          `json:"description,omitempty"`
	EntityType       string           `json:"entity_type" validate:"required"`
	TriggerType      TriggerType      `json:"trigger_type" validate:"required"`
	TriggerConfig    TriggerConfig    `json:"trigger_config"`
	Actions          []WorkflowAction `json:"actions" validate:"required,min=1,dive"`
	Enabled          bool             `json:"enabled"`
	CreatedBy        string           `json:"created_by,omitempty"`
	CreatedDate      *time.Time       `json:"created_date,omitempty"`
	LastModifiedDate *time.Time       `json:"last_modified_date,omitempty"`
}

// UnmarshalJSON decodes trigger_config into the variant selected by trigger_type.
func (w *Workflow) UnmarshalJSON(data []byte) error {
	type alias Workflow
	aux := struct {
		*alias
		TriggerConfig json.RawMessage `json:"trigger_config"`
	}{alias: (*alias)(w)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	cfg, err := DecodeTriggerConfig(w.TriggerType, aux.TriggerConfig)
	if err != nil {
		return err
	}
	w.TriggerConfig = cfg
	return nil
}

// WorkflowAction is one step of a workflow.
type WorkflowAction struct {
	Type   ActionType   `json:"type" validate:"required"`
	Config ActionConfig `json:"config"`
}

// UnmarshalJSON decodes config into the variant selected by type.
func (a *WorkflowAction) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type   ActionType      `json:"type"`
		Config json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	cfg, err := DecodeActionConfig(aux.Type, aux.Config)
	if err != nil {
		return fmt.Errorf("action %q: %w", aux.Type, err)
	}
	a.Type = aux.Type
	a.Config = cfg
	return nil
}

// TriggerData is the before/after snapshot pair passed into one evaluation.
// A nil snapshot means the snapshot is absent.
type TriggerData struct {
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id"`
	OldValues  SObject `json:"old_values"`
	NewValues  SObject `json:"new_values"`
	UserID     string  `json:"user_id,omitempty"`
}

// ActionResult is the outcome of one dispatched action. Handler output keys
// are flattened next to action/success/error on the wire.
type ActionResult struct {
	Action  ActionType
	Success bool
	Error   string
	Output  map[string]interface{}
}

// MarshalJSON flattens Output into the result object.
func (r ActionResult) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Output)+3)
	for k, v := range r.Output {
		m[k] = v
	}
	m["action"] = r.Action
	m["success"] = r.Success
	if r.Error != "" {
		m["error"] = r.Error
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the flattened object back into its parts.
func (r *ActionResult) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	if v, ok := m["action"].(string); ok {
		r.Action = ActionType(v)
	}
	if v, ok := m["success"].(bool); ok {
		r.Success = v
	}
	if v, ok := m["error"].(string); ok {
		r.Error = v
	}
	delete(m, "action")
	delete(m, "success")
	delete(m, "error")
	if len(m) > 0 {
		r.Output = m
	}
	return nil
}

// WorkflowExecution is the append-only audit row for one workflow run.
type WorkflowExecution struct {
	ID              string         `json:"id"`
	WorkflowID      string         `json:"workflow_id"`
	EntityType      string         `json:"entity_type"`
	EntityID        string         `json:"entity_id"`
	TriggerData     TriggerData    `json:"trigger_data"`
	Results         []ActionResult `json:"results"`
	Status          string         `json:"status"`
	ErrorMessage    *string        `json:"error_message,omitempty"`
	ExecutionTimeMS int64          `json:"execution_time_ms"`
	CreatedDate     *time.Time     `json:"created_date,omitempty"`
}
