package models

import (
	"encoding/json"
)

// ActionType is one of the fixed side-effect kinds a workflow step performs.
type ActionType string

const (
	ActionCreateTask  ActionType = "create_task"
	ActionSendEmail   ActionType = "send_email"
	ActionUpdateField ActionType = "update_field"
	ActionCreateNote  ActionType = "create_note"
	ActionAssignTo    ActionType = "assign_to"
	ActionWebhook     ActionType = "webhook"
)

// ActionConfig is implemented by one concrete shape per action type.
type ActionConfig interface {
	ActionType() ActionType
}

// CreateTaskConfig inserts a follow-up task linked to the triggering entity.
type CreateTaskConfig struct {
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	DueInDays   *int   `json:"due_in_days,omitempty"`
	Priority    string `json:"priority,omitempty"`
	AssignedTo  string `json:"assigned_to,omitempty"`
}

func (CreateTaskConfig) ActionType() ActionType { return ActionCreateTask }

// SendEmailConfig hands a message to the email sender. ToField names a field
// of the new snapshot holding the recipient when To is empty.
type SendEmailConfig struct {
	To       string `json:"to,omitempty"`
	ToField  string `json:"to_field,omitempty"`
	Template string `json:"template,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Body     string `json:"body,omitempty"`
}

func (SendEmailConfig) ActionType() ActionType { return ActionSendEmail }

// UpdateFieldConfig sets Field to Value on the triggering entity.
type UpdateFieldConfig struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

func (UpdateFieldConfig) ActionType() ActionType { return ActionUpdateField }

// CreateNoteConfig inserts a note linked to the triggering entity.
type CreateNoteConfig struct {
	NoteText string `json:"note_text"`
}

func (CreateNoteConfig) ActionType() ActionType { return ActionCreateNote }

// AssignToConfig reassigns the triggering entity.
type AssignToConfig struct {
	UserID string `json:"user_id"`
}

func (AssignToConfig) ActionType() ActionType { return ActionAssignTo }

// WebhookConfig calls an external URL with the trigger data as payload.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (WebhookConfig) ActionType() ActionType { return ActionWebhook }

// UnknownActionConfig keeps an unrecognised action decodable so the
// dispatcher can report it instead of rejecting the whole workflow.
type UnknownActionConfig struct {
	Type ActionType
	Raw  map[string]interface{}
}

func (c UnknownActionConfig) ActionType() ActionType { return c.Type }

// MarshalJSON writes the raw config back unchanged.
func (c UnknownActionConfig) MarshalJSON() ([]byte, error) {
	if c.Raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.Raw)
}

// DecodeActionConfig decodes raw JSON into the variant for t.
func DecodeActionConfig(t ActionType, raw json.RawMessage) (ActionConfig, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	var cfg ActionConfig
	var err error
	switch t {
	case ActionCreateTask:
		var c CreateTaskConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case ActionSendEmail:
		var c SendEmailConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case ActionUpdateField:
		var c UpdateFieldConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case ActionCreateNote:
		var c CreateNoteConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case ActionAssignTo:
		var c AssignToConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case ActionWebhook:
		var c WebhookConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	default:
		c := UnknownActionConfig{Type: t}
		err = json.Unmarshal(raw, &c.Raw)
		cfg = c
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
