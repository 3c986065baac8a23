package models

import (
	"encoding/json"
)

// TriggerConfig is implemented by one concrete shape per trigger type.
type TriggerConfig interface {
	TriggerType() TriggerType
	// ConditionExpr returns the optional expression gate ("" when unset).
	ConditionExpr() string
}

// OnCreateConfig configures on_create triggers.
type OnCreateConfig struct {
	Condition string `json:"condition,omitempty"`
}

func (OnCreateConfig) TriggerType() TriggerType { return TriggerOnCreate }
func (c OnCreateConfig) ConditionExpr() string  { return c.Condition }

// OnUpdateConfig configures on_update triggers.
type OnUpdateConfig struct {
	Condition string `json:"condition,omitempty"`
}

func (OnUpdateConfig) TriggerType() TriggerType { return TriggerOnUpdate }
func (c OnUpdateConfig) ConditionExpr() string  { return c.Condition }

// StatusChangeConfig fires when Field differs between snapshots.
type StatusChangeConfig struct {
	Field     string `json:"field"`
	Condition string `json:"condition,omitempty"`
}

func (StatusChangeConfig) TriggerType() TriggerType { return TriggerOnStatusChange }
func (c StatusChangeConfig) ConditionExpr() string  { return c.Condition }

// FieldChangeConfig fires when Field changes, or, when both OldValue and
// NewValue are set, only on that exact transition. JSON null counts as unset.
type FieldChangeConfig struct {
	Field     string      `json:"field"`
	OldValue  interface{} `json:"old_value,omitempty"`
	NewValue  interface{} `json:"new_value,omitempty"`
	Condition string      `json:"condition,omitempty"`
}

func (FieldChangeConfig) TriggerType() TriggerType { return TriggerOnFieldChange }
func (c FieldChangeConfig) ConditionExpr() string  { return c.Condition }

// HasTransition reports whether an exact old/new transition is configured.
func (c FieldChangeConfig) HasTransition() bool {
	return c.OldValue != nil && c.NewValue != nil
}

// ScheduledConfig is consumed by the cron scheduler, never by the evaluator.
type ScheduledConfig struct {
	Cron     string `json:"cron"`
	Timezone string `json:"timezone,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
}

func (ScheduledConfig) TriggerType() TriggerType { return TriggerScheduled }
func (ScheduledConfig) ConditionExpr() string    { return "" }

// UnknownTriggerConfig holds the config of an unrecognised trigger type so
// stored rows still decode; it never fires.
type UnknownTriggerConfig struct {
	Type TriggerType
	Raw  map[string]interface{}
}

func (c UnknownTriggerConfig) TriggerType() TriggerType { return c.Type }
func (UnknownTriggerConfig) ConditionExpr() string      { return "" }

// MarshalJSON writes the raw config back unchanged.
func (c UnknownTriggerConfig) MarshalJSON() ([]byte, error) {
	if c.Raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.Raw)
}

// DecodeTriggerConfig decodes raw JSON into the variant for t. Empty input
// yields the zero variant.
func DecodeTriggerConfig(t TriggerType, raw json.RawMessage) (TriggerConfig, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	var cfg TriggerConfig
	var err error
	switch t {
	case TriggerOnCreate:
		var c OnCreateConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case TriggerOnUpdate:
		var c OnUpdateConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case TriggerOnStatusChange:
		var c StatusChangeConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case TriggerOnFieldChange:
		var c FieldChangeConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case TriggerScheduled:
		var c ScheduledConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	default:
		c := UnknownTriggerConfig{Type: t}
		err = json.Unmarshal(raw, &c.Raw)
		cfg = c
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
