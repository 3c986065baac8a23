package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/utils"
)

// Row column names shared by both record stores.
const (
	colID               = "id"
	colName             = "name"
	colDescription      = "description"
	colEntityType       = "entity_type"
	colEntityID         = "entity_id"
	colTriggerType      = "trigger_type"
	colTriggerConfig    = "trigger_config"
	colActions          = "actions"
	colEnabled          = "enabled"
	colCreatedBy        = "created_by"
	colCreatedDate      = "created_date"
	colLastModifiedDate = "last_modified_date"
	colWorkflowID       = "workflow_id"
	colTriggerData      = "trigger_data"
	colResults          = "results"
	colStatus           = "status"
	colErrorMessage     = "error_message"
	colExecutionTimeMS  = "execution_time_ms"
)

func encodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToSObject converts a workflow into a row. JSON columns are encoded as text
// so every store persists them identically.
func (w *Workflow) ToSObject() (SObject, error) {
	triggerConfig := w.TriggerConfig
	if triggerConfig == nil {
		triggerConfig = UnknownTriggerConfig{Type: w.TriggerType}
	}
	cfg, err := encodeJSON(triggerConfig)
	if err != nil {
		return nil, fmt.Errorf("encode trigger_config: %w", err)
	}
	actions, err := encodeJSON(w.Actions)
	if err != nil {
		return nil, fmt.Errorf("encode actions: %w", err)
	}

	row := SObject{
		colName:          w.Name,
		colEntityType:    w.EntityType,
		colTriggerType:   string(w.TriggerType),
		colTriggerConfig: cfg,
		colActions:       actions,
		colEnabled:       w.Enabled,
	}
	if w.ID != "" {
		row[colID] = w.ID
	}
	if w.Description != nil {
		row[colDescription] = *w.Description
	}
	if w.CreatedBy != "" {
		row[colCreatedBy] = w.CreatedBy
	}
	return row, nil
}

// WorkflowFromSObject decodes a workflows row.
func WorkflowFromSObject(row SObject) (*Workflow, error) {
	w := &Workflow{
		ID:          row.GetString(colID),
		Name:        row.GetString(colName),
		EntityType:  row.GetString(colEntityType),
		TriggerType: TriggerType(row.GetString(colTriggerType)),
		Enabled:     utils.ToBool(row[colEnabled]),
		CreatedBy:   row.GetString(colCreatedBy),
	}
	if desc, ok := row[colDescription]; ok && desc != nil {
		s := utils.ToString(desc)
		w.Description = &s
	}

	var rawConfig json.RawMessage
	if err := utils.DecodeJSONValue(row[colTriggerConfig], &rawConfig); err != nil {
		return nil, fmt.Errorf("workflow %s: decode trigger_config: %w", w.ID, err)
	}
	cfg, err := DecodeTriggerConfig(w.TriggerType, rawConfig)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: decode trigger_config: %w", w.ID, err)
	}
	w.TriggerConfig = cfg

	if err := utils.DecodeJSONValue(row[colActions], &w.Actions); err != nil {
		return nil, fmt.Errorf("workflow %s: decode actions: %w", w.ID, err)
	}

	w.CreatedDate = timePtr(row.GetTime(colCreatedDate))
	w.LastModifiedDate = timePtr(row.GetTime(colLastModifiedDate))
	return w, nil
}

// ToSObject converts an execution into a workflow_executions row.
func (e *WorkflowExecution) ToSObject() (SObject, error) {
	triggerData, err := encodeJSON(e.TriggerData)
	if err != nil {
		return nil, fmt.Errorf("encode trigger_data: %w", err)
	}
	results := e.Results
	if results == nil {
		results = []ActionResult{}
	}
	encodedResults, err := encodeJSON(results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}

	row := SObject{
		colWorkflowID:      e.WorkflowID,
		colEntityType:      e.EntityType,
		colEntityID:        e.EntityID,
		colTriggerData:     triggerData,
		colResults:         encodedResults,
		colStatus:          e.Status,
		colExecutionTimeMS: e.ExecutionTimeMS,
	}
	if e.ID != "" {
		row[colID] = e.ID
	}
	if e.ErrorMessage != nil {
		row[colErrorMessage] = *e.ErrorMessage
	}
	return row, nil
}

// ExecutionFromSObject decodes a workflow_executions row.
func ExecutionFromSObject(row SObject) (*WorkflowExecution, error) {
	e := &WorkflowExecution{
		ID:         row.GetString(colID),
		WorkflowID: row.GetString(colWorkflowID),
		EntityType: row.GetString(colEntityType),
		EntityID:   row.GetString(colEntityID),
		Status:     row.GetString(colStatus),
	}
	if msg, ok := row[colErrorMessage]; ok && msg != nil {
		s := utils.ToString(msg)
		e.ErrorMessage = &s
	}
	if ms, ok := utils.ToInt(row[colExecutionTimeMS]); ok {
		e.ExecutionTimeMS = int64(ms)
	}
	if err := utils.DecodeJSONValue(row[colTriggerData], &e.TriggerData); err != nil {
		return nil, fmt.Errorf("execution %s: decode trigger_data: %w", e.ID, err)
	}
	if err := utils.DecodeJSONValue(row[colResults], &e.Results); err != nil {
		return nil, fmt.Errorf("execution %s: decode results: %w", e.ID, err)
	}
	e.CreatedDate = timePtr(row.GetTime(colCreatedDate))
	return e, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
