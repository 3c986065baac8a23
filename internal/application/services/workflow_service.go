package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/events"
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	apperrors "github.com/harshparashar-me/leadpilot-sub000/pkg/errors"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// WorkflowPatch is a partial update of a workflow. Nil fields are left as is.
type WorkflowPatch struct {
	Name          *string                  `json:"name,omitempty"`
	Description   *string                  `json:"description,omitempty"`
	TriggerType   *models.TriggerType      `json:"trigger_type,omitempty"`
	TriggerConfig json.RawMessage          `json:"trigger_config,omitempty"`
	Actions       *[]models.WorkflowAction `json:"actions,omitempty"`
	Enabled       *bool                    `json:"enabled,omitempty"`
}

// WorkflowService manages workflow definitions and their execution history.
type WorkflowService struct {
	store      ports.RecordStore
	bus        ports.EventPublisher
	conditions ports.ConditionValidator
	validate   *validator.Validate
}

// NewWorkflowService creates a workflow service. bus and conditions may be nil.
func NewWorkflowService(store ports.RecordStore, bus ports.EventPublisher, conditions ports.ConditionValidator) *WorkflowService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &WorkflowService{
		store:      store,
		bus:        bus,
		conditions: conditions,
		validate:   validate,
	}
}

// Create validates and stores a new workflow.
func (s *WorkflowService) Create(ctx context.Context, wf *models.Workflow, user *models.UserSession) (*models.Workflow, error) {
	if wf == nil {
		return nil, apperrors.NewValidationError("", "workflow is required")
	}
	wf.ID = ""
	if wf.TriggerConfig == nil && wf.TriggerType.IsValid() {
		cfg, err := models.DecodeTriggerConfig(wf.TriggerType, nil)
		if err != nil {
			return nil, apperrors.NewValidationError(constants.FieldWorkflowTriggerConfig, err.Error())
		}
		wf.TriggerConfig = cfg
	}
	if err := s.validateWorkflow(wf); err != nil {
		return nil, err
	}

	row, err := wf.ToSObject()
	if err != nil {
		return nil, apperrors.NewValidationError("", err.Error())
	}
	if uid := user.UserID(); uid != "" {
		row[constants.FieldCreatedBy] = uid
	}

	saved, err := s.store.Insert(ctx, constants.TableWorkflow, row)
	if err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	created, err := models.WorkflowFromSObject(saved)
	if err != nil {
		return nil, apperrors.NewInternalError("decode created workflow", err)
	}

	log.Printf("✅ Workflow created: %s (%s) %s/%s", created.Name, created.ID, created.EntityType, created.TriggerType)
	s.publishChanged(ctx, created.ID, false)
	return created, nil
}

// List returns workflows, newest first. An empty entityType lists all.
func (s *WorkflowService) List(ctx context.Context, entityType string) ([]*models.Workflow, error) {
	q := models.RecordQuery{
		SortField:     constants.FieldCreatedDate,
		SortDirection: constants.SortDESC,
	}
	if entityType != "" {
		q.Criteria = []models.QueryCriterion{models.Eq(constants.FieldWorkflowEntityType, entityType)}
	}

	rows, err := s.store.Select(ctx, constants.TableWorkflow, q)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	out := make([]*models.Workflow, 0, len(rows))
	for _, row := range rows {
		wf, err := models.WorkflowFromSObject(row)
		if err != nil {
			log.Printf("⚠️ Skipping undecodable workflow %s: %v", row.GetString(constants.FieldID), err)
			continue
		}
		out = append(out, wf)
	}
	return out, nil
}

// Get returns one workflow.
func (s *WorkflowService) Get(ctx context.Context, id string) (*models.Workflow, error) {
	rows, err := s.store.Select(ctx, constants.TableWorkflow, models.RecordQuery{
		Criteria: []models.QueryCriterion{models.Eq(constants.FieldID, id)},
		Limit:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError("Workflow", id)
	}
	wf, err := models.WorkflowFromSObject(rows[0])
	if err != nil {
		return nil, apperrors.NewInternalError("decode workflow", err)
	}
	return wf, nil
}

// Update applies patch to an existing workflow and revalidates it.
func (s *WorkflowService) Update(ctx context.Context, id string, patch WorkflowPatch) (*models.Workflow, error) {
	wf, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		wf.Name = *patch.Name
	}
	if patch.Description != nil {
		wf.Description = patch.Description
	}
	if patch.Actions != nil {
		wf.Actions = *patch.Actions
	}
	if patch.Enabled != nil {
		wf.Enabled = *patch.Enabled
	}

	typeChanged := patch.TriggerType != nil && *patch.TriggerType != wf.TriggerType
	if patch.TriggerType != nil {
		wf.TriggerType = *patch.TriggerType
	}
	if len(patch.TriggerConfig) > 0 || typeChanged {
		cfg, err := models.DecodeTriggerConfig(wf.TriggerType, patch.TriggerConfig)
		if err != nil {
			return nil, apperrors.NewValidationError(constants.FieldWorkflowTriggerConfig, err.Error())
		}
		wf.TriggerConfig = cfg
	}

	if err := s.validateWorkflow(wf); err != nil {
		return nil, err
	}

	row, err := wf.ToSObject()
	if err != nil {
		return nil, apperrors.NewValidationError("", err.Error())
	}
	delete(row, constants.FieldID)
	delete(row, constants.FieldCreatedBy)

	saved, err := s.store.Update(ctx, constants.TableWorkflow, row, []models.QueryCriterion{models.Eq(constants.FieldID, id)})
	if err != nil {
		return nil, fmt.Errorf("update workflow: %w", err)
	}
	updated, err := models.WorkflowFromSObject(saved)
	if err != nil {
		return nil, apperrors.NewInternalError("decode updated workflow", err)
	}

	log.Printf("✅ Workflow updated: %s (%s)", updated.Name, updated.ID)
	s.publishChanged(ctx, id, false)
	return updated, nil
}

// Toggle enables or disables a workflow.
func (s *WorkflowService) Toggle(ctx context.Context, id string, enabled bool) (*models.Workflow, error) {
	saved, err := s.store.Update(ctx, constants.TableWorkflow,
		models.SObject{constants.FieldWorkflowEnabled: enabled},
		[]models.QueryCriterion{models.Eq(constants.FieldID, id)},
	)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFoundError("Workflow", id)
		}
		return nil, fmt.Errorf("toggle workflow: %w", err)
	}
	wf, err := models.WorkflowFromSObject(saved)
	if err != nil {
		return nil, apperrors.NewInternalError("decode workflow", err)
	}

	log.Printf("🔄 Workflow %s (%s) enabled=%t", wf.Name, wf.ID, wf.Enabled)
	s.publishChanged(ctx, id, false)
	return wf, nil
}

// Delete removes a workflow. Its execution history is kept.
func (s *WorkflowService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, constants.TableWorkflow, []models.QueryCriterion{models.Eq(constants.FieldID, id)}); err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}

	log.Printf("✅ Workflow deleted: %s", id)
	s.publishChanged(ctx, id, true)
	return nil
}

// ListExecutions returns the newest executions of one workflow.
func (s *WorkflowService) ListExecutions(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	return s.listExecutions(ctx, limit, models.Eq(constants.FieldExecutionWorkflowID, workflowID))
}

// ListExecutionsForEntity returns the newest executions triggered by one record.
func (s *WorkflowService) ListExecutionsForEntity(ctx context.Context, entityType, entityID string, limit int) ([]*models.WorkflowExecution, error) {
	return s.listExecutions(ctx, limit,
		models.Eq(constants.FieldExecutionEntityType, entityType),
		models.Eq(constants.FieldExecutionEntityID, entityID),
	)
}

func (s *WorkflowService) listExecutions(ctx context.Context, limit int, criteria ...models.QueryCriterion) ([]*models.WorkflowExecution, error) {
	rows, err := s.store.Select(ctx, constants.TableWorkflowExecution, models.RecordQuery{
		Criteria:      criteria,
		SortField:     constants.FieldCreatedDate,
		SortDirection: constants.SortDESC,
		Limit:         clampLimit(limit, constants.DefaultExecPageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}

	out := make([]*models.WorkflowExecution, 0, len(rows))
	for _, row := range rows {
		exec, err := models.ExecutionFromSObject(row)
		if err != nil {
			log.Printf("⚠️ Skipping undecodable execution %s: %v", row.GetString(constants.FieldID), err)
			continue
		}
		out = append(out, exec)
	}
	return out, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > constants.MaxQueryLimit {
		return constants.MaxQueryLimit
	}
	return limit
}

func (s *WorkflowService) validateWorkflow(wf *models.Workflow) error {
	if err := s.validate.Struct(wf); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.NewValidationError(validationField(fe.Namespace()), fmt.Sprintf("failed '%s' validation", fe.Tag()))
		}
		return apperrors.NewValidationError("", err.Error())
	}

	if !constants.IsEntityType(wf.EntityType) {
		return apperrors.NewValidationError(constants.FieldWorkflowEntityType, fmt.Sprintf("unknown entity type '%s'", wf.EntityType))
	}
	if !wf.TriggerType.IsValid() {
		return apperrors.NewValidationError(constants.FieldWorkflowTriggerType, fmt.Sprintf("unknown trigger type '%s'", wf.TriggerType))
	}
	if wf.TriggerConfig == nil || wf.TriggerConfig.TriggerType() != wf.TriggerType {
		return apperrors.NewValidationError(constants.FieldWorkflowTriggerConfig, "trigger config does not match trigger type")
	}

	if cond := wf.TriggerConfig.ConditionExpr(); cond != "" && s.conditions != nil {
		if err := s.conditions.Validate(cond); err != nil {
			return apperrors.NewValidationError(constants.ConfigCondition, err.Error())
		}
	}

	switch cfg := wf.TriggerConfig.(type) {
	case models.ScheduledConfig:
		if _, err := ParseSchedule(cfg); err != nil {
			return apperrors.NewValidationError(constants.ConfigCron, err.Error())
		}
		if strings.TrimSpace(cfg.EntityID) == "" {
			for _, a := range wf.Actions {
				if targetsEntity(a.Type) {
					return apperrors.NewValidationError(constants.ConfigEntityID,
						fmt.Sprintf("scheduled workflow with a %s action needs an entity_id", a.Type))
				}
			}
		}
	case models.StatusChangeConfig:
		if cfg.Field == "" {
			log.Printf("⚠️ Workflow %s: on_status_change without 'field' will never fire", wf.Name)
		}
	case models.FieldChangeConfig:
		if cfg.Field == "" {
			log.Printf("⚠️ Workflow %s: on_field_change without 'field' will never fire", wf.Name)
		} else if (cfg.OldValue == nil) != (cfg.NewValue == nil) {
			log.Printf("⚠️ Workflow %s: only one of old_value/new_value set, any change of '%s' fires", wf.Name, cfg.Field)
		}
	}

	for i, a := range wf.Actions {
		if strings.TrimSpace(string(a.Type)) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("actions[%d].type", i), "action type is required")
		}
		if _, unknown := a.Config.(models.UnknownActionConfig); unknown {
			log.Printf("⚠️ Workflow %s: action %d has unknown type '%s' and will fail at run time", wf.Name, i, a.Type)
		}
	}
	return nil
}

// targetsEntity reports whether an action reads or writes the triggering
// record, so it cannot run without an entity id.
func targetsEntity(t models.ActionType) bool {
	switch t {
	case models.ActionCreateTask, models.ActionCreateNote, models.ActionUpdateField, models.ActionAssignTo:
		return true
	}
	return false
}

// validationField turns "Workflow.actions[0].type" into "actions[0].type".
func validationField(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func (s *WorkflowService) publishChanged(ctx context.Context, id string, deleted bool) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.WorkflowChanged, events.WorkflowEvent{WorkflowID: id, Deleted: deleted}); err != nil {
		log.Printf("⚠️ workflow.changed handlers failed for %s: %v", id, err)
	}
}
