package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/events"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	apperrors "github.com/harshparashar-me/leadpilot-sub000/pkg/errors"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/expression"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

func newTestWorkflowService(t *testing.T) (*WorkflowService, *EventBus, *[]events.WorkflowEvent) {
	t.Helper()
	bus := NewEventBus(4, nil)
	var changes []events.WorkflowEvent
	bus.Subscribe(events.WorkflowChanged, func(ctx context.Context, payload interface{}) error {
		changes = append(changes, payload.(events.WorkflowEvent))
		return nil
	})
	return NewWorkflowService(newMemoryStore(), bus, expression.NewEngine()), bus, &changes
}

func TestWorkflowService_Create(t *testing.T) {
	svc, _, changes := newTestWorkflowService(t)

	created, err := svc.Create(context.Background(),
		newWorkflow("Welcome", "lead", models.OnCreateConfig{}, createTask("Say hi")),
		GetTestUser("user-1"))

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user-1", created.CreatedBy)
	assert.True(t, created.Enabled)
	assert.Equal(t, models.OnCreateConfig{}, created.TriggerConfig)
	require.Len(t, created.Actions, 1)
	assert.Equal(t, models.CreateTaskConfig{Subject: "Say hi"}, created.Actions[0].Config)
	assert.NotNil(t, created.CreatedDate)
	assert.Equal(t, []events.WorkflowEvent{{WorkflowID: created.ID}}, *changes)
}

func TestWorkflowService_CreateFillsMissingTriggerConfig(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	wf := &models.Workflow{
		Name:        "Status",
		EntityType:  "deal",
		TriggerType: models.TriggerOnStatusChange,
		Actions:     []models.WorkflowAction{createTask("Moved")},
	}

	created, err := svc.Create(context.Background(), wf, nil)

	require.NoError(t, err)
	assert.Equal(t, models.StatusChangeConfig{}, created.TriggerConfig)
	assert.Empty(t, created.CreatedBy)
}

func TestWorkflowService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		wf    *models.Workflow
		field string
	}{
		{
			name:  "missing name",
			wf:    newWorkflow("", "lead", models.OnCreateConfig{}, createTask("x")),
			field: "name",
		},
		{
			name:  "no actions",
			wf:    newWorkflow("No actions", "lead", models.OnCreateConfig{}),
			field: "actions",
		},
		{
			name:  "unknown entity",
			wf:    newWorkflow("Ships", "spaceship", models.OnCreateConfig{}, createTask("x")),
			field: constants.FieldWorkflowEntityType,
		},
		{
			name: "unknown trigger",
			wf: &models.Workflow{
				Name:        "Magic",
				EntityType:  "lead",
				TriggerType: "on_magic",
				Actions:     []models.WorkflowAction{createTask("x")},
			},
			field: constants.FieldWorkflowTriggerType,
		},
		{
			name:  "empty action type",
			wf:    newWorkflow("Empty", "lead", models.OnCreateConfig{}, models.WorkflowAction{}),
			field: "actions[0].type",
		},
		{
			name:  "bad condition",
			wf:    newWorkflow("Cond", "lead", models.OnCreateConfig{Condition: "status =="}, createTask("x")),
			field: constants.ConfigCondition,
		},
		{
			name:  "bad cron",
			wf:    newWorkflow("Cron", "lead", models.ScheduledConfig{Cron: "whenever"}, createTask("x")),
			field: constants.ConfigCron,
		},
		{
			name:  "scheduled record action without entity",
			wf:    newWorkflow("Nightly", "lead", models.ScheduledConfig{Cron: "0 2 * * *"}, createTask("x")),
			field: constants.ConfigEntityID,
		},
		{
			name:  "config of another trigger type",
			wf:    &models.Workflow{Name: "Mixed", EntityType: "lead", TriggerType: models.TriggerOnUpdate, TriggerConfig: models.OnCreateConfig{}, Actions: []models.WorkflowAction{createTask("x")}},
			field: constants.FieldWorkflowTriggerConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, changes := newTestWorkflowService(t)

			_, err := svc.Create(context.Background(), tt.wf, GetTestUser("user-1"))

			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, *changes)
		})
	}
}

func TestWorkflowService_ScheduledWithoutEntityAllowsWebhookOnly(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)

	created, err := svc.Create(context.Background(),
		newWorkflow("Nightly ping", "lead", models.ScheduledConfig{Cron: "0 2 * * *"},
			models.WorkflowAction{Type: models.ActionWebhook, Config: models.WebhookConfig{URL: "https://hooks.example.com/nightly"}},
		), nil)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledConfig{Cron: "0 2 * * *"}, created.TriggerConfig)

	created, err = svc.Create(context.Background(),
		newWorkflow("Nightly review", "lead", models.ScheduledConfig{Cron: "0 2 * * *", EntityID: "lead-7"}, createTask("Review")), nil)
	require.NoError(t, err)
	assert.Equal(t, "lead-7", created.TriggerConfig.(models.ScheduledConfig).EntityID)
}

func TestWorkflowService_CreateAcceptsIncompleteTriggerConfig(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)

	created, err := svc.Create(context.Background(),
		newWorkflow("No field", "lead", models.FieldChangeConfig{}, createTask("x")), nil)

	require.NoError(t, err)
	assert.Equal(t, models.FieldChangeConfig{}, created.TriggerConfig)
}

func TestWorkflowService_GetAndList(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, newWorkflow("Lead", "lead", models.OnCreateConfig{}, createTask("x")), nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, newWorkflow("Deal", "deal", models.OnCreateConfig{}, createTask("y")), nil)
	require.NoError(t, err)

	got, err := svc.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead", got.Name)

	_, err = svc.Get(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	leads, err := svc.List(ctx, "lead")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, lead.ID, leads[0].ID)
}

func TestWorkflowService_Update(t *testing.T) {
	svc, _, changes := newTestWorkflowService(t)
	ctx := context.Background()
	wf, err := svc.Create(ctx, newWorkflow("Lead", "lead", models.OnCreateConfig{}, createTask("x")), GetTestUser("user-1"))
	require.NoError(t, err)

	name := "Lead status"
	trigger := models.TriggerOnStatusChange
	updated, err := svc.Update(ctx, wf.ID, WorkflowPatch{
		Name:          &name,
		TriggerType:   &trigger,
		TriggerConfig: json.RawMessage(`{"field":"status"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "Lead status", updated.Name)
	assert.Equal(t, models.TriggerOnStatusChange, updated.TriggerType)
	assert.Equal(t, models.StatusChangeConfig{Field: "status"}, updated.TriggerConfig)
	assert.Equal(t, "user-1", updated.CreatedBy)
	assert.Len(t, *changes, 2)

	empty := ""
	_, err = svc.Update(ctx, wf.ID, WorkflowPatch{Name: &empty})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Update(ctx, "missing", WorkflowPatch{Name: &name})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestWorkflowService_UpdateTriggerTypeResetsConfig(t *testing.T) {
	svc, _, _ := newTestWorkflowService(t)
	ctx := context.Background()
	wf, err := svc.Create(ctx, newWorkflow("Status", "lead", models.StatusChangeConfig{Field: "status"}, createTask("x")), nil)
	require.NoError(t, err)

	trigger := models.TriggerOnUpdate
	updated, err := svc.Update(ctx, wf.ID, WorkflowPatch{TriggerType: &trigger})

	require.NoError(t, err)
	assert.Equal(t, models.OnUpdateConfig{}, updated.TriggerConfig)
}

func TestWorkflowService_ToggleAndDelete(t *testing.T) {
	svc, _, changes := newTestWorkflowService(t)
	ctx := context.Background()
	wf, err := svc.Create(ctx, newWorkflow("Lead", "lead", models.OnCreateConfig{}, createTask("x")), nil)
	require.NoError(t, err)

	toggled, err := svc.Toggle(ctx, wf.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	_, err = svc.Toggle(ctx, "missing", true)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, wf.ID))
	_, err = svc.Get(ctx, wf.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, wf.ID)))

	last := (*changes)[len(*changes)-1]
	assert.Equal(t, events.WorkflowEvent{WorkflowID: wf.ID, Deleted: true}, last)
}

func TestWorkflowService_ListExecutions(t *testing.T) {
	store := newMemoryStore()
	svc := NewWorkflowService(store, nil, nil)
	ctx := context.Background()

	insertExec := func(workflowID, entityID string) {
		row, err := (&models.WorkflowExecution{
			WorkflowID: workflowID,
			EntityType: "lead",
			EntityID:   entityID,
			Status:     constants.ExecutionStatusCompleted,
		}).ToSObject()
		require.NoError(t, err)
		_, err = store.Insert(ctx, constants.TableWorkflowExecution, row)
		require.NoError(t, err)
	}
	insertExec("wf-a", "lead-1")
	insertExec("wf-a", "lead-2")
	insertExec("wf-a", "lead-1")
	insertExec("wf-b", "lead-1")

	all, err := svc.ListExecutions(ctx, "wf-a", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := svc.ListExecutions(ctx, "wf-a", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	forLead, err := svc.ListExecutionsForEntity(ctx, "lead", "lead-1", 10)
	require.NoError(t, err)
	assert.Len(t, forLead, 3)
	for _, exec := range forLead {
		assert.Equal(t, "lead-1", exec.EntityID)
		assert.NotNil(t, exec.Results)
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(0, 50))
	assert.Equal(t, 50, clampLimit(-3, 50))
	assert.Equal(t, 7, clampLimit(7, 50))
	assert.Equal(t, constants.MaxQueryLimit, clampLimit(constants.MaxQueryLimit+1, 50))
}
