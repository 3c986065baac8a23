package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/events"
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/internal/infrastructure/persistence"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/expression"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// GetTestUser returns a UserSession for tests.
func GetTestUser(id string) *models.UserSession {
	return &models.UserSession{
		ID:        id,
		Name:      "Test User " + id,
		ProfileID: "standard_user",
	}
}

// stubAction is an ActionHandler backed by a function.
type stubAction struct {
	actionType models.ActionType
	fn         func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error)
}

func (s *stubAction) Type() models.ActionType { return s.actionType }

func (s *stubAction) Execute(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
	return s.fn(ctx, cfg, data)
}

// recordingEmailSender captures sent messages.
type recordingEmailSender struct {
	mu   sync.Mutex
	sent []ports.EmailMessage
	err  error
}

func (r *recordingEmailSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingEmailSender) messages() []ports.EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.EmailMessage(nil), r.sent...)
}

// fakeConditions is a scripted ConditionEvaluator.
type fakeConditions struct {
	result  bool
	err     error
	calls   int
	lastEnv map[string]interface{}
}

func (f *fakeConditions) EvaluateCondition(expr string, env map[string]interface{}) (bool, error) {
	f.calls++
	f.lastEnv = env
	return f.result, f.err
}

// recordingPublisher captures async events without running handlers.
type recordingPublisher struct {
	mu     sync.Mutex
	async  []publishedEvent
	reject bool
}

type publishedEvent struct {
	eventType events.EventType
	payload   interface{}
}

func (p *recordingPublisher) Subscribe(events.EventType, ports.EventHandler) func() { return func() {} }

func (p *recordingPublisher) Publish(context.Context, events.EventType, interface{}) error {
	return nil
}

func (p *recordingPublisher) PublishAsync(eventType events.EventType, payload interface{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.async = append(p.async, publishedEvent{eventType: eventType, payload: payload})
	return true
}

func (p *recordingPublisher) events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.async...)
}

// failingStore makes Select fail while delegating everything else.
type failingStore struct {
	ports.RecordStore
	selectErr error
}

func (f *failingStore) Select(ctx context.Context, collection string, q models.RecordQuery) ([]models.SObject, error) {
	return nil, f.selectErr
}

// newTestEngine builds an engine over store with the default actions, a
// recording email sender and any extra handlers.
func newTestEngine(store ports.RecordStore, extra ...ActionHandler) (*WorkflowEngine, *recordingEmailSender) {
	email := &recordingEmailSender{}
	registry := NewActionHandlerRegistry()
	RegisterDefaultActions(registry, store, email, nil)
	for _, h := range extra {
		registry.Register(h)
	}
	dispatcher := NewActionDispatcher(registry, time.Second, nil)
	return NewWorkflowEngine(store, NewTriggerEvaluator(expression.NewEngine()), dispatcher, nil), email
}

func newWorkflow(name, entityType string, cfg models.TriggerConfig, actions ...models.WorkflowAction) *models.Workflow {
	return &models.Workflow{
		Name:          name,
		EntityType:    entityType,
		TriggerType:   cfg.TriggerType(),
		TriggerConfig: cfg,
		Actions:       actions,
		Enabled:       true,
	}
}

func createTask(subject string) models.WorkflowAction {
	return models.WorkflowAction{Type: models.ActionCreateTask, Config: models.CreateTaskConfig{Subject: subject}}
}

// seedWorkflow stores wf directly, bypassing WorkflowService validation.
func seedWorkflow(t *testing.T, store ports.RecordStore, wf *models.Workflow) *models.Workflow {
	t.Helper()
	row, err := wf.ToSObject()
	require.NoError(t, err)
	saved, err := store.Insert(context.Background(), constants.TableWorkflow, row)
	require.NoError(t, err)
	wf.ID = saved.GetString(constants.FieldID)
	return wf
}

func selectAll(t *testing.T, store ports.RecordStore, collection string, criteria ...models.QueryCriterion) []models.SObject {
	t.Helper()
	rows, err := store.Select(context.Background(), collection, models.RecordQuery{Criteria: criteria})
	require.NoError(t, err)
	return rows
}

func executions(t *testing.T, store ports.RecordStore) []*models.WorkflowExecution {
	t.Helper()
	var out []*models.WorkflowExecution
	for _, row := range selectAll(t, store, constants.TableWorkflowExecution) {
		exec, err := models.ExecutionFromSObject(row)
		require.NoError(t, err)
		out = append(out, exec)
	}
	return out
}

func newMemoryStore() *persistence.MemoryRecordStore {
	return persistence.NewMemoryRecordStore()
}
