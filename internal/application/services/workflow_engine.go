package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain"
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/events"
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/utils"
)

// TriggerRequest describes one record occurrence that may start workflows.
type TriggerRequest struct {
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	TriggerType models.TriggerType `json:"trigger_type"`
	OldValues   models.SObject     `json:"old_values,omitempty"`
	NewValues   models.SObject     `json:"new_values,omitempty"`
	// ActingUser is the user whose change caused the occurrence; nil for
	// system events.
	ActingUser *models.UserSession `json:"-"`
}

// WorkflowOutcome is the in-memory result of one candidate workflow.
type WorkflowOutcome struct {
	WorkflowID   string                    `json:"workflow_id"`
	WorkflowName string                    `json:"workflow_name"`
	Executed     bool                      `json:"executed"`
	Reason       string                    `json:"reason,omitempty"`
	State        domain.RunState           `json:"state"`
	Execution    *models.WorkflowExecution `json:"execution,omitempty"`
	Error        string                    `json:"error,omitempty"`
	Err          error                     `json:"-"`
}

// WorkflowEngine loads candidate workflows for an occurrence, evaluates
// them, dispatches their actions and writes the execution audit trail.
type WorkflowEngine struct {
	store      ports.RecordStore
	evaluator  *TriggerEvaluator
	dispatcher *ActionDispatcher
	metrics    *WorkflowMetrics
	states     *domain.RunStateMachine
	now        func() time.Time
}

// NewWorkflowEngine creates an engine.
func NewWorkflowEngine(store ports.RecordStore, evaluator *TriggerEvaluator, dispatcher *ActionDispatcher, metrics *WorkflowMetrics) *WorkflowEngine {
	return &WorkflowEngine{
		store:      store,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		metrics:    metrics,
		states:     domain.NewRunStateMachine(),
		now:        time.Now,
	}
}

// TriggerWorkflows runs every enabled workflow of req.EntityType whose
// trigger type matches. Candidates run concurrently; one failing never
// affects another. Failures are reported in the outcomes and logs, never
// returned, so callers can treat triggering as fire-and-forget.
func (e *WorkflowEngine) TriggerWorkflows(ctx context.Context, req TriggerRequest) []WorkflowOutcome {
	candidates, err := e.loadCandidates(ctx, req.EntityType, req.TriggerType)
	if err != nil {
		log.Printf("❌ Workflow lookup failed for %s %s (%s): %v", req.EntityType, req.EntityID, req.TriggerType, err)
		return []WorkflowOutcome{}
	}
	if len(candidates) == 0 {
		return []WorkflowOutcome{}
	}

	data := models.TriggerData{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		OldValues:  req.OldValues,
		NewValues:  req.NewValues,
		UserID:     req.ActingUser.UserID(),
	}

	outcomes := make([]WorkflowOutcome, len(candidates))
	var wg sync.WaitGroup
	for i, wf := range candidates {
		wg.Add(1)
		go func(i int, wf *models.Workflow) {
			defer wg.Done()
			outcomes[i] = e.runCandidate(ctx, wf, data, true)
		}(i, wf)
	}
	wg.Wait()

	return outcomes
}

// RunScheduled executes a scheduled workflow's actions without trigger
// evaluation and records the execution.
func (e *WorkflowEngine) RunScheduled(ctx context.Context, wf *models.Workflow) WorkflowOutcome {
	data := models.TriggerData{
		EntityType: wf.EntityType,
		UserID:     constants.SystemUserID,
	}
	if cfg, ok := wf.TriggerConfig.(models.ScheduledConfig); ok {
		data.EntityID = cfg.EntityID
	}
	return e.runCandidate(ctx, wf, data, false)
}

// loadCandidates selects workflows of entityType and keeps the enabled
// ones of triggerType. Rows that fail to decode are logged and skipped.
func (e *WorkflowEngine) loadCandidates(ctx context.Context, entityType string, triggerType models.TriggerType) ([]*models.Workflow, error) {
	rows, err := e.store.Select(ctx, constants.TableWorkflow, models.RecordQuery{
		Criteria:      []models.QueryCriterion{models.Eq(constants.FieldWorkflowEntityType, entityType)},
		SortField:     constants.FieldCreatedDate,
		SortDirection: constants.SortASC,
	})
	if err != nil {
		return nil, err
	}

	var out []*models.Workflow
	for _, row := range rows {
		if models.TriggerType(row.GetString(constants.FieldWorkflowTriggerType)) != triggerType {
			continue
		}
		if !utils.ToBool(row[constants.FieldWorkflowEnabled]) {
			continue
		}
		wf, err := models.WorkflowFromSObject(row)
		if err != nil {
			log.Printf("⚠️ Skipping undecodable workflow %s: %v", row.GetString(constants.FieldID), err)
			continue
		}
		out = append(out, wf)
	}
	return out, nil
}

// runCandidate drives one workflow through the run state machine.
func (e *WorkflowEngine) runCandidate(ctx context.Context, wf *models.Workflow, data models.TriggerData, evaluate bool) (outcome WorkflowOutcome) {
	run := e.states.NewRun()
	outcome = WorkflowOutcome{WorkflowID: wf.ID, WorkflowName: wf.Name}
	start := e.now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("workflow run panicked: %v", r)
			log.Printf("🔥 Workflow %s (%s): %v", wf.Name, wf.ID, err)
			outcome = e.finishFailed(ctx, run, wf, data, nil, err, start)
		}
	}()

	e.mustApply(run, domain.TransitionEvaluate)
	if evaluate && !e.evaluator.ShouldFire(wf, data) {
		e.mustApply(run, domain.TransitionSkip)
		e.metrics.observeRun(data.EntityType, string(wf.TriggerType), constants.OutcomeSkipped, 0)
		log.Printf("⏭️ Workflow %s skipped for %s %s: %s", wf.Name, data.EntityType, data.EntityID, constants.ReasonConditionsNotMet)
		outcome.Reason = constants.ReasonConditionsNotMet
		outcome.State = run.State()
		return outcome
	}

	e.mustApply(run, domain.TransitionExecute)
	log.Printf("🔄 Workflow %s: executing %d actions on %s %s", wf.Name, len(wf.Actions), data.EntityType, data.EntityID)

	results, err := e.dispatcher.Dispatch(ctx, wf.Actions, data)
	if err != nil {
		return e.finishFailed(ctx, run, wf, data, results, err, start)
	}

	e.mustApply(run, domain.TransitionComplete)
	elapsed := e.now().Sub(start)
	exec := &models.WorkflowExecution{
		WorkflowID:      wf.ID,
		EntityType:      data.EntityType,
		EntityID:        data.EntityID,
		TriggerData:     data,
		Results:         results,
		Status:          constants.ExecutionStatusCompleted,
		ExecutionTimeMS: elapsed.Milliseconds(),
	}
	outcome.Executed = true
	outcome.State = run.State()
	outcome.Execution = exec
	e.metrics.observeRun(data.EntityType, string(wf.TriggerType), constants.OutcomeCompleted, elapsed)

	if err := e.persistExecution(ctx, exec); err != nil {
		log.Printf("❌ Workflow %s: failed to record execution: %v", wf.Name, err)
		outcome.Err = err
		outcome.Error = err.Error()
		return outcome
	}
	log.Printf("✅ Workflow %s: completed in %dms", wf.Name, exec.ExecutionTimeMS)
	return outcome
}

// finishFailed records a run whose dispatch broke off.
func (e *WorkflowEngine) finishFailed(ctx context.Context, run *domain.Run, wf *models.Workflow, data models.TriggerData, results []models.ActionResult, cause error, start time.Time) WorkflowOutcome {
	if !e.states.IsTerminal(run.State()) {
		if run.State() == domain.RunStatePending {
			e.mustApply(run, domain.TransitionEvaluate)
		}
		e.mustApply(run, domain.TransitionFail)
	}

	elapsed := e.now().Sub(start)
	msg := cause.Error()
	exec := &models.WorkflowExecution{
		WorkflowID:      wf.ID,
		EntityType:      data.EntityType,
		EntityID:        data.EntityID,
		TriggerData:     data,
		Results:         results,
		Status:          constants.ExecutionStatusFailed,
		ErrorMessage:    &msg,
		ExecutionTimeMS: elapsed.Milliseconds(),
	}
	e.metrics.observeRun(data.EntityType, string(wf.TriggerType), constants.OutcomeFailed, elapsed)
	log.Printf("❌ Workflow %s: failed after %dms: %v", wf.Name, exec.ExecutionTimeMS, cause)

	outcome := WorkflowOutcome{
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		Executed:     true,
		State:        run.State(),
		Execution:    exec,
		Err:          cause,
		Error:        msg,
	}

	// the run context may be what failed; the audit row must still land
	persistCtx := context.WithoutCancel(ctx)
	if err := e.persistExecution(persistCtx, exec); err != nil {
		log.Printf("❌ Workflow %s: failed to record execution: %v", wf.Name, err)
	}
	return outcome
}

func (e *WorkflowEngine) persistExecution(ctx context.Context, exec *models.WorkflowExecution) error {
	row, err := exec.ToSObject()
	if err != nil {
		return fmt.Errorf("encode execution: %w", err)
	}
	saved, err := e.store.Insert(ctx, constants.TableWorkflowExecution, row)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	exec.ID = saved.GetString(constants.FieldID)
	if t := saved.GetTime(constants.FieldCreatedDate); !t.IsZero() {
		exec.CreatedDate = &t
	}
	return nil
}

// mustApply advances run; an illegal transition is a programming error.
func (e *WorkflowEngine) mustApply(run *domain.Run, t domain.RunTransition) {
	if err := run.Apply(t); err != nil {
		panic(err)
	}
}

// RegisterEventHandlers subscribes the engine to record events: creates
// fire on_create workflows, updates fire on_update, on_status_change and
// on_field_change workflows.
func (e *WorkflowEngine) RegisterEventHandlers(bus ports.EventPublisher) {
	bus.Subscribe(events.RecordAfterCreate, func(ctx context.Context, payload interface{}) error {
		evt, ok := payload.(events.RecordEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", payload, events.RecordAfterCreate)
		}
		e.TriggerWorkflows(ctx, TriggerRequest{
			EntityType:  evt.EntityType,
			EntityID:    evt.EntityID,
			TriggerType: models.TriggerOnCreate,
			NewValues:   evt.NewValues,
			ActingUser:  evt.User,
		})
		return nil
	})

	bus.Subscribe(events.RecordAfterUpdate, func(ctx context.Context, payload interface{}) error {
		evt, ok := payload.(events.RecordEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", payload, events.RecordAfterUpdate)
		}
		for _, tt := range models.UpdateTriggerTypes() {
			e.TriggerWorkflows(ctx, TriggerRequest{
				EntityType:  evt.EntityType,
				EntityID:    evt.EntityID,
				TriggerType: tt,
				OldValues:   evt.OldValues,
				NewValues:   evt.NewValues,
				ActingUser:  evt.User,
			})
		}
		return nil
	})

	log.Printf("✅ WorkflowEngine: registered handlers for %s and %s", events.RecordAfterCreate, events.RecordAfterUpdate)
}
