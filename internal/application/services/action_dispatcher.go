package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// DefaultActionTimeout bounds a single action handler.
const DefaultActionTimeout = 30 * time.Second

// ActionPanicError reports a handler that panicked. It is recorded as that
// action's failure like any other handler error.
type ActionPanicError struct {
	Action models.ActionType
	Value  interface{}
}

func (e *ActionPanicError) Error() string {
	return fmt.Sprintf("action %s panicked: %v", e.Action, e.Value)
}

// ActionDispatcher runs a workflow's actions in declared order. A failing
// action is recorded and the remaining actions still run; nothing is rolled
// back.
type ActionDispatcher struct {
	registry *ActionHandlerRegistry
	timeout  time.Duration
	metrics  *WorkflowMetrics
}

// NewActionDispatcher creates a dispatcher. A non-positive timeout uses
// DefaultActionTimeout.
func NewActionDispatcher(registry *ActionHandlerRegistry, timeout time.Duration, metrics *WorkflowMetrics) *ActionDispatcher {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	return &ActionDispatcher{registry: registry, timeout: timeout, metrics: metrics}
}

// Dispatch executes actions sequentially and returns one result per action
// attempted. The error is non-nil only when ctx is cancelled and the
// dispatch breaks off; per-action failures, panics included, are reported
// in the results.
func (d *ActionDispatcher) Dispatch(ctx context.Context, actions []models.WorkflowAction, data models.TriggerData) ([]models.ActionResult, error) {
	results := make([]models.ActionResult, 0, len(actions))

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("dispatch interrupted before %s: %w", action.Type, err)
		}

		handler := d.registry.Get(action.Type)
		if handler == nil {
			results = append(results, models.ActionResult{
				Action:  action.Type,
				Success: false,
				Error:   fmt.Sprintf("Unknown action type: %s", action.Type),
			})
			d.metrics.observeAction(string(action.Type), false)
			continue
		}

		output, err := d.runHandler(ctx, handler, action.Config, data)
		if err != nil && ctx.Err() != nil {
			results = append(results, models.ActionResult{Action: action.Type, Success: false, Error: err.Error()})
			d.metrics.observeAction(string(action.Type), false)
			return results, fmt.Errorf("dispatch interrupted during %s: %w", action.Type, ctx.Err())
		}

		if err != nil {
			log.Printf("⚠️ Workflow action %s failed for %s %s: %v", action.Type, data.EntityType, data.EntityID, err)
			results = append(results, models.ActionResult{Action: action.Type, Success: false, Error: err.Error()})
			d.metrics.observeAction(string(action.Type), false)
			continue
		}

		results = append(results, models.ActionResult{Action: action.Type, Success: true, Output: output})
		d.metrics.observeAction(string(action.Type), true)
	}

	return results, nil
}

type handlerResult struct {
	output map[string]interface{}
	err    error
}

// runHandler runs one handler bounded by the dispatcher timeout. A handler
// that ignores its context is abandoned when the timeout fires; its result
// is discarded.
func (d *ActionDispatcher) runHandler(ctx context.Context, handler ActionHandler, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
	actionCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan handlerResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("🔥 Panic in workflow action %s: %v", handler.Type(), r)
				done <- handlerResult{err: &ActionPanicError{Action: handler.Type(), Value: r}}
			}
		}()
		out, err := handler.Execute(actionCtx, cfg, data)
		done <- handlerResult{output: out, err: err}
	}()

	select {
	case res := <-done:
		return res.output, res.err
	case <-actionCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("action timed out after %s", d.timeout)
	}
}
