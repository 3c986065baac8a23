package services

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/config"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/expression"
)

// ServiceManager wires the workflow services together.
type ServiceManager struct {
	cfg   config.Config
	store ports.RecordStore

	Metrics    *WorkflowMetrics
	EventBus   *EventBus
	Conditions *expression.Engine
	Actions    *ActionHandlerRegistry
	Dispatcher *ActionDispatcher
	Evaluator  *TriggerEvaluator
	Engine     *WorkflowEngine
	Workflows  *WorkflowService
	Records    *RecordService
	Scheduler  *SchedulerService
}

// NewServiceManager creates a new service manager with all dependencies
// wired. Metrics are registered on reg when it is non-nil.
func NewServiceManager(store ports.RecordStore, cfg config.Config, reg prometheus.Registerer) *ServiceManager {
	sm := &ServiceManager{
		cfg:   cfg,
		store: store,
	}

	sm.Metrics = NewWorkflowMetrics(reg)
	sm.EventBus = NewEventBus(cfg.WorkflowQueueSize, sm.Metrics)
	sm.Conditions = expression.NewEngine()

	sm.Actions = NewActionHandlerRegistry()
	RegisterDefaultActions(sm.Actions, store, LogEmailSender{}, NewHTTPWebhookCaller(cfg.WebhookTimeout))

	sm.Dispatcher = NewActionDispatcher(sm.Actions, cfg.WorkflowActionTimeout, sm.Metrics)
	sm.Evaluator = NewTriggerEvaluator(sm.Conditions)
	sm.Engine = NewWorkflowEngine(store, sm.Evaluator, sm.Dispatcher, sm.Metrics)

	sm.Workflows = NewWorkflowService(store, sm.EventBus, sm.Conditions)
	sm.Records = NewRecordService(store, sm.EventBus)
	sm.Scheduler = NewSchedulerService(store, sm.Engine)

	// record events drive workflows; workflow changes reload the schedule
	sm.Engine.RegisterEventHandlers(sm.EventBus)
	if cfg.SchedulerEnabled {
		sm.Scheduler.RegisterEventHandlers(sm.EventBus)
	}

	return sm
}

// Start launches the event workers and, when enabled, the scheduler.
func (sm *ServiceManager) Start(ctx context.Context) error {
	sm.EventBus.Start(sm.cfg.WorkflowWorkers)

	if !sm.cfg.SchedulerEnabled {
		log.Println("⏰ Scheduler disabled")
		return nil
	}
	if err := sm.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Stop shuts down the scheduler and drains the event queue.
func (sm *ServiceManager) Stop() {
	sm.Scheduler.Stop()
	sm.EventBus.Stop()
}
