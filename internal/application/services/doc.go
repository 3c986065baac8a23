// Package services provides the business logic layer for LeadPilot.
//
// This package contains the workflow automation engine and the services
// around it:
//   - Trigger evaluation against before/after record snapshots (TriggerEvaluator)
//   - Ordered action execution with per-action results (ActionDispatcher)
//   - End-to-end workflow runs and execution auditing (WorkflowEngine)
//   - Workflow definition CRUD with validation (WorkflowService)
//   - Record CRUD that fires workflows asynchronously (RecordService)
//   - Event publishing with a bounded worker queue (EventBus)
//   - Cron-driven scheduled workflows (SchedulerService)
//
// Services depend on the ports in internal/domain/ports so every one of them
// can run against the in-memory record store in tests.
package services
