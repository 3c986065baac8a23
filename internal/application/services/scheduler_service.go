package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/events"
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/utils"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a scheduled trigger config and returns its schedule.
func ParseSchedule(cfg models.ScheduledConfig) (cron.Schedule, error) {
	if strings.TrimSpace(cfg.Cron) == "" {
		return nil, fmt.Errorf("cron expression is required")
	}
	schedule, err := scheduleParser.Parse(cronSpec(cfg))
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Cron, err)
	}
	return schedule, nil
}

func cronSpec(cfg models.ScheduledConfig) string {
	spec := strings.TrimSpace(cfg.Cron)
	if cfg.Timezone != "" && cfg.Timezone != constants.ScheduleDefaultTimezone {
		spec = "CRON_TZ=" + cfg.Timezone + " " + spec
	}
	return spec
}

// SchedulerService runs enabled scheduled workflows on their cron schedule.
type SchedulerService struct {
	store   ports.RecordStore
	engine  *WorkflowEngine
	runner  *cron.Cron
	timeout time.Duration

	mu       sync.Mutex
	entries  map[string]cron.EntryID
	inFlight map[string]bool
	running  bool
}

// NewSchedulerService creates a scheduler service
func NewSchedulerService(store ports.RecordStore, engine *WorkflowEngine) *SchedulerService {
	logger := cron.PrintfLogger(log.Default())
	return &SchedulerService{
		store:  store,
		engine: engine,
		runner: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithChain(cron.Recover(logger)),
		),
		timeout:  time.Duration(constants.ScheduleMaxRuntimeMins) * time.Minute,
		entries:  make(map[string]cron.EntryID),
		inFlight: make(map[string]bool),
	}
}

// Start loads the scheduled workflows and starts the cron runner.
func (s *SchedulerService) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.runner.Start()
	log.Printf("⏰ Scheduler service started with %d workflows", len(s.entries))
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Println("⏰ Scheduler service stopping...")
	<-s.runner.Stop().Done()
	log.Println("⏰ Scheduler service stopped")
}

// Reload replaces every registered job with the current set of enabled
// scheduled workflows. Workflows with an invalid schedule are skipped.
func (s *SchedulerService) Reload(ctx context.Context) error {
	rows, err := s.store.Select(ctx, constants.TableWorkflow, models.RecordQuery{
		Criteria: []models.QueryCriterion{
			models.Eq(constants.FieldWorkflowTriggerType, string(models.TriggerScheduled)),
		},
	})
	if err != nil {
		return fmt.Errorf("load scheduled workflows: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		s.runner.Remove(entry)
		delete(s.entries, id)
	}

	for _, row := range rows {
		if !utils.ToBool(row[constants.FieldWorkflowEnabled]) {
			continue
		}
		wf, err := models.WorkflowFromSObject(row)
		if err != nil {
			log.Printf("⚠️ Scheduler: skipping undecodable workflow %s: %v", row.GetString(constants.FieldID), err)
			continue
		}
		cfg, ok := wf.TriggerConfig.(models.ScheduledConfig)
		if !ok {
			continue
		}
		schedule, err := ParseSchedule(cfg)
		if err != nil {
			log.Printf("⚠️ Scheduler: workflow %s (%s): %v", wf.Name, wf.ID, err)
			continue
		}
		s.entries[wf.ID] = s.runner.Schedule(schedule, s.job(wf))
		log.Printf("⏰ Scheduled workflow %s (%s) with %q", wf.Name, wf.ID, cronSpec(cfg))
	}
	return nil
}

// ScheduledWorkflowIDs returns the ids of registered workflows, sorted.
func (s *SchedulerService) ScheduledWorkflowIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NextRun returns the next fire time of a registered workflow.
func (s *SchedulerService) NextRun(workflowID string) (time.Time, bool) {
	s.mu.Lock()
	entry, ok := s.entries[workflowID]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	e := s.runner.Entry(entry)
	if e.Schedule == nil {
		return time.Time{}, false
	}
	return e.Schedule.Next(time.Now()), true
}

// job runs wf unless a run of the same workflow is still in flight. The
// guard is keyed by workflow id so it survives Reload replacing the entry.
func (s *SchedulerService) job(wf *models.Workflow) cron.FuncJob {
	return func() {
		if !s.acquire(wf.ID) {
			log.Printf("⏭️ Scheduled workflow %s (%s) still running, skipping", wf.Name, wf.ID)
			return
		}
		defer s.release(wf.ID)

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		log.Printf("⏰ Starting scheduled workflow: %s (%s)", wf.Name, wf.ID)
		s.engine.RunScheduled(ctx, wf)
	}
}

func (s *SchedulerService) acquire(workflowID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[workflowID] {
		return false
	}
	s.inFlight[workflowID] = true
	return true
}

func (s *SchedulerService) release(workflowID string) {
	s.mu.Lock()
	delete(s.inFlight, workflowID)
	s.mu.Unlock()
}

// RegisterEventHandlers reloads the schedule whenever a workflow changes.
func (s *SchedulerService) RegisterEventHandlers(bus ports.EventPublisher) {
	bus.Subscribe(events.WorkflowChanged, func(ctx context.Context, payload interface{}) error {
		return s.Reload(ctx)
	})
}
