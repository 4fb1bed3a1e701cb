package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"orrery/internal/catalog"
	"orrery/internal/logging"
)

// Runner is the synchronization entry point the scheduler triggers.
type Runner interface {
	RunPass(ctx context.Context) (*catalog.PassRecord, error)
}

// Status is a snapshot of the scheduler state for observability.
type Status struct {
	Active    bool       `json:"active"`
	Pattern   string     `json:"pattern"`
	Timezone  string     `json:"timezone"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

// Scheduler arms a recurring cron trigger for synchronization passes and
// exposes a manual trigger. Manual and scheduled triggers funnel through the
// same engine guard, so a trigger during a running pass is rejected, never
// queued.
type Scheduler struct {
	runner  Runner
	logger  *slog.Logger
	baseCtx context.Context

	mu        sync.Mutex
	cron      *cron.Cron
	entryID   cron.EntryID
	pattern   string
	timezone  string
	active    bool
	lastRunAt time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger attaches a logger to the scheduler.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logging.WithComponent(logger, "scheduler")
		}
	}
}

// WithBaseContext sets the parent context for scheduled pass runs.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Scheduler) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

// New creates a scheduler for the given cron pattern and timezone. The
// trigger stays disarmed until Start.
func New(runner Runner, pattern, timezone string, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner required")
	}
	scheduler := &Scheduler{
		runner:  runner,
		logger:  logging.NewNop(),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(scheduler)
	}
	if err := scheduler.setSchedule(pattern, timezone); err != nil {
		return nil, err
	}
	return scheduler, nil
}

func (s *Scheduler) setSchedule(pattern, timezone string) error {
	pattern = strings.TrimSpace(pattern)
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := cron.ParseStandard(pattern); err != nil {
		return fmt.Errorf("invalid schedule pattern %q: %w", pattern, err)
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	s.pattern = pattern
	s.timezone = timezone
	return nil
}

// Start arms the recurring trigger. Starting an active scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Scheduler) startLocked() error {
	if s.active {
		return nil
	}

	location, err := time.LoadLocation(s.timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", s.timezone, err)
	}

	runner := cron.New(cron.WithLocation(location))
	entryID, err := runner.AddFunc(s.pattern, s.scheduledRun)
	if err != nil {
		return fmt.Errorf("arm schedule %q: %w", s.pattern, err)
	}
	runner.Start()

	s.cron = runner
	s.entryID = entryID
	s.active = true
	s.logger.Info("scheduler started",
		logging.String("pattern", s.pattern),
		logging.String("timezone", s.timezone))
	return nil
}

// Stop disarms the trigger. A pass already running is not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.active {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.active = false
	s.logger.Info("scheduler stopped")
}

// Restart disarms and rearms the trigger with the current schedule.
func (s *Scheduler) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return s.startLocked()
}

// Configure validates and installs a new pattern and timezone, then
// (re)arms the trigger with the new schedule.
func (s *Scheduler) Configure(pattern, timezone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setSchedule(pattern, timezone); err != nil {
		return err
	}
	s.stopLocked()
	return s.startLocked()
}

// TriggerNow runs a pass immediately, in either scheduler state. A conflict
// from the engine is surfaced to the caller.
func (s *Scheduler) TriggerNow(ctx context.Context) (*catalog.PassRecord, error) {
	s.markRun()
	return s.runner.RunPass(ctx)
}

func (s *Scheduler) scheduledRun() {
	s.markRun()
	if _, err := s.runner.RunPass(s.baseCtx); err != nil {
		s.logger.Error("scheduled pass failed", logging.Error(err))
	}
}

func (s *Scheduler) markRun() {
	s.mu.Lock()
	s.lastRunAt = time.Now().UTC()
	s.mu.Unlock()
}

// Status reports the scheduler state, including the next scheduled run when
// the trigger is armed.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Active:   s.active,
		Pattern:  s.pattern,
		Timezone: s.timezone,
	}
	if !s.lastRunAt.IsZero() {
		last := s.lastRunAt
		status.LastRunAt = &last
	}
	if s.active {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextRunAt = &next
		}
	}
	return status
}
