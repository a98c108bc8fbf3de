package utils

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduledJob is a named periodic task
type ScheduledJob struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

// Scheduler runs housekeeping jobs on cron schedules
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. Jobs that are still running when their
// next tick arrives are skipped.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Add registers a job
func (s *Scheduler) Add(job ScheduledJob) error {
	_, err := s.cron.AddFunc(job.Spec, func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled job panicked", "job", job.Name, "panic", r)
			}
		}()
		job.Run(ctx)
		s.logger.Debug("scheduled job finished", "job", job.Name, "elapsed", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("scheduling %s (%q): %w", job.Name, job.Spec, err)
	}
	return nil
}

// Start begins running jobs until ctx is done or Stop is called
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	s.cron.Start()
}

// Stop halts the schedule and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// HousekeepingJobs returns the sweeps every process runs
func HousekeepingJobs(s Discord) []ScheduledJob {
	jobs := []ScheduledJob{
		{Name: "session-sweep", Spec: SessionSweepSpec, Run: func(context.Context) { Sessions.Sweep() }},
		{Name: "cache-sweep", Spec: CacheSweepSpec, Run: func(context.Context) {
			Cache.Cleanup()
			RateLimiter.Prune(10 * time.Minute)
			Metrics.LogSnapshot()
		}},
		{Name: "cooldown-sweep", Spec: CooldownSweepSpec, Run: func(context.Context) {
			if mc, ok := CooldownStore.(*MemoryCooldowns); ok {
				mc.Sweep()
			}
		}},
	}
	if s != nil {
		jobs = append(jobs, ScheduledJob{Name: "ticket-reconcile", Spec: TicketReconcileSpec, Run: func(ctx context.Context) {
			Tickets.Reconcile(ctx, s)
		}})
	}
	return jobs
}
