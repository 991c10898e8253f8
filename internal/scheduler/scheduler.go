package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/elongatd/internal/logger"
)

// DefaultJobTimeout bounds a single job run
const DefaultJobTimeout = 30 * time.Minute

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks
type Scheduler struct {
	cron       *cron.Cron
	timezone   *time.Location
	jobTimeout time.Duration
	log        zerolog.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID

	// cancels running jobs on Stop
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler with the given timezone
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		timezone:   loc,
		jobTimeout: DefaultJobTimeout,
		log:        logger.Named("scheduler"),
		jobs:       make(map[string]cron.EntryID),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Location returns the timezone schedules are evaluated in
func (s *Scheduler) Location() *time.Location {
	return s.timezone
}

// AddJob adds a job with a cron schedule, replacing any job of the same name.
// schedule format: "0 7 * * *" (at 7:00 AM daily) or "@every 6h"
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(s.ctx, name, job); err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = entryID
	s.mu.Unlock()

	s.log.Info().Str("job", name).Str("schedule", schedule).Msg("added job")
	return nil
}

// WatchSchedule returns the cron spec for re-capturing every intervalHours
func WatchSchedule(intervalHours int) string {
	if intervalHours < 24 && 24%intervalHours == 0 {
		return fmt.Sprintf("0 */%d * * *", intervalHours)
	}
	return fmt.Sprintf("@every %dh", intervalHours)
}

// AddWatchJob adds the periodic re-capture job
func (s *Scheduler) AddWatchJob(intervalHours int, job Job) error {
	if intervalHours <= 0 {
		return fmt.Errorf("invalid watch interval %dh", intervalHours)
	}
	return s.AddJob("watch", WatchSchedule(intervalHours), job)
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.log.Info().Str("job", name).Msg("removed job")
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.log.Info().Str("timezone", s.timezone.String()).Msg("starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and cancels running jobs. The returned context
// is done once they have returned.
func (s *Scheduler) Stop() context.Context {
	s.log.Info().Msg("stopping scheduler")
	s.cancel()
	return s.cron.Stop()
}

// RunNow immediately executes a job
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	return s.run(ctx, name, job)
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	s.log.Info().Str("job", name).Msg("starting job")
	start := time.Now()

	if err := job(ctx); err != nil {
		return err
	}
	s.log.Info().Str("job", name).Dur("elapsed", time.Since(start)).Msg("job completed")
	return nil
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	infos := make([]JobInfo, 0, len(entries))

	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}
