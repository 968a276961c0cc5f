package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron    *cron.Cron
	running sync.Map // job name -> *sync.Mutex
	log     zerolog.Logger
}

// New creates a new scheduler. Schedules use six fields, seconds first.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"        - Every 5 minutes
//   - "@hourly"              - Every hour
//   - "0 30 22 * * MON-FRI"  - 22:30 weekdays
//   - "@every 30s"           - Every 30 seconds
//
// A run is skipped while the previous run of the same job is still going.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(job); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.run(job)
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) run(job Job) error {
	lock, _ := s.running.LoadOrStore(job.Name(), &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	if !mu.TryLock() {
		s.log.Warn().Str("job", job.Name()).Msg("Job already running, skipping")
		return nil
	}
	defer mu.Unlock()

	s.log.Debug().Str("job", job.Name()).Msg("Running job")
	if err := job.Run(); err != nil {
		return err
	}
	s.log.Debug().Str("job", job.Name()).Msg("Job completed")
	return nil
}
