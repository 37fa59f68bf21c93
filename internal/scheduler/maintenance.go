package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Schedule string // Cron format, five fields
	Run      func() error
}

// TaskAdder enqueues background tasks. tasks.Client implements it.
type TaskAdder interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// EnqueueJob returns a job that hands task to the queue on every tick.
func EnqueueJob(name, schedule string, queue TaskAdder, task backlite.Task) Job {
	return Job{
		Name:     name,
		Schedule: schedule,
		Run: func() error {
			_, err := queue.Add(task).Save()
			return err
		},
	}
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// MaintenanceScheduler triggers housekeeping jobs such as the orphaned cover
// sweep and the audit event purge.
type MaintenanceScheduler struct {
	jobs []Job

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a scheduler for jobs. Jobs with an empty
// schedule are skipped.
func NewMaintenanceScheduler(jobs ...Job) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		jobs: jobs,
		cron: cron.New(cron.WithParser(parser)),
	}
}

// Start registers every job and begins the cron loop. Cancelling ctx stops
// the scheduler.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for _, job := range s.jobs {
		if job.Schedule == "" {
			log.Info().Str("job", job.Name).Msg("Maintenance job disabled")
			continue
		}
		if err := ValidateSchedule(job.Schedule); err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) }); err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
		}
		log.Info().
			Str("job", job.Name).
			Str("schedule", job.Schedule).
			Time("next_run", nextRun(job.Schedule)).
			Msg("Maintenance job scheduled")
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Info().Msg("Maintenance scheduler stopped")
}

// RunNow executes the named job immediately on the calling goroutine.
func (s *MaintenanceScheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return job.Run()
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *MaintenanceScheduler) run(job Job) {
	start := time.Now()
	if err := job.Run(); err != nil {
		log.Error().Err(err).Str("job", job.Name).Msg("Maintenance job failed")
		return
	}
	log.Debug().Str("job", job.Name).Dur("took", time.Since(start)).Msg("Maintenance job finished")
}

func nextRun(schedule string) time.Time {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(time.Now())
}
