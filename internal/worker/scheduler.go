package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"robotrent/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JobFunc is one scheduled maintenance task.
type JobFunc func(ctx context.Context) error

// Scheduler запускает служебные задачи по cron-расписанию.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zerolog.Logger
	timeout time.Duration

	mu   sync.Mutex
	jobs map[string]JobFunc
	ctx  context.Context
}

func NewScheduler(loc *time.Location, logger *zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		logger:  logger,
		timeout: 2 * time.Minute,
		jobs:    make(map[string]JobFunc),
		ctx:     context.Background(),
	}
}

// Add registers fn under name. An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	s.jobs[name] = fn
	s.mu.Unlock()

	if spec == "" {
		s.logger.Info().Str("job", name).Msg("Scheduled job disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { _ = s.RunNow(s.baseContext(), name) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// RunNow runs a registered job immediately with a bounded context.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	fn, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.safeRun(ctx, name, fn)
	metrics.IncJob(name, err)

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Error().Err(err)
	}
	event.Str("job", name).Dur("took", time.Since(start)).Msg("Scheduled job finished")
	return err
}

func (s *Scheduler) safeRun(ctx context.Context, name string, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
	}()
	return fn(ctx)
}

// Start runs the cron loop until ctx is cancelled, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}
