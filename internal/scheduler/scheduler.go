// Package scheduler runs a job on a fixed interval with optional jitter.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Job is one unit of periodic work. An error is logged and the loop continues.
type Job func(ctx context.Context) error

// Config controls a Scheduler.
type Config struct {
	Name     string
	Interval time.Duration
	// Jitter adds a random delay in [0, Jitter) to every wait.
	Jitter time.Duration
	// RunImmediately runs the job once on Start before the first wait.
	RunImmediately bool
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
}

// Scheduler runs a Job until stopped.
type Scheduler struct {
	job    Job
	config Config
	logger *slog.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// jitter returns a random duration in [0, max); tests replace it.
	jitter func(max time.Duration) time.Duration
}

// New creates a Scheduler. The interval must be positive.
func New(job Job, config Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Name == "" {
		config.Name = "job"
	}
	return &Scheduler{
		job:    job,
		config: config,
		logger: logger.With("scheduler", config.Name),
		jitter: randomJitter,
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

// Start launches the loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Scheduler started", "interval", s.config.Interval, "jitter", s.config.Jitter)
}

// Stop cancels the loop and waits for an in-flight run, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunImmediately {
		s.run(ctx)
	}

	for {
		delay := s.config.Interval + s.jitter(s.config.Jitter)
		s.logger.Debug("Next run scheduled", "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("Scheduled run failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("Scheduled run complete", "duration", time.Since(start))
}
