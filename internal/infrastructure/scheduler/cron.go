package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"WikiTrends/internal/ports"
)

// CronScheduler triggers a job on a standard five-field cron expression.
type CronScheduler struct {
	spec       string
	location   *time.Location
	runOnStart bool
	logger     *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	jobs   sync.WaitGroup
	cancel context.CancelFunc
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// Options tune a CronScheduler.
type Options struct {
	Location   *time.Location
	RunOnStart bool
}

// NewCronScheduler validates spec and builds a scheduler for it.
func NewCronScheduler(spec string, opts Options, logger *slog.Logger) (*CronScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: parse cron %q: %w", spec, err)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{
		spec:       spec,
		location:   loc,
		runOnStart: opts.RunOnStart,
		logger:     logger.With("component", "scheduler"),
	}, nil
}

// Start registers job and begins dispatching. Calling Start twice is a no-op.
// The scheduler stops on its own when ctx is cancelled.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.location))
	run := func() { job(time.Now().In(c.location)) }
	if _, err := runner.AddFunc(c.spec, run); err != nil {
		return fmt.Errorf("scheduler: add job: %w", err)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	c.cron = runner
	c.cancel = cancel
	runner.Start()
	c.logger.Info("scheduler started", "cron", c.spec, "timezone", c.location.String())

	if c.runOnStart {
		c.jobs.Add(1)
		go func() {
			defer c.jobs.Done()
			run()
		}()
	}

	go func() {
		<-jobCtx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop halts future triggers and waits for running jobs or ctx expiry.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner, cancel := c.cron, c.cancel
	c.cron, c.cancel = nil, nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		<-runner.Stop().Done()
		c.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}
