// Package worker runs the background side of fintrack: scheduled reminder
// sweeps, recurrence settlement, cache cleanup and event consumption.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/trace"
)

// Sweeper derives reminder notifications for every owner.
type Sweeper interface {
	SweepAll(ctx context.Context, now time.Time) (int, error)
}

// Expander settles recurring copies that have come due.
type Expander interface {
	ExpandDueRecurrences(ctx context.Context, now time.Time) (int, error)
}

// Consumer delivers queued events to a handler until ctx is cancelled.
type Consumer interface {
	ConsumeEvents(ctx context.Context, handler amqp.EventHandler) error
}

type Config struct {
	SweepSchedule        string
	ExpansionSchedule    string
	CacheCleanupInterval time.Duration
}

// Jobs are the collaborators the worker drives. Consumer, Handler and Caches
// are optional.
type Jobs struct {
	Sweeper  Sweeper
	Expander Expander
	Consumer Consumer
	Handler  amqp.EventHandler
	Caches   *cache.Manager
}

type Worker struct {
	cfg    Config
	jobs   Jobs
	now    func() time.Time
	logger *log.Logger
	tracer *trace.Tracer
}

func New(cfg Config, jobs Jobs, now func() time.Time, logger *log.Logger) *Worker {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &Worker{
		cfg:    cfg,
		jobs:   jobs,
		now:    now,
		logger: logger,
		tracer: trace.New(logger),
	}
}

// RunOnce settles due recurrences and then sweeps reminders.
func (w *Worker) RunOnce(ctx context.Context) error {
	return errors.Join(w.expand(ctx), w.sweep(ctx))
}

// Run blocks until ctx is cancelled or the consumer fails.
func (w *Worker) Run(ctx context.Context) error {
	c, err := w.scheduler(ctx)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Worker starting",
		"sweep_schedule", w.cfg.SweepSchedule,
		"expansion_schedule", w.cfg.ExpansionSchedule,
		"consumer_enabled", w.jobs.Consumer != nil)

	if err := w.RunOnce(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup run failed", log.FieldError, err)
	}

	c.Start()

	g, gctx := errgroup.WithContext(ctx)
	if w.jobs.Caches != nil && w.cfg.CacheCleanupInterval > 0 {
		g.Go(func() error {
			return w.jobs.Caches.Run(gctx, w.cfg.CacheCleanupInterval)
		})
	}
	if w.jobs.Consumer != nil && w.jobs.Handler != nil {
		g.Go(func() error {
			if err := w.jobs.Consumer.ConsumeEvents(gctx, w.jobs.Handler); err != nil {
				return fmt.Errorf("consume events: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()

	stopped := c.Stop()
	<-stopped.Done()
	w.logger.InfoContext(ctx, "Worker stopped")
	return err
}

func (w *Worker) scheduler(ctx context.Context) (*cron.Cron, error) {
	clog := cronLogger{w.logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{"sweep", w.cfg.SweepSchedule, w.sweep},
		{"expansion", w.cfg.ExpansionSchedule, w.expand},
	}
	for _, j := range jobs {
		run := j.run
		if _, err := c.AddFunc(j.schedule, func() { _ = run(ctx) }); err != nil {
			return nil, fmt.Errorf("schedule %s job %q: %w", j.name, j.schedule, err)
		}
	}
	return c, nil
}

func (w *Worker) sweep(ctx context.Context) error {
	if w.jobs.Sweeper == nil {
		return nil
	}
	return w.tracer.Run(ctx, log.OpSweep, func(ctx context.Context) error {
		n, err := w.jobs.Sweeper.SweepAll(ctx, w.now())
		if err != nil {
			return fmt.Errorf("sweep reminders: %w", err)
		}
		log.FromContext(ctx).InfoContext(ctx, "Reminder sweep complete", log.FieldCount, n)
		return nil
	})
}

func (w *Worker) expand(ctx context.Context) error {
	if w.jobs.Expander == nil {
		return nil
	}
	return w.tracer.Run(ctx, log.OpExpand, func(ctx context.Context) error {
		n, err := w.jobs.Expander.ExpandDueRecurrences(ctx, w.now())
		if err != nil {
			return fmt.Errorf("expand recurrences: %w", err)
		}
		log.FromContext(ctx).InfoContext(ctx, "Recurrence expansion complete", log.FieldCount, n)
		return nil
	})
}

// Metrics reports how many scheduled jobs ran and failed.
func (w *Worker) Metrics() trace.Metrics {
	return w.tracer.Metrics()
}

// cronLogger adapts the worker logger to cron.Logger.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, log.FieldError, err)...)
}
