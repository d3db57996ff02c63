// Package checker runs the reminder evaluator on a schedule. Two drivers
// exist: Foreground reads the store directly and Background works only
// through the messenger. Neither coordinates with the other; the per-task
// flags are what keep a reminder from repeating.
package checker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/metrics"
	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/notify"
	"github.com/sandeepkv93/tasker/internal/reminder"
)

const (
	DriverForeground = "foreground"
	DriverBackground = "background"

	DefaultForegroundInterval = 60 * time.Second
	DefaultBackgroundInterval = 30 * time.Second
)

// FlagWriter persists the flags of a shown reminder.
type FlagWriter interface {
	WriteFlags(ctx context.Context, taskID string, kind model.ReminderKind) error
}

type FlagWriterFunc func(ctx context.Context, taskID string, kind model.ReminderKind) error

func (f FlagWriterFunc) WriteFlags(ctx context.Context, taskID string, kind model.ReminderKind) error {
	return f(ctx, taskID, kind)
}

type Options struct {
	Notifier notify.Notifier
	Clock    Clock
	Location *time.Location
	Log      *zap.Logger
	Interval time.Duration
	// OnFired runs once per reminder after it was shown.
	OnFired func(reminder.Due)
}

func (o Options) withDefaults(interval time.Duration) Options {
	if o.Notifier == nil {
		o.Notifier = notify.NoopNotifier{}
	}
	if o.Clock == nil {
		o.Clock = RealClock{}
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Interval <= 0 {
		o.Interval = interval
	}
	return o
}

// Checker is one evaluation pass shared by both drivers.
type Checker struct {
	driver string
	opts   Options
}

func newChecker(driver string, opts Options) Checker {
	return Checker{driver: driver, opts: opts}
}

// Check shows every due reminder in tasks and hands its flags to w. A
// failed display still records the flags so a broken notifier does not
// refire every cycle.
func (c Checker) Check(ctx context.Context, tasks []model.Task, w FlagWriter) []reminder.Due {
	start := time.Now()
	defer func() { metrics.RecordCheck(c.driver, time.Since(start)) }()

	log := c.opts.Log.With(zap.String("driver", c.driver))
	due := reminder.EvaluateAll(c.opts.Clock.Now(), tasks, c.opts.Location)
	for _, d := range due {
		fields := []zap.Field{zap.String("task_id", d.Task.ID), zap.String("kind", string(d.Kind))}
		if err := c.opts.Notifier.Show(ctx, notify.FromReminder(d.Task, d.Kind)); err != nil {
			log.Warn("showing reminder failed", append(fields, zap.Error(err))...)
		} else {
			log.Info("reminder shown", fields...)
		}
		metrics.RecordReminderFired(c.driver, string(d.Kind))
		if err := w.WriteFlags(ctx, d.Task.ID, d.Kind); err != nil {
			log.Warn("recording reminder flags failed", append(fields, zap.Error(err))...)
		}
		if c.opts.OnFired != nil {
			c.opts.OnFired(d)
		}
	}
	return due
}
