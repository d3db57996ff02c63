package checker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/metrics"
	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/reminder"
)

// TaskStore is what the foreground poller needs from the task store.
type TaskStore interface {
	Tasks(ctx context.Context) ([]model.Task, error)
	MarkSent(ctx context.Context, id string, kind model.ReminderKind) error
}

// Signaler tells the background worker that the task list changed.
type Signaler interface {
	NotifyTasksChanged()
}

// Foreground polls the store while the view is open.
type Foreground struct {
	store   TaskStore
	signal  Signaler
	checker Checker
	opts    Options
}

func NewForeground(store TaskStore, signal Signaler, opts Options) *Foreground {
	opts = opts.withDefaults(DefaultForegroundInterval)
	return &Foreground{
		store:   store,
		signal:  signal,
		checker: newChecker(DriverForeground, opts),
		opts:    opts,
	}
}

// CheckOnce runs a single pass and then signals the background worker.
func (f *Foreground) CheckOnce(ctx context.Context) ([]reminder.Due, error) {
	tasks, err := f.store.Tasks(ctx)
	if err != nil {
		metrics.RecordFetchFailure(DriverForeground, "store")
		return nil, err
	}
	due := f.checker.Check(ctx, tasks, FlagWriterFunc(f.store.MarkSent))
	if f.signal != nil {
		f.signal.NotifyTasksChanged()
	}
	return due, nil
}

// Run checks on every tick until ctx is cancelled.
func (f *Foreground) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := f.CheckOnce(ctx); err != nil {
				f.opts.Log.Warn("foreground reminder check failed", zap.Error(err))
			}
		}
	}
}
