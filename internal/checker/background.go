package checker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/messenger"
	"github.com/sandeepkv93/tasker/internal/metrics"
	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/reminder"
)

// Bus is the background worker's only view of the task data.
type Bus interface {
	Clients() int
	RequestTasks(ctx context.Context, timeout time.Duration) ([]model.Task, error)
	Broadcast(msg messenger.Message) int
	Signals() <-chan struct{}
}

// Background polls through the messenger. It keeps running while no view
// is open but skips cycles until a client registers.
type Background struct {
	bus          Bus
	replyTimeout time.Duration
	checker      Checker
	opts         Options
}

func NewBackground(bus Bus, replyTimeout time.Duration, opts Options) *Background {
	opts = opts.withDefaults(DefaultBackgroundInterval)
	if replyTimeout <= 0 {
		replyTimeout = messenger.DefaultReplyTimeout
	}
	return &Background{
		bus:          bus,
		replyTimeout: replyTimeout,
		checker:      newChecker(DriverBackground, opts),
		opts:         opts,
	}
}

// CheckOnce asks a client for its tasks and evaluates them. Missing
// clients and late replies count as an empty task set.
func (b *Background) CheckOnce(ctx context.Context) []reminder.Due {
	if b.bus.Clients() == 0 {
		return nil
	}
	tasks, err := b.bus.RequestTasks(ctx, b.replyTimeout)
	if err != nil {
		switch {
		case errors.Is(err, messenger.ErrReplyTimeout):
			metrics.RecordFetchFailure(DriverBackground, "timeout")
		case errors.Is(err, messenger.ErrNoClients):
			metrics.RecordFetchFailure(DriverBackground, "no_clients")
		default:
			metrics.RecordFetchFailure(DriverBackground, "error")
		}
		b.opts.Log.Debug("no tasks from foreground this cycle", zap.Error(err))
		return nil
	}
	return b.checker.Check(ctx, tasks, FlagWriterFunc(b.broadcast))
}

func (b *Background) broadcast(_ context.Context, taskID string, kind model.ReminderKind) error {
	for _, flag := range kind.Flags() {
		b.bus.Broadcast(messenger.UpdateMessage(taskID, flag))
	}
	return nil
}

// Run checks immediately, then on every tick and every TASKS_UPDATE
// signal, until ctx is cancelled.
func (b *Background) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()
	b.CheckOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.CheckOnce(ctx)
		case <-b.bus.Signals():
			b.CheckOnce(ctx)
		}
	}
}
