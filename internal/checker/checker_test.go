package checker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/tasker/internal/messenger"
	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/notify"
	"github.com/sandeepkv93/tasker/internal/reminder"
	"github.com/sandeepkv93/tasker/internal/storage"
	"github.com/sandeepkv93/tasker/internal/taskstore"
)

var start = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

type countingSignal struct{ n atomic.Int32 }

func (s *countingSignal) NotifyTasksChanged() { s.n.Add(1) }

func newStore(t *testing.T) *taskstore.Store {
	t.Helper()
	return taskstore.New(storage.NewMemoryKV(), nil, taskstore.WithLocation(time.UTC))
}

func addDueAt(t *testing.T, s *taskstore.Store, title string, due time.Time) model.Task {
	t.Helper()
	task, err := s.AddTask(context.Background(), taskstore.NewTask{
		Title:    title,
		DueDate:  due.Format("2006-01-02"),
		DueTime:  due.Format("15:04"),
		Priority: model.PriorityHigh,
	})
	require.NoError(t, err)
	return task
}

func TestForegroundFiresOnceAndSignals(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	task := addDueAt(t, store, "Standup", start.Add(5*time.Minute))
	rec := &notify.Recorder{}
	sig := &countingSignal{}
	clock := NewFakeClock(start)

	fg := NewForeground(store, sig, Options{Notifier: rec, Clock: clock, Location: time.UTC})
	due, err := fg.CheckOnce(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, model.ReminderFiveMin, due[0].Kind)
	assert.EqualValues(t, 1, sig.n.Load())

	stored, err := store.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Sent.Has(model.FlagNotified5Min))

	due, err = fg.CheckOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Len(t, rec.Shown(), 1)
	assert.Equal(t, "🔴 Standup - Starting in 5 minutes!", rec.Shown()[0].Body)
	assert.EqualValues(t, 2, sig.n.Load(), "signals after every pass")
}

func TestForegroundOnTimeSetsNotified(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	task := addDueAt(t, store, "Standup", start)
	fg := NewForeground(store, nil, Options{Clock: NewFakeClock(start.Add(30 * time.Second)), Location: time.UTC})

	due, err := fg.CheckOnce(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)

	stored, err := store.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Sent.Has(model.FlagNotifiedOnTime))
	assert.True(t, stored.Sent.Has(model.FlagNotified))
	assert.False(t, stored.Sent.Has(model.FlagNotified5Min))
}

func TestForegroundRunFiresOnTickAndStopsOnCancel(t *testing.T) {
	store := newStore(t)
	task := addDueAt(t, store, "Standup", start.Add(5*time.Minute))
	rec := &notify.Recorder{}
	sig := &countingSignal{}
	var fired atomic.Int32

	fg := NewForeground(store, sig, Options{
		Notifier: rec,
		Clock:    NewFakeClock(start),
		Location: time.UTC,
		Interval: 10 * time.Millisecond,
		OnFired:  func(reminder.Due) { fired.Add(1) },
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fg.Run(ctx) }()

	require.Eventually(t, func() bool { return sig.n.Load() >= 3 }, time.Second, 5*time.Millisecond, "keeps ticking")
	assert.EqualValues(t, 1, fired.Load())
	require.Len(t, rec.Shown(), 1)
	assert.Equal(t, task.ID, rec.Shown()[0].TaskID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	passes := sig.n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, passes, sig.n.Load(), "no checks after stop")
}

func TestBackgroundSkipsWithoutClients(t *testing.T) {
	rec := &notify.Recorder{}
	bg := NewBackground(messenger.NewBus(4), 50*time.Millisecond, Options{Notifier: rec, Clock: NewFakeClock(start)})
	assert.Empty(t, bg.CheckOnce(context.Background()))
	assert.Empty(t, rec.Shown())
}

func TestBackgroundTreatsTimeoutAsEmpty(t *testing.T) {
	bus := messenger.NewBus(4)
	c := bus.Register()
	defer c.Close()

	rec := &notify.Recorder{}
	bg := NewBackground(bus, 20*time.Millisecond, Options{Notifier: rec, Clock: NewFakeClock(start)})
	assert.Empty(t, bg.CheckOnce(context.Background()))
	assert.Empty(t, rec.Shown())
}

func TestBackgroundBroadcastsFlags(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := newStore(t)
	task := addDueAt(t, store, "Standup", start)

	bus := messenger.NewBus(8)
	c := bus.Register()
	defer c.Close()
	go func() { _ = messenger.Responder{Store: store}.Serve(ctx, c) }()

	rec := &notify.Recorder{}
	bg := NewBackground(bus, time.Second, Options{Notifier: rec, Clock: NewFakeClock(start), Location: time.UTC})
	due := bg.CheckOnce(ctx)
	require.Len(t, due, 1)
	assert.Equal(t, model.ReminderOnTime, due[0].Kind)

	require.Eventually(t, func() bool {
		got, err := store.Task(ctx, task.ID)
		return err == nil && got.Sent.Has(model.FlagNotifiedOnTime) && got.Sent.Has(model.FlagNotified)
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, bg.CheckOnce(ctx))
	assert.Len(t, rec.Shown(), 1)
}

func TestBackgroundRunChecksOnStartAndSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := newStore(t)
	clock := NewFakeClock(start)

	bus := messenger.NewBus(8)
	c := bus.Register()
	defer c.Close()
	go func() { _ = messenger.Responder{Store: store}.Serve(ctx, c) }()

	fired := make(chan reminder.Due, 4)
	bg := NewBackground(bus, time.Second, Options{
		Clock:    clock,
		Location: time.UTC,
		Interval: time.Hour,
		OnFired:  func(d reminder.Due) { fired <- d },
	})

	first := addDueAt(t, store, "first", start.Add(5*time.Minute))
	done := make(chan error, 1)
	go func() { done <- bg.Run(ctx) }()

	select {
	case d := <-fired:
		assert.Equal(t, "first", d.Task.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no immediate check on start")
	}
	require.Eventually(t, func() bool {
		got, err := store.Task(ctx, first.ID)
		return err == nil && got.Sent.Has(model.FlagNotified5Min)
	}, time.Second, 5*time.Millisecond)

	addDueAt(t, store, "second", start)
	c.NotifyTasksChanged()
	select {
	case d := <-fired:
		assert.Equal(t, "second", d.Task.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no check after TASKS_UPDATE")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

// Both drivers saw the same snapshot before either wrote flags. Each shows
// the reminder and the flags converge; no later pass fires again.
func TestTwoDriversConvergeOnSameFlags(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := newStore(t)
	task := addDueAt(t, store, "Standup", start.Add(5*time.Minute))
	clock := NewFakeClock(start)

	bus := messenger.NewBus(8)
	c := bus.Register()
	defer c.Close()
	go func() { _ = messenger.Responder{Store: store}.Serve(ctx, c) }()

	rec := &notify.Recorder{}
	opts := Options{Notifier: rec, Clock: clock, Location: time.UTC}
	fg := NewForeground(store, nil, opts)
	bg := NewBackground(bus, time.Second, opts)

	snapshot, err := store.Tasks(ctx)
	require.NoError(t, err)
	fgDue := fg.checker.Check(ctx, snapshot, FlagWriterFunc(store.MarkSent))
	bgDue := bg.checker.Check(ctx, snapshot, FlagWriterFunc(bg.broadcast))
	require.Len(t, fgDue, 1)
	require.Len(t, bgDue, 1)
	assert.Len(t, rec.Shown(), 2, "duplicate display is tolerated")

	require.Eventually(t, func() bool {
		got, err := store.Task(ctx, task.ID)
		return err == nil && got.Sent.Has(model.FlagNotified5Min)
	}, time.Second, 5*time.Millisecond)
	got, err := store.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.NotificationFlag{model.FlagNotified5Min}, got.Sent.Flags())

	clock.Advance(time.Minute)
	due, err := fg.CheckOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Empty(t, bg.CheckOnce(ctx))
	assert.Len(t, rec.Shown(), 2)
}
