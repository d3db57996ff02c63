package messenger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/storage"
	"github.com/sandeepkv93/tasker/internal/taskstore"
)

func newStore(t *testing.T) *taskstore.Store {
	t.Helper()
	return taskstore.New(storage.NewMemoryKV(), nil, taskstore.WithLocation(time.UTC))
}

func TestRequestTasksWithoutClients(t *testing.T) {
	bus := NewBus(4)
	tasks, err := bus.RequestTasks(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoClients)
	assert.Empty(t, tasks)
}

func TestRequestTasksTimesOutWhenClientIsSilent(t *testing.T) {
	bus := NewBus(4)
	c := bus.Register()
	defer c.Close()

	start := time.Now()
	tasks, err := bus.RequestTasks(context.Background(), 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrReplyTimeout)
	assert.Empty(t, tasks)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRequestTasksServedByResponder(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task, err := store.AddTask(ctx, taskstore.NewTask{Title: "Standup", DueDate: "2026-02-09", DueTime: "12:05"})
	require.NoError(t, err)

	bus := NewBus(4)
	c := bus.Register()
	defer c.Close()
	go func() { _ = Responder{Store: store}.Serve(ctx, c) }()

	tasks, err := bus.RequestTasks(ctx, time.Second)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
}

func TestBroadcastAppliesSingleFlag(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task, err := store.AddTask(ctx, taskstore.NewTask{Title: "Standup", DueDate: "2026-02-09", DueTime: "12:05"})
	require.NoError(t, err)

	bus := NewBus(4)
	c := bus.Register()
	defer c.Close()
	applied := make(chan model.NotificationFlag, 4)
	go func() {
		_ = Responder{Store: store, OnUpdate: func(_ string, f model.NotificationFlag) { applied <- f }}.Serve(ctx, c)
	}()

	assert.Equal(t, 1, bus.Broadcast(UpdateMessage(task.ID, model.FlagNotified5Min)))
	select {
	case f := <-applied:
		assert.Equal(t, model.FlagNotified5Min, f)
	case <-time.After(time.Second):
		t.Fatal("update not applied")
	}

	got, err := store.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.NotificationFlag{model.FlagNotified5Min}, got.Sent.Flags())
}

func TestBroadcastDropsOnFullInbox(t *testing.T) {
	bus := NewBus(1)
	c := bus.Register()
	defer c.Close()

	assert.Equal(t, 1, bus.Broadcast(UpdateMessage("a", model.FlagNotified)))
	assert.Equal(t, 0, bus.Broadcast(UpdateMessage("b", model.FlagNotified)))
}

func TestClosedClientIsUnregistered(t *testing.T) {
	bus := NewBus(1)
	a := bus.Register()
	b := bus.Register()
	require.Equal(t, 2, bus.Clients())

	a.Close()
	a.Close()
	assert.Equal(t, 1, bus.Clients())
	b.Close()
	assert.Equal(t, 0, bus.Clients())
	assert.Equal(t, 0, bus.Broadcast(UpdateMessage("x", model.FlagNotified)))
}

func TestTasksChangedSignalCoalesces(t *testing.T) {
	bus := NewBus(1)
	c := bus.Register()
	defer c.Close()

	c.NotifyTasksChanged()
	bus.NotifyTasksChanged()

	select {
	case <-bus.Signals():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-bus.Signals():
		t.Fatal("signals should coalesce")
	default:
	}
}
