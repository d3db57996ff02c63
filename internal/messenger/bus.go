// Package messenger connects the background worker with foreground
// clients. The two sides share no memory: tasks travel by value in
// request/reply messages and flag updates are broadcast fire-and-forget.
package messenger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sandeepkv93/tasker/internal/model"
)

var (
	ErrNoClients    = errors.New("messenger: no foreground clients")
	ErrReplyTimeout = errors.New("messenger: reply timeout")
)

// DefaultReplyTimeout bounds how long a GET_TASKS request waits.
const DefaultReplyTimeout = time.Second

type Type string

const (
	TypeGetTasks               Type = "GET_TASKS"
	TypeUpdateTaskNotification Type = "UPDATE_TASK_NOTIFICATION"
	TypeTasksUpdate            Type = "TASKS_UPDATE"
)

type TasksReply struct {
	Tasks []model.Task
}

type Message struct {
	Type   Type
	TaskID string
	Field  model.NotificationFlag
	// Reply is set on GET_TASKS only and accepts exactly one reply.
	Reply chan<- TasksReply
}

func UpdateMessage(taskID string, field model.NotificationFlag) Message {
	return Message{Type: TypeUpdateTaskNotification, TaskID: taskID, Field: field}
}

type Bus struct {
	mu        sync.Mutex
	clients   []*Client
	signals   chan struct{}
	inboxSize int
}

func NewBus(inboxSize int) *Bus {
	if inboxSize <= 0 {
		inboxSize = 16
	}
	return &Bus{
		signals:   make(chan struct{}, 1),
		inboxSize: inboxSize,
	}
}

// Client is one foreground endpoint.
type Client struct {
	bus       *Bus
	inbox     chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func (b *Bus) Register() *Client {
	c := &Client{
		bus:   b,
		inbox: make(chan Message, b.inboxSize),
		done:  make(chan struct{}),
	}
	b.mu.Lock()
	b.clients = append(b.clients, c)
	b.mu.Unlock()
	return c
}

func (c *Client) Inbox() <-chan Message { return c.inbox }

func (c *Client) Done() <-chan struct{} { return c.done }

// Close unregisters the client. Messages already queued are dropped.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.bus.remove(c)
	})
}

// NotifyTasksChanged asks the background worker to re-run its check.
func (c *Client) NotifyTasksChanged() {
	c.bus.NotifyTasksChanged()
}

func (b *Bus) remove(target *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.clients {
		if c == target {
			b.clients = append(b.clients[:i], b.clients[i+1:]...)
			return
		}
	}
}

func (b *Bus) snapshot() []*Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Client(nil), b.clients...)
}

func (b *Bus) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// RequestTasks asks the first registered client for its task list and waits
// at most timeout for the reply.
func (b *Bus) RequestTasks(ctx context.Context, timeout time.Duration) ([]model.Task, error) {
	clients := b.snapshot()
	if len(clients) == 0 {
		return nil, ErrNoClients
	}
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	target := clients[0]
	reply := make(chan TasksReply, 1)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case target.inbox <- Message{Type: TypeGetTasks, Reply: reply}:
	case <-target.done:
		return nil, ErrNoClients
	case <-timer.C:
		return nil, ErrReplyTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.Tasks, nil
	case <-timer.C:
		return nil, ErrReplyTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Broadcast delivers msg to every client without waiting. A client with a
// full inbox misses the message. It returns how many clients got it.
func (b *Bus) Broadcast(msg Message) int {
	delivered := 0
	for _, c := range b.snapshot() {
		select {
		case c.inbox <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

// NotifyTasksChanged coalesces with any signal not yet consumed.
func (b *Bus) NotifyTasksChanged() {
	select {
	case b.signals <- struct{}{}:
	default:
	}
}

func (b *Bus) Signals() <-chan struct{} { return b.signals }
