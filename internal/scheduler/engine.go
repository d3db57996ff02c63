// Package scheduler holds the one-shot alarm service and the native
// reminder driver that books alarms on it. Alarms live in the Engine, not
// in any view, so they still fire after the view that booked them closed.
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrEngineStopped      = errors.New("scheduler: engine stopped")
	ErrInvalidChannel     = errors.New("scheduler: invalid channel")
)

// Extra is the payload attached to an alarm.
type Extra struct {
	TaskID string
	Type   string
}

type Alarm struct {
	ID        int64
	Title     string
	Body      string
	At        time.Time
	Sound     string
	SmallIcon string
	LargeIcon string
	ChannelID string
	Extra     Extra
}

type Channel struct {
	ID          string
	Name        string
	Description string
	Importance  int
	Visibility  int
	Sound       string
	Vibration   bool
}

type queueItem struct {
	alarm Alarm
	index int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].alarm.At.Before(pq[j].alarm.At)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

type Engine struct {
	mu       sync.Mutex
	queue    priorityQueue
	byID     map[int64]*queueItem
	channels map[string]Channel
	out      chan Alarm
	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	dropped  uint64
	onDrop   func(Alarm)
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:    make(priorityQueue, 0),
		byID:     make(map[int64]*queueItem),
		channels: make(map[string]Channel),
		out:      make(chan Alarm, bufferSize),
		wakeup:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// OnDrop registers a hook for alarms the consumer was too slow to take.
// Call it before Start.
func (e *Engine) OnDrop(fn func(Alarm)) {
	e.mu.Lock()
	e.onDrop = fn
	e.mu.Unlock()
}

// C delivers fired alarms. It is closed when the engine stops.
func (e *Engine) C() <-chan Alarm {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) CreateChannel(ch Channel) error {
	if ch.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidChannel)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channels[ch.ID] = ch
	return nil
}

func (e *Engine) Channel(id string) (Channel, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.channels[id]
	return ch, ok
}

// Schedule books alarms. An alarm whose id is already pending replaces it.
// Nothing is booked if any alarm is invalid.
func (e *Engine) Schedule(alarms ...Alarm) error {
	for _, a := range alarms {
		if a.At.IsZero() {
			return fmt.Errorf("%w: alarm %d", ErrInvalidTriggerTime, a.ID)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}

	for _, a := range alarms {
		if item, ok := e.byID[a.ID]; ok {
			item.alarm = a
			heap.Fix(&e.queue, item.index)
			continue
		}
		item := &queueItem{alarm: a}
		heap.Push(&e.queue, item)
		e.byID[a.ID] = item
	}
	e.signalWakeup()
	return nil
}

// Cancel removes pending alarms and reports how many were removed.
func (e *Engine) Cancel(ids ...int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	removed := 0
	for _, id := range ids {
		item, ok := e.byID[id]
		if !ok {
			continue
		}
		heap.Remove(&e.queue, item.index)
		delete(e.byID, id)
		removed++
	}
	if removed > 0 {
		e.signalWakeup()
	}
	return removed
}

// Pending lists booked alarms in firing order.
func (e *Engine) Pending() []Alarm {
	e.mu.Lock()
	out := make([]Alarm, 0, len(e.queue))
	for _, item := range e.queue {
		out = append(out, item.alarm)
	}
	e.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.At)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, a := range e.popDue(time.Now()) {
				select {
				case e.out <- a:
				default:
					atomic.AddUint64(&e.dropped, 1)
					e.mu.Lock()
					onDrop := e.onDrop
					e.mu.Unlock()
					if onDrop != nil {
						onDrop(a)
					}
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Alarm, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Alarm{}, false
	}
	return e.queue[0].alarm, true
}

func (e *Engine) popDue(now time.Time) []Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Alarm, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].alarm
		if next.At.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(*queueItem)
		delete(e.byID, item.alarm.ID)
		out = append(out, item.alarm)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
