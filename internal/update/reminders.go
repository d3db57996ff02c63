package update

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/notify"
	"github.com/sandeepkv93/tasker/internal/scheduler"
)

// recordReminder appends a fired reminder to the log, keeps the newest
// maxReminderLog entries and reloads so the new flags show.
func (m *Model) recordReminder(e ReminderEntry) {
	m.ReminderLog = append(m.ReminderLog, e)
	if len(m.ReminderLog) > maxReminderLog {
		m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-maxReminderLog:]
	}
	switch e.Kind {
	case model.ReminderOnTime:
		m.Status = StatusBar{Text: fmt.Sprintf("due now: %s", e.Title), IsError: true}
	default:
		m.Status = StatusBar{Text: fmt.Sprintf("starting in 5 minutes: %s", e.Title)}
	}
	m.notify("Reminder", fmt.Sprintf("%s (%s via %s)", e.Title, e.Kind, e.Driver), levelFromError(m.Status.IsError))
	m.reload()
}

// TaskLookup finds a stored task by id.
type TaskLookup interface {
	Task(ctx context.Context, id string) (model.Task, error)
}

// AlarmLog is a notify.Notifier that forwards natively fired alarms to the
// reminder log under the task's title.
type AlarmLog struct {
	Send  func(tea.Msg)
	Tasks TaskLookup
	Now   func() time.Time
}

func (a AlarmLog) Show(ctx context.Context, n notify.Notification) error {
	title := n.Body
	if a.Tasks != nil {
		if task, err := a.Tasks.Task(ctx, n.TaskID); err == nil {
			title = task.Title
		}
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	a.Send(ReminderFiredMsg{Entry: ReminderEntry{
		TaskID: n.TaskID,
		Title:  title,
		Kind:   n.Kind,
		Driver: scheduler.DriverNative,
		At:     now(),
	}})
	return nil
}
