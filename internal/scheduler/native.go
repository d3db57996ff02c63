package scheduler

import (
	"context"
	"time"
	"unicode/utf16"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/metrics"
	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/reminder"
)

const (
	ChannelReminders = "tasker-reminders"
	ChannelAlerts    = "tasker-alerts"

	DefaultSound     = "default"
	DefaultSmallIcon = "ic_notification"
	DefaultLargeIcon = "ic_launcher"

	FiveMinuteLead = 5 * time.Minute
)

// AlarmService is the host one-shot alarm API. Engine implements it.
type AlarmService interface {
	CreateChannel(ch Channel) error
	Schedule(alarms ...Alarm) error
	Cancel(ids ...int64) int
	Pending() []Alarm
}

// Channels returns the two channels reminders are posted on.
func Channels() []Channel {
	return []Channel{
		{
			ID:          ChannelReminders,
			Name:        "Task Reminders",
			Description: "5 minute reminder before tasks",
			Importance:  4,
			Visibility:  1,
			Sound:       DefaultSound,
			Vibration:   true,
		},
		{
			ID:          ChannelAlerts,
			Name:        "Task Alerts",
			Description: "Alerts when task time arrives",
			Importance:  5,
			Visibility:  1,
			Sound:       DefaultSound,
			Vibration:   true,
		},
	}
}

// AlarmID derives a stable numeric id from the task id and reminder kind
// using a 31-multiplier string hash over UTF-16 code units, wrapped to 32
// bits.
func AlarmID(taskID string, kind model.ReminderKind) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(taskID + "-" + string(kind))) {
		h = 31*h + int32(unit)
	}
	id := int64(h)
	if id < 0 {
		id = -id
	}
	return id
}

func channelFor(kind model.ReminderKind) string {
	if kind == model.ReminderOnTime {
		return ChannelAlerts
	}
	return ChannelReminders
}

// Native books one-shot alarms for each task's reminders. Fired alarms only
// display; they never write the task's flags.
type Native struct {
	svc AlarmService
	loc *time.Location
	log *zap.Logger
}

func NewNative(svc AlarmService, loc *time.Location, log *zap.Logger) *Native {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Native{svc: svc, loc: loc, log: log}
}

func (n *Native) CreateChannels(ctx context.Context) error {
	for _, ch := range Channels() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.svc.CreateChannel(ch); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleTask replaces the task's pending alarms. Completed tasks, tasks
// without a parsable due and tasks already due are skipped. The five-minute
// alarm is only booked while its instant is still ahead.
func (n *Native) ScheduleTask(ctx context.Context, task model.Task, now time.Time) ([]Alarm, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if task.Completed {
		return nil, nil
	}
	due, ok := task.DueInstant(n.loc)
	if !ok || !due.After(now) {
		return nil, nil
	}

	n.CancelTask(ctx, task.ID)

	alarms := make([]Alarm, 0, 2)
	if early := due.Add(-FiveMinuteLead); early.After(now) {
		alarms = append(alarms, n.alarm(task, model.ReminderFiveMin, early))
	}
	alarms = append(alarms, n.alarm(task, model.ReminderOnTime, due))

	if err := n.svc.Schedule(alarms...); err != nil {
		n.log.Warn("scheduling alarms failed", zap.String("task_id", task.ID), zap.Error(err))
		return nil, err
	}
	for _, a := range alarms {
		metrics.RecordAlarmScheduled(a.Extra.Type)
	}
	n.log.Debug("alarms scheduled", zap.String("task_id", task.ID), zap.Int("count", len(alarms)))
	return alarms, nil
}

func (n *Native) alarm(task model.Task, kind model.ReminderKind, at time.Time) Alarm {
	msg := reminder.MessageFor(task, kind)
	return Alarm{
		ID:        AlarmID(task.ID, kind),
		Title:     msg.Title,
		Body:      msg.Body,
		At:        at,
		Sound:     DefaultSound,
		SmallIcon: DefaultSmallIcon,
		LargeIcon: DefaultLargeIcon,
		ChannelID: channelFor(kind),
		Extra:     Extra{TaskID: task.ID, Type: string(kind)},
	}
}

// CancelTask drops every pending alarm whose extra names taskID.
func (n *Native) CancelTask(_ context.Context, taskID string) int {
	var ids []int64
	for _, a := range n.svc.Pending() {
		if a.Extra.TaskID == taskID {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	return n.svc.Cancel(ids...)
}

// ScheduleAll books alarms for every task that is not completed and
// reports how many alarms were booked. A failing task does not stop the
// rest.
func (n *Native) ScheduleAll(ctx context.Context, tasks []model.Task, now time.Time) (int, error) {
	total := 0
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		alarms, err := n.ScheduleTask(ctx, task, now)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			continue
		}
		total += len(alarms)
	}
	return total, nil
}

// Reschedule follows an edit. Alarms are rebooked only when the due date
// or time changed; completing a task cancels them and reopening it books
// them again.
func (n *Native) Reschedule(ctx context.Context, before, after model.Task, now time.Time) error {
	switch {
	case after.Completed && !before.Completed:
		n.CancelTask(ctx, after.ID)
		return nil
	case !after.Completed && before.Completed:
		_, err := n.ScheduleTask(ctx, after, now)
		return err
	case before.DueDate == after.DueDate && before.DueTime == after.DueTime:
		return nil
	}
	n.CancelTask(ctx, after.ID)
	_, err := n.ScheduleTask(ctx, after, now)
	return err
}
