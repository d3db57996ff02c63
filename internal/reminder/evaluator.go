// Package reminder decides which reminders are due for a task at a given
// instant. Everything here is pure: callers display the result and persist
// the flags themselves.
package reminder

import (
	"time"

	"github.com/sandeepkv93/tasker/internal/model"
)

// Window is a half-open range of minutes until the due instant: (Lower, Upper].
type Window struct {
	Lower float64
	Upper float64
}

func (w Window) Contains(minutes float64) bool {
	return minutes > w.Lower && minutes <= w.Upper
}

var (
	// FiveMinWindow is wider than one minute because checks run every
	// 30 to 60 seconds.
	FiveMinWindow = Window{Lower: 3, Upper: 6}
	// OnTimeWindow fires at most one minute early and at most two minutes
	// late. A task first checked later than that never gets an on-time
	// reminder.
	OnTimeWindow = Window{Lower: -2, Upper: 1}
)

func WindowFor(kind model.ReminderKind) Window {
	if kind == model.ReminderFiveMin {
		return FiveMinWindow
	}
	return OnTimeWindow
}

// Due is a reminder that should be shown now.
type Due struct {
	Task model.Task
	Kind model.ReminderKind
}

// MinutesUntil returns the signed minutes from now to the task's due
// instant.
func MinutesUntil(now time.Time, task model.Task, loc *time.Location) (float64, bool) {
	due, ok := task.DueInstant(loc)
	if !ok {
		return 0, false
	}
	return float64(due.Sub(now).Milliseconds()) / 60000, true
}

// Evaluate returns the reminders newly due for task at now, in kind order
// (5min before ontime).
func Evaluate(now time.Time, task model.Task, loc *time.Location) []Due {
	if task.Completed {
		return nil
	}
	minutes, ok := MinutesUntil(now, task, loc)
	if !ok {
		return nil
	}
	var out []Due
	for _, kind := range []model.ReminderKind{model.ReminderFiveMin, model.ReminderOnTime} {
		if task.Sent.Has(kind.Flag()) {
			continue
		}
		if WindowFor(kind).Contains(minutes) {
			out = append(out, Due{Task: task, Kind: kind})
		}
	}
	return out
}

func EvaluateAll(now time.Time, tasks []model.Task, loc *time.Location) []Due {
	var out []Due
	for _, task := range tasks {
		out = append(out, Evaluate(now, task, loc)...)
	}
	return out
}
