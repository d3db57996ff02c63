package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/tasker/internal/model"
)

var baseNow = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

func taskDueIn(d time.Duration) model.Task {
	due := baseNow.Add(d)
	return model.Task{
		ID:       "task-1",
		Title:    "Standup",
		DueDate:  due.Format("2006-01-02"),
		DueTime:  due.Format("15:04:05"),
		Priority: model.PriorityHigh,
	}
}

func kinds(due []Due) []model.ReminderKind {
	out := make([]model.ReminderKind, 0, len(due))
	for _, d := range due {
		out = append(out, d.Kind)
	}
	return out
}

func TestFiveMinuteWindowBoundaries(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		due  bool
	}{
		{"five minutes", 5 * time.Minute, true},
		{"six minutes one second", 6*time.Minute + time.Second, false},
		{"exactly three minutes", 3 * time.Minute, false},
		{"exactly six minutes", 6 * time.Minute, true},
		{"three minutes one second", 3*time.Minute + time.Second, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(baseNow, taskDueIn(tc.in), time.UTC)
			if tc.due {
				assert.Equal(t, []model.ReminderKind{model.ReminderFiveMin}, kinds(got))
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestOnTimeWindowBoundaries(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		due  bool
	}{
		{"thirty seconds late", -30 * time.Second, true},
		{"two minutes one second late", -(2*time.Minute + time.Second), false},
		{"exactly two minutes late", -2 * time.Minute, false},
		{"exactly one minute early", time.Minute, true},
		{"one minute one second early", time.Minute + time.Second, false},
		{"at due instant", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(baseNow, taskDueIn(tc.in), time.UTC)
			if tc.due {
				assert.Equal(t, []model.ReminderKind{model.ReminderOnTime}, kinds(got))
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestCompletedTaskNeverDue(t *testing.T) {
	for _, d := range []time.Duration{5 * time.Minute, 0, -time.Minute, 6 * time.Minute} {
		task := taskDueIn(d)
		task.Completed = true
		assert.Empty(t, Evaluate(baseNow, task, time.UTC), "offset %s", d)
	}
}

func TestUnparsableDueNeverDue(t *testing.T) {
	for _, task := range []model.Task{
		{ID: "a", DueDate: "", DueTime: "12:05"},
		{ID: "b", DueDate: "2026-02-09", DueTime: ""},
		{ID: "c", DueDate: "someday", DueTime: "12:05"},
		{ID: "d", DueDate: "2026-02-09", DueTime: "noon"},
	} {
		assert.Empty(t, Evaluate(baseNow, task, time.UTC), "task %s", task.ID)
	}
}

func TestEvaluateIsIdempotentAndGatedByFlags(t *testing.T) {
	task := taskDueIn(5 * time.Minute)
	first := Evaluate(baseNow, task, time.UTC)
	second := Evaluate(baseNow, task, time.UTC)
	require.Equal(t, first, second)
	require.Len(t, first, 1)

	task.Sent = task.Sent.With(first[0].Kind.Flags()...)
	assert.Empty(t, Evaluate(baseNow, task, time.UTC))
	assert.Empty(t, Evaluate(baseNow.Add(30*time.Second), task, time.UTC))
}

func TestOnTimeFlagDoesNotGateFiveMinute(t *testing.T) {
	task := taskDueIn(5 * time.Minute)
	task.Sent = task.Sent.With(model.ReminderOnTime.Flags()...)
	assert.Equal(t, []model.ReminderKind{model.ReminderFiveMin}, kinds(Evaluate(baseNow, task, time.UTC)))
}

func TestCreationScenarioFiresEachReminderOnce(t *testing.T) {
	task := taskDueIn(10 * time.Minute)
	task.Category = "1"

	assert.Empty(t, Evaluate(baseNow, task, time.UTC), "nothing due right after creation")

	fired := map[model.ReminderKind]int{}
	for step := time.Duration(0); step <= 14*time.Minute; step += 30 * time.Second {
		for _, d := range Evaluate(baseNow.Add(step), task, time.UTC) {
			fired[d.Kind]++
			task.Sent = task.Sent.With(d.Kind.Flags()...)
		}
		if step == 5*time.Minute {
			assert.Equal(t, 1, fired[model.ReminderFiveMin], "5min reminder at +5m")
		}
		if step == 10*time.Minute {
			assert.Equal(t, 1, fired[model.ReminderOnTime], "ontime reminder at +10m")
		}
	}
	assert.Equal(t, 1, fired[model.ReminderFiveMin])
	assert.Equal(t, 1, fired[model.ReminderOnTime])
	assert.True(t, task.Sent.Has(model.FlagNotified))
}

func TestLateFirstCheckNeverSendsOnTime(t *testing.T) {
	task := taskDueIn(-3 * time.Minute)
	assert.Empty(t, Evaluate(baseNow, task, time.UTC))
}

func TestEvaluateAllKeepsSnapshotOrder(t *testing.T) {
	a := taskDueIn(5 * time.Minute)
	a.ID = "a"
	b := taskDueIn(0)
	b.ID = "b"
	c := taskDueIn(time.Hour)
	c.ID = "c"

	got := EvaluateAll(baseNow, []model.Task{a, b, c}, time.UTC)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Task.ID)
	assert.Equal(t, "b", got[1].Task.ID)
}

func TestMessageFor(t *testing.T) {
	task := taskDueIn(0)
	msg := MessageFor(task, model.ReminderFiveMin)
	assert.Equal(t, "⏰ Tasker Reminder", msg.Title)
	assert.Equal(t, "🔴 Standup - Starting in 5 minutes!", msg.Body)
	assert.Equal(t, "task-1-5min", msg.Tag)
	assert.False(t, msg.RequireInteraction)

	task.Priority = model.Priority("")
	msg = MessageFor(task, model.ReminderOnTime)
	assert.Equal(t, "🚨 Tasker Alert", msg.Title)
	assert.Equal(t, "📝 Standup - Time is NOW!", msg.Body)
	assert.True(t, msg.RequireInteraction)
}
