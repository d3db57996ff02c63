package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/reminder"
	"github.com/sandeepkv93/tasker/internal/scheduler"
	"github.com/sandeepkv93/tasker/internal/taskstore"
)

type View string

const (
	ViewTasks      View = "Tasks"
	ViewCategories View = "Categories"
	ViewReminders  View = "Reminders"
)

const (
	DefaultRefreshInterval = 5 * time.Second
	maxReminderLog         = 20
	maxNotifications       = 40
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Tasks      string
	Categories string
	Reminders  string
	Help       string
	Quit       string
}

// AlarmBooker is the native scheduling driver as seen from the view.
type AlarmBooker interface {
	ScheduleTask(ctx context.Context, task model.Task, now time.Time) ([]scheduler.Alarm, error)
	CancelTask(ctx context.Context, taskID string) int
	Reschedule(ctx context.Context, before, after model.Task, now time.Time) error
}

type PendingAlarms interface {
	Pending() []scheduler.Alarm
}

// Signaler tells the background worker to re-check.
type Signaler interface {
	NotifyTasksChanged()
}

type Deps struct {
	Store *taskstore.Store
	// Native and Alarms are nil when native alarms are disabled.
	Native          AlarmBooker
	Alarms          PendingAlarms
	Signal          Signaler
	Now             func() time.Time
	Log             *zap.Logger
	RefreshInterval time.Duration
}

type ReminderEntry struct {
	TaskID string
	Title  string
	Kind   model.ReminderKind
	Driver string
	At     time.Time
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	CurrentView    View
	SelectedTaskID string
	Filter         taskstore.Filter
	Tasks          []model.Task
	Categories     []model.Category
	Stats          taskstore.Stats
	Cursor         int
	ReminderLog    []ReminderEntry
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error
	Width          int

	deps Deps
	ctx  context.Context
	// Bubble components used for rich TUI controls
	categoryTable  table.Model
	commandInput   textinput.Model
	detailViewport viewport.Model
	doneProgress   progress.Model
	helpModel      help.Model
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// RefreshTickMsg reloads tasks so writes made by other drivers show up.
type RefreshTickMsg struct{}

// TasksChangedMsg asks for an immediate reload.
type TasksChangedMsg struct{}

type ReminderFiredMsg struct {
	Entry ReminderEntry
}

// ReminderFired builds the message a driver sends when it showed a
// reminder.
func ReminderFired(driver string, d reminder.Due, at time.Time) ReminderFiredMsg {
	return ReminderFiredMsg{Entry: ReminderEntry{
		TaskID: d.Task.ID,
		Title:  d.Task.Title,
		Kind:   d.Kind,
		Driver: driver,
		At:     at,
	}}
}

func NewModel(ctx context.Context, deps Deps) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.RefreshInterval <= 0 {
		deps.RefreshInterval = DefaultRefreshInterval
	}
	m := Model{
		CurrentView: ViewTasks,
		Filter:      taskstore.Filter{Status: taskstore.StatusAll},
		Keys: GlobalKeyMap{
			Tasks:      "1",
			Categories: "2",
			Reminders:  "3",
			Help:       "?",
			Quit:       "q",
		},
		deps: deps,
		ctx:  ctx,
	}
	m.initBubbleComponents()
	m.reload()
	m.syncBubbleData()
	return m
}
