package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tasker/internal/views"
)

func (m Model) Init() tea.Cmd {
	return refreshTick(m.deps.RefreshInterval)
}

func refreshTick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg { return RefreshTickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed), nil
		}
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		m.Width = typed.Width
		m.detailViewport.Width = views.PaneWidth(typed.Width) - 4
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case RefreshTickMsg:
		m.reload()
		return m, refreshTick(m.deps.RefreshInterval)
	case TasksChangedMsg:
		m.reload()
		return m, nil
	case ReminderFiredMsg:
		m.recordReminder(typed.Entry)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
	case m.Keys.Tasks:
		m.CurrentView = ViewTasks
	case m.Keys.Categories:
		m.CurrentView = ViewCategories
	case m.Keys.Reminders:
		m.CurrentView = ViewReminders
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown"}
		} else {
			m.Status = StatusBar{Text: "help hidden"}
		}
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "x", " ":
		if m.CurrentView == ViewTasks {
			m.toggleSelected()
		}
	case "d":
		if m.CurrentView == ViewTasks {
			m.deleteSelected()
		}
	case "f":
		if m.CurrentView == ViewTasks {
			m.cycleFilter()
		}
	case "r":
		m.reload()
		m.Status = StatusBar{Text: "reloaded"}
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	var left, right string
	switch m.CurrentView {
	case ViewCategories:
		left = m.renderCategoriesView()
		right = m.renderCommandPalette() + m.renderHelpIfVisible()
	case ViewReminders:
		left = m.renderRemindersView()
		right = m.renderDetailPane() + m.renderHelpIfVisible()
	default:
		left = m.renderTasksView()
		right = m.renderCommandPalette() + m.renderDetailPane() + m.renderHelpIfVisible()
	}

	notification := m.renderNotificationsView()
	if len(m.ReminderLog) > 0 {
		last := m.ReminderLog[len(m.ReminderLog)-1]
		line := fmt.Sprintf("last-reminder: %s (%s) @ %s", last.Title, last.Kind, last.At.In(m.location()).Format("15:04:05"))
		if notification != "" {
			line += "\n" + notification
		}
		notification = line
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("tasker | view: %s | filter: %s | selected: %s", m.CurrentView, m.Filter.Status, m.SelectedTaskID),
		LeftPane:     left,
		RightPane:    right,
		StatusLine:   status,
		Notification: notification,
		Footer:       fmt.Sprintf("keys: %s tasks | %s categories | %s reminders | / cmd | %s help | %s quit", m.Keys.Tasks, m.Keys.Categories, m.Keys.Reminders, m.Keys.Help, m.Keys.Quit),
		Width:        m.Width,
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewTasks, ViewCategories, ViewReminders:
		return true
	default:
		return false
	}
}
