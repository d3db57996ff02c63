package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/tasker/internal/reminder"
	"github.com/sandeepkv93/tasker/internal/views"
)

const dueLayout = "2006-01-02 15:04"

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Name", Width: 20},
		{Title: "Color", Width: 9},
		{Title: "Tasks", Width: 6},
	}
	m.categoryTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(false), table.WithHeight(8))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 512
	m.commandInput.Width = 48

	m.detailViewport = viewport.New(54, 10)
	m.doneProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	m.helpModel = help.New()
}

func (m *Model) syncBubbleData() {
	counts := make(map[string]int)
	for _, t := range m.Tasks {
		counts[t.Category]++
	}
	rows := make([]table.Row, 0, len(m.Categories))
	for _, c := range m.Categories {
		rows = append(rows, table.Row{c.ID, c.Name, c.Color, fmt.Sprint(counts[c.ID])})
	}
	m.categoryTable.SetRows(rows)

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	} else {
		m.commandInput.Blur()
	}

	md := "_No description_"
	if sel, ok := m.selectedTask(); ok && strings.TrimSpace(sel.Description) != "" {
		md = sel.Description
	}
	m.detailViewport.SetContent(views.RenderMarkdown(md))
}

func (m Model) completionRatio() float64 {
	if m.Stats.Total == 0 {
		return 0
	}
	return float64(m.Stats.Completed) / float64(m.Stats.Total)
}

func (m Model) renderTasksView() string {
	now := m.deps.Now()
	loc := m.location()
	rows := make([]views.TaskRowData, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		row := views.TaskRowData{
			ID:            t.ID,
			Title:         t.Title,
			Due:           t.DueDate + " " + t.DueTime,
			PriorityBadge: reminder.PriorityEmoji(t.Priority),
			Completed:     t.Completed,
			Attachments:   len(t.Attachments),
		}
		if due, ok := t.DueInstant(loc); ok {
			row.Due = due.Format(dueLayout)
			row.Overdue = !t.Completed && due.Before(now)
		}
		if c, ok := m.categoryFor(t.Category); ok {
			row.Category = c.Name
			row.CategoryColor = c.Color
		}
		rows = append(rows, row)
	}
	return views.RenderTaskListPanel(views.TaskListPanelData{
		Filter:      string(m.Filter.Status),
		Search:      m.Filter.Search,
		Rows:        rows,
		SelectedID:  m.SelectedTaskID,
		Total:       m.Stats.Total,
		Pending:     m.Stats.Pending,
		Completed:   m.Stats.Completed,
		High:        m.Stats.High,
		ProgressBar: m.doneProgress.ViewAs(m.completionRatio()),
	})
}

func (m Model) renderDetailPane() string {
	sel, ok := m.selectedTask()
	if !ok {
		return views.RenderTaskDetail(views.TaskDetailData{}, "")
	}
	data := views.TaskDetailData{
		ID:        sel.ID,
		Title:     sel.Title,
		Due:       sel.DueDate + " " + sel.DueTime,
		Priority:  string(sel.Priority),
		Category:  sel.Category,
		Completed: sel.Completed,
	}
	if c, ok := m.categoryFor(sel.Category); ok {
		data.Category = c.Name
		data.Color = c.Color
	}
	for _, f := range sel.Sent.Flags() {
		data.Sent = append(data.Sent, string(f))
	}
	for _, a := range sel.Attachments {
		data.Attachments = append(data.Attachments, views.AttachmentData{Name: a.Name, Type: a.Type, Size: a.Size})
	}
	if m.deps.Alarms != nil {
		for _, a := range m.deps.Alarms.Pending() {
			if a.Extra.TaskID == sel.ID {
				data.AlarmsBooked++
			}
		}
	}
	return views.RenderTaskDetail(data, m.detailViewport.View())
}

func (m Model) renderCategoriesView() string {
	counts := make(map[string]int)
	for _, t := range m.Tasks {
		counts[t.Category]++
	}
	rows := make([]views.CategoryRowData, 0, len(m.Categories))
	for _, c := range m.Categories {
		rows = append(rows, views.CategoryRowData{ID: c.ID, Name: c.Name, Color: c.Color, Tasks: counts[c.ID]})
	}
	return views.RenderCategoryPanel(views.CategoryPanelData{
		TableView: m.categoryTable.View(),
		Rows:      rows,
	})
}

func (m Model) renderRemindersView() string {
	entries := make([]views.ReminderEntryData, 0, len(m.ReminderLog))
	for _, e := range m.ReminderLog {
		entries = append(entries, views.ReminderEntryData{
			At:     e.At.In(m.location()).Format("15:04:05"),
			Driver: e.Driver,
			Kind:   string(e.Kind),
			Title:  e.Title,
		})
	}
	var pending []string
	if m.deps.Alarms != nil {
		titles := make(map[string]string, len(m.Tasks))
		for _, t := range m.Tasks {
			titles[t.ID] = t.Title
		}
		for _, a := range m.deps.Alarms.Pending() {
			title := titles[a.Extra.TaskID]
			if title == "" {
				title = a.Extra.TaskID
			}
			pending = append(pending, fmt.Sprintf("%s %s %s", a.At.In(m.location()).Format(dueLayout), a.Extra.Type, title))
		}
	}
	return views.RenderReminderLogPanel(views.ReminderLogPanelData{Entries: entries, Pending: pending})
}

func (m Model) renderCommandPalette() string {
	if !m.Palette.Active {
		return ""
	}
	return views.RenderCommandPalette(true, m.commandInput.View()) + "\n"
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	last := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(last.Level, fmt.Sprintf("%s: %s", last.Title, last.Body))
}

func (m Model) location() *time.Location {
	if m.deps.Store != nil {
		return m.deps.Store.Location()
	}
	return time.Local
}
