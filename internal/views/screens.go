package views

import (
	"fmt"
	"strings"
)

type TaskRowData struct {
	ID            string
	Title         string
	Due           string
	PriorityBadge string
	Category      string
	CategoryColor string
	Completed     bool
	Overdue       bool
	Attachments   int
	Sent          []string
}

type TaskListPanelData struct {
	Filter      string
	Search      string
	Rows        []TaskRowData
	SelectedID  string
	Total       int
	Pending     int
	Completed   int
	High        int
	ProgressBar string
}

type AttachmentData struct {
	Name string
	Type string
	Size int64
}

type TaskDetailData struct {
	ID           string
	Title        string
	Due          string
	Priority     string
	Category     string
	Color        string
	Completed    bool
	Sent         []string
	Description  string
	Attachments  []AttachmentData
	AlarmsBooked int
}

type CategoryRowData struct {
	ID    string
	Name  string
	Color string
	Tasks int
}

type CategoryPanelData struct {
	TableView string
	Rows      []CategoryRowData
}

type ReminderEntryData struct {
	At     string
	Driver string
	Kind   string
	Title  string
}

type ReminderLogPanelData struct {
	Entries []ReminderEntryData
	Pending []string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTaskListPanel(data TaskListPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("tasks: %s", data.Filter))
	if data.Search != "" {
		b.WriteString(fmt.Sprintf(" | search: %q", data.Search))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("total %d | pending %d | done %d | high %d\n", data.Total, data.Pending, data.Completed, data.High))
	if data.ProgressBar != "" {
		b.WriteString(data.ProgressBar + "\n")
	}
	b.WriteString("actions: [j/k]move [x]done [d]delete [f]filter [/]cmd\n\n")
	if len(data.Rows) == 0 {
		b.WriteString("(no tasks)")
		return b.String()
	}
	for i, row := range data.Rows {
		cursor := " "
		if row.ID == data.SelectedID {
			cursor = cursorStyle.Render(">")
		}
		title := row.Title
		if row.Completed {
			title = doneStyle.Render(title)
		}
		line := fmt.Sprintf("%s %2d. %s %s", cursor, i+1, row.PriorityBadge, title)
		if row.Due != "" {
			line += " @" + row.Due
		}
		if row.Overdue {
			line += " " + errorStyle.Render("overdue")
		}
		if row.Category != "" {
			line += " " + Swatch("#"+row.Category, row.CategoryColor)
		}
		if row.Attachments > 0 {
			line += fmt.Sprintf(" 📎%d", row.Attachments)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderTaskDetail(data TaskDetailData, markdown string) string {
	if strings.TrimSpace(data.ID) == "" {
		return "details:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("details:\n")
	b.WriteString(fmt.Sprintf("title: %s\n", data.Title))
	b.WriteString(fmt.Sprintf("id: %s\n", data.ID))
	b.WriteString(fmt.Sprintf("due: %s\n", data.Due))
	b.WriteString(fmt.Sprintf("priority: %s\n", data.Priority))
	b.WriteString(fmt.Sprintf("category: %s\n", Swatch(data.Category, data.Color)))
	state := "pending"
	if data.Completed {
		state = "completed"
	}
	b.WriteString(fmt.Sprintf("state: %s\n", state))
	if len(data.Sent) > 0 {
		b.WriteString(fmt.Sprintf("sent: %s\n", strings.Join(data.Sent, ",")))
	}
	if data.AlarmsBooked > 0 {
		b.WriteString(fmt.Sprintf("alarms booked: %d\n", data.AlarmsBooked))
	}
	if len(data.Attachments) > 0 {
		b.WriteString("attachments:\n")
		for i, a := range data.Attachments {
			b.WriteString(fmt.Sprintf("  %d. %s (%s, %s)\n", i+1, a.Name, a.Type, humanBytes(a.Size)))
		}
	}
	b.WriteString("\n")
	b.WriteString(markdown)
	return strings.TrimSpace(b.String())
}

func RenderCategoryPanel(data CategoryPanelData) string {
	var b strings.Builder
	b.WriteString("categories:\n")
	b.WriteString("actions: /category add <name> [#color] | /category delete <name>\n")
	b.WriteString(data.TableView + "\n")
	for _, row := range data.Rows {
		b.WriteString(fmt.Sprintf("%s %s (%d)\n", Swatch("■", row.Color), row.Name, row.Tasks))
	}
	return strings.TrimSpace(b.String())
}

func RenderReminderLogPanel(data ReminderLogPanelData) string {
	var b strings.Builder
	b.WriteString("reminders:\n")
	if len(data.Entries) == 0 {
		b.WriteString("(none fired yet)\n")
	}
	for i := len(data.Entries) - 1; i >= 0; i-- {
		e := data.Entries[i]
		b.WriteString(fmt.Sprintf("%s [%s] %s %s\n", e.At, e.Driver, e.Kind, e.Title))
	}
	if len(data.Pending) > 0 {
		b.WriteString("\nbooked alarms:\n")
		for _, p := range data.Pending {
			b.WriteString("  " + p + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
