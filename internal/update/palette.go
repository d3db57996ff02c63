package update

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tasker/internal/commands"
	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/taskstore"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		m.commandInput, _ = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	res, err := m.RunCommand(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
	} else {
		m.Status = StatusBar{Text: res.Message, IsError: false}
		m.notify("Command", res.Message, "info")
	}

	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	return m
}

// RunCommand parses and executes one palette command against the store.
func (m *Model) RunCommand(raw string) (commands.Result, error) {
	cmd, err := commands.Parse(raw)
	if err != nil {
		return commands.Result{}, err
	}
	return commands.Execute(cmd, commands.Handlers{
		Add:      m.addTask,
		Edit:     m.editTask,
		Done:     m.doneTask,
		Delete:   m.deleteTasks,
		Show:     m.showTasks,
		Category: m.categoryCommand,
		Attach:   m.attachFile,
		Detach:   m.detachFile,
		Export:   m.exportTasks,
		Save:     m.saveAttachment,
	})
}

func invalidArg(format string, args ...any) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func (m *Model) resolveFields(f commands.TaskFields) (taskstore.Patch, error) {
	var p taskstore.Patch
	if f.Title != "" {
		p.Title = &f.Title
	}
	if f.HasDescription {
		p.Description = &f.Description
	}
	if f.DueDate != "" {
		date, err := resolveDate(f.DueDate, m.deps.Now().In(m.location()))
		if err != nil {
			return p, err
		}
		p.DueDate = &date
	}
	if f.DueTime != "" {
		clock, err := resolveClock(f.DueTime)
		if err != nil {
			return p, err
		}
		p.DueTime = &clock
	}
	if f.Priority != "" {
		prio, err := model.ParsePriority(f.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &prio
	}
	if f.Category != "" {
		c, ok := m.categoryFor(f.Category)
		if !ok {
			return p, fmt.Errorf("%w: %s", taskstore.ErrCategoryNotFound, f.Category)
		}
		p.Category = &c.ID
	}
	return p, nil
}

func (m *Model) addTask(a commands.AddArgs) (commands.Result, error) {
	p, err := m.resolveFields(a.TaskFields)
	if err != nil {
		return commands.Result{}, err
	}
	in := taskstore.NewTask{Title: a.Title, DueDate: *p.DueDate, DueTime: *p.DueTime}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Priority != nil {
		in.Priority = *p.Priority
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	task, err := m.deps.Store.AddTask(m.ctx, in)
	if err != nil {
		return commands.Result{}, err
	}
	m.SelectedTaskID = task.ID
	m.afterChange(model.Task{}, task)
	return commands.Result{Message: fmt.Sprintf("added task: %s", task.Title)}, nil
}

func (m *Model) editTask(e commands.EditArgs) (commands.Result, error) {
	task, err := m.resolveTarget(e.Target)
	if err != nil {
		return commands.Result{}, err
	}
	p, err := m.resolveFields(e.TaskFields)
	if err != nil {
		return commands.Result{}, err
	}
	up, err := m.deps.Store.UpdateTask(m.ctx, task.ID, p)
	if err != nil {
		return commands.Result{}, err
	}
	m.afterChange(up.Before, up.After)
	msg := fmt.Sprintf("updated task: %s", up.After.Title)
	if up.DueChanged {
		msg += " (reminders reset)"
	}
	return commands.Result{Message: msg}, nil
}

func (m *Model) doneTask(d commands.DoneArgs) (commands.Result, error) {
	before, err := m.resolveTarget(d.Target)
	if err != nil {
		return commands.Result{}, err
	}
	after, err := m.deps.Store.ToggleCompleted(m.ctx, before.ID)
	if err != nil {
		return commands.Result{}, err
	}
	m.afterChange(before, after)
	if after.Completed {
		return commands.Result{Message: fmt.Sprintf("completed: %s", after.Title)}, nil
	}
	return commands.Result{Message: fmt.Sprintf("reopened: %s", after.Title)}, nil
}

func (m *Model) deleteTasks(d commands.DeleteArgs) (commands.Result, error) {
	victims := make([]model.Task, 0, len(d.Targets))
	for _, target := range d.Targets {
		task, err := m.resolveTarget(target)
		if err != nil {
			return commands.Result{}, err
		}
		victims = append(victims, task)
	}
	ids := make([]string, 0, len(victims))
	for _, t := range victims {
		ids = append(ids, t.ID)
	}
	n, err := m.deps.Store.DeleteTasks(m.ctx, ids)
	if err != nil {
		return commands.Result{}, err
	}
	for _, t := range victims {
		m.afterChange(t, model.Task{})
	}
	return commands.Result{Message: fmt.Sprintf("deleted %d task(s)", n)}, nil
}

func (m *Model) showTasks(s commands.ShowArgs) (commands.Result, error) {
	status := taskstore.Status(s.Filter)
	if !status.IsValid() {
		return commands.Result{}, invalidArg("unknown filter %q", s.Filter)
	}
	m.Filter = taskstore.Filter{Status: status, Search: s.Search}
	m.CurrentView = ViewTasks
	m.reload()
	return commands.Result{Message: fmt.Sprintf("showing %s (%d)", status, len(m.Tasks))}, nil
}

func (m *Model) categoryCommand(c commands.CategoryArgs) (commands.Result, error) {
	switch c.Action {
	case "add":
		cat, err := m.deps.Store.AddCategory(m.ctx, c.Name, c.Color)
		if err != nil {
			return commands.Result{}, err
		}
		m.reload()
		return commands.Result{Message: fmt.Sprintf("added category: %s", cat.Name)}, nil
	case "delete":
		cat, ok := m.categoryFor(c.Name)
		if !ok {
			return commands.Result{}, fmt.Errorf("%w: %s", taskstore.ErrCategoryNotFound, c.Name)
		}
		if err := m.deps.Store.DeleteCategory(m.ctx, cat.ID); err != nil {
			return commands.Result{}, err
		}
		m.reload()
		return commands.Result{Message: fmt.Sprintf("deleted category: %s", cat.Name)}, nil
	default:
		return commands.Result{}, invalidArg("unknown category action %q", c.Action)
	}
}

func (m *Model) attachFile(a commands.AttachArgs) (commands.Result, error) {
	task, err := m.resolveTarget(a.Target)
	if err != nil {
		return commands.Result{}, err
	}
	info, err := os.Stat(a.Path)
	if err != nil {
		return commands.Result{}, err
	}
	if info.Size() > model.MaxAttachmentBytes {
		return commands.Result{}, fmt.Errorf("%w: %s", model.ErrAttachmentTooLarge, info.Name())
	}
	payload, err := os.ReadFile(a.Path)
	if err != nil {
		return commands.Result{}, err
	}
	att, err := model.NewAttachment("", filepath.Base(a.Path), mime.TypeByExtension(filepath.Ext(a.Path)), payload, m.deps.Now())
	if err != nil {
		return commands.Result{}, err
	}
	if _, err := m.deps.Store.AddAttachment(m.ctx, task.ID, att); err != nil {
		return commands.Result{}, err
	}
	m.reload()
	return commands.Result{Message: fmt.Sprintf("attached %s to %s", att.Name, task.Title)}, nil
}

func (m *Model) detachFile(d commands.DetachArgs) (commands.Result, error) {
	task, err := m.resolveTarget(d.Target)
	if err != nil {
		return commands.Result{}, err
	}
	att, err := attachmentFor(task, d.Attachment)
	if err != nil {
		return commands.Result{}, err
	}
	if _, err := m.deps.Store.RemoveAttachment(m.ctx, task.ID, att.ID); err != nil {
		return commands.Result{}, err
	}
	m.reload()
	return commands.Result{Message: fmt.Sprintf("removed attachment from %s", task.Title)}, nil
}

func (m *Model) saveAttachment(a commands.SaveArgs) (commands.Result, error) {
	task, err := m.resolveTarget(a.Target)
	if err != nil {
		return commands.Result{}, err
	}
	att, err := attachmentFor(task, a.Attachment)
	if err != nil {
		return commands.Result{}, err
	}
	payload, err := att.Decode()
	if err != nil {
		return commands.Result{}, err
	}
	if err := writeFileAtomic(a.Path, payload); err != nil {
		return commands.Result{}, err
	}
	return commands.Result{Message: fmt.Sprintf("saved %s to %s", att.Name, a.Path)}, nil
}

// attachmentFor resolves ref as a 1-based position or an attachment id.
func attachmentFor(task model.Task, ref string) (model.Attachment, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(task.Attachments) {
			return model.Attachment{}, fmt.Errorf("%w: #%d", taskstore.ErrAttachmentNotFound, n)
		}
		return task.Attachments[n-1], nil
	}
	for _, att := range task.Attachments {
		if att.ID == ref {
			return att, nil
		}
	}
	return model.Attachment{}, fmt.Errorf("%w: %s", taskstore.ErrAttachmentNotFound, ref)
}

func (m *Model) exportTasks(e commands.ExportArgs) (commands.Result, error) {
	tasks, err := m.deps.Store.Tasks(m.ctx)
	if err != nil {
		return commands.Result{}, err
	}
	cats, err := m.deps.Store.Categories(m.ctx)
	if err != nil {
		return commands.Result{}, err
	}
	snap := exportFile{ExportedAt: m.deps.Now().UTC(), Tasks: tasks, Categories: cats}
	if at, ok, err := m.deps.Store.TasksUpdatedAt(m.ctx); err != nil {
		return commands.Result{}, err
	} else if ok {
		at = at.UTC()
		snap.TasksUpdatedAt = &at
	}
	if err := writeExport(e.Path, snap); err != nil {
		return commands.Result{}, err
	}
	return commands.Result{Message: fmt.Sprintf("exported %d task(s) to %s", len(tasks), e.Path)}, nil
}
