package update

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/taskstore"
)

var ErrNoSelection = errors.New("no task selected")

// reload pulls the filtered list, categories and stats from the store and
// keeps the selection on the same task when it is still listed.
func (m *Model) reload() {
	if m.deps.Store == nil {
		return
	}
	tasks, err := m.deps.Store.List(m.ctx, m.Filter)
	if err != nil {
		m.setError(err)
		return
	}
	cats, err := m.deps.Store.Categories(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	stats, err := m.deps.Store.Stats(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	m.Tasks = tasks
	m.Categories = cats
	m.Stats = stats
	m.restoreSelection()
}

func (m *Model) restoreSelection() {
	if len(m.Tasks) == 0 {
		m.Cursor = 0
		m.SelectedTaskID = ""
		return
	}
	if idx := slices.IndexFunc(m.Tasks, func(t model.Task) bool { return t.ID == m.SelectedTaskID }); idx >= 0 {
		m.Cursor = idx
		return
	}
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.SelectedTaskID = m.Tasks[m.Cursor].ID
}

func (m *Model) moveCursor(delta int) {
	if len(m.Tasks) == 0 {
		return
	}
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	m.SelectedTaskID = m.Tasks[m.Cursor].ID
}

func (m Model) selectedTask() (model.Task, bool) {
	for _, t := range m.Tasks {
		if t.ID == m.SelectedTaskID {
			return t, true
		}
	}
	return model.Task{}, false
}

// resolveTarget accepts "." or "selected", a 1-based position in the
// current list (optionally "#"-prefixed), a task id, or a unique id prefix.
func (m Model) resolveTarget(target string) (model.Task, error) {
	target = strings.TrimSpace(target)
	switch strings.ToLower(target) {
	case "", ".", "selected":
		if t, ok := m.selectedTask(); ok {
			return t, nil
		}
		return model.Task{}, ErrNoSelection
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(target, "#")); err == nil {
		if n < 1 || n > len(m.Tasks) {
			return model.Task{}, fmt.Errorf("no task at position %d", n)
		}
		return m.Tasks[n-1], nil
	}

	all, err := m.deps.Store.Tasks(m.ctx)
	if err != nil {
		return model.Task{}, err
	}
	var matches []model.Task
	for _, t := range all {
		if t.ID == target {
			return t, nil
		}
		if strings.HasPrefix(t.ID, target) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", taskstore.ErrTaskNotFound, target)
	default:
		return model.Task{}, fmt.Errorf("ambiguous task id prefix %q", target)
	}
}

// afterChange keeps native alarms and the background worker in step with a
// mutation. A zero before means the task is new; a zero after means it was
// deleted.
func (m *Model) afterChange(before, after model.Task) {
	now := m.deps.Now()
	if m.deps.Native != nil {
		var err error
		switch {
		case after.ID == "":
			m.deps.Native.CancelTask(m.ctx, before.ID)
		case before.ID == "":
			_, err = m.deps.Native.ScheduleTask(m.ctx, after, now)
		default:
			err = m.deps.Native.Reschedule(m.ctx, before, after, now)
		}
		if err != nil {
			m.deps.Log.Warn("updating native alarms failed", zap.String("task_id", after.ID), zap.Error(err))
		}
	}
	if m.deps.Signal != nil {
		m.deps.Signal.NotifyTasksChanged()
	}
	m.reload()
}

func (m *Model) toggleSelected() {
	before, ok := m.selectedTask()
	if !ok {
		m.setError(ErrNoSelection)
		return
	}
	after, err := m.deps.Store.ToggleCompleted(m.ctx, before.ID)
	if err != nil {
		m.setError(err)
		return
	}
	m.afterChange(before, after)
	state := "reopened"
	if after.Completed {
		state = "completed"
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", state, after.Title)}
}

func (m *Model) deleteSelected() {
	task, ok := m.selectedTask()
	if !ok {
		m.setError(ErrNoSelection)
		return
	}
	if err := m.deps.Store.DeleteTask(m.ctx, task.ID); err != nil {
		m.setError(err)
		return
	}
	m.afterChange(task, model.Task{})
	m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", task.Title)}
}

var filterCycle = []taskstore.Status{
	taskstore.StatusAll,
	taskstore.StatusPending,
	taskstore.StatusToday,
	taskstore.StatusHigh,
	taskstore.StatusCompleted,
}

func (m *Model) cycleFilter() {
	idx := slices.Index(filterCycle, m.Filter.Status)
	m.Filter.Status = filterCycle[(idx+1)%len(filterCycle)]
	m.reload()
	m.Status = StatusBar{Text: fmt.Sprintf("filter: %s", m.Filter.Status)}
}

func (m Model) categoryFor(ref string) (model.Category, bool) {
	return taskstore.ResolveCategory(m.Categories, ref)
}

func (m *Model) setError(err error) {
	if err == nil {
		return
	}
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.deps.Log.Debug("view error", zap.Error(err))
}
