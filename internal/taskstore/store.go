// Package taskstore keeps tasks and categories as two JSON blobs in a
// storage.KV. Every mutation rewrites the whole collection; concurrent
// writers race and the last write wins.
package taskstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/storage"
)

const (
	TasksKey      = "tasker_tasks"
	CategoriesKey = "tasker_categories"
)

var (
	ErrTaskNotFound       = errors.New("taskstore: task not found")
	ErrCategoryNotFound   = errors.New("taskstore: category not found")
	ErrAttachmentNotFound = errors.New("taskstore: attachment not found")
)

type Store struct {
	kv    storage.KV
	log   *zap.Logger
	now   func() time.Time
	newID func() string
	loc   *time.Location
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

func New(kv storage.KV, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		kv:    kv,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Location() *time.Location { return s.loc }

// Tasks returns every stored task. A missing or unreadable blob yields an
// empty list; only KV failures are returned as errors.
func (s *Store) Tasks(ctx context.Context) ([]model.Task, error) {
	raw, ok, err := s.kv.Get(ctx, TasksKey)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !ok || len(strings.TrimSpace(string(raw))) == 0 {
		return []model.Task{}, nil
	}
	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		s.log.Warn("stored tasks unreadable, treating as empty", zap.Error(err))
		return []model.Task{}, nil
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// TasksUpdatedAt reports when the task list was last written. ok is false
// when the backend keeps no timestamps or nothing was saved yet.
func (s *Store) TasksUpdatedAt(ctx context.Context) (at time.Time, ok bool, err error) {
	ts, isTimestamped := s.kv.(storage.Timestamped)
	if !isTimestamped {
		return time.Time{}, false, nil
	}
	at, err = ts.UpdatedAt(ctx, TasksKey)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("tasks updated at: %w", err)
	}
	return at, true, nil
}

func (s *Store) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.kv.Set(ctx, TasksKey, raw); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (s *Store) Task(ctx context.Context, id string) (model.Task, error) {
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return model.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

type NewTask struct {
	Title       string
	Description string
	DueDate     string
	DueTime     string
	Priority    model.Priority
	Category    string
	Attachments []model.Attachment
}

// AddTask creates a task with completed=false and no notification flags.
func (s *Store) AddTask(ctx context.Context, in NewTask) (model.Task, error) {
	task := model.Task{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueDate:     strings.TrimSpace(in.DueDate),
		DueTime:     strings.TrimSpace(in.DueTime),
		Priority:    in.Priority,
		Category:    in.Category,
		CreatedAt:   s.now(),
		Attachments: append([]model.Attachment(nil), in.Attachments...),
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Category == "" {
		task.Category = s.defaultCategoryID(ctx)
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}

	tasks, err := s.Tasks(ctx)
	if err != nil {
		return model.Task{}, err
	}
	tasks = append(tasks, task)
	if err := s.SaveTasks(ctx, tasks); err != nil {
		return model.Task{}, err
	}
	s.log.Info("task added", zap.String("task_id", task.ID), zap.String("due", task.DueDate+"T"+task.DueTime))
	return task, nil
}

func (s *Store) defaultCategoryID(ctx context.Context) string {
	cats, err := s.Categories(ctx)
	if err != nil || len(cats) == 0 {
		return "other"
	}
	return cats[0].ID
}

// Patch is a partial edit; nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	DueDate     *string
	DueTime     *string
	Priority    *model.Priority
	Category    *string
	Attachments *[]model.Attachment
}

type Update struct {
	Before     model.Task
	After      model.Task
	DueChanged bool
}

// UpdateTask applies p. When the due date or time changes, every
// notification flag is cleared in the same write.
func (s *Store) UpdateTask(ctx context.Context, id string, p Patch) (Update, error) {
	var out Update
	_, err := s.mutate(ctx, id, func(t *model.Task) error {
		out.Before = t.Clone()
		next := t.Clone()
		if p.Title != nil {
			next.Title = strings.TrimSpace(*p.Title)
		}
		if p.Description != nil {
			next.Description = *p.Description
		}
		if p.DueDate != nil {
			next.DueDate = strings.TrimSpace(*p.DueDate)
		}
		if p.DueTime != nil {
			next.DueTime = strings.TrimSpace(*p.DueTime)
		}
		if p.Priority != nil {
			next.Priority = *p.Priority
		}
		if p.Category != nil {
			next.Category = *p.Category
		}
		if p.Attachments != nil {
			next.Attachments = append([]model.Attachment(nil), (*p.Attachments)...)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		out.DueChanged = next.DueDate != out.Before.DueDate || next.DueTime != out.Before.DueTime
		if out.DueChanged {
			next.Sent = 0
		}
		*t = next
		out.After = next.Clone()
		return nil
	})
	if err != nil {
		return Update{}, err
	}
	return out, nil
}

func (s *Store) ToggleCompleted(ctx context.Context, id string) (model.Task, error) {
	return s.mutate(ctx, id, func(t *model.Task) error {
		t.Completed = !t.Completed
		return nil
	})
}

// SetFlag sets one notification flag to true. Repeating it is harmless.
func (s *Store) SetFlag(ctx context.Context, id string, flag model.NotificationFlag) error {
	if !flag.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidFlag, flag)
	}
	_, err := s.mutate(ctx, id, func(t *model.Task) error {
		t.Sent = t.Sent.With(flag)
		return nil
	})
	return err
}

// MarkSent records every flag of kind in a single write.
func (s *Store) MarkSent(ctx context.Context, id string, kind model.ReminderKind) error {
	_, err := s.mutate(ctx, id, func(t *model.Task) error {
		t.Sent = t.Sent.With(kind.Flags()...)
		return nil
	})
	return err
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	n, err := s.DeleteTasks(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return nil
}

// DeleteTasks removes every task whose id is in ids and reports how many
// were removed. Attachments go with their task.
func (s *Store) DeleteTasks(ctx context.Context, ids []string) (int, error) {
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return 0, err
	}
	kept := slices.DeleteFunc(tasks, func(t model.Task) bool {
		return slices.Contains(ids, t.ID)
	})
	removed := len(tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.SaveTasks(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Store) AddAttachment(ctx context.Context, taskID string, att model.Attachment) (model.Task, error) {
	if att.ID == "" {
		att.ID = s.newID()
	}
	return s.mutate(ctx, taskID, func(t *model.Task) error {
		t.Attachments = append(t.Attachments, att)
		return nil
	})
}

func (s *Store) RemoveAttachment(ctx context.Context, taskID, attachmentID string) (model.Task, error) {
	return s.mutate(ctx, taskID, func(t *model.Task) error {
		idx := slices.IndexFunc(t.Attachments, func(a model.Attachment) bool { return a.ID == attachmentID })
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrAttachmentNotFound, attachmentID)
		}
		t.Attachments = slices.Delete(t.Attachments, idx, idx+1)
		return nil
	})
}

func (s *Store) mutate(ctx context.Context, id string, fn func(*model.Task) error) (model.Task, error) {
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return model.Task{}, err
	}
	idx := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
	if idx < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err := fn(&tasks[idx]); err != nil {
		return model.Task{}, err
	}
	if err := s.SaveTasks(ctx, tasks); err != nil {
		return model.Task{}, err
	}
	return tasks[idx].Clone(), nil
}
