package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrInvalidDue      = errors.New("model: invalid due date/time")
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

const (
	dueLayoutMinutes = "2006-01-02T15:04"
	dueLayoutSeconds = "2006-01-02T15:04:05"
)

type Task struct {
	ID          string
	Title       string
	Description string
	DueDate     string
	DueTime     string
	Priority    Priority
	Category    string
	Completed   bool
	CreatedAt   time.Time
	Sent        FlagSet
	Attachments []Attachment
}

// DueInstant combines DueDate and DueTime in loc. ok is false when either
// part is missing or unparsable.
func (t Task) DueInstant(loc *time.Location) (time.Time, bool) {
	return ParseDue(t.DueDate, t.DueTime, loc)
}

func ParseDue(date, clock string, loc *time.Location) (time.Time, bool) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	raw := date + "T" + clock
	for _, layout := range []string{dueLayoutMinutes, dueLayoutSeconds} {
		if at, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if strings.TrimSpace(t.DueDate) == "" || strings.TrimSpace(t.DueTime) == "" {
		return fmt.Errorf("%w: due date and time are required", ErrInvalidDue)
	}
	return nil
}

// Clone copies the attachment slice so callers can mutate the result freely.
func (t Task) Clone() Task {
	out := t
	if t.Attachments != nil {
		out.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	return out
}

type taskJSON struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	DueDate        string       `json:"dueDate"`
	DueTime        string       `json:"dueTime"`
	Priority       Priority     `json:"priority"`
	Category       string       `json:"category"`
	Completed      bool         `json:"completed"`
	CreatedAt      time.Time    `json:"createdAt"`
	Notified       bool         `json:"notified"`
	Notified5Min   bool         `json:"notified5min"`
	NotifiedOnTime bool         `json:"notifiedOnTime"`
	Attachments    []Attachment `json:"attachments"`
}

// MarshalJSON keeps the persisted shape of three independent booleans.
func (t Task) MarshalJSON() ([]byte, error) {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	return json.Marshal(taskJSON{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		DueDate:        t.DueDate,
		DueTime:        t.DueTime,
		Priority:       t.Priority,
		Category:       t.Category,
		Completed:      t.Completed,
		CreatedAt:      t.CreatedAt,
		Notified:       t.Sent.Has(FlagNotified),
		Notified5Min:   t.Sent.Has(FlagNotified5Min),
		NotifiedOnTime: t.Sent.Has(FlagNotifiedOnTime),
		Attachments:    attachments,
	})
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var sent FlagSet
	if raw.Notified {
		sent = sent.With(FlagNotified)
	}
	if raw.Notified5Min {
		sent = sent.With(FlagNotified5Min)
	}
	if raw.NotifiedOnTime {
		sent = sent.With(FlagNotifiedOnTime)
	}
	*t = Task{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		DueDate:     raw.DueDate,
		DueTime:     raw.DueTime,
		Priority:    raw.Priority,
		Category:    raw.Category,
		Completed:   raw.Completed,
		CreatedAt:   raw.CreatedAt,
		Sent:        sent,
		Attachments: raw.Attachments,
	}
	return nil
}
