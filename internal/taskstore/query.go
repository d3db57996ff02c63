package taskstore

import (
	"context"
	"sort"
	"strings"

	"github.com/sandeepkv93/tasker/internal/model"
)

type Status string

const (
	StatusAll       Status = "all"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusToday     Status = "today"
	StatusHigh      Status = "high"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAll, StatusPending, StatusCompleted, StatusToday, StatusHigh:
		return true
	default:
		return false
	}
}

type Filter struct {
	Status Status
	Search string
}

type Stats struct {
	Total     int
	Pending   int
	Completed int
	High      int
}

// List returns tasks matching f, ordered by due instant. Tasks without a
// parsable due instant sort last in stored order.
func (s *Store) List(ctx context.Context, f Filter) ([]model.Task, error) {
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now().In(s.loc).Format("2006-01-02")
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		if matchesStatus(t, f.Status, today) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i].DueInstant(s.loc)
		b, bok := out[j].DueInstant(s.loc)
		if aok != bok {
			return aok
		}
		return aok && a.Before(b)
	})
	return out, nil
}

func matchesStatus(t model.Task, status Status, today string) bool {
	switch status {
	case StatusPending:
		return !t.Completed
	case StatusCompleted:
		return t.Completed
	case StatusToday:
		return !t.Completed && t.DueDate == today
	case StatusHigh:
		return !t.Completed && t.Priority == model.PriorityHigh
	default:
		return true
	}
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, t := range tasks {
		st.Total++
		if t.Completed {
			st.Completed++
			continue
		}
		st.Pending++
		if t.Priority == model.PriorityHigh {
			st.High++
		}
	}
	return st, nil
}
