package reminder

import (
	"fmt"

	"github.com/sandeepkv93/tasker/internal/model"
)

type Message struct {
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
}

func PriorityEmoji(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityMedium:
		return "🟡"
	case model.PriorityLow:
		return "🟢"
	default:
		return "📝"
	}
}

// Tag identifies one reminder of one task, so the host can collapse repeats.
func Tag(taskID string, kind model.ReminderKind) string {
	return taskID + "-" + string(kind)
}

func MessageFor(task model.Task, kind model.ReminderKind) Message {
	emoji := PriorityEmoji(task.Priority)
	if kind == model.ReminderFiveMin {
		return Message{
			Title: "⏰ Tasker Reminder",
			Body:  fmt.Sprintf("%s %s - Starting in 5 minutes!", emoji, task.Title),
			Tag:   Tag(task.ID, kind),
		}
	}
	return Message{
		Title:              "🚨 Tasker Alert",
		Body:               fmt.Sprintf("%s %s - Time is NOW!", emoji, task.Title),
		Tag:                Tag(task.ID, kind),
		RequireInteraction: true,
	}
}
