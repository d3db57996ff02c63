// Package notify is the host notification display and permission API.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/reminder"
)

type Notification struct {
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
	TaskID             string
	Kind               model.ReminderKind
}

func FromReminder(task model.Task, kind model.ReminderKind) Notification {
	msg := reminder.MessageFor(task, kind)
	return Notification{
		Title:              msg.Title,
		Body:               msg.Body,
		Tag:                msg.Tag,
		RequireInteraction: msg.RequireInteraction,
		TaskID:             task.ID,
		Kind:               kind,
	}
}

type Notifier interface {
	Show(ctx context.Context, n Notification) error
}

type NoopNotifier struct{}

func (NoopNotifier) Show(context.Context, Notification) error { return nil }

// ExecNotifier shows notifications with notify-send on linux and osascript
// on darwin.
type ExecNotifier struct{}

func (ExecNotifier) Show(ctx context.Context, n Notification) error {
	switch runtime.GOOS {
	case "linux":
		args := []string{"--app-name=tasker"}
		if n.RequireInteraction {
			args = append(args, "--urgency=critical")
		}
		args = append(args, n.Title, n.Body)
		return exec.CommandContext(ctx, "notify-send", args...).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// Permission is the host's notification grant.
type Permission interface {
	Request(ctx context.Context) bool
	Granted() bool
}

type StaticPermission bool

func (p StaticPermission) Request(context.Context) bool { return bool(p) }
func (p StaticPermission) Granted() bool                { return bool(p) }

// ExecPermission is granted when the platform notifier binary is installed.
type ExecPermission struct {
	once    sync.Once
	granted bool
}

func (p *ExecPermission) Request(context.Context) bool {
	p.once.Do(func() {
		var bin string
		switch runtime.GOOS {
		case "linux":
			bin = "notify-send"
		case "darwin":
			bin = "osascript"
		default:
			return
		}
		_, err := exec.LookPath(bin)
		p.granted = err == nil
	})
	return p.granted
}

func (p *ExecPermission) Granted() bool {
	return p.Request(context.Background())
}

// Guarded drops notifications silently while permission is not granted and
// logs display failures instead of returning them.
type Guarded struct {
	Notifier   Notifier
	Permission Permission
	Log        *zap.Logger
}

func (g Guarded) Show(ctx context.Context, n Notification) error {
	if g.Notifier == nil || (g.Permission != nil && !g.Permission.Granted()) {
		return nil
	}
	if err := g.Notifier.Show(ctx, n); err != nil && g.Log != nil {
		g.Log.Warn("notification display failed", zap.String("task_id", n.TaskID), zap.String("kind", string(n.Kind)), zap.Error(err))
	}
	return nil
}

// Recorder keeps every shown notification in memory.
type Recorder struct {
	mu    sync.Mutex
	shown []Notification
}

func (r *Recorder) Show(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, n)
	return nil
}

func (r *Recorder) Shown() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.shown...)
}

// Fanout shows each notification on every notifier in order.
type Fanout []Notifier

func (f Fanout) Show(ctx context.Context, n Notification) error {
	var firstErr error
	for _, item := range f {
		if err := item.Show(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
