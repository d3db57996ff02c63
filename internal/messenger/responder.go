package messenger

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/taskstore"
)

// Store is the part of the task store a foreground client serves from.
type Store interface {
	Tasks(ctx context.Context) ([]model.Task, error)
	SetFlag(ctx context.Context, id string, flag model.NotificationFlag) error
}

// Responder answers background requests on behalf of one foreground client.
type Responder struct {
	Store Store
	Log   *zap.Logger
	// OnUpdate runs after a flag update was applied.
	OnUpdate func(taskID string, flag model.NotificationFlag)
}

// Serve handles c's inbox until ctx is done or c is closed.
func (r Responder) Serve(ctx context.Context, c *Client) error {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.Done():
			return nil
		case msg := <-c.Inbox():
			r.handle(ctx, log, msg)
		}
	}
}

func (r Responder) handle(ctx context.Context, log *zap.Logger, msg Message) {
	switch msg.Type {
	case TypeGetTasks:
		tasks, err := r.Store.Tasks(ctx)
		if err != nil {
			log.Warn("reading tasks for background worker failed", zap.Error(err))
			tasks = []model.Task{}
		}
		if msg.Reply == nil {
			return
		}
		select {
		case msg.Reply <- TasksReply{Tasks: tasks}:
		default:
		}
	case TypeUpdateTaskNotification:
		if !msg.Field.IsValid() {
			log.Warn("ignoring update with unknown field", zap.String("task_id", msg.TaskID), zap.String("field", string(msg.Field)))
			return
		}
		if err := r.Store.SetFlag(ctx, msg.TaskID, msg.Field); err != nil {
			if errors.Is(err, taskstore.ErrTaskNotFound) {
				log.Debug("flag update for deleted task", zap.String("task_id", msg.TaskID))
				return
			}
			log.Warn("applying flag update failed", zap.String("task_id", msg.TaskID), zap.String("field", string(msg.Field)), zap.Error(err))
			return
		}
		if r.OnUpdate != nil {
			r.OnUpdate(msg.TaskID, msg.Field)
		}
	default:
		log.Debug("ignoring message", zap.String("type", string(msg.Type)))
	}
}
