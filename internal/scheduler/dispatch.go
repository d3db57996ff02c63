package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/metrics"
	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/notify"
)

const DriverNative = "native"

// NotificationFor turns a fired alarm into a notification.
func NotificationFor(a Alarm) notify.Notification {
	kind := model.ReminderKind(a.Extra.Type)
	return notify.Notification{
		Title:              a.Title,
		Body:               a.Body,
		Tag:                a.Extra.TaskID + "-" + a.Extra.Type,
		RequireInteraction: kind == model.ReminderOnTime,
		TaskID:             a.Extra.TaskID,
		Kind:               kind,
	}
}

// Dispatch shows every fired alarm until alarms is closed or ctx is done.
func Dispatch(ctx context.Context, alarms <-chan Alarm, n notify.Notifier, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-alarms:
			if !ok {
				return nil
			}
			fields := []zap.Field{
				zap.String("driver", DriverNative),
				zap.String("task_id", a.Extra.TaskID),
				zap.String("kind", a.Extra.Type),
				zap.Int64("alarm_id", a.ID),
			}
			if err := n.Show(ctx, NotificationFor(a)); err != nil {
				log.Warn("showing alarm failed", append(fields, zap.Error(err))...)
				continue
			}
			metrics.RecordReminderFired(DriverNative, a.Extra.Type)
			log.Info("alarm fired", fields...)
		}
	}
}
