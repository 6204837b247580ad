package consumer

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-workforce/internal/attendance"
	"go-workforce/internal/events"
)

// ConsumeLeaveLifecycle marks attendance ON_LEAVE for every approved leave
// period. The marking is idempotent, so redelivered events are safe.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	attendanceService attendance.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.LeaveApprovedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode leave_approved event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		from, err := time.Parse("2006-01-02", event.StartDate)
		if err != nil {
			log.Error("leave_approved event has invalid start date",
				zap.String("request_id", event.RequestID),
				zap.String("start_date", event.StartDate),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		to, err := time.Parse("2006-01-02", event.EndDate)
		if err != nil {
			log.Error("leave_approved event has invalid end date",
				zap.String("request_id", event.RequestID),
				zap.String("end_date", event.EndDate),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := attendanceService.MarkOnLeave(ctx, event.UserID, from, to); err != nil {
			// leave the message uncommitted so it is retried
			log.Error("mark leave days failed",
				zap.String("request_id", event.RequestID),
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("attendance marked on leave from leave_approved event",
			zap.String("request_id", event.RequestID),
			zap.String("user_id", event.UserID),
			zap.String("start_date", event.StartDate),
			zap.String("end_date", event.EndDate),
		)
	}
}
