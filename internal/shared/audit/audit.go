package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Logger is the audit/metrics collaborator. Implementations must never
// surface a failure to the caller: observability problems do not block
// business operations.
type Logger interface {
	LogAudit(ctx context.Context, actorID, action, resourceType, resourceID string, before, after any)
	LogQueryPerformance(ctx context.Context, name string, duration time.Duration)
	LogSystemMetric(ctx context.Context, name string, value float64, fields ...zap.Field)
}

type zapAuditLogger struct {
	logger *zap.Logger
}

func NewZapLogger(logger ...*zap.Logger) Logger {
	l := zap.L().Named("audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit")
	}
	return &zapAuditLogger{logger: l}
}

func (a *zapAuditLogger) LogAudit(ctx context.Context, actorID, action, resourceType, resourceID string, before, after any) {
	a.logger.Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("actor_id", actorID),
		zap.String("action", action),
		zap.String("resource_type", resourceType),
		zap.String("resource_id", resourceID),
		zap.Any("before", before),
		zap.Any("after", after),
	)
}

func (a *zapAuditLogger) LogQueryPerformance(ctx context.Context, name string, duration time.Duration) {
	a.logger.Debug("query performance",
		zap.String("query", name),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
}

func (a *zapAuditLogger) LogSystemMetric(ctx context.Context, name string, value float64, fields ...zap.Field) {
	a.logger.Info("system metric",
		append([]zap.Field{zap.String("metric", name), zap.Float64("value", value)}, fields...)...,
	)
}
