package app

import (
	"os"

	"go-workforce/internal/attendance"
	"go-workforce/internal/leave"
	"go-workforce/internal/maintenance"
	"go-workforce/internal/messaging/kafka"
	"go-workforce/internal/reporting"
	"go-workforce/internal/scoring"
	"go-workforce/internal/shared/audit"
	"go-workforce/internal/shared/blob"
	"go-workforce/internal/shared/cache"
	"go-workforce/internal/shift"
)

// Registry wires every domain service onto the shared infrastructure.
type Registry struct {
	Shift       shift.Service
	Attendance  attendance.Service
	Leave       leave.Service
	Scoring     scoring.Service
	Reporting   reporting.Service
	Maintenance maintenance.Service
	Outbox      kafka.OutboxRepository
}

func BuildRegistry(infra *Infra) *Registry {
	cacheStore := cache.NewRedisCache(infra.Redis)
	auditLogger := audit.NewZapLogger()
	blobStore := blob.NewFSStore(
		envOr("BLOB_DIR", "data/blobs"),
		envOr("BLOB_BASE_URL", "/blobs"),
	)

	outboxRepo := kafka.NewOutboxRepository(infra.SQLDB)

	shiftRepo := shift.NewRepository(infra.GormDB)
	attendanceRepo := attendance.NewRepository(infra.GormDB)
	leaveRepo := leave.NewRepository(infra.GormDB)
	scoringRepo := scoring.NewRepository(infra.GormDB)
	reportingRepo := reporting.NewRepository(infra.GormDB)
	maintenanceRepo := maintenance.NewRepository(infra.SQLDB)

	shiftService := shift.NewService(shiftRepo, cacheStore)
	attendanceService := attendance.NewService(
		infra.SQLDB, attendanceRepo, shiftService, cacheStore, blobStore, auditLogger,
	)
	leaveService := leave.NewServiceWithOutbox(infra.SQLDB, leaveRepo, outboxRepo, cacheStore)
	scoringService := scoring.NewServiceWithOutbox(scoringRepo, cacheStore, auditLogger, outboxRepo)
	reportingService := reporting.NewService(reportingRepo, attendanceService, cacheStore)
	maintenanceService := maintenance.NewService(maintenanceRepo, auditLogger)

	return &Registry{
		Shift:       shiftService,
		Attendance:  attendanceService,
		Leave:       leaveService,
		Scoring:     scoringService,
		Reporting:   reportingService,
		Maintenance: maintenanceService,
		Outbox:      outboxRepo,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
