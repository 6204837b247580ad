package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

//go:generate mockgen -source=maintenance_repo.go -destination=mock/maintenance_repo_mock.go -package=mock
type Repository interface {
	// CreateAttendancePartition creates the time-range partition covering
	// [monthStart, monthStart+1M) if it does not exist yet.
	CreateAttendancePartition(ctx context.Context, monthStart time.Time) (string, error)
	RefreshLeaderboardView(ctx context.Context) error
	// PurgeAuditLogsBefore deletes audit rows older than cutoff in batches
	// and reports the number of rows removed.
	PurgeAuditLogsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
	PurgeOutboxSentBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAttendancePartition(ctx context.Context, monthStart time.Time) (string, error) {
	from := time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	name := fmt.Sprintf("attendance_records_y%04dm%02d", from.Year(), int(from.Month()))

	// Partition and range boundaries are derived from the date, never from
	// caller input, so string interpolation here is safe.
	query := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF attendance_records FOR VALUES FROM ('%s') TO ('%s')`,
		name, from.Format("2006-01-02"), to.Format("2006-01-02"),
	)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return "", fmt.Errorf("create partition %s: %w", name, err)
	}
	return name, nil
}

func (r *repository) RefreshLeaderboardView(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY monthly_leaderboard`)
	if err != nil {
		return fmt.Errorf("refresh leaderboard view: %w", err)
	}
	return nil
}

func (r *repository) PurgeAuditLogsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	return r.purgeBatched(ctx, `
		DELETE FROM audit_logs
		WHERE id IN (
			SELECT id FROM audit_logs WHERE created_at < $1 LIMIT $2
		)`, cutoff, batchSize)
}

func (r *repository) PurgeOutboxSentBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	return r.purgeBatched(ctx, `
		DELETE FROM outbox_events
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = 'sent' AND created_at < $1
			LIMIT $2
		)`, cutoff, batchSize)
}

// purgeBatched repeats a bounded delete until it comes up empty, so the
// cleanup never holds long row locks.
func (r *repository) purgeBatched(ctx context.Context, query string, cutoff time.Time, batchSize int) (int64, error) {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := r.db.ExecContext(ctx, query, cutoff, batchSize)
		if err != nil {
			return total, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
		if affected < int64(batchSize) {
			return total, nil
		}
	}
}
