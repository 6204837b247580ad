package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCreateAttendancePartition(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS attendance_records_y2025m11 PARTITION OF attendance_records FOR VALUES FROM \('2025-11-01'\) TO \('2025-12-01'\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRepository(db)
	name, err := repo.CreateAttendancePartition(context.Background(),
		time.Date(2025, time.November, 15, 10, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.Equal(t, "attendance_records_y2025m11", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshLeaderboardView(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`REFRESH MATERIALIZED VIEW CONCURRENTLY monthly_leaderboard`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRepository(db)
	assert.NoError(t, repo.RefreshLeaderboardView(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeAuditLogsBatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	// two full batches, then a short one ends the loop
	mock.ExpectExec(`DELETE FROM audit_logs`).
		WithArgs(cutoff, 100).
		WillReturnResult(sqlmock.NewResult(0, 100))
	mock.ExpectExec(`DELETE FROM audit_logs`).
		WithArgs(cutoff, 100).
		WillReturnResult(sqlmock.NewResult(0, 100))
	mock.ExpectExec(`DELETE FROM audit_logs`).
		WithArgs(cutoff, 100).
		WillReturnResult(sqlmock.NewResult(0, 37))

	repo := NewRepository(db)
	purged, err := repo.PurgeAuditLogsBefore(context.Background(), cutoff, 100)

	assert.NoError(t, err)
	assert.Equal(t, int64(237), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeStopsOnCancelledContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewRepository(db)
	_, err = repo.PurgeOutboxSentBefore(ctx, time.Now(), 100)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, mock.ExpectationsWereMet())
}
