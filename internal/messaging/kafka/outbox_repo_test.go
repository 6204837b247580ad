package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func pendingEvent() OutboxEvent {
	return OutboxEvent{
		ID:            "f3b9c1de-0000-0000-0000-000000000001",
		RequestID:     "req-42",
		AggregateType: "leave_request",
		AggregateID:   "a1b2c3d4-0000-0000-0000-000000000002",
		EventType:     "leave.approved",
		Topic:         "leave.approved",
		Payload:       []byte(`{"ok":true}`),
		Status:        OutboxStatusPending,
	}
}

func TestCreateStagesEventInCallerTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	event := pendingEvent()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs(
			event.ID, event.RequestID, event.AggregateType,
			event.AggregateID, event.EventType, event.Topic, event.Payload, event.Status,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	assert.NoError(t, err)

	repo := NewOutboxRepository(db)
	assert.NoError(t, repo.WithTx(tx).Create(context.Background(), event))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsMalformedEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewOutboxRepository(db)

	missingPayload := pendingEvent()
	missingPayload.Payload = nil
	assert.Error(t, repo.Create(context.Background(), missingPayload))

	badStatus := pendingEvent()
	badStatus.Status = "queued"
	assert.Error(t, repo.Create(context.Background(), badStatus))

	// nothing reached the database
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingCarriesRequestID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	due := time.Date(2025, time.November, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "request_id", "aggregate_type", "aggregate_id",
		"event_type", "topic", "payload", "status", "retry_count", "coalesce",
	}).AddRow(
		"f3b9c1de-0000-0000-0000-000000000001", "req-42", "leave_request",
		"a1b2c3d4-0000-0000-0000-000000000002", "leave.approved", "leave.approved",
		[]byte(`{"ok":true}`), OutboxStatusFailed, 2, due,
	)

	mock.ExpectQuery(`SELECT(.|\n)+FROM outbox_events`).
		WithArgs(OutboxStatusPending, OutboxStatusFailed, 50).
		WillReturnRows(rows)

	repo := NewOutboxRepository(db)
	events, err := repo.ListPending(context.Background(), 50)

	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, OutboxStatusFailed, events[0].Status)
	assert.Equal(t, 2, events[0].RetryCount)
	assert.Equal(t, due, events[0].NextRetryAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedSchedulesBackoff(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE outbox_events`).
		WithArgs(
			"f3b9c1de-0000-0000-0000-000000000001", OutboxStatusFailed, "broker unreachable",
			errorMessageLimit, maxBackoffSteps, retryBackoffSeconds,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOutboxRepository(db)
	err = repo.MarkFailed(context.Background(),
		"f3b9c1de-0000-0000-0000-000000000001", "broker unreachable")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSentClearsFailureState(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE outbox_events`).
		WithArgs("f3b9c1de-0000-0000-0000-000000000001", OutboxStatusSent).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOutboxRepository(db)
	err = repo.MarkSent(context.Background(), "f3b9c1de-0000-0000-0000-000000000001")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
