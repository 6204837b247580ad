package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	attendanceerrors "go-workforce/internal/attendance/errors"
	"go-workforce/internal/shared/audit"
	"go-workforce/internal/shared/cache"
	"go-workforce/internal/shift"
)

type fakeAttendanceRepo struct {
	createFn          func(ctx context.Context, rec *Record) error
	findByIDFn        func(ctx context.Context, id string) (*Record, error)
	findByUserDateFn  func(ctx context.Context, userID string, date time.Time) (*Record, error)
	findByUserRangeFn func(ctx context.Context, userID string, from, to time.Time) ([]Record, error)
	updateFn          func(ctx context.Context, rec *Record) error
}

func (f *fakeAttendanceRepo) WithTx(tx *sql.Tx) Repository { return f }

func (f *fakeAttendanceRepo) Create(ctx context.Context, rec *Record) error {
	if f.createFn != nil {
		return f.createFn(ctx, rec)
	}
	return nil
}

func (f *fakeAttendanceRepo) FindByID(ctx context.Context, id string) (*Record, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeAttendanceRepo) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*Record, error) {
	return f.findByUserDateFn(ctx, userID, date)
}

func (f *fakeAttendanceRepo) FindByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	return f.findByUserRangeFn(ctx, userID, from, to)
}

func (f *fakeAttendanceRepo) Update(ctx context.Context, rec *Record) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, rec)
	}
	return nil
}

type fakeResolver struct {
	currentFn func(ctx context.Context, userID string, onDate time.Time) (shift.ResolvedShift, error)
	resolveFn func(ctx context.Context, shiftID string) (shift.ResolvedShift, error)
}

func (f *fakeResolver) CurrentShift(ctx context.Context, userID string, onDate time.Time) (shift.ResolvedShift, error) {
	return f.currentFn(ctx, userID, onDate)
}

func (f *fakeResolver) ResolveShift(ctx context.Context, shiftID string) (shift.ResolvedShift, error) {
	return f.resolveFn(ctx, shiftID)
}

type fakeBlobStore struct {
	saved int
}

func (f *fakeBlobStore) Save(ctx context.Context, data []byte, pathHint string) (string, error) {
	f.saved++
	return "/blobs/" + pathHint + "/photo.jpg", nil
}

type passthroughCache struct{}

func (passthroughCache) Get(ctx context.Context, key string, dest any) (bool, error) { return false, nil }

func (passthroughCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (passthroughCache) Del(ctx context.Context, keys ...string) error { return nil }

func (passthroughCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory cache.Factory, dest any) error {
	value, err := factory(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func standardShift() shift.ResolvedShift {
	return shift.ResolvedShift{
		ShiftID:              uuid.NewString(),
		Name:                 "Morning",
		StartTime:            "09:00",
		EndTime:              "18:00",
		BreakDurationMinutes: 60,
		GracePeriodMinutes:   5,
	}
}

func newClockService(t *testing.T, repo Repository, resolver ShiftResolver, at time.Time) (*service, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	svc := NewService(db, repo, resolver, passthroughCache{}, &fakeBlobStore{},
		audit.NewZapLogger(zap.NewNop()), zap.NewNop()).(*service)
	svc.now = func() time.Time { return at }
	return svc, mock, func() { db.Close() }
}

func TestClockInCreatesRecord(t *testing.T) {
	at := time.Date(2025, time.October, 6, 9, 2, 0, 0, time.UTC)
	sh := standardShift()

	var created *Record
	repo := &fakeAttendanceRepo{
		findByUserDateFn: func(ctx context.Context, userID string, date time.Time) (*Record, error) {
			// the gorm repo hands back a zero-value record alongside the
			// not-found error; a fresh clock-in must still insert
			return &Record{}, gorm.ErrRecordNotFound
		},
		createFn: func(ctx context.Context, rec *Record) error {
			created = rec
			return nil
		},
		updateFn: func(ctx context.Context, rec *Record) error {
			t.Fatal("fresh clock-in must insert, not update the not-found zero record")
			return nil
		},
	}
	resolver := &fakeResolver{
		currentFn: func(ctx context.Context, userID string, onDate time.Time) (shift.ResolvedShift, error) {
			return sh, nil
		},
	}
	svc, mock, closeDB := newClockService(t, repo, resolver, at)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	userID := uuid.NewString()
	resp, err := svc.ClockIn(context.Background(), userID, ClockInRequest{})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, userID, created.UserID.String())
	assert.Equal(t, "2025-10-06", created.Date.Format("2006-01-02"))
	assert.Equal(t, userID, resp.UserID)
	assert.Equal(t, "2025-10-06", resp.Date)
	assert.Empty(t, resp.Warning)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClockInUpdatesPreCreatedRow(t *testing.T) {
	at := time.Date(2025, time.October, 6, 9, 2, 0, 0, time.UTC)
	sh := standardShift()
	userUUID := uuid.New()
	existing := &Record{
		ID:     uuid.New(),
		UserID: userUUID,
		Date:   time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC),
		Status: StatusOnLeave,
	}

	var updated *Record
	repo := &fakeAttendanceRepo{
		findByUserDateFn: func(ctx context.Context, userID string, date time.Time) (*Record, error) {
			return existing, nil
		},
		createFn: func(ctx context.Context, rec *Record) error {
			t.Fatal("pre-created row must be updated, not duplicated")
			return nil
		},
		updateFn: func(ctx context.Context, rec *Record) error {
			updated = rec
			return nil
		},
	}
	resolver := &fakeResolver{
		currentFn: func(ctx context.Context, userID string, onDate time.Time) (shift.ResolvedShift, error) {
			return sh, nil
		},
	}
	svc, mock, closeDB := newClockService(t, repo, resolver, at)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ClockIn(context.Background(), userUUID.String(), ClockInRequest{})

	assert.NoError(t, err)
	if assert.NotNil(t, updated) {
		assert.Equal(t, existing.ID, updated.ID)
		assert.Equal(t, StatusPending, updated.Status)
		assert.NotNil(t, updated.ClockInAt)
	}
	assert.Equal(t, userUUID.String(), resp.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClockInTwiceIsConflict(t *testing.T) {
	at := time.Date(2025, time.October, 6, 9, 2, 0, 0, time.UTC)
	clockIn := at.Add(-30 * time.Minute)

	repo := &fakeAttendanceRepo{
		findByUserDateFn: func(ctx context.Context, userID string, date time.Time) (*Record, error) {
			return &Record{ClockInAt: &clockIn}, nil
		},
	}
	svc, mock, closeDB := newClockService(t, repo, &fakeResolver{}, at)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ClockIn(context.Background(), uuid.NewString(), ClockInRequest{})

	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClockInLatenessWarning(t *testing.T) {
	sh := standardShift()
	resolver := &fakeResolver{
		currentFn: func(ctx context.Context, userID string, onDate time.Time) (shift.ResolvedShift, error) {
			return sh, nil
		},
	}
	repo := &fakeAttendanceRepo{
		findByUserDateFn: func(ctx context.Context, userID string, date time.Time) (*Record, error) {
			return &Record{}, gorm.ErrRecordNotFound
		},
	}

	// 09:10 is inside grace (5) + tolerance (5): no warning
	at := time.Date(2025, time.October, 6, 9, 10, 0, 0, time.UTC)
	svc, mock, closeDB := newClockService(t, repo, resolver, at)
	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.ClockIn(context.Background(), uuid.NewString(), ClockInRequest{})
	closeDB()
	assert.NoError(t, err)
	assert.Empty(t, resp.Warning)

	// 09:12 crosses the threshold and reports full lateness from shift start
	at = time.Date(2025, time.October, 6, 9, 12, 0, 0, time.UTC)
	svc, mock, closeDB = newClockService(t, repo, resolver, at)
	defer closeDB()
	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err = svc.ClockIn(context.Background(), uuid.NewString(), ClockInRequest{})
	assert.NoError(t, err)
	assert.Equal(t, "clocked in 12 minutes late", resp.Warning)
}

func TestClockOutWithoutClockIn(t *testing.T) {
	at := time.Date(2025, time.October, 6, 18, 0, 0, 0, time.UTC)
	repo := &fakeAttendanceRepo{
		findByUserDateFn: func(ctx context.Context, userID string, date time.Time) (*Record, error) {
			return &Record{}, gorm.ErrRecordNotFound
		},
	}
	svc, mock, closeDB := newClockService(t, repo, &fakeResolver{}, at)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ClockOut(context.Background(), uuid.NewString(), ClockOutRequest{})

	assert.ErrorIs(t, err, attendanceerrors.ErrNoClockIn)
}

func TestClockOutTwiceIsConflict(t *testing.T) {
	at := time.Date(2025, time.October, 6, 18, 0, 0, 0, time.UTC)
	in := at.Add(-9 * time.Hour)
	out := at.Add(-5 * time.Minute)
	repo := &fakeAttendanceRepo{
		findByUserDateFn: func(ctx context.Context, userID string, date time.Time) (*Record, error) {
			return &Record{ClockInAt: &in, ClockOutAt: &out}, nil
		},
	}
	svc, mock, closeDB := newClockService(t, repo, &fakeResolver{}, at)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ClockOut(context.Background(), uuid.NewString(), ClockOutRequest{})

	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedOut)
}

func TestClockOutComputesWorkedHours(t *testing.T) {
	sh := standardShift()
	shiftUUID := uuid.MustParse(sh.ShiftID)
	at := time.Date(2025, time.October, 6, 18, 0, 0, 0, time.UTC)
	in := time.Date(2025, time.October, 6, 9, 0, 0, 0, time.UTC)

	row := &Record{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Date:      time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC),
		ShiftID:   &shiftUUID,
		Status:    StatusPending,
		ClockInAt: &in,
	}
	repo := &fakeAttendanceRepo{
		findByUserDateFn: func(ctx context.Context, userID string, date time.Time) (*Record, error) {
			return row, nil
		},
	}
	resolver := &fakeResolver{
		resolveFn: func(ctx context.Context, shiftID string) (shift.ResolvedShift, error) {
			return sh, nil
		},
	}
	svc, mock, closeDB := newClockService(t, repo, resolver, at)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ClockOut(context.Background(), row.UserID.String(), ClockOutRequest{})

	assert.NoError(t, err)
	assert.Equal(t, StatusPresent, resp.Status)
	if assert.NotNil(t, resp.TotalHours) {
		assert.InDelta(t, 8.00, *resp.TotalHours, 0.001)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOnLeaveSkipsWeekendsAndClockedDays(t *testing.T) {
	at := time.Date(2025, time.October, 1, 8, 0, 0, 0, time.UTC)
	clockedDate := time.Date(2025, time.October, 3, 0, 0, 0, 0, time.UTC)
	clockIn := clockedDate.Add(9 * time.Hour)

	created := map[string]bool{}
	repo := &fakeAttendanceRepo{
		findByUserDateFn: func(ctx context.Context, userID string, date time.Time) (*Record, error) {
			if date.Equal(clockedDate) {
				return &Record{ClockInAt: &clockIn, Status: StatusPresent}, nil
			}
			return &Record{}, gorm.ErrRecordNotFound
		},
		createFn: func(ctx context.Context, rec *Record) error {
			assert.Equal(t, StatusOnLeave, rec.Status)
			created[rec.Date.Format("2006-01-02")] = true
			return nil
		},
	}
	svc, mock, closeDB := newClockService(t, repo, &fakeResolver{}, at)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	// Wed 2025-10-01 through Mon 2025-10-06, spanning a weekend
	err := svc.MarkOnLeave(context.Background(), uuid.NewString(),
		time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC),
	)

	assert.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"2025-10-01": true,
		"2025-10-02": true,
		"2025-10-06": true,
	}, created)
}

func TestCalculateWorkedHours(t *testing.T) {
	in := time.Date(2025, time.October, 6, 9, 0, 0, 0, time.UTC)
	out := time.Date(2025, time.October, 6, 18, 0, 0, 0, time.UTC)

	assert.InDelta(t, 8.00, CalculateWorkedHours(in, out, 60), 0.001)
	assert.InDelta(t, 9.00, CalculateWorkedHours(in, out, 0), 0.001)
	// clock pair shorter than the break floors at zero
	assert.InDelta(t, 0, CalculateWorkedHours(in, in.Add(30*time.Minute), 60), 0.001)
}
