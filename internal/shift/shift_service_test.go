package shift

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-workforce/internal/shared/cache"
	shifterrors "go-workforce/internal/shift/errors"
)

type fakeShiftRepo struct {
	createShiftFn       func(ctx context.Context, s *Shift) error
	findShiftByIDFn     func(ctx context.Context, id string) (*Shift, error)
	findAllShiftsFn     func(ctx context.Context, storeID *string) ([]Shift, error)
	updateShiftFn       func(ctx context.Context, s *Shift) error
	archiveShiftFn      func(ctx context.Context, id string) error
	nameConflictFn      func(ctx context.Context, storeID, name string, excludeID *string) (bool, error)
	createAssignmentFn  func(ctx context.Context, a *Assignment) error
	overlapFn           func(ctx context.Context, userID string, from time.Time, to *time.Time, excludeID *string) (bool, error)
	activeAssignmentsFn func(ctx context.Context, userID string, onDate time.Time) ([]Assignment, error)
	countByShiftFn      func(ctx context.Context, shiftID string) (int64, error)
	archiveAssignmentFn func(ctx context.Context, id string) error
}

func (f *fakeShiftRepo) CreateShift(ctx context.Context, s *Shift) error {
	if f.createShiftFn != nil {
		return f.createShiftFn(ctx, s)
	}
	return nil
}

func (f *fakeShiftRepo) FindShiftByID(ctx context.Context, id string) (*Shift, error) {
	return f.findShiftByIDFn(ctx, id)
}

func (f *fakeShiftRepo) FindAllShifts(ctx context.Context, storeID *string) ([]Shift, error) {
	return f.findAllShiftsFn(ctx, storeID)
}

func (f *fakeShiftRepo) UpdateShift(ctx context.Context, s *Shift) error {
	return f.updateShiftFn(ctx, s)
}

func (f *fakeShiftRepo) ArchiveShift(ctx context.Context, id string) error {
	return f.archiveShiftFn(ctx, id)
}

func (f *fakeShiftRepo) HasShiftNameConflict(ctx context.Context, storeID, name string, excludeID *string) (bool, error) {
	if f.nameConflictFn != nil {
		return f.nameConflictFn(ctx, storeID, name, excludeID)
	}
	return false, nil
}

func (f *fakeShiftRepo) CreateAssignment(ctx context.Context, a *Assignment) error {
	if f.createAssignmentFn != nil {
		return f.createAssignmentFn(ctx, a)
	}
	return nil
}

func (f *fakeShiftRepo) HasOverlappingAssignment(ctx context.Context, userID string, from time.Time, to *time.Time, excludeID *string) (bool, error) {
	if f.overlapFn != nil {
		return f.overlapFn(ctx, userID, from, to, excludeID)
	}
	return false, nil
}

func (f *fakeShiftRepo) FindActiveAssignments(ctx context.Context, userID string, onDate time.Time) ([]Assignment, error) {
	return f.activeAssignmentsFn(ctx, userID, onDate)
}

func (f *fakeShiftRepo) CountActiveAssignmentsByShift(ctx context.Context, shiftID string) (int64, error) {
	return f.countByShiftFn(ctx, shiftID)
}

func (f *fakeShiftRepo) ArchiveAssignment(ctx context.Context, id string) error {
	return f.archiveAssignmentFn(ctx, id)
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

func activeShift(name string) *Shift {
	return &Shift{
		ID:                   uuid.New(),
		StoreID:              uuid.New(),
		Name:                 name,
		StartTime:            "09:00",
		EndTime:              "18:00",
		BreakDurationMinutes: 60,
		GracePeriodMinutes:   5,
		Active:               true,
	}
}

func TestCreateShiftRejectsDuplicateName(t *testing.T) {
	repo := &fakeShiftRepo{
		nameConflictFn: func(ctx context.Context, storeID, name string, excludeID *string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(repo, passthroughCache{}, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateShiftRequest{
		StoreID:   uuid.NewString(),
		Name:      "Morning",
		StartTime: "09:00",
		EndTime:   "18:00",
	})

	assert.ErrorIs(t, err, shifterrors.ErrShiftNameTaken)
}

func TestCreateShiftRejectsBadTimes(t *testing.T) {
	svc := NewService(&fakeShiftRepo{}, passthroughCache{}, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateShiftRequest{
		StoreID:   uuid.NewString(),
		Name:      "Morning",
		StartTime: "9am",
		EndTime:   "18:00",
	})

	assert.ErrorIs(t, err, shifterrors.ErrInvalidShiftTimes)
}

func TestAssignRejectsOverlap(t *testing.T) {
	sh := activeShift("Morning")
	repo := &fakeShiftRepo{
		findShiftByIDFn: func(ctx context.Context, id string) (*Shift, error) {
			return sh, nil
		},
		overlapFn: func(ctx context.Context, userID string, from time.Time, to *time.Time, excludeID *string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(repo, passthroughCache{}, zap.NewNop())

	_, err := svc.Assign(context.Background(), AssignShiftRequest{
		UserID:        uuid.NewString(),
		ShiftID:       sh.ID.String(),
		EffectiveFrom: "2025-10-01",
		DaysOfWeek:    []int{1, 2, 3, 4, 5},
	})

	assert.ErrorIs(t, err, shifterrors.ErrAssignmentOverlap)
}

func TestAssignRejectsInvertedDateRange(t *testing.T) {
	svc := NewService(&fakeShiftRepo{}, passthroughCache{}, zap.NewNop())

	to := "2025-09-01"
	_, err := svc.Assign(context.Background(), AssignShiftRequest{
		UserID:        uuid.NewString(),
		ShiftID:       uuid.NewString(),
		EffectiveFrom: "2025-10-01",
		EffectiveTo:   &to,
		DaysOfWeek:    []int{1},
	})

	assert.ErrorIs(t, err, shifterrors.ErrInvalidDateRange)
}

func TestAssignRejectsOutOfRangeWeekday(t *testing.T) {
	svc := NewService(&fakeShiftRepo{}, passthroughCache{}, zap.NewNop())

	_, err := svc.Assign(context.Background(), AssignShiftRequest{
		UserID:        uuid.NewString(),
		ShiftID:       uuid.NewString(),
		EffectiveFrom: "2025-10-01",
		DaysOfWeek:    []int{1, 7},
	})

	assert.ErrorIs(t, err, shifterrors.ErrInvalidWeekday)
}

func TestCurrentShiftFiltersWeekday(t *testing.T) {
	weekdayShift := activeShift("Weekday")
	repo := &fakeShiftRepo{
		activeAssignmentsFn: func(ctx context.Context, userID string, onDate time.Time) ([]Assignment, error) {
			return []Assignment{
				{
					ShiftID:    weekdayShift.ID,
					DaysOfWeek: "1,2,3,4,5",
					Shift:      weekdayShift,
				},
			}, nil
		},
	}
	svc := NewService(repo, passthroughCache{}, zap.NewNop())

	// 2025-10-06 is a Monday
	monday := time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC)
	resolved, err := svc.CurrentShift(context.Background(), uuid.NewString(), monday)
	assert.NoError(t, err)
	assert.Equal(t, weekdayShift.ID.String(), resolved.ShiftID)
	assert.Equal(t, "09:00", resolved.StartTime)

	// 2025-10-05 is a Sunday, outside the assignment's weekday set
	sunday := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)
	_, err = svc.CurrentShift(context.Background(), uuid.NewString(), sunday)
	assert.ErrorIs(t, err, shifterrors.ErrNoActiveShift)
}

func TestCurrentShiftPrefersNewestAssignment(t *testing.T) {
	older := activeShift("Old")
	newer := activeShift("New")
	repo := &fakeShiftRepo{
		activeAssignmentsFn: func(ctx context.Context, userID string, onDate time.Time) ([]Assignment, error) {
			// repo orders newest first
			return []Assignment{
				{ShiftID: newer.ID, DaysOfWeek: "1,2,3,4,5", Shift: newer},
				{ShiftID: older.ID, DaysOfWeek: "1,2,3,4,5", Shift: older},
			}, nil
		},
	}
	svc := NewService(repo, passthroughCache{}, zap.NewNop())

	monday := time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC)
	resolved, err := svc.CurrentShift(context.Background(), uuid.NewString(), monday)

	assert.NoError(t, err)
	assert.Equal(t, "New", resolved.Name)
}

func TestRemoveShiftInUse(t *testing.T) {
	sh := activeShift("Morning")
	repo := &fakeShiftRepo{
		findShiftByIDFn: func(ctx context.Context, id string) (*Shift, error) {
			return sh, nil
		},
		countByShiftFn: func(ctx context.Context, shiftID string) (int64, error) {
			return 2, nil
		},
	}
	svc := NewService(repo, passthroughCache{}, zap.NewNop())

	err := svc.Remove(context.Background(), sh.ID.String())

	assert.ErrorIs(t, err, shifterrors.ErrShiftInUse)
}

func TestRemoveShiftNotFound(t *testing.T) {
	repo := &fakeShiftRepo{
		findShiftByIDFn: func(ctx context.Context, id string) (*Shift, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewService(repo, passthroughCache{}, zap.NewNop())

	err := svc.Remove(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, shifterrors.ErrShiftNotFound)
}

func TestDaysOfWeekRoundTrip(t *testing.T) {
	csv, err := FormatDaysOfWeek([]int{5, 1, 3})
	assert.NoError(t, err)
	assert.Equal(t, "1,3,5", csv)

	days, err := ParseDaysOfWeek(csv)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, days)

	_, err = FormatDaysOfWeek([]int{7})
	assert.Error(t, err)

	assert.True(t, ContainsWeekday("1,3,5", time.Monday))
	assert.False(t, ContainsWeekday("1,3,5", time.Sunday))
}

func TestMinutesOfDay(t *testing.T) {
	m, err := MinutesOfDay("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 570, m)

	_, err = MinutesOfDay("24:00")
	assert.Error(t, err)
}
