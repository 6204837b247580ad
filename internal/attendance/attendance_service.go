package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	attendanceerrors "go-workforce/internal/attendance/errors"
	"go-workforce/internal/shared/audit"
	"go-workforce/internal/shared/blob"
	"go-workforce/internal/shared/cache"
	"go-workforce/internal/shift"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// lateness/earliness tolerance applied on top of the configured grace period
const warningThresholdMinutes = 5

// ShiftResolver is the slice of the shift registry the tracker consumes.
type ShiftResolver interface {
	CurrentShift(ctx context.Context, userID string, onDate time.Time) (shift.ResolvedShift, error)
	ResolveShift(ctx context.Context, shiftID string) (shift.ResolvedShift, error)
}

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, userID string, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, userID string, req ClockOutRequest) (AttendanceResponse, error)
	Update(ctx context.Context, id string, req UpdateRequest, adminID string) (AttendanceResponse, error)
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (AttendanceResponse, error)
	GetMonthlyAttendance(ctx context.Context, userID string, year int, month time.Month) ([]AttendanceResponse, error)
	MarkOnLeave(ctx context.Context, userID string, from, to time.Time) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	shifts ShiftResolver
	cache  cache.Cache
	blobs  blob.Store
	audit  audit.Logger
	logger *zap.Logger
	now    func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	shifts ShiftResolver,
	c cache.Cache,
	blobs blob.Store,
	auditLogger audit.Logger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		shifts: shifts,
		cache:  c,
		blobs:  blobs,
		audit:  auditLogger,
		logger: l,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) ClockIn(ctx context.Context, userID string, req ClockInRequest) (AttendanceResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidUserID
	}

	now := s.now()
	today := dateOnly(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock-in begin tx failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// the repo hands back a zero-value record alongside ErrRecordNotFound,
	// so the row's existence must be pinned here, before err is reused
	existing, err := qtx.FindByUserAndDate(ctx, userID, today)
	haveRow := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceResponse{}, err
	}
	if haveRow && existing.ClockInAt != nil {
		s.logger.Warn("duplicate clock-in rejected", zap.String("user_id", userID))
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedIn
	}

	resolved, err := s.resolveEffectiveShift(ctx, userID, today, req.ShiftID)
	if err != nil {
		return AttendanceResponse{}, err
	}

	var photoURL *string
	if len(req.Photo) > 0 {
		url, err := s.blobs.Save(ctx, req.Photo, "attendance/clock-in")
		if err != nil {
			s.logger.Error("clock-in photo save failed", zap.String("user_id", userID), zap.Error(err))
			return AttendanceResponse{}, err
		}
		photoURL = &url
	}

	shiftUUID := uuid.MustParse(resolved.ShiftID)

	var row *Record
	if haveRow {
		// pre-created row (leave/holiday marking) without a clock-in yet
		existing.ClockInAt = &now
		existing.ShiftID = &shiftUUID
		existing.Status = StatusPending
		existing.ClockInPhotoURL = photoURL
		if req.Remarks != nil {
			existing.Remarks = appendRemarks(existing.Remarks, *req.Remarks)
		}
		if err := qtx.Update(ctx, existing); err != nil {
			return AttendanceResponse{}, mapStorageError(err)
		}
		row = existing
	} else {
		row = &Record{
			ID:              uuid.New(),
			UserID:          userUUID,
			Date:            today,
			ShiftID:         &shiftUUID,
			Status:          StatusPending,
			ClockInAt:       &now,
			ClockInPhotoURL: photoURL,
			Remarks:         req.Remarks,
		}
		if err := qtx.Create(ctx, row); err != nil {
			return AttendanceResponse{}, mapStorageError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("clock-in commit failed", zap.String("user_id", userID), zap.Error(err))
		return AttendanceResponse{}, err
	}

	s.invalidateUserCaches(ctx, userID, today)
	s.audit.LogAudit(ctx, userID, "ATTENDANCE_CLOCK_IN", "attendance_record", row.ID.String(), nil, row)

	resp := mapToResponse(*row)
	if w, late := latenessWarning(resolved, now); late {
		resp.Warning = w
		s.logger.Info("late clock-in",
			zap.String("user_id", userID),
			zap.String("warning", w),
		)
	}

	s.logger.Info("clock-in success",
		zap.String("user_id", userID),
		zap.String("record_id", row.ID.String()),
		zap.String("shift_id", resolved.ShiftID),
	)
	return resp, nil
}

func (s *service) ClockOut(ctx context.Context, userID string, req ClockOutRequest) (AttendanceResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidUserID
	}

	now := s.now()
	today := dateOnly(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock-out begin tx failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindByUserAndDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNoClockIn
		}
		return AttendanceResponse{}, err
	}
	if row.ClockInAt == nil {
		return AttendanceResponse{}, attendanceerrors.ErrNoClockIn
	}
	if row.ClockOutAt != nil {
		s.logger.Warn("duplicate clock-out rejected", zap.String("user_id", userID))
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedOut
	}

	var resolved shift.ResolvedShift
	var haveShift bool
	if row.ShiftID != nil {
		resolved, err = s.shifts.ResolveShift(ctx, row.ShiftID.String())
		if err != nil {
			// shift archived since clock-in: keep going without break/earliness context
			s.logger.Warn("clock-out shift resolution failed",
				zap.String("user_id", userID),
				zap.String("shift_id", row.ShiftID.String()),
				zap.Error(err),
			)
		} else {
			haveShift = true
		}
	}

	if len(req.Photo) > 0 {
		url, err := s.blobs.Save(ctx, req.Photo, "attendance/clock-out")
		if err != nil {
			s.logger.Error("clock-out photo save failed", zap.String("user_id", userID), zap.Error(err))
			return AttendanceResponse{}, err
		}
		row.ClockOutPhotoURL = &url
	}

	breakMinutes := 0
	if haveShift {
		breakMinutes = resolved.BreakDurationMinutes
	}
	total := CalculateWorkedHours(*row.ClockInAt, now, breakMinutes)

	row.ClockOutAt = &now
	row.TotalHours = &total
	row.Status = StatusPresent
	if req.Remarks != nil {
		row.Remarks = appendRemarks(row.Remarks, *req.Remarks)
	}

	if err := qtx.Update(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("clock-out commit failed", zap.String("user_id", userID), zap.Error(err))
		return AttendanceResponse{}, err
	}

	s.invalidateUserCaches(ctx, userID, today)
	s.audit.LogAudit(ctx, userID, "ATTENDANCE_CLOCK_OUT", "attendance_record", row.ID.String(), nil, row)

	resp := mapToResponse(*row)
	if haveShift {
		if w, early := earlinessWarning(resolved, now); early {
			resp.Warning = w
			s.logger.Info("early clock-out",
				zap.String("user_id", userID),
				zap.String("warning", w),
			)
		}
	}

	s.logger.Info("clock-out success",
		zap.String("user_id", userID),
		zap.String("record_id", row.ID.String()),
		zap.Float64("total_hours", total),
	)
	return resp, nil
}

// Update applies an admin correction and re-derives total hours when both
// clock times are present after the patch.
func (s *service) Update(ctx context.Context, id string, req UpdateRequest, adminID string) (AttendanceResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrRecordNotFound
		}
		return AttendanceResponse{}, err
	}
	before := *row

	if req.Status != nil {
		if !IsValidStatus(*req.Status) {
			return AttendanceResponse{}, attendanceerrors.ErrInvalidStatus
		}
		row.Status = *req.Status
	}
	if req.ClockInAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ClockInAt)
		if err != nil {
			return AttendanceResponse{}, attendanceerrors.ErrInvalidTimestamp
		}
		t = t.UTC()
		row.ClockInAt = &t
	}
	if req.ClockOutAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ClockOutAt)
		if err != nil {
			return AttendanceResponse{}, attendanceerrors.ErrInvalidTimestamp
		}
		t = t.UTC()
		row.ClockOutAt = &t
	}
	if req.Remarks != nil {
		row.Remarks = appendRemarks(row.Remarks, *req.Remarks)
	}

	if row.ClockInAt != nil && row.ClockOutAt != nil {
		breakMinutes := 0
		if row.ShiftID != nil {
			if resolved, err := s.shifts.ResolveShift(ctx, row.ShiftID.String()); err == nil {
				breakMinutes = resolved.BreakDurationMinutes
			}
		}
		total := CalculateWorkedHours(*row.ClockInAt, *row.ClockOutAt, breakMinutes)
		row.TotalHours = &total
	}

	if err := qtx.Update(ctx, row); err != nil {
		s.logger.Error("attendance correction persist failed", zap.String("record_id", id), zap.Error(err))
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}

	s.invalidateUserCaches(ctx, row.UserID.String(), row.Date)
	s.audit.LogAudit(ctx, adminID, "ATTENDANCE_CORRECTION", "attendance_record", id, before, row)

	s.logger.Info("attendance corrected",
		zap.String("record_id", id),
		zap.String("admin_id", adminID),
	)
	return mapToResponse(*row), nil
}

func (s *service) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (AttendanceResponse, error) {
	var resp AttendanceResponse
	err := s.cache.GetOrSet(ctx, cache.AttendanceDayKey(userID, date), cache.TTLShort,
		func(ctx context.Context) (any, error) {
			row, err := s.repo.FindByUserAndDate(ctx, userID, dateOnly(date))
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, attendanceerrors.ErrRecordNotFound
				}
				return nil, err
			}
			return mapToResponse(*row), nil
		}, &resp)
	if err != nil {
		return AttendanceResponse{}, err
	}
	return resp, nil
}

func (s *service) GetMonthlyAttendance(ctx context.Context, userID string, year int, month time.Month) ([]AttendanceResponse, error) {
	var resp []AttendanceResponse
	err := s.cache.GetOrSet(ctx, cache.AttendanceMonthKey(userID, year, month), cache.TTLMedium,
		func(ctx context.Context) (any, error) {
			first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			last := first.AddDate(0, 1, -1)
			rows, err := s.repo.FindByUserAndDateRange(ctx, userID, first, last)
			if err != nil {
				return nil, err
			}
			out := make([]AttendanceResponse, len(rows))
			for i, r := range rows {
				out[i] = mapToResponse(r)
			}
			return out, nil
		}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// MarkOnLeave pre-creates ON_LEAVE rows for every weekday in [from, to].
// Days the user already clocked in on are left untouched, so replayed
// events and late approvals stay safe.
func (s *service) MarkOnLeave(ctx context.Context, userID string, from, to time.Time) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return attendanceerrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	marked := 0
	for d := dateOnly(from); !d.After(dateOnly(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}

		existing, err := qtx.FindByUserAndDate(ctx, userID, d)
		switch {
		case err == nil:
			if existing.ClockInAt != nil {
				continue
			}
			if existing.Status == StatusOnLeave {
				continue
			}
			existing.Status = StatusOnLeave
			if err := qtx.Update(ctx, existing); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec := &Record{
				ID:     uuid.New(),
				UserID: userUUID,
				Date:   d,
				Status: StatusOnLeave,
			}
			if err := qtx.Create(ctx, rec); err != nil {
				return mapStorageError(err)
			}
		default:
			return err
		}
		marked++
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for d := dateOnly(from); !d.After(dateOnly(to)); d = d.AddDate(0, 0, 1) {
		s.invalidateUserCaches(ctx, userID, d)
	}

	s.logger.Info("leave days marked",
		zap.String("user_id", userID),
		zap.String("from", from.Format("2006-01-02")),
		zap.String("to", to.Format("2006-01-02")),
		zap.Int("marked", marked),
	)
	return nil
}

func (s *service) resolveEffectiveShift(ctx context.Context, userID string, today time.Time, override *string) (shift.ResolvedShift, error) {
	if override != nil && *override != "" {
		resolved, err := s.shifts.ResolveShift(ctx, *override)
		if err != nil {
			return shift.ResolvedShift{}, attendanceerrors.ErrNoShiftContext
		}
		return resolved, nil
	}
	resolved, err := s.shifts.CurrentShift(ctx, userID, today)
	if err != nil {
		s.logger.Warn("clock-in without shift context", zap.String("user_id", userID), zap.Error(err))
		return shift.ResolvedShift{}, attendanceerrors.ErrNoShiftContext
	}
	return resolved, nil
}

// Cache invalidation is best-effort after the commit.
func (s *service) invalidateUserCaches(ctx context.Context, userID string, date time.Time) {
	err := s.cache.Del(ctx,
		cache.AttendanceDayKey(userID, date),
		cache.AttendanceMonthKey(userID, date.Year(), date.Month()),
	)
	if err != nil {
		s.logger.Warn("attendance cache invalidation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// CalculateWorkedHours derives worked hours from the clock pair minus the
// shift break, floored at zero and rounded to 2 decimals.
func CalculateWorkedHours(clockIn, clockOut time.Time, breakMinutes int) float64 {
	minutes := clockOut.Sub(clockIn).Minutes() - float64(breakMinutes)
	if minutes < 0 {
		minutes = 0
	}
	return round2(minutes / 60)
}

func latenessWarning(sh shift.ResolvedShift, clockIn time.Time) (string, bool) {
	startMin, err := shift.MinutesOfDay(sh.StartTime)
	if err != nil {
		return "", false
	}
	clockMin := clockIn.Hour()*60 + clockIn.Minute()
	graceEnd := startMin + sh.GracePeriodMinutes + warningThresholdMinutes
	if clockMin <= graceEnd {
		return "", false
	}
	return fmt.Sprintf("clocked in %d minutes late", clockMin-startMin), true
}

func earlinessWarning(sh shift.ResolvedShift, clockOut time.Time) (string, bool) {
	endMin, err := shift.MinutesOfDay(sh.EndTime)
	if err != nil {
		return "", false
	}
	clockMin := clockOut.Hour()*60 + clockOut.Minute()
	if clockMin >= endMin-warningThresholdMinutes {
		return "", false
	}
	return fmt.Sprintf("clocked out %d minutes early", endMin-clockMin), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func appendRemarks(existing *string, extra string) *string {
	if extra == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		return &extra
	}
	combined := *existing + "; " + extra
	return &combined
}

func mapToResponse(rec Record) AttendanceResponse {
	resp := AttendanceResponse{
		ID:               rec.ID.String(),
		UserID:           rec.UserID.String(),
		Date:             rec.Date.Format("2006-01-02"),
		Status:           rec.Status,
		ClockInPhotoURL:  rec.ClockInPhotoURL,
		ClockOutPhotoURL: rec.ClockOutPhotoURL,
		TotalHours:       rec.TotalHours,
		Remarks:          rec.Remarks,
	}
	if rec.ShiftID != nil {
		v := rec.ShiftID.String()
		resp.ShiftID = &v
	}
	if rec.ClockInAt != nil {
		v := rec.ClockInAt.Format(time.RFC3339)
		resp.ClockInAt = &v
	}
	if rec.ClockOutAt != nil {
		v := rec.ClockOutAt.Format(time.RFC3339)
		resp.ClockOutAt = &v
	}
	return resp
}
