package shift

import (
	"context"
	"errors"
	"time"

	shifterrors "go-workforce/internal/shift/errors"
	"go-workforce/internal/shared/cache"
	"go-workforce/internal/shared/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=shift_service.go -destination=mock/shift_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	Update(ctx context.Context, id string, req UpdateShiftRequest) (ShiftResponse, error)
	Assign(ctx context.Context, req AssignShiftRequest) (AssignmentResponse, error)
	// CurrentShift resolves the shift in effect for the user on the given
	// date. When several active assignments match, the most recently
	// created one wins.
	CurrentShift(ctx context.Context, userID string, onDate time.Time) (ResolvedShift, error)
	// ResolveShift loads shift context by id, for callers holding an
	// explicit shift reference instead of an assignment.
	ResolveShift(ctx context.Context, shiftID string) (ResolvedShift, error)
	FindAll(ctx context.Context, storeID *string) ([]ShiftResponse, error)
	Remove(ctx context.Context, id string) error
}

type service struct {
	repo   Repository
	cache  cache.Cache
	logger *zap.Logger
}

func NewService(repo Repository, c cache.Cache, logger ...*zap.Logger) Service {
	l := zap.L().Named("shift.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("shift.service")
	}
	return &service{repo: repo, cache: c, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error) {
	if err := validation.Struct(req); err != nil {
		return ShiftResponse{}, err
	}
	storeUUID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidStoreID
	}
	if _, err := MinutesOfDay(req.StartTime); err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidShiftTimes
	}
	if _, err := MinutesOfDay(req.EndTime); err != nil {
		return ShiftResponse{}, shifterrors.ErrInvalidShiftTimes
	}

	taken, err := s.repo.HasShiftNameConflict(ctx, req.StoreID, req.Name, nil)
	if err != nil {
		s.logger.Error("create shift name check failed", zap.Error(err))
		return ShiftResponse{}, err
	}
	if taken {
		return ShiftResponse{}, shifterrors.ErrShiftNameTaken
	}

	row := &Shift{
		ID:                   uuid.New(),
		StoreID:              storeUUID,
		Name:                 req.Name,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		BreakDurationMinutes: req.BreakDurationMinutes,
		GracePeriodMinutes:   req.GracePeriodMinutes,
		Active:               true,
	}
	if err := s.repo.CreateShift(ctx, row); err != nil {
		s.logger.Error("create shift persist failed", zap.Error(err))
		return ShiftResponse{}, err
	}

	s.logger.Info("shift created",
		zap.String("shift_id", row.ID.String()),
		zap.String("store_id", req.StoreID),
		zap.String("name", req.Name),
	)
	return mapShiftToResponse(*row), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateShiftRequest) (ShiftResponse, error) {
	if err := validation.Struct(req); err != nil {
		return ShiftResponse{}, err
	}

	row, err := s.repo.FindShiftByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ShiftResponse{}, shifterrors.ErrShiftNotFound
		}
		return ShiftResponse{}, err
	}

	if req.Name != nil && *req.Name != row.Name {
		taken, err := s.repo.HasShiftNameConflict(ctx, row.StoreID.String(), *req.Name, &id)
		if err != nil {
			return ShiftResponse{}, err
		}
		if taken {
			return ShiftResponse{}, shifterrors.ErrShiftNameTaken
		}
		row.Name = *req.Name
	}
	if req.StartTime != nil {
		if _, err := MinutesOfDay(*req.StartTime); err != nil {
			return ShiftResponse{}, shifterrors.ErrInvalidShiftTimes
		}
		row.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if _, err := MinutesOfDay(*req.EndTime); err != nil {
			return ShiftResponse{}, shifterrors.ErrInvalidShiftTimes
		}
		row.EndTime = *req.EndTime
	}
	if req.BreakDurationMinutes != nil {
		row.BreakDurationMinutes = *req.BreakDurationMinutes
	}
	if req.GracePeriodMinutes != nil {
		row.GracePeriodMinutes = *req.GracePeriodMinutes
	}

	if err := s.repo.UpdateShift(ctx, row); err != nil {
		s.logger.Error("update shift persist failed", zap.String("shift_id", id), zap.Error(err))
		return ShiftResponse{}, err
	}
	s.logger.Info("shift updated", zap.String("shift_id", id))
	return mapShiftToResponse(*row), nil
}

func (s *service) Assign(ctx context.Context, req AssignShiftRequest) (AssignmentResponse, error) {
	if err := validation.Struct(req); err != nil {
		return AssignmentResponse{}, err
	}

	userUUID, err := uuid.Parse(req.UserID)
	if err != nil {
		return AssignmentResponse{}, shifterrors.ErrInvalidUserID
	}
	shiftUUID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return AssignmentResponse{}, shifterrors.ErrInvalidShiftID
	}

	from, err := parseDate(req.EffectiveFrom)
	if err != nil {
		return AssignmentResponse{}, err
	}
	var to *time.Time
	if req.EffectiveTo != nil && *req.EffectiveTo != "" {
		t, err := parseDate(*req.EffectiveTo)
		if err != nil {
			return AssignmentResponse{}, err
		}
		if from.After(t) {
			return AssignmentResponse{}, shifterrors.ErrInvalidDateRange
		}
		to = &t
	}

	days, err := FormatDaysOfWeek(req.DaysOfWeek)
	if err != nil {
		return AssignmentResponse{}, shifterrors.ErrInvalidWeekday
	}

	sh, err := s.repo.FindShiftByID(ctx, req.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AssignmentResponse{}, shifterrors.ErrShiftNotFound
		}
		return AssignmentResponse{}, err
	}
	if !sh.Active {
		return AssignmentResponse{}, shifterrors.ErrShiftNotFound
	}

	// Date ranges only; disjoint weekday sets within overlapping ranges
	// are still rejected, matching the legacy overlap rule.
	overlap, err := s.repo.HasOverlappingAssignment(ctx, req.UserID, from, to, nil)
	if err != nil {
		s.logger.Error("assign shift overlap check failed", zap.Error(err))
		return AssignmentResponse{}, err
	}
	if overlap {
		s.logger.Warn("assign shift overlap detected",
			zap.String("user_id", req.UserID),
			zap.String("effective_from", req.EffectiveFrom),
		)
		return AssignmentResponse{}, shifterrors.ErrAssignmentOverlap
	}

	row := &Assignment{
		ID:            uuid.New(),
		UserID:        userUUID,
		ShiftID:       shiftUUID,
		EffectiveFrom: from,
		EffectiveTo:   to,
		DaysOfWeek:    days,
		IsDefault:     req.IsDefault,
	}
	if err := s.repo.CreateAssignment(ctx, row); err != nil {
		s.logger.Error("assign shift persist failed", zap.Error(err))
		return AssignmentResponse{}, err
	}

	if err := s.cache.Del(ctx, cache.CurrentShiftKey(req.UserID, time.Now().UTC())); err != nil {
		s.logger.Warn("assign shift cache invalidation failed", zap.Error(err))
	}

	s.logger.Info("shift assigned",
		zap.String("assignment_id", row.ID.String()),
		zap.String("user_id", req.UserID),
		zap.String("shift_id", req.ShiftID),
	)
	return mapAssignmentToResponse(*row, sh.Name), nil
}

func (s *service) CurrentShift(ctx context.Context, userID string, onDate time.Time) (ResolvedShift, error) {
	var resolved ResolvedShift
	err := s.cache.GetOrSet(ctx, cache.CurrentShiftKey(userID, onDate), cache.TTLShort,
		func(ctx context.Context) (any, error) {
			return s.resolveShift(ctx, userID, onDate)
		}, &resolved)
	if err != nil {
		return ResolvedShift{}, err
	}
	return resolved, nil
}

func (s *service) resolveShift(ctx context.Context, userID string, onDate time.Time) (ResolvedShift, error) {
	rows, err := s.repo.FindActiveAssignments(ctx, userID, onDate)
	if err != nil {
		s.logger.Error("resolve shift query failed", zap.String("user_id", userID), zap.Error(err))
		return ResolvedShift{}, err
	}
	for _, a := range rows {
		if !ContainsWeekday(a.DaysOfWeek, onDate.Weekday()) {
			continue
		}
		if a.Shift == nil || !a.Shift.Active {
			continue
		}
		return ResolvedShift{
			ShiftID:              a.ShiftID.String(),
			Name:                 a.Shift.Name,
			StartTime:            a.Shift.StartTime,
			EndTime:              a.Shift.EndTime,
			BreakDurationMinutes: a.Shift.BreakDurationMinutes,
			GracePeriodMinutes:   a.Shift.GracePeriodMinutes,
		}, nil
	}
	return ResolvedShift{}, shifterrors.ErrNoActiveShift
}

func (s *service) ResolveShift(ctx context.Context, shiftID string) (ResolvedShift, error) {
	sh, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ResolvedShift{}, shifterrors.ErrShiftNotFound
		}
		return ResolvedShift{}, err
	}
	if !sh.Active {
		return ResolvedShift{}, shifterrors.ErrShiftNotFound
	}
	return ResolvedShift{
		ShiftID:              sh.ID.String(),
		Name:                 sh.Name,
		StartTime:            sh.StartTime,
		EndTime:              sh.EndTime,
		BreakDurationMinutes: sh.BreakDurationMinutes,
		GracePeriodMinutes:   sh.GracePeriodMinutes,
	}, nil
}

func (s *service) FindAll(ctx context.Context, storeID *string) ([]ShiftResponse, error) {
	rows, err := s.repo.FindAllShifts(ctx, storeID)
	if err != nil {
		return nil, err
	}
	resp := make([]ShiftResponse, len(rows))
	for i, r := range rows {
		resp[i] = mapShiftToResponse(r)
	}
	return resp, nil
}

func (s *service) Remove(ctx context.Context, id string) error {
	row, err := s.repo.FindShiftByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shifterrors.ErrShiftNotFound
		}
		return err
	}

	count, err := s.repo.CountActiveAssignmentsByShift(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shifterrors.ErrShiftInUse
	}

	if err := s.repo.ArchiveShift(ctx, id); err != nil {
		s.logger.Error("archive shift failed", zap.String("shift_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("shift archived",
		zap.String("shift_id", id),
		zap.String("store_id", row.StoreID.String()),
	)
	return nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, shifterrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapShiftToResponse(sh Shift) ShiftResponse {
	return ShiftResponse{
		ID:                   sh.ID.String(),
		StoreID:              sh.StoreID.String(),
		Name:                 sh.Name,
		StartTime:            sh.StartTime,
		EndTime:              sh.EndTime,
		BreakDurationMinutes: sh.BreakDurationMinutes,
		GracePeriodMinutes:   sh.GracePeriodMinutes,
		Active:               sh.Active,
	}
}

func mapAssignmentToResponse(a Assignment, shiftName string) AssignmentResponse {
	days, _ := ParseDaysOfWeek(a.DaysOfWeek)
	resp := AssignmentResponse{
		ID:            a.ID.String(),
		UserID:        a.UserID.String(),
		ShiftID:       a.ShiftID.String(),
		ShiftName:     shiftName,
		EffectiveFrom: a.EffectiveFrom.Format("2006-01-02"),
		DaysOfWeek:    days,
		IsDefault:     a.IsDefault,
	}
	if a.EffectiveTo != nil {
		v := a.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &v
	}
	return resp
}
