package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-workforce/internal/events"
	leaveerrors "go-workforce/internal/leave/errors"
	"go-workforce/internal/messaging/kafka"
	"go-workforce/internal/shared/cache"
	"go-workforce/internal/shared/contextutil"
	"go-workforce/internal/shared/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	CreateRequest(ctx context.Context, userID string, req CreateLeaveRequest) (LeaveRequestResponse, error)
	// Decide finalizes a pending request inside a single transaction. The
	// request row is locked exclusively for the whole sequence; an
	// approval deducts the balance in the same transaction.
	Decide(ctx context.Context, requestID string, decision Decision, approverID string) (LeaveRequestResponse, error)
	GetUserBalance(ctx context.Context, userID string, year int) ([]BalanceResponse, error)
	GetPendingRequests(ctx context.Context) ([]LeaveRequestResponse, error)
	GetUserRequests(ctx context.Context, userID string) ([]LeaveRequestResponse, error)
	GetLeaveTypes(ctx context.Context) ([]LeaveTypeResponse, error)
	InitializeYearlyBalances(ctx context.Context, userID string, year int) ([]BalanceResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	cache  cache.Cache
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, c cache.Cache, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, c, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	c cache.Cache,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		cache:  c,
		logger: l,
	}
}

func (s *service) CreateRequest(ctx context.Context, userID string, req CreateLeaveRequest) (LeaveRequestResponse, error) {
	s.logger.Debug("create leave request",
		zap.String("user_id", userID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	if err := validation.Struct(req); err != nil {
		return LeaveRequestResponse{}, err
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidUserID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if startDate.After(endDate) {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidDateRange
	}

	lt, err := s.repo.FindTypeByID(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrLeaveTypeNotFound
		}
		s.logger.Error("create leave type lookup failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !lt.Active {
		return LeaveRequestResponse{}, leaveerrors.ErrLeaveTypeNotFound
	}
	if lt.RequiresDocument && (req.DocumentURL == nil || *req.DocumentURL == "") {
		return LeaveRequestResponse{}, leaveerrors.ErrDocumentRequired
	}

	totalDays := int(endDate.Sub(startDate).Hours()/24) + 1

	balance, err := s.repo.EnsureBalance(ctx, userID, req.LeaveTypeID, startDate.Year(), lt.MaxDaysPerYear)
	if err != nil {
		s.logger.Error("create leave balance resolve failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if balance.Balance < totalDays {
		s.logger.Warn("create leave insufficient balance",
			zap.String("user_id", userID),
			zap.Int("requested_days", totalDays),
			zap.Int("balance", balance.Balance),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
	}

	overlap, err := s.repo.HasOverlappingApproved(ctx, userID, startDate, endDate, nil)
	if err != nil {
		s.logger.Error("create leave overlap check failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if overlap {
		return LeaveRequestResponse{}, leaveerrors.ErrLeaveOverlap
	}

	row := &Request{
		ID:          uuid.New(),
		UserID:      userUUID,
		LeaveTypeID: lt.ID,
		StartDate:   startDate,
		EndDate:     endDate,
		TotalDays:   totalDays,
		Status:      StatusPending,
		DocumentURL: req.DocumentURL,
		Comments:    req.Comments,
	}
	if err := s.repo.CreateRequest(ctx, row); err != nil {
		s.logger.Error("create leave persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.invalidatePendingCaches(ctx, userID, startDate.Year())

	s.logger.Info("leave request created",
		zap.String("request_id", row.ID.String()),
		zap.String("user_id", userID),
		zap.Int("total_days", totalDays),
	)
	row.LeaveType = lt
	return mapRequestToResponse(*row), nil
}

func (s *service) Decide(ctx context.Context, requestID string, decision Decision, approverID string) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("decide leave request",
		zap.String("request_id", requestID),
		zap.String("decision", decision.Status),
		zap.String("approver_id", approverID),
		zap.String("trace_id", rid),
	)

	switch decision.Status {
	case StatusApproved, StatusRejected, StatusCancelled:
	default:
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidDecision
	}
	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidApproverID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// exclusive lock held until commit; concurrent decisions on the same
	// request serialize here
	row, err := qtx.FindRequestForUpdate(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		s.logger.Error("decide leave lock failed", zap.String("request_id", requestID), zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if row.Status != StatusPending {
		s.logger.Warn("decide leave already processed",
			zap.String("request_id", requestID),
			zap.String("status", row.Status),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	row.Status = decision.Status
	row.ApprovedBy = &approverUUID
	row.ApprovedOn = &now
	if decision.Comments != nil {
		row.Comments = decision.Comments
	}

	if decision.Status == StatusApproved {
		overlap, err := qtx.HasOverlappingApproved(ctx, row.UserID.String(), row.StartDate, row.EndDate, &requestID)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if overlap {
			return LeaveRequestResponse{}, leaveerrors.ErrLeaveOverlap
		}

		// balance mutation and status change commit or roll back together
		err = qtx.ApplyBalanceDeduction(ctx, row.UserID.String(), row.LeaveTypeID.String(), row.StartDate.Year(), row.TotalDays)
		if err != nil {
			s.logger.Warn("decide leave balance deduction failed",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			return LeaveRequestResponse{}, err
		}

		if s.outbox != nil {
			if err := s.enqueueApprovedEvent(ctx, tx, row, approverID, rid); err != nil {
				s.logger.Error("decide leave outbox enqueue failed", zap.Error(err))
				return LeaveRequestResponse{}, err
			}
		}
	}

	if err := qtx.UpdateRequestDecision(ctx, row); err != nil {
		s.logger.Error("decide leave persist failed", zap.String("request_id", requestID), zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed", zap.String("request_id", requestID), zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.invalidatePendingCaches(ctx, row.UserID.String(), row.StartDate.Year())

	s.logger.Info("leave request decided",
		zap.String("request_id", requestID),
		zap.String("status", row.Status),
		zap.String("approver_id", approverID),
	)
	return mapRequestToResponse(*row), nil
}

func (s *service) enqueueApprovedEvent(ctx context.Context, tx *sql.Tx, row *Request, approverID, requestTraceID string) error {
	payload, err := json.Marshal(events.LeaveApprovedEvent{
		EventType:   "leave.approved",
		RequestID:   row.ID.String(),
		UserID:      row.UserID.String(),
		LeaveTypeID: row.LeaveTypeID.String(),
		StartDate:   row.StartDate.Format("2006-01-02"),
		EndDate:     row.EndDate.Format("2006-01-02"),
		TotalDays:   row.TotalDays,
		ApprovedBy:  approverID,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     requestTraceID,
		AggregateType: "leave_request",
		AggregateID:   row.ID.String(),
		EventType:     "leave.approved",
		Topic:         events.LeaveApprovedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) GetUserBalance(ctx context.Context, userID string, year int) ([]BalanceResponse, error) {
	var resp []BalanceResponse
	err := s.cache.GetOrSet(ctx, cache.LeaveBalanceKey(userID, year), cache.TTLMedium,
		func(ctx context.Context) (any, error) {
			rows, err := s.repo.FindBalances(ctx, userID, year)
			if err != nil {
				return nil, err
			}
			out := make([]BalanceResponse, len(rows))
			for i, b := range rows {
				out[i] = mapBalanceToResponse(b)
			}
			return out, nil
		}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *service) GetPendingRequests(ctx context.Context) ([]LeaveRequestResponse, error) {
	var resp []LeaveRequestResponse
	err := s.cache.GetOrSet(ctx, cache.PendingLeaveKey(), cache.TTLMicro,
		func(ctx context.Context) (any, error) {
			rows, err := s.repo.FindPendingRequests(ctx)
			if err != nil {
				return nil, err
			}
			return mapRequestsToResponse(rows), nil
		}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *service) GetUserRequests(ctx context.Context, userID string) ([]LeaveRequestResponse, error) {
	var resp []LeaveRequestResponse
	err := s.cache.GetOrSet(ctx, cache.UserLeaveKey(userID), cache.TTLShort,
		func(ctx context.Context) (any, error) {
			rows, err := s.repo.FindRequestsByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			return mapRequestsToResponse(rows), nil
		}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *service) GetLeaveTypes(ctx context.Context) ([]LeaveTypeResponse, error) {
	rows, err := s.repo.FindActiveTypes(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]LeaveTypeResponse, len(rows))
	for i, lt := range rows {
		resp[i] = LeaveTypeResponse{
			ID:               lt.ID.String(),
			Name:             lt.Name,
			Code:             lt.Code,
			MaxDaysPerYear:   lt.MaxDaysPerYear,
			RequiresDocument: lt.RequiresDocument,
			IsPaid:           lt.IsPaid,
			CarryForward:     lt.CarryForward,
		}
	}
	return resp, nil
}

// InitializeYearlyBalances seeds every active leave type's balance for the
// user and year; existing rows are left untouched.
func (s *service) InitializeYearlyBalances(ctx context.Context, userID string, year int) ([]BalanceResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, leaveerrors.ErrInvalidUserID
	}

	types, err := s.repo.FindActiveTypes(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]BalanceResponse, 0, len(types))
	for _, lt := range types {
		b, err := s.repo.EnsureBalance(ctx, userID, lt.ID.String(), year, lt.MaxDaysPerYear)
		if err != nil {
			s.logger.Error("initialize balance failed",
				zap.String("user_id", userID),
				zap.String("leave_type_id", lt.ID.String()),
				zap.Error(err),
			)
			return nil, err
		}
		resp = append(resp, mapBalanceToResponse(*b))
	}

	s.invalidatePendingCaches(ctx, userID, year)
	s.logger.Info("yearly balances initialized",
		zap.String("user_id", userID),
		zap.Int("year", year),
		zap.Int("types", len(types)),
	)
	return resp, nil
}

func (s *service) invalidatePendingCaches(ctx context.Context, userID string, year int) {
	err := s.cache.Del(ctx,
		cache.PendingLeaveKey(),
		cache.UserLeaveKey(userID),
		cache.LeaveBalanceKey(userID, year),
	)
	if err != nil {
		s.logger.Warn("leave cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapRequestToResponse(r Request) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:          r.ID.String(),
		UserID:      r.UserID.String(),
		LeaveTypeID: r.LeaveTypeID.String(),
		StartDate:   r.StartDate.Format("2006-01-02"),
		EndDate:     r.EndDate.Format("2006-01-02"),
		TotalDays:   r.TotalDays,
		Status:      r.Status,
		DocumentURL: r.DocumentURL,
		Comments:    r.Comments,
	}
	if r.LeaveType != nil {
		resp.LeaveTypeName = r.LeaveType.Name
	}
	if r.ApprovedBy != nil {
		v := r.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if r.ApprovedOn != nil {
		v := r.ApprovedOn.Format(time.RFC3339)
		resp.ApprovedOn = &v
	}
	return resp
}

func mapRequestsToResponse(rows []Request) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(rows))
	for i, r := range rows {
		resp[i] = mapRequestToResponse(r)
	}
	return resp
}

func mapBalanceToResponse(b Balance) BalanceResponse {
	resp := BalanceResponse{
		LeaveTypeID:    b.LeaveTypeID.String(),
		Year:           b.Year,
		OpeningBalance: b.OpeningBalance,
		Earned:         b.Earned,
		Used:           b.Used,
		Balance:        b.Balance,
	}
	if b.LeaveType != nil {
		resp.LeaveTypeName = b.LeaveType.Name
	}
	return resp
}
