package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leaveerrors "go-workforce/internal/leave/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	FindTypeByID(ctx context.Context, id string) (*LeaveType, error)
	FindActiveTypes(ctx context.Context) ([]LeaveType, error)

	// EnsureBalance lazily creates the (user, type, year) row with the
	// yearly allotment; concurrent callers race safely on the unique key.
	EnsureBalance(ctx context.Context, userID, leaveTypeID string, year, allotment int) (*Balance, error)
	FindBalances(ctx context.Context, userID string, year int) ([]Balance, error)

	CreateRequest(ctx context.Context, req *Request) error
	FindRequestByID(ctx context.Context, id string) (*Request, error)
	HasOverlappingApproved(ctx context.Context, userID string, start, end time.Time, excludeID *string) (bool, error)
	FindPendingRequests(ctx context.Context) ([]Request, error)
	FindRequestsByUser(ctx context.Context, userID string) ([]Request, error)

	// FindRequestForUpdate takes an exclusive row lock; callers must hold
	// a transaction (WithTx) for the whole read-modify-write sequence.
	FindRequestForUpdate(ctx context.Context, id string) (*Request, error)
	UpdateRequestDecision(ctx context.Context, req *Request) error
	// ApplyBalanceDeduction increments used and decrements balance
	// atomically; fails with ErrInsufficientBalance when the remaining
	// balance cannot cover the days.
	ApplyBalanceDeduction(ctx context.Context, userID, leaveTypeID string, year, days int) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) FindTypeByID(ctx context.Context, id string) (*LeaveType, error) {
	var lt LeaveType
	err := r.db.WithContext(ctx).First(&lt, "id = ?", id).Error
	return &lt, err
}

func (r *repository) FindActiveTypes(ctx context.Context) ([]LeaveType, error) {
	var rows []LeaveType
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) EnsureBalance(ctx context.Context, userID, leaveTypeID string, year, allotment int) (*Balance, error) {
	// The yearly allotment is funded once, through earned; opening_balance
	// stays 0 until carry-over exists. Seeding both would double the
	// allowance under balance = opening + earned - used.
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO leave_balances (id, user_id, leave_type_id, year, opening_balance, earned, used, balance, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, 0, ?, 0, ?, now(), now())
		ON CONFLICT (user_id, leave_type_id, year) DO NOTHING
	`, userID, leaveTypeID, year, allotment, allotment).Error
	if err != nil {
		return nil, err
	}

	var b Balance
	err = r.db.WithContext(ctx).
		Preload("LeaveType").
		Where("user_id = ?", userID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) FindBalances(ctx context.Context, userID string, year int) ([]Balance, error) {
	var rows []Balance
	err := r.db.WithContext(ctx).
		Preload("LeaveType").
		Where("user_id = ?", userID).
		Where("year = ?", year).
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateRequest(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindRequestByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).
		Preload("LeaveType").
		First(&req, "id = ?", id).Error
	return &req, err
}

func (r *repository) HasOverlappingApproved(ctx context.Context, userID string, start, end time.Time, excludeID *string) (bool, error) {
	if r.tx != nil {
		// inside the decision transaction the check must run on the same
		// connection that holds the row lock
		query := `
			SELECT COUNT(*) FROM leave_requests
			WHERE user_id = $1
			  AND status = $2
			  AND deleted_at IS NULL
			  AND NOT (end_date < $3 OR start_date > $4)
			  AND ($5::uuid IS NULL OR id <> $5::uuid)
		`
		var exclude any
		if excludeID != nil && *excludeID != "" {
			exclude = *excludeID
		}
		var count int64
		err := r.tx.QueryRowContext(ctx, query,
			userID, StatusApproved,
			start.Format("2006-01-02"), end.Format("2006-01-02"),
			exclude,
		).Scan(&count)
		return count > 0, err
	}

	db := r.db.WithContext(ctx).
		Model(&Request{}).
		Where("user_id = ?", userID).
		Where("status = ?", StatusApproved).
		Where("NOT (end_date < ? OR start_date > ?)", start.Format("2006-01-02"), end.Format("2006-01-02"))
	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}
	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *repository) FindPendingRequests(ctx context.Context) ([]Request, error) {
	var rows []Request
	err := r.db.WithContext(ctx).
		Preload("LeaveType").
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindRequestsByUser(ctx context.Context, userID string) ([]Request, error) {
	var rows []Request
	err := r.db.WithContext(ctx).
		Preload("LeaveType").
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindRequestForUpdate(ctx context.Context, id string) (*Request, error) {
	if r.tx == nil {
		return nil, errors.New("leave: FindRequestForUpdate requires a transaction")
	}

	query := `
		SELECT id::text, user_id::text, leave_type_id::text,
		       start_date, end_date, total_days, status,
		       document_url, approved_by::text, approved_on, comments
		FROM leave_requests
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	var (
		req                     Request
		idStr, userStr, typeStr string
		approvedByStr           sql.NullString
		documentURL, comments   sql.NullString
		approvedOn              sql.NullTime
	)
	err := r.tx.QueryRowContext(ctx, query, id).Scan(
		&idStr, &userStr, &typeStr,
		&req.StartDate, &req.EndDate, &req.TotalDays, &req.Status,
		&documentURL, &approvedByStr, &approvedOn, &comments,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	req.ID = uuid.MustParse(idStr)
	req.UserID = uuid.MustParse(userStr)
	req.LeaveTypeID = uuid.MustParse(typeStr)
	if documentURL.Valid {
		v := documentURL.String
		req.DocumentURL = &v
	}
	if approvedByStr.Valid {
		v := uuid.MustParse(approvedByStr.String)
		req.ApprovedBy = &v
	}
	if approvedOn.Valid {
		t := approvedOn.Time
		req.ApprovedOn = &t
	}
	if comments.Valid {
		v := comments.String
		req.Comments = &v
	}
	return &req, nil
}

func (r *repository) UpdateRequestDecision(ctx context.Context, req *Request) error {
	query := `
		UPDATE leave_requests
		SET status = $2, approved_by = $3, approved_on = $4, comments = $5, updated_at = now()
		WHERE id = $1
	`

	var approvedBy any
	if req.ApprovedBy != nil {
		approvedBy = req.ApprovedBy.String()
	}
	var approvedOn any
	if req.ApprovedOn != nil {
		approvedOn = *req.ApprovedOn
	}
	var comments any
	if req.Comments != nil {
		comments = *req.Comments
	}

	_, err := r.execer().ExecContext(ctx, query, req.ID.String(), req.Status, approvedBy, approvedOn, comments)
	return err
}

func (r *repository) ApplyBalanceDeduction(ctx context.Context, userID, leaveTypeID string, year, days int) error {
	query := `
		UPDATE leave_balances
		SET used = used + $4, balance = balance - $4, updated_at = now()
		WHERE user_id = $1 AND leave_type_id = $2 AND year = $3 AND balance >= $4
	`

	res, err := r.execer().ExecContext(ctx, query, userID, leaveTypeID, year, days)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return leaveerrors.ErrInsufficientBalance
	}
	return nil
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		panic(err)
	}
	return sqlDB
}
