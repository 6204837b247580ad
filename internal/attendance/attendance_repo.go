package attendance

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id string) (*Record, error)
	FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*Record, error)
	FindByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]Record, error)
	Update(ctx context.Context, rec *Record) error
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

// conn binds the statement to the caller's transaction when one is held;
// otherwise the pool is used directly.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, rec *Record) error {
	return r.conn(ctx).Create(rec).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := r.conn(ctx).First(&rec, "id = ?", id).Error
	return &rec, err
}

func (r *repository) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*Record, error) {
	var rec Record
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Where("date = ?", date.Format("2006-01-02")).
		First(&rec).Error
	return &rec, err
}

func (r *repository) FindByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	var rows []Record
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Where("date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, rec *Record) error {
	return r.conn(ctx).Save(rec).Error
}
