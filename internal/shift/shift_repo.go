package shift

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=shift_repo.go -destination=mock/shift_repo_mock.go -package=mock
type Repository interface {
	CreateShift(ctx context.Context, s *Shift) error
	FindShiftByID(ctx context.Context, id string) (*Shift, error)
	FindAllShifts(ctx context.Context, storeID *string) ([]Shift, error)
	UpdateShift(ctx context.Context, s *Shift) error
	ArchiveShift(ctx context.Context, id string) error
	HasShiftNameConflict(ctx context.Context, storeID, name string, excludeID *string) (bool, error)

	CreateAssignment(ctx context.Context, a *Assignment) error
	HasOverlappingAssignment(ctx context.Context, userID string, from time.Time, to *time.Time, excludeID *string) (bool, error)
	FindActiveAssignments(ctx context.Context, userID string, onDate time.Time) ([]Assignment, error)
	CountActiveAssignmentsByShift(ctx context.Context, shiftID string) (int64, error)
	ArchiveAssignment(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateShift(ctx context.Context, s *Shift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) FindShiftByID(ctx context.Context, id string) (*Shift, error) {
	var s Shift
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *repository) FindAllShifts(ctx context.Context, storeID *string) ([]Shift, error) {
	db := r.db.WithContext(ctx).Where("active = ?", true)
	if storeID != nil && *storeID != "" {
		db = db.Where("store_id = ?", *storeID)
	}
	var rows []Shift
	err := db.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateShift(ctx context.Context, s *Shift) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) ArchiveShift(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&Shift{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (r *repository) HasShiftNameConflict(ctx context.Context, storeID, name string, excludeID *string) (bool, error) {
	db := r.db.WithContext(ctx).
		Model(&Shift{}).
		Where("store_id = ?", storeID).
		Where("name = ?", name)
	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}
	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateAssignment(ctx context.Context, a *Assignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// HasOverlappingAssignment compares date ranges only; weekday sets are not
// part of the conflict check.
func (r *repository) HasOverlappingAssignment(ctx context.Context, userID string, from time.Time, to *time.Time, excludeID *string) (bool, error) {
	db := r.db.WithContext(ctx).
		Model(&Assignment{}).
		Where("user_id = ?", userID)

	if to != nil {
		db = db.Where("effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", *to, from)
	} else {
		// open-ended request overlaps anything not ending before it starts
		db = db.Where("effective_to IS NULL OR effective_to >= ?", from)
	}
	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}

// FindActiveAssignments returns assignments whose date range contains
// onDate, most recently created first.
func (r *repository) FindActiveAssignments(ctx context.Context, userID string, onDate time.Time) ([]Assignment, error) {
	day := onDate.Format("2006-01-02")
	var rows []Assignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Where("user_id = ?", userID).
		Where("effective_from <= ?", day).
		Where("effective_to IS NULL OR effective_to >= ?", day).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountActiveAssignmentsByShift(ctx context.Context, shiftID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Assignment{}).
		Where("shift_id = ?", shiftID).
		Where("effective_to IS NULL OR effective_to >= ?", time.Now().UTC().Format("2006-01-02")).
		Count(&count).Error
	return count, err
}

func (r *repository) ArchiveAssignment(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Assignment{}, "id = ?", id).Error
}
