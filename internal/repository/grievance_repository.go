package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"grievancedesk/internal/model"
)

// GrievanceFilter narrows List. Empty fields match everything.
type GrievanceFilter struct {
	SubmittedBy  string
	DepartmentID string
}

// GrievanceRepository defines grievance persistence operations.
type GrievanceRepository interface {
	Create(ctx context.Context, g *model.Grievance) error
	// Update rewrites the mutable fields. SubmittedBy and TrackingID never change.
	Update(ctx context.Context, g *model.Grievance) error
	UpdateStatus(ctx context.Context, id string, status model.GrievanceStatus) error
	FindByID(ctx context.Context, id string) (*model.Grievance, error)
	// List returns matching grievances, newest first.
	List(ctx context.Context, filter GrievanceFilter) ([]model.Grievance, error)
	Delete(ctx context.Context, id string) error

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]GroupCount, error)
	CountByCategory(ctx context.Context) ([]GroupCount, error)
	CountByDepartment(ctx context.Context) ([]GroupCount, error)
	// CreatedSince returns the creation times of grievances filed at or after since.
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
	Categories(ctx context.Context) ([]string, error)
}

type grievanceRepository struct {
	db *gorm.DB
}

// NewGrievanceRepository creates a new grievance repository.
func NewGrievanceRepository(db *gorm.DB) GrievanceRepository {
	return &grievanceRepository{db: db}
}

// Create creates a new grievance record.
func (r *grievanceRepository) Create(ctx context.Context, g *model.Grievance) error {
	return translate(r.db.WithContext(ctx).Create(g).Error)
}

// Update updates an existing grievance record.
func (r *grievanceRepository) Update(ctx context.Context, g *model.Grievance) error {
	return translate(r.db.WithContext(ctx).Model(g).
		Select("*").Omit("id", "tracking_id", "submitted_by", "created_at").
		Updates(g).Error)
}

// UpdateStatus sets the status column only.
func (r *grievanceRepository) UpdateStatus(ctx context.Context, id string, status model.GrievanceStatus) error {
	return r.db.WithContext(ctx).Model(&model.Grievance{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// FindByID finds a grievance by ID.
func (r *grievanceRepository) FindByID(ctx context.Context, id string) (*model.Grievance, error) {
	var g model.Grievance
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *grievanceRepository) List(ctx context.Context, filter GrievanceFilter) ([]model.Grievance, error) {
	q := r.db.WithContext(ctx).Model(&model.Grievance{})
	if filter.SubmittedBy != "" {
		q = q.Where("submitted_by = ?", filter.SubmittedBy)
	}
	if filter.DepartmentID != "" {
		q = q.Where("department_id = ?", filter.DepartmentID)
	}
	var out []model.Grievance
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a grievance by ID.
func (r *grievanceRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Grievance{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *grievanceRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Grievance{}).Count(&n).Error
	return n, err
}

func (r *grievanceRepository) CountByStatus(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, "status", nil)
}

func (r *grievanceRepository) CountByCategory(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, "category", nil)
}

func (r *grievanceRepository) CountByDepartment(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, "department_id", func(q *gorm.DB) *gorm.DB {
		return q.Where("department_id IS NOT NULL AND department_id <> ''")
	})
}

type groupRow struct {
	GroupKey string
	Total    int64
}

func (r *grievanceRepository) groupCount(ctx context.Context, column string, scope func(*gorm.DB) *gorm.DB) ([]GroupCount, error) {
	q := r.db.WithContext(ctx).Model(&model.Grievance{}).
		Select(column + " AS group_key, COUNT(*) AS total")
	if scope != nil {
		q = scope(q)
	}
	var rows []groupRow
	if err := q.Group(column).Order("total DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]GroupCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, GroupCount{Key: row.GroupKey, Count: row.Total})
	}
	return out, nil
}

func (r *grievanceRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := r.db.WithContext(ctx).Model(&model.Grievance{}).
		Where("created_at >= ?", since).
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}
	return stamps, nil
}

func (r *grievanceRepository) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.WithContext(ctx).Model(&model.Grievance{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &cats).Error
	if err != nil {
		return nil, err
	}
	return cats, nil
}
