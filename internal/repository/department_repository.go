package repository

import (
	"context"

	"gorm.io/gorm"

	"grievancedesk/internal/model"
)

// DepartmentRepository defines department persistence operations.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	FindByID(ctx context.Context, id string) (*model.Department, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Department, error)
	FindByName(ctx context.Context, name string) (*model.Department, error)
	// List returns every department sorted by name.
	List(ctx context.Context) ([]model.Department, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

// Create creates a new department.
func (r *departmentRepository) Create(ctx context.Context, dept *model.Department) error {
	return translate(r.db.WithContext(ctx).Create(dept).Error)
}

// FindByID finds a department by ID.
func (r *departmentRepository) FindByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error; err != nil {
		return nil, translate(err)
	}
	return &dept, nil
}

// FindByIDs loads the departments that still exist among ids.
func (r *departmentRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Department, error) {
	var depts []model.Department
	if len(ids) == 0 {
		return depts, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

// FindByName finds a department by its exact name.
func (r *departmentRepository) FindByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&dept).Error; err != nil {
		return nil, translate(err)
	}
	return &dept, nil
}

// List lists departments ordered by name.
func (r *departmentRepository) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

// Rename changes the name of a department. Dependents hold the id, so nothing else moves.
func (r *departmentRepository) Rename(ctx context.Context, id, name string) error {
	return translate(r.db.WithContext(ctx).Model(&model.Department{}).
		Where("id = ?", id).
		Update("name", name).Error)
}

// Delete removes a department. Grievances keep their now dangling reference.
func (r *departmentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Department{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
