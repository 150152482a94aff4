package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grievancedesk/internal/auth"
	"grievancedesk/internal/cache"
	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/model"
	"grievancedesk/internal/policy"
	"grievancedesk/internal/repository"
)

const (
	departmentListKey      = "departments:all"
	departmentCacheTTL     = 10 * time.Minute
	msgDepartmentRequired  = "Department name is required"
	msgNewNameRequired     = "New department name is required"
	msgDepartmentDuplicate = "Department already exists"
)

// DepartmentService manages the department catalogue.
type DepartmentService interface {
	List(ctx context.Context) ([]model.Department, error)
	Create(ctx context.Context, actor auth.Identity, name string) (*model.Department, error)
	Rename(ctx context.Context, actor auth.Identity, id, newName string) (*model.Department, error)
	Delete(ctx context.Context, actor auth.Identity, id string) error
}

type departmentService struct {
	repo  repository.DepartmentRepository
	authz *policy.Authorizer
	cache *cache.Client
}

// NewDepartmentService creates a new department service.
func NewDepartmentService(repo repository.DepartmentRepository, authz *policy.Authorizer, cache *cache.Client) DepartmentService {
	return &departmentService{repo: repo, authz: authz, cache: cache}
}

// List returns departments sorted by name, served from cache when possible.
func (s *departmentService) List(ctx context.Context) ([]model.Department, error) {
	var cached []model.Department
	if s.cache.GetJSON(ctx, departmentListKey, &cached) {
		return cached, nil
	}

	depts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	if depts == nil {
		depts = []model.Department{}
	}
	_ = s.cache.SetJSON(ctx, departmentListKey, depts, departmentCacheTTL)
	return depts, nil
}

func (s *departmentService) Create(ctx context.Context, actor auth.Identity, name string) (*model.Department, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.DepartmentManage, nil); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation(msgDepartmentRequired)
	}

	dept := &model.Department{Name: name}
	if err := s.repo.Create(ctx, dept); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(msgDepartmentDuplicate)
		}
		return nil, fmt.Errorf("create department: %w", err)
	}
	s.invalidate(ctx)
	return dept, nil
}

// Rename changes only the department row. Grievances and admins reference
// the id, so they pick up the new name on their next read.
func (s *departmentService) Rename(ctx context.Context, actor auth.Identity, id, newName string) (*model.Department, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.DepartmentManage, nil); err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperrors.Validation(msgNewNameRequired)
	}

	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Department")
	}
	if dept.Name == newName {
		return dept, nil
	}
	if err := s.repo.Rename(ctx, id, newName); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.Conflict(msgDepartmentDuplicate)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("Department")
		}
		return nil, fmt.Errorf("rename department: %w", err)
	}
	s.invalidate(ctx)
	dept.Name = newName
	return dept, nil
}

func (s *departmentService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.DepartmentManage, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "Department")
	}
	s.invalidate(ctx)
	return nil
}

func (s *departmentService) invalidate(ctx context.Context) {
	_ = s.cache.Delete(ctx, departmentListKey)
}
