package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grievancedesk/internal/auth"
	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/model"
	"grievancedesk/internal/policy"
	"grievancedesk/internal/repository"
)

const msgNameEmailRequired = "Fullname and email are required."

// UpdateUserInput is an admin edit of another account.
type UpdateUserInput struct {
	Fullname string
	Email    string
	// Password is re-hashed when non-empty.
	Password string
	// DepartmentID applies to admins only. Nil leaves it unchanged, an empty string clears it.
	DepartmentID *string
}

// UserService exposes admin management of admins and citizens.
type UserService interface {
	List(ctx context.Context, actor auth.Identity, role model.Role) ([]model.User, error)
	Update(ctx context.Context, actor auth.Identity, role model.Role, id string, in UpdateUserInput) (*model.User, error)
	// Delete removes an account of the given role together with its grievances.
	Delete(ctx context.Context, actor auth.Identity, role model.Role, id string) (*model.User, error)
}

type userService struct {
	repo        repository.UserRepository
	departments repository.DepartmentRepository
	authz       *policy.Authorizer
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository, departments repository.DepartmentRepository, authz *policy.Authorizer) UserService {
	return &userService{repo: repo, departments: departments, authz: authz}
}

func (s *userService) List(ctx context.Context, actor auth.Identity, role model.Role) ([]model.User, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.UserManage, nil); err != nil {
		return nil, err
	}
	return s.repo.ListByRole(ctx, role)
}

func (s *userService) Update(ctx context.Context, actor auth.Identity, role model.Role, id string, in UpdateUserInput) (*model.User, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.UserManage, nil); err != nil {
		return nil, err
	}
	fullname := strings.TrimSpace(in.Fullname)
	email := normalizeEmail(in.Email)
	if fullname == "" || email == "" {
		return nil, apperrors.Validation(msgNameEmailRequired)
	}
	if !validEmail(email) {
		return nil, apperrors.Validation("Please provide a valid email.")
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return nil, apperrors.Validation("Password must be at least 6 characters.")
	}

	user, err := s.find(ctx, role, id)
	if err != nil {
		return nil, err
	}
	if email != user.Email {
		other, err := s.repo.FindByEmail(ctx, email)
		if err == nil && other.ID != user.ID {
			return nil, apperrors.Conflict(msgEmailTaken)
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	user.Fullname = fullname
	user.Email = email
	if in.Password != "" {
		if user.PasswordHash, err = hashPassword(in.Password); err != nil {
			return nil, err
		}
	}
	if role == model.RoleAdmin && in.DepartmentID != nil {
		dept := trimmedPtr(in.DepartmentID)
		if dept != nil {
			if _, err := s.departments.FindByID(ctx, *dept); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, apperrors.Validation(msgInvalidDepartment)
				}
				return nil, err
			}
		}
		user.DepartmentID = dept
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(msgEmailTaken)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor auth.Identity, role model.Role, id string) (*model.User, error) {
	current, err := s.authz.Authorize(ctx, actor.ID, policy.UserManage, nil)
	if err != nil {
		return nil, err
	}
	if current.ID == id {
		return nil, apperrors.Forbidden("You cannot delete your own account from here.")
	}
	user, err := s.find(ctx, role, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		return nil, notFound(err, roleTitle(role))
	}
	return user, nil
}

// find loads id and requires it to hold role, so an admin id is "not found"
// on the citizen routes and vice versa.
func (s *userService) find(ctx context.Context, role model.Role, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, roleTitle(role))
	}
	if user.Role != role {
		return nil, apperrors.NotFound(roleTitle(role))
	}
	return user, nil
}

func roleTitle(role model.Role) string {
	if role == model.RoleAdmin {
		return "Admin"
	}
	return "Citizen"
}
