package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"grievancedesk/internal/model"
	"grievancedesk/internal/repository"
)

// DefaultDepartments are created by the seeder.
var DefaultDepartments = []string{"Public Works", "Water Dept", "Electricity Dept"}

// OperatorService backs the maintenance commands. It bypasses the policy:
// it is reachable only from a shell with database credentials.
type OperatorService interface {
	// EnsureAdmin creates an admin unless the email is taken. It reports whether it created one.
	EnsureAdmin(ctx context.Context, email, password, fullname string) (bool, error)
	// FixAdminFullnames derives a fullname from the email for admins that lack one.
	FixAdminFullnames(ctx context.Context) ([]model.User, error)
	// SeedDepartments creates the named departments, skipping existing ones.
	SeedDepartments(ctx context.Context, names []string) (int, error)
}

type operatorService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
}

// NewOperatorService creates a new operator service.
func NewOperatorService(users repository.UserRepository, departments repository.DepartmentRepository) OperatorService {
	return &operatorService{users: users, departments: departments}
}

func (s *operatorService) EnsureAdmin(ctx context.Context, email, password, fullname string) (bool, error) {
	email = normalizeEmail(email)
	if !validEmail(email) || len(password) < minPasswordLength {
		return false, errors.New(msgBadRegistration)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	fullname = strings.TrimSpace(fullname)
	if fullname == "" {
		fullname = fullnameFromEmail(email)
	}
	admin := &model.User{Fullname: fullname, Email: email, PasswordHash: hashed, Role: model.RoleAdmin}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func (s *operatorService) FixAdminFullnames(ctx context.Context) ([]model.User, error) {
	admins, err := s.users.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	var fixed []model.User
	for i := range admins {
		if strings.TrimSpace(admins[i].Fullname) != "" {
			continue
		}
		admins[i].Fullname = fullnameFromEmail(admins[i].Email)
		if err := s.users.Update(ctx, &admins[i]); err != nil {
			return fixed, fmt.Errorf("update %s: %w", admins[i].Email, err)
		}
		fixed = append(fixed, admins[i])
	}
	return fixed, nil
}

func (s *operatorService) SeedDepartments(ctx context.Context, names []string) (int, error) {
	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		err := s.departments.Create(ctx, &model.Department{Name: name})
		switch {
		case err == nil:
			created++
		case errors.Is(err, repository.ErrDuplicate):
		default:
			return created, fmt.Errorf("seed %q: %w", name, err)
		}
	}
	return created, nil
}

// fullnameFromEmail capitalizes the local part: "ravi.k@gov.in" becomes "Ravi.k".
func fullnameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	r, size := utf8.DecodeRuneInString(local)
	if r == utf8.RuneError {
		return local
	}
	return string(unicode.ToUpper(r)) + local[size:]
}
