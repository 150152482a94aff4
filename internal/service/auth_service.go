package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"grievancedesk/internal/auth"
	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/model"
	"grievancedesk/internal/policy"
	"grievancedesk/internal/repository"
)

const (
	msgBadRegistration = "Please provide a valid email and a password of at least 6 characters."
	msgEmailTaken      = "User with this email already exists"
)

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("grievancedesk-dummy"), bcryptCost)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Fullname     string
	Email        string
	Password     string
	Role         model.Role
	DepartmentID *string
}

// AuthService handles authentication operations.
type AuthService interface {
	// Register creates a citizen account. Any requested role is ignored.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	// RegisterByAdmin lets an admin create a citizen or another admin.
	RegisterByAdmin(ctx context.Context, actor auth.Identity, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	// DeleteAccount removes the caller and every grievance they filed.
	DeleteAccount(ctx context.Context, claims *auth.Claims) error
}

type authService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	authz       *policy.Authorizer
	jwtService  *auth.JWTService
	revoker     auth.Revoker
	logger      *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	departments repository.DepartmentRepository,
	authz *policy.Authorizer,
	jwtService *auth.JWTService,
	revoker auth.Revoker,
	logger *slog.Logger,
) AuthService {
	return &authService{
		users:       users,
		departments: departments,
		authz:       authz,
		jwtService:  jwtService,
		revoker:     revoker,
		logger:      logger,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Role = model.RoleCitizen
	in.DepartmentID = nil
	return s.create(ctx, in)
}

func (s *authService) RegisterByAdmin(ctx context.Context, actor auth.Identity, in RegisterInput) (*model.User, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.UserManage, nil); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = model.RoleCitizen
	}
	if !in.Role.Valid() {
		return nil, apperrors.Validation("Invalid role")
	}
	in.Fullname = strings.TrimSpace(in.Fullname)
	if in.Role == model.RoleAdmin && in.Fullname == "" {
		return nil, apperrors.Validation("Fullname is required for admins")
	}
	in.DepartmentID = trimmedPtr(in.DepartmentID)
	if in.DepartmentID != nil {
		if _, err := s.departments.FindByID(ctx, *in.DepartmentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.Validation("Invalid department")
			}
			return nil, err
		}
	}
	return s.create(ctx, in)
}

func (s *authService) create(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if !validEmail(email) || len(in.Password) < minPasswordLength {
		return nil, apperrors.Validation(msgBadRegistration)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.Conflict(msgEmailTaken)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Fullname:     strings.TrimSpace(in.Fullname),
		Email:        email,
		PasswordHash: hashed,
		Role:         in.Role,
		DepartmentID: in.DepartmentID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(msgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login returns a signed token. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(auth.Identity{
		ID:       user.ID,
		Role:     user.Role,
		Fullname: user.Fullname,
	})
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	return s.revoker.Revoke(ctx, claims.ID, claims.TTL(time.Now()))
}

func (s *authService) DeleteAccount(ctx context.Context, claims *auth.Claims) error {
	if err := s.users.DeleteCascade(ctx, claims.User.ID); err != nil {
		return notFound(err, "User")
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.TTL(time.Now())); err != nil {
		s.logger.Warn("revoke token of deleted account", "user_id", claims.User.ID, "error", err)
	}
	return nil
}
