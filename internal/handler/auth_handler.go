package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"grievancedesk/internal/auth"
	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/model"
	"grievancedesk/internal/service"
	"grievancedesk/internal/view"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a registration request.
// Role and Department are honoured only on the admin route.
type RegisterRequest struct {
	Fullname   string  `json:"fullname"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly issued token.
type TokenResponse struct {
	Token string `json:"token"`
}

// RegisterResponse echoes the created account.
type RegisterResponse struct {
	Msg  string              `json:"msg"`
	User view.RegisteredUser `json:"user"`
}

func (r RegisterRequest) input() service.RegisterInput {
	return service.RegisterInput{
		Fullname:     r.Fullname,
		Email:        r.Email,
		Password:     r.Password,
		Role:         model.Role(r.Role),
		DepartmentID: r.Department,
	}
}

// Register godoc
// @Summary Register a citizen
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	user, err := h.authService.Register(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, RegisterResponse{Msg: "User created successfully", User: view.NewRegisteredUser(user)})
}

// RegisterByAdmin godoc
// @Summary Register a citizen or admin on behalf of an admin
// @Tags auth
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/register-by-admin [post]
func (h *AuthHandler) RegisterByAdmin(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	user, err := h.authService.RegisterByAdmin(c.Request().Context(), actor, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, RegisterResponse{Msg: "User created successfully", User: view.NewRegisteredUser(user)})
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// Logout godoc
// @Summary Revoke the presented token
// @Tags auth
// @Produce json
// @Security TokenAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}
	if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Msg: "Logged out"})
}

// DeleteMe godoc
// @Summary Delete the caller's account and grievances
// @Tags auth
// @Produce json
// @Security TokenAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me [delete]
func (h *AuthHandler) DeleteMe(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}
	if err := h.authService.DeleteAccount(c.Request().Context(), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Msg: "Account and grievances deleted successfully."})
}
