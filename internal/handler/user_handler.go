package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"grievancedesk/internal/model"
	"grievancedesk/internal/service"
	"grievancedesk/internal/view"
)

// UserHandler serves admin management of admins and citizens.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateUserRequest is an admin edit of an account.
type UpdateUserRequest struct {
	Fullname   string  `json:"fullname"`
	Email      string  `json:"email"`
	Password   string  `json:"password,omitempty"`
	Department *string `json:"department,omitempty"`
}

// AdminDeletedResponse acknowledges an admin removal.
type AdminDeletedResponse struct {
	Msg   string     `json:"msg"`
	Admin view.Admin `json:"admin"`
}

// CitizenDeletedResponse acknowledges a citizen removal.
type CitizenDeletedResponse struct {
	Msg     string       `json:"msg"`
	Citizen view.Citizen `json:"citizen"`
}

func (h *UserHandler) update(c echo.Context, role model.Role) (*model.User, error) {
	actor, err := identity(c)
	if err != nil {
		return nil, err
	}
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return nil, errBadBody
	}
	return h.svc.Update(c.Request().Context(), actor, role, c.Param("id"), service.UpdateUserInput{
		Fullname:     req.Fullname,
		Email:        req.Email,
		Password:     req.Password,
		DepartmentID: req.Department,
	})
}

func (h *UserHandler) list(c echo.Context, role model.Role) ([]model.User, error) {
	actor, err := identity(c)
	if err != nil {
		return nil, err
	}
	return h.svc.List(c.Request().Context(), actor, role)
}

func (h *UserHandler) remove(c echo.Context, role model.Role) (*model.User, error) {
	actor, err := identity(c)
	if err != nil {
		return nil, err
	}
	return h.svc.Delete(c.Request().Context(), actor, role, c.Param("id"))
}

// ListAdmins godoc
// @Summary List admins
// @Tags admin
// @Produce json
// @Security TokenAuth
// @Success 200 {array} view.Admin
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/admins [get]
func (h *UserHandler) ListAdmins(c echo.Context) error {
	users, err := h.list(c, model.RoleAdmin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.NewAdmins(users))
}

// UpdateAdmin godoc
// @Summary Update an admin
// @Tags admin
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path string true "Admin ID"
// @Param request body UpdateUserRequest true "Changes"
// @Success 200 {object} view.Admin
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/admins/{id} [put]
func (h *UserHandler) UpdateAdmin(c echo.Context) error {
	user, err := h.update(c, model.RoleAdmin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.NewAdmin(user))
}

// DeleteAdmin godoc
// @Summary Delete an admin
// @Tags admin
// @Produce json
// @Security TokenAuth
// @Param id path string true "Admin ID"
// @Success 200 {object} AdminDeletedResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/admins/{id} [delete]
func (h *UserHandler) DeleteAdmin(c echo.Context) error {
	user, err := h.remove(c, model.RoleAdmin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AdminDeletedResponse{Msg: "Admin deleted", Admin: view.NewAdmin(user)})
}

// ListCitizens godoc
// @Summary List citizens
// @Tags admin
// @Produce json
// @Security TokenAuth
// @Success 200 {array} view.Citizen
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/citizens [get]
func (h *UserHandler) ListCitizens(c echo.Context) error {
	users, err := h.list(c, model.RoleCitizen)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.NewCitizens(users))
}

// UpdateCitizen godoc
// @Summary Update a citizen
// @Tags admin
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path string true "Citizen ID"
// @Param request body UpdateUserRequest true "Changes"
// @Success 200 {object} view.Citizen
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/citizens/{id} [put]
func (h *UserHandler) UpdateCitizen(c echo.Context) error {
	user, err := h.update(c, model.RoleCitizen)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.NewCitizen(user))
}

// DeleteCitizen godoc
// @Summary Delete a citizen and their grievances
// @Tags admin
// @Produce json
// @Security TokenAuth
// @Param id path string true "Citizen ID"
// @Success 200 {object} CitizenDeletedResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/citizens/{id} [delete]
func (h *UserHandler) DeleteCitizen(c echo.Context) error {
	user, err := h.remove(c, model.RoleCitizen)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CitizenDeletedResponse{Msg: "Citizen deleted", Citizen: view.NewCitizen(user)})
}
