package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"grievancedesk/internal/model"
	"grievancedesk/internal/service"
)

// DepartmentHandler serves /api/department and /api/settings/departments.
type DepartmentHandler struct {
	departments service.DepartmentService
}

// NewDepartmentHandler creates a department handler.
func NewDepartmentHandler(departments service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

// CreateDepartmentRequest names a new department.
type CreateDepartmentRequest struct {
	Name string `json:"name"`
}

// RenameDepartmentRequest carries the new name.
type RenameDepartmentRequest struct {
	NewName string `json:"newName"`
}

// DepartmentUpdatedResponse acknowledges a rename.
type DepartmentUpdatedResponse struct {
	Msg        string            `json:"msg"`
	Department *model.Department `json:"department"`
}

// List godoc
// @Summary List departments
// @Tags departments
// @Produce json
// @Success 200 {array} model.Department
// @Router /department [get]
func (h *DepartmentHandler) List(c echo.Context) error {
	depts, err := h.departments.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, depts)
}

// Create godoc
// @Summary Add a department
// @Tags departments
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body CreateDepartmentRequest true "Department"
// @Success 201 {object} model.Department
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /department [post]
func (h *DepartmentHandler) Create(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req CreateDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	dept, err := h.departments.Create(c.Request().Context(), actor, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dept)
}

// Rename godoc
// @Summary Rename a department
// @Tags departments
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path string true "Department ID"
// @Param request body RenameDepartmentRequest true "New name"
// @Success 200 {object} DepartmentUpdatedResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /department/{id} [put]
func (h *DepartmentHandler) Rename(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req RenameDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}
	dept, err := h.departments.Rename(c.Request().Context(), actor, c.Param("id"), req.NewName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DepartmentUpdatedResponse{Msg: "Department updated", Department: dept})
}

// Delete godoc
// @Summary Delete a department
// @Description Grievances keep the id and render the department as N/A.
// @Tags departments
// @Produce json
// @Security TokenAuth
// @Param id path string true "Department ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /department/{id} [delete]
func (h *DepartmentHandler) Delete(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.departments.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Msg: "Department deleted"})
}
