package handler

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"grievancedesk/internal/model"
	"grievancedesk/internal/service"
	"grievancedesk/internal/storage"
	"grievancedesk/internal/view"
)

// GrievanceHandler serves /api/grievances.
type GrievanceHandler struct {
	grievances service.GrievanceService
	stats      service.StatsService
}

// NewGrievanceHandler creates a grievance handler.
func NewGrievanceHandler(grievances service.GrievanceService, stats service.StatsService) *GrievanceHandler {
	return &GrievanceHandler{grievances: grievances, stats: stats}
}

// CreateGrievanceRequest is the JSON form of a new grievance.
// Multipart requests carry the same fields plus a "photos" file.
type CreateGrievanceRequest struct {
	Category    string `json:"category" form:"category"`
	Description string `json:"description" form:"description"`
	Address     string `json:"address" form:"address"`
	Department  string `json:"department" form:"department"`
}

// UpdateGrievanceRequest holds optional changes. Absent fields stay as they are.
type UpdateGrievanceRequest struct {
	Category    *string   `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Department  *string   `json:"department,omitempty"`
	Photos      *[]string `json:"photos,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Feedback    *string   `json:"feedback,omitempty"`
}

// StatusRequest is the body of a status change.
type StatusRequest struct {
	Status string `json:"status"`
}

// StatusResponse echoes the stored status.
type StatusResponse struct {
	Status model.GrievanceStatus `json:"status"`
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func formValue(form *multipart.Form, key string) *string {
	if v, ok := form.Value[key]; ok && len(v) > 0 {
		return &v[0]
	}
	return nil
}

func formString(form *multipart.Form, key string) string {
	if v := formValue(form, key); v != nil {
		return *v
	}
	return ""
}

// render formats list against the request's own scheme and host.
func (h *GrievanceHandler) render(c echo.Context, list ...model.Grievance) ([]view.Grievance, error) {
	base := view.BaseURL(c.Scheme(), c.Request().Host)
	return h.grievances.Format(c.Request().Context(), base, list...)
}

func (h *GrievanceHandler) renderOne(c echo.Context, status int, g *model.Grievance) error {
	out, err := h.render(c, *g)
	if err != nil {
		return err
	}
	return c.JSON(status, out[0])
}

func (h *GrievanceHandler) renderList(c echo.Context, list []model.Grievance) error {
	out, err := h.render(c, list...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Create godoc
// @Summary Submit a grievance
// @Tags grievances
// @Accept json,mpfd
// @Produce json
// @Security TokenAuth
// @Param request body CreateGrievanceRequest false "Grievance (JSON)"
// @Param photos formData file false "Optional photo (jpeg, png or gif, up to 5 MB)"
// @Success 201 {object} view.Grievance
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /grievances [post]
func (h *GrievanceHandler) Create(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}

	var in service.CreateGrievanceInput
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return errBadBody
		}
		if in.Photo, err = storage.PickPhoto(form); err != nil {
			return err
		}
		in.Category = formString(form, "category")
		in.Description = formString(form, "description")
		in.Address = formString(form, "address")
		in.DepartmentID = formString(form, "department")
	} else {
		var req CreateGrievanceRequest
		if err := c.Bind(&req); err != nil {
			return errBadBody
		}
		in.Category, in.Description, in.Address, in.DepartmentID = req.Category, req.Description, req.Address, req.Department
	}

	g, err := h.grievances.Create(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return h.renderOne(c, http.StatusCreated, g)
}

// ListMine godoc
// @Summary List the caller's grievances
// @Tags grievances
// @Produce json
// @Security TokenAuth
// @Success 200 {array} view.Grievance
// @Failure 401 {object} errors.ErrorResponse
// @Router /grievances/my-grievances [get]
func (h *GrievanceHandler) ListMine(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	list, err := h.grievances.ListMine(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return h.renderList(c, list)
}

// ListAll godoc
// @Summary List every grievance
// @Tags grievances
// @Produce json
// @Security TokenAuth
// @Success 200 {array} view.Grievance
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /grievances [get]
func (h *GrievanceHandler) ListAll(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	list, err := h.grievances.ListAll(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return h.renderList(c, list)
}

// DepartmentQueue godoc
// @Summary List grievances routed to the admin's department
// @Tags grievances
// @Produce json
// @Security TokenAuth
// @Success 200 {array} view.Grievance
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /grievances/department [get]
func (h *GrievanceHandler) DepartmentQueue(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	list, err := h.grievances.DepartmentQueue(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return h.renderList(c, list)
}

// Get godoc
// @Summary Get a grievance
// @Tags grievances
// @Produce json
// @Security TokenAuth
// @Param id path string true "Grievance ID"
// @Success 200 {object} view.Grievance
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /grievances/{id} [get]
func (h *GrievanceHandler) Get(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	g, err := h.grievances.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return h.renderOne(c, http.StatusOK, g)
}

// Update godoc
// @Summary Update a grievance
// @Description Admins may change status and feedback. The owning citizen may edit content while the grievance is Submitted.
// @Tags grievances
// @Accept json,mpfd
// @Produce json
// @Security TokenAuth
// @Param id path string true "Grievance ID"
// @Param request body UpdateGrievanceRequest false "Changes (JSON)"
// @Param photos formData file false "Replacement photo"
// @Success 200 {object} view.Grievance
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /grievances/{id} [put]
func (h *GrievanceHandler) Update(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}

	var in service.UpdateGrievanceInput
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return errBadBody
		}
		if in.Photo, err = storage.PickPhoto(form); err != nil {
			return err
		}
		in.Category = formValue(form, "category")
		in.Description = formValue(form, "description")
		in.Address = formValue(form, "address")
		in.DepartmentID = formValue(form, "department")
		in.Status = formValue(form, "status")
		in.Feedback = formValue(form, "feedback")
	} else {
		var req UpdateGrievanceRequest
		if err := c.Bind(&req); err != nil {
			return errBadBody
		}
		in = service.UpdateGrievanceInput{
			Category:     req.Category,
			Description:  req.Description,
			Address:      req.Address,
			DepartmentID: req.Department,
			Photos:       req.Photos,
			Status:       req.Status,
			Feedback:     req.Feedback,
		}
	}

	g, err := h.grievances.Update(c.Request().Context(), actor, c.Param("id"), in)
	if err != nil {
		return err
	}
	return h.renderOne(c, http.StatusOK, g)
}

// UpdateStatus godoc
// @Summary Change a grievance's status
// @Tags grievances
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path string true "Grievance ID"
// @Param request body StatusRequest true "New status: Submitted, In Progress or Resolved"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /grievances/{id}/status [put]
func (h *GrievanceHandler) UpdateStatus(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return errBadBody
	}

	status, err := h.grievances.UpdateStatus(c.Request().Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: status})
}

// Delete godoc
// @Summary Delete a grievance
// @Tags grievances
// @Produce json
// @Security TokenAuth
// @Param id path string true "Grievance ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /grievances/{id} [delete]
func (h *GrievanceHandler) Delete(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.grievances.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Msg: "Grievance deleted"})
}

// Stats godoc
// @Summary Dashboard statistics
// @Tags grievances
// @Produce json
// @Security TokenAuth
// @Success 200 {object} service.Stats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /grievances/stats [get]
func (h *GrievanceHandler) Stats(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	stats, err := h.stats.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Categories godoc
// @Summary Categories in use
// @Tags grievances
// @Produce json
// @Success 200 {array} string
// @Router /grievances/categories [get]
func (h *GrievanceHandler) Categories(c echo.Context) error {
	cats, err := h.grievances.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cats)
}
