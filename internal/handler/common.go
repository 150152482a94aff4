package handler

import (
	"github.com/labstack/echo/v4"

	"grievancedesk/internal/auth"
	apperrors "grievancedesk/internal/errors"
)

// MessageResponse is the plain acknowledgement body.
type MessageResponse struct {
	Msg string `json:"msg"`
}

var errBadBody = apperrors.Validation("Invalid request body")

// identity returns the caller attached by the strict gate.
func identity(c echo.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, apperrors.ErrUnauthorized
	}
	return id, nil
}
