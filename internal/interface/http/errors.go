package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptguard/promptguard/internal/application"
	"github.com/promptguard/promptguard/pkg/response"
)

// writeServiceError maps application error kinds onto HTTP statuses. Anything
// unrecognized is treated as a transient store failure so storage error text
// never reaches the caller.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrValidation):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrDuplicateEmail):
		response.Error[any](c, http.StatusConflict, "user already exists", nil)
	case errors.Is(err, application.ErrEmailTaken):
		response.Error[any](c, http.StatusConflict, "email already in use", nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, "invalid email or password", nil)
	case errors.Is(err, application.ErrInvalidOrExpiredToken):
		response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
	case errors.Is(err, application.ErrUnauthenticated):
		response.Error[any](c, http.StatusUnauthorized, "not authenticated", nil)
	default:
		response.Error[any](c, http.StatusServiceUnavailable, "service temporarily unavailable", nil)
	}
}
