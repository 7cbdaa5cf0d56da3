// internal/server/response.go
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"nutrition-log/internal/diary"
	"nutrition-log/internal/models"
	"nutrition-log/internal/storage"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// errBadRequest marks malformed input that has no more specific sentinel.
var errBadRequest = errors.New("bad request")

func respondError(c *gin.Context, err error) {
	status, code := classifyError(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func classifyError(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, models.ErrInvalidMealType):
		return http.StatusBadRequest, "invalid_meal_type"
	case errors.Is(err, models.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_date"
	case errors.Is(err, diary.ErrInvalidAmount),
		errors.Is(err, storage.ErrSelfPair),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, errUnknownTool):
		return http.StatusNotFound, "unknown_tool"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, storage.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, storage.ErrInUse):
		return http.StatusConflict, "in_use"
	case errors.Is(err, storage.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, errBackupDisabled):
		return http.StatusServiceUnavailable, "backup_disabled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
