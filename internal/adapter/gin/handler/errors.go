package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "user-api/pkg/errors"
)

// ErrorResponse is the body of every non-2xx response. Errors is only set
// for validation failures.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

const internalErrorMessage = "An internal error occurred"

// statusFor maps the pkg/errors taxonomy onto HTTP.
func statusFor(err error) (int, ErrorResponse) {
	var (
		validationErr *pkgerrors.ValidationError
		notFoundErr   *pkgerrors.NotFoundError
		existsErr     *pkgerrors.AlreadyExistsError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Errors: validationErr.Fields}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, ErrorResponse{Message: notFoundErr.Error()}
	case errors.As(err, &existsErr):
		return http.StatusConflict, ErrorResponse{Message: existsErr.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Message: internalErrorMessage}
	}
}

// handleError writes the response for err and stops the handler chain.
func handleError(c *gin.Context, err error) {
	status, body := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
