package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
	errorsx "github.com/instill-ai/x/errors"
)

// Body is the response envelope of every endpoint except the validation
// challenge, whose shape is fixed by the platform.
type Body struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// statusFromError maps domain errors to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, errdomain.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, errdomain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, errdomain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the error envelope. Internal errors only expose the
// end-user message, if any.
func abortWithError(c *gin.Context, err error) {
	status := statusFromError(err)

	msg := errorsx.MessageOrErr(err)
	if status == http.StatusInternalServerError && errorsx.Message(err) == "" {
		msg = http.StatusText(status)
	}

	c.AbortWithStatusJSON(status, Body{Success: false, Error: msg})
}
