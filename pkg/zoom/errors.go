package zoom

import (
	"encoding/json"
	"fmt"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// UnknownMessage is reported when an error response carries no message.
const UnknownMessage = "unknown"

// APIError is a non-success response of the platform API. It unwraps to
// errdomain.ErrUpstreamMetadata.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("zoom api %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("zoom api %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap classifies the error for the domain layers.
func (e *APIError) Unwrap() error {
	return errdomain.ErrUpstreamMetadata
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    UnknownMessage,
	}

	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Code
		if payload.Message != "" {
			apiErr.Message = payload.Message
		}
	}

	return apiErr
}
