package accounts

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

// APIResponse is the success envelope the JSON endpoints return
type APIResponse struct {
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// APIError is the failure envelope. Fields carries the aggregated
// per-field messages for validation failures.
type APIError struct {
	Status   int            `json:"status"`
	Message  string         `json:"message"`
	TextCode string         `json:"text_code,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// MapErrorResponse translates a rich error into the HTTP status and
// body the routing layer should emit. Anything that is not a rich error
// is treated as an unexpected internal failure.
func MapErrorResponse(err error) (int, APIError) {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusForCategory(richErr.Category)
	}

	out := APIError{
		Status:   status,
		Message:  richErr.Message,
		TextCode: richErr.TextCode,
	}

	if richErr.Category == errors.CategoryValidation && len(richErr.Metadata) > 0 {
		out.Fields = richErr.Metadata
	}

	return status, out
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
