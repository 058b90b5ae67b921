// Package response writes the uniform JSON envelope used by every endpoint.
package response

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/logging"
)

// Body is the success envelope. Success is derived from StatusCode.
type Body struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorBody is the failure envelope.
type ErrorBody struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

// New builds a success envelope; success is true only for 2xx and 3xx codes.
func New(status int, data any, message string) Body {
	if message == "" {
		message = "Request was successful"
	}
	return Body{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status >= 200 && status < 400,
	}
}

// NewError builds a failure envelope from an application error.
func NewError(err *apperr.Error) ErrorBody {
	details := err.Details
	if details == nil {
		details = []string{}
	}
	return ErrorBody{
		StatusCode: err.Status(),
		Message:    err.Message,
		Errors:     details,
		Success:    false,
	}
}

// JSON writes the success envelope.
func JSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	write(ctx, w, status, New(status, data, message))
}

// Error writes the failure envelope for err and logs it with the request logger.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := apperr.As(err)
	status := appErr.Status()

	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request returned client error", "status", status, "error", err)
	}

	write(ctx, w, status, NewError(appErr))
}

func write(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
