package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorHandler renders errors as consistent JSON responses and logs them
// with request context.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates an error handler. A nil logger falls back to
// slog.Default().
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{logger: logger}
}

// HandleError writes err to the response. APIErrors render as-is; anything
// else becomes a 500 with the detail withheld from the client.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		h.logger.ErrorContext(r.Context(), "unhandled error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		apiErr = ErrInternalServer
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error_code", apiErr.ErrorCode),
			slog.String("error", apiErr.Message))
	} else {
		h.logger.WarnContext(r.Context(), "request rejected",
			slog.String("path", r.URL.Path),
			slog.String("error_code", apiErr.ErrorCode),
			slog.String("error", apiErr.Message))
	}

	if renderErr := render.Render(w, r, apiErr); renderErr != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
