package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/blobdrop/internal"
	"github.com/dmitrymomot/blobdrop/middlewares"
	"github.com/dmitrymomot/blobdrop/pkg/blob"
	"github.com/dmitrymomot/blobdrop/pkg/logger"
)

// MsgFileTooLarge is returned when the upload exceeds the body cap.
const MsgFileTooLarge = "File too large"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler renders errors as {"error": message}.
// Anything without a known mapping becomes a logged 500.
func ErrorHandler(log *slog.Logger) internal.ErrorHandler {
	if log == nil {
		log = logger.NewNope()
	}

	return func(c internal.Context, err error) error {
		var maxBytesErr *http.MaxBytesError

		switch {
		case internal.IsHTTPError(err):
			httpErr := internal.AsHTTPError(err)
			if httpErr.Code >= http.StatusInternalServerError {
				log.ErrorContext(c, "request failed", slog.Int("status", httpErr.Code), slog.Any("error", err))
			}
			return c.JSON(httpErr.Code, ErrorResponse{Error: httpErr.Message})

		case errors.As(err, &maxBytesErr):
			return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: MsgFileTooLarge})

		case errors.Is(err, blob.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: MsgBlobNotFound})

		case middlewares.IsPanicError(err):
			// Recover already logged the value and stack.
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)})

		default:
			log.ErrorContext(c, "request failed", slog.Any("error", err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		}
	}
}

// NotFound renders unmatched routes as a JSON 404.
func NotFound(c internal.Context) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: http.StatusText(http.StatusNotFound)})
}

// MethodNotAllowed renders a JSON 405.
func MethodNotAllowed(c internal.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: http.StatusText(http.StatusMethodNotAllowed)})
}
