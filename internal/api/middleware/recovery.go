package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/autobridge/autobridge/internal/api/errors"
	"github.com/autobridge/autobridge/pkg/logger"
)

// Recovery returns a middleware that recovers from panics and logs the error.
func Recovery(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := middleware.GetReqID(r.Context())
				logEntry := apierrors.NewErrorLogEntry(
					requestID,
					apierrors.CodeInternalError,
					"panic recovered",
				)

				log.Error("panic recovered",
					"error", rec,
					"correlation_id", logEntry.CorrelationID,
					"error_code", logEntry.ErrorCode,
					"stack_trace", string(debug.Stack()),
					"request_id", requestID,
					"session_id", logger.SessionIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
				)

				err := apierrors.NewInternalError("An unexpected error occurred").WithRequestID(requestID)
				apierrors.WriteError(w, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
