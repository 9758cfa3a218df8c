package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/autobridge/autobridge/internal/api/errors"
	"github.com/autobridge/autobridge/internal/auth"
	"github.com/autobridge/autobridge/pkg/logger"
)

// SessionAuth restricts session routes to the holder of that session's token.
type SessionAuth struct {
	tokens *auth.Service
	param  string
	logger *slog.Logger
}

// NewSessionAuth creates the middleware. param names the chi URL parameter
// holding the session ID; it defaults to "id".
func NewSessionAuth(tokens *auth.Service, param string, logger *slog.Logger) *SessionAuth {
	if param == "" {
		param = "id"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionAuth{
		tokens: tokens,
		param:  param,
		logger: logger,
	}
}

// RequireSession validates the bearer token or session cookie and checks that it
// was issued for the session named in the URL.
func (m *SessionAuth) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		sessionID, err := m.tokens.SessionFromRequest(r)
		if err != nil {
			m.logger.Debug("session token rejected", "error", err, "request_id", requestID)
			msg := "Invalid session token"
			if err == auth.ErrExpiredToken {
				msg = "Session token has expired"
			}
			apierrors.WriteErrorWithRequestID(w, apierrors.NewUnauthorizedError(msg), requestID)
			return
		}

		if want := chi.URLParam(r, m.param); want != "" && want != sessionID {
			m.logger.Debug("session token does not match route",
				"token_session", sessionID,
				"route_session", want,
				"request_id", requestID,
			)
			apierrors.WriteErrorWithRequestID(w, apierrors.NewForbiddenError("Access denied"), requestID)
			return
		}

		ctx := logger.ContextWithSessionID(r.Context(), sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
