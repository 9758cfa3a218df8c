package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/autobridge/autobridge/internal/api/errors"
	"github.com/autobridge/autobridge/internal/auth"
	"github.com/autobridge/autobridge/pkg/logger"
)

func newTokens(expiry time.Duration) *auth.Service {
	return auth.NewService(&auth.Config{
		Secret:      []byte("0123456789abcdef0123456789abcdef"),
		TokenExpiry: expiry,
	}, logger.Discard())
}

func sessionRouter(tokens *auth.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.With(NewSessionAuth(tokens, "", logger.Discard()).RequireSession).
		Get("/v1/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(logger.SessionIDFromContext(r.Context())))
		})
	return r
}

func TestRequireSession(t *testing.T) {
	tokens := newTokens(time.Hour)
	mine, _ := tokens.GenerateToken("s1")
	expired, _ := newTokens(-time.Hour).GenerateToken("s1")

	tests := []struct {
		name     string
		path     string
		token    string
		cookie   bool
		wantCode int
		wantErr  string
	}{
		{name: "bearer", path: "/v1/sessions/s1", token: mine, wantCode: http.StatusOK},
		{name: "cookie", path: "/v1/sessions/s1", token: mine, cookie: true, wantCode: http.StatusOK},
		{name: "missing", path: "/v1/sessions/s1", wantCode: http.StatusUnauthorized, wantErr: apierrors.CodeUnauthorized},
		{name: "expired", path: "/v1/sessions/s1", token: expired, wantCode: http.StatusUnauthorized, wantErr: apierrors.CodeUnauthorized},
		{name: "other session", path: "/v1/sessions/s2", token: mine, wantCode: http.StatusForbidden, wantErr: apierrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				if tt.cookie {
					req.AddCookie(tokens.Cookie(tt.token))
				} else {
					req.Header.Set("Authorization", "Bearer "+tt.token)
				}
			}
			rr := httptest.NewRecorder()
			sessionRouter(tokens).ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.wantCode, rr.Body.String())
			}
			if tt.wantErr == "" {
				if rr.Body.String() != "s1" {
					t.Errorf("session in context = %q", rr.Body.String())
				}
				return
			}
			var body apierrors.APIError
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if body.Code != tt.wantErr || body.RequestID == "" {
				t.Errorf("error = %+v", body)
			}
		})
	}
}

func TestRecoveryWritesInternalError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, 0, true).Logger

	h := chimiddleware.RequestID(Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var body apierrors.APIError
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Code != apierrors.CodeInternalError || body.RequestID == "" {
		t.Errorf("body = %+v", body)
	}
	if !strings.Contains(buf.String(), `"correlation_id"`) || !strings.Contains(buf.String(), "boom") {
		t.Errorf("log output missing panic details: %s", buf.String())
	}
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, 0, true).Logger

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decoding log line: %v (%s)", err, buf.String())
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["path"] != "/v1/sessions" {
		t.Errorf("log entry = %v", entry)
	}
}
