package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/autobridge/autobridge/internal/api/errors"
)

// maxBodyBytes bounds request bodies; the largest is a prompt.
const maxBodyBytes = 64 << 10

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	apierrors.WriteJSON(w, status, data)
}

// writeError maps err onto the structured error response, logging anything
// that is not the caller's fault.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	requestID := chimiddleware.GetReqID(r.Context())
	apiErr := apierrors.FromError(err)
	if apiErr.Code == apierrors.CodeInternalError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
			"error", err,
		)
	}
	apierrors.WriteErrorWithRequestID(w, apiErr, requestID)
}

// decodeJSON decodes a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apierrors.NewValidationError("request body too large")
		case errors.Is(err, io.EOF):
			return apierrors.NewValidationError("request body is empty")
		default:
			return apierrors.NewValidationError("invalid request body").WithDetails(map[string]any{"error": err.Error()})
		}
	}
	return nil
}
