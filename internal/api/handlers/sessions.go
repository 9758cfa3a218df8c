// Package handlers provides HTTP request handlers for the API.
package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/autobridge/autobridge/internal/api/errors"
	"github.com/autobridge/autobridge/internal/auth"
	"github.com/autobridge/autobridge/internal/export"
	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/validation"
	"github.com/autobridge/autobridge/internal/workflow"
)

// SessionHandler handles builder session HTTP requests.
type SessionHandler struct {
	manager *workflow.Manager
	tokens  *auth.Service
	sealer  *export.Sealer
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(manager *workflow.Manager, tokens *auth.Service, sealer *export.Sealer, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		tokens:  tokens,
		sealer:  sealer,
		logger:  logger,
	}
}

// SessionResponse is the body of every session endpoint.
type SessionResponse struct {
	Session          *models.Session        `json:"session"`
	AvailableActions []models.BuilderAction `json:"available_actions"`
	Token            string                 `json:"token,omitempty"`
}

// SetPromptRequest represents the request body for replacing the prompt.
type SetPromptRequest struct {
	Prompt *string `json:"prompt"`
}

// SelectTabRequest represents the request body for selecting a tab.
type SelectTabRequest struct {
	Tab string `json:"tab"`
}

func newSessionResponse(s *models.Session) *SessionResponse {
	return &SessionResponse{
		Session:          s,
		AvailableActions: s.State.Phase.AvailableActions(),
	}
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Create(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.GenerateToken(session.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.SetCookie(w, h.tokens.Cookie(token))

	resp := newSessionResponse(session)
	resp.Token = token
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// SetPrompt handles PUT /v1/sessions/{id}/prompt.
func (h *SessionHandler) SetPrompt(w http.ResponseWriter, r *http.Request) {
	var req SetPromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Prompt == nil {
		writeError(w, r, h.logger, &models.ValidationError{Field: "prompt", Message: "prompt is required"})
		return
	}
	if err := validation.ValidatePrompt(*req.Prompt); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.dispatch(w, r, workflow.SetPrompt{Prompt: *req.Prompt}, http.StatusOK)
}

// ApplyTemplate handles POST /v1/sessions/{id}/templates/{index}.
func (h *SessionHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, h.logger, &models.ValidationError{Field: "index", Message: "template index must be an integer"})
		return
	}
	if err := validation.ValidateTemplateIndex(index, len(h.manager.Catalog().Templates)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.dispatch(w, r, workflow.ApplyTemplate{Index: index}, http.StatusOK)
}

// SelectTab handles PUT /v1/sessions/{id}/tab.
func (h *SessionHandler) SelectTab(w http.ResponseWriter, r *http.Request) {
	var req SelectTabRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validation.ValidateTab(req.Tab); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.dispatch(w, r, workflow.SelectTab{Tab: models.Tab(req.Tab)}, http.StatusOK)
}

// Generate handles POST /v1/sessions/{id}/generate.
func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, workflow.Generate{}, http.StatusAccepted)
}

// Validate handles POST /v1/sessions/{id}/validate.
func (h *SessionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, workflow.Validate{}, http.StatusAccepted)
}

// Deploy handles POST /v1/sessions/{id}/deploy.
func (h *SessionHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, workflow.Deploy{}, http.StatusOK)
}

// DownloadConfig handles GET /v1/sessions/{id}/config.
func (h *SessionHandler) DownloadConfig(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	file, err := h.sealer.Export(h.manager.Catalog().Connector.Name, session.State.GeneratedConfig)
	if errors.Is(err, export.ErrEmptyConfig) {
		writeError(w, r, h.logger, apierrors.NewNotFoundError("no configuration has been generated"))
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

// dispatch applies a to the session in the URL and writes the new state, or a
// 409 when the workflow rejects the action in the current phase.
func (h *SessionHandler) dispatch(w http.ResponseWriter, r *http.Request, a workflow.Action, status int) {
	id := chi.URLParam(r, "id")

	res, err := h.manager.Dispatch(r.Context(), id, a)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !res.Applied {
		h.logger.Debug("action rejected",
			"session_id", id,
			"action", a.Kind(),
			"phase", res.Session.State.Phase,
			"reason", res.Rejected,
		)
		writeError(w, r, h.logger, apierrors.NewRejectedError(a.Kind(), res.Session.State.Phase, res.Rejected))
		return
	}

	writeJSON(w, status, newSessionResponse(res.Session))
}
