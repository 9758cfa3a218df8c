// Package web serves the server-rendered pages of the connector builder.
package web

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/autobridge/autobridge/internal/auth"
	"github.com/autobridge/autobridge/internal/export"
	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/validation"
	"github.com/autobridge/autobridge/internal/workflow"
	"github.com/autobridge/autobridge/pkg/logger"
	"github.com/autobridge/autobridge/web/pages"
)

type contextKey string

const sessionKey contextKey = "builder_session"

// dashboardDeployments caps the history shown on the dashboard.
const dashboardDeployments = 10

// Handler serves the web pages. Builder routes carry the session in the
// autobridge_session cookie, creating one on first visit.
type Handler struct {
	manager *workflow.Manager
	tokens  *auth.Service
	sealer  *export.Sealer
	logger  *slog.Logger
}

// NewHandler creates the web handler.
func NewHandler(manager *workflow.Manager, tokens *auth.Service, sealer *export.Sealer, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		tokens:  tokens,
		sealer:  sealer,
		logger:  logger,
	}
}

// Routes returns the page router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.landing)
	r.Get("/dashboard", h.dashboard)

	r.Route("/builder", func(r chi.Router) {
		r.Use(h.requireBuilderSession)
		r.Get("/", h.builder)
		r.Post("/prompt", h.setPrompt)
		r.Post("/generate", h.generate)
		r.Post("/validate", h.action(workflow.Validate{}))
		r.Post("/deploy", h.action(workflow.Deploy{}))
		r.Post("/templates/{index}", h.applyTemplate)
		r.Post("/tab/{tab}", h.selectTab)
		r.Get("/download", h.download)
	})

	return r
}

func (h *Handler) landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.Landing(h.manager.Catalog()))
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	data := pages.DashboardData{Catalog: h.manager.Catalog()}

	records, err := h.manager.RecentDeployments(r.Context(), dashboardDeployments)
	if err != nil {
		h.logger.Error("failed to load deployment history", "error", err)
		data.Error = "Unable to load deployment history"
	} else {
		data.RecentDeployments = records
	}

	h.render(w, r, http.StatusOK, pages.Dashboard(data))
}

func (h *Handler) builder(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.Builder(pages.BuilderData{
		Catalog: h.manager.Catalog(),
		Session: sessionFrom(r.Context()),
		Notice:  r.URL.Query().Get("notice"),
	}))
}

func (h *Handler) setPrompt(w http.ResponseWriter, r *http.Request) {
	prompt := r.PostFormValue("prompt")
	if err := validation.ValidatePrompt(prompt); err != nil {
		h.redirectNotice(w, r, err.Error())
		return
	}
	h.dispatch(w, r, workflow.SetPrompt{Prompt: prompt})
}

// generate saves the submitted prompt, if any, before generating from it.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	if _, ok := r.PostForm["prompt"]; ok {
		prompt := r.PostForm.Get("prompt")
		if err := validation.ValidatePrompt(prompt); err != nil {
			h.redirectNotice(w, r, err.Error())
			return
		}
		if !h.apply(w, r, workflow.SetPrompt{Prompt: prompt}) {
			return
		}
	}
	h.dispatch(w, r, workflow.Generate{})
}

func (h *Handler) action(a workflow.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.dispatch(w, r, a)
	}
}

func (h *Handler) applyTemplate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err == nil {
		err = validation.ValidateTemplateIndex(index, len(h.manager.Catalog().Templates))
	}
	if err != nil {
		http.Error(w, "unknown template", http.StatusBadRequest)
		return
	}
	h.dispatch(w, r, workflow.ApplyTemplate{Index: index})
}

func (h *Handler) selectTab(w http.ResponseWriter, r *http.Request) {
	tab := chi.URLParam(r, "tab")
	if err := validation.ValidateTab(tab); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.dispatch(w, r, workflow.SelectTab{Tab: models.Tab(tab)})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	file, err := h.sealer.Export(h.manager.Catalog().Connector.Name, session.State.GeneratedConfig)
	if errors.Is(err, export.ErrEmptyConfig) {
		http.Error(w, "no configuration has been generated", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to export configuration", "session_id", session.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Write(file.Data)
}

// dispatch applies a and redirects back to the builder, with a notice when
// the action was rejected.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, a workflow.Action) {
	if !h.apply(w, r, a) {
		return
	}
	http.Redirect(w, r, "/builder", http.StatusSeeOther)
}

// apply dispatches a. It returns false after writing a response itself.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, a workflow.Action) bool {
	session := sessionFrom(r.Context())
	res, err := h.manager.Dispatch(r.Context(), session.ID, a)
	if err != nil {
		h.logger.Error("failed to apply action", "session_id", session.ID, "action", a.Kind(), "error", err)
		if errors.Is(err, workflow.ErrRunnerStopped) {
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return false
		}
		h.redirectNotice(w, r, "Something went wrong, please try again.")
		return false
	}
	if !res.Applied {
		h.redirectNotice(w, r, rejectionNotice(a, res.Rejected))
		return false
	}
	return true
}

func (h *Handler) redirectNotice(w http.ResponseWriter, r *http.Request, notice string) {
	http.Redirect(w, r, "/builder?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

func rejectionNotice(a workflow.Action, reason error) string {
	switch {
	case errors.Is(reason, workflow.ErrBusy):
		return "Please wait for the current task to finish."
	case errors.Is(reason, workflow.ErrEmptyPrompt):
		return "Write a prompt before generating."
	case errors.Is(reason, workflow.ErrNoConfig):
		return "Generate a configuration before validating."
	case errors.Is(reason, workflow.ErrNotValidated):
		return "Validate the configuration before deploying."
	case reason != nil:
		return reason.Error()
	default:
		return string(a.Kind()) + " is not available right now."
	}
}

// requireBuilderSession loads the session named by the cookie, starting a new
// one when the cookie is missing, invalid or points at a vanished session.
func (h *Handler) requireBuilderSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var session *models.Session
		if id, err := h.tokens.SessionFromRequest(r); err == nil {
			session, err = h.manager.Get(ctx, id)
			if err != nil {
				h.logger.Debug("session cookie points at unknown session", "session_id", id, "error", err)
				session = nil
			}
		}

		if session == nil {
			var err error
			session, err = h.manager.Create(ctx)
			if err != nil {
				h.logger.Error("failed to start session", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			token, err := h.tokens.GenerateToken(session.ID)
			if err != nil {
				h.logger.Error("failed to sign session token", "session_id", session.ID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, h.tokens.Cookie(token))
		}

		ctx = context.WithValue(ctx, sessionKey, session)
		ctx = logger.ContextWithSessionID(ctx, session.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}
