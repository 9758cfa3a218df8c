package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/workflow"
)

// recentDeploymentLimit caps the dashboard's deployment history.
const recentDeploymentLimit = 10

// CatalogHandler serves the read-only catalog content.
type CatalogHandler struct {
	manager *workflow.Manager
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(manager *workflow.Manager, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{manager: manager, logger: logger}
}

// TemplateView is a quick template together with the index used to apply it.
type TemplateView struct {
	Index int `json:"index"`
	catalog.Template
}

// DeploymentView is a deployment record with a relative time label.
type DeploymentView struct {
	*models.DeploymentRecord
	DeployedAgo string `json:"deployed_ago"`
}

// DashboardResponse is the body of GET /v1/dashboard.
type DashboardResponse struct {
	catalog.Dashboard
	RecentDeployments []DeploymentView `json:"recent_deployments"`
}

// ListTemplates handles GET /v1/catalog/templates.
func (h *CatalogHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := h.manager.Catalog().Templates
	views := make([]TemplateView, len(templates))
	for i, t := range templates {
		views[i] = TemplateView{Index: i, Template: t}
	}
	writeJSON(w, http.StatusOK, views)
}

// Dashboard handles GET /v1/dashboard.
func (h *CatalogHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	records, err := h.manager.RecentDeployments(r.Context(), recentDeploymentLimit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, &DashboardResponse{
		Dashboard:         h.manager.Catalog().Dashboard,
		RecentDeployments: DeploymentViews(records),
	})
}

// DeploymentViews labels records with how long ago they were deployed.
func DeploymentViews(records []*models.DeploymentRecord) []DeploymentView {
	views := make([]DeploymentView, len(records))
	for i, rec := range records {
		views[i] = DeploymentView{
			DeploymentRecord: rec,
			DeployedAgo:      humanize.Time(rec.CreatedAt),
		}
	}
	return views
}
