package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/autobridge/autobridge/api"
)

// DocsHandler handles API documentation endpoints.
type DocsHandler struct {
	logger      *slog.Logger
	spec        []byte
	swaggerHTML *template.Template
}

// NewDocsHandler creates a new docs handler serving the embedded OpenAPI document.
func NewDocsHandler(logger *slog.Logger) *DocsHandler {
	return &DocsHandler{
		logger:      logger,
		spec:        api.Spec,
		swaggerHTML: template.Must(template.New("swagger").Parse(swaggerUITemplate)),
	}
}

// ServeSwaggerUI serves the Swagger UI at /api/docs.
func (h *DocsHandler) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := struct {
		SpecURL string
		Title   string
	}{
		SpecURL: "/api/docs/openapi.yaml",
		Title:   "AutoBridge Connector Builder API",
	}

	if err := h.swaggerHTML.Execute(w, data); err != nil {
		h.logger.Error("failed to render Swagger UI", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// ServeOpenAPISpec serves the OpenAPI document at /api/docs/openapi.yaml.
func (h *DocsHandler) ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(h.spec)
}

// swaggerUITemplate loads Swagger UI from the CDN.
const swaggerUITemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>
        html {
            box-sizing: border-box;
            overflow: -moz-scrollbars-vertical;
            overflow-y: scroll;
        }
        *,
        *:before,
        *:after {
            box-sizing: inherit;
        }
        body {
            margin: 0;
            background: #fafafa;
        }
        .swagger-ui .topbar {
            background-color: #4f46e5;
        }
        .swagger-ui .topbar .download-url-wrapper .select-label {
            color: white;
        }
        .swagger-ui .info .title {
            color: #333;
        }
        .swagger-ui .opblock.opblock-get .opblock-summary-method {
            background: #61affe;
        }
        .swagger-ui .opblock.opblock-post .opblock-summary-method {
            background: #49cc90;
        }
        .swagger-ui .opblock.opblock-put .opblock-summary-method {
            background: #fca130;
        }
        .swagger-ui .btn.authorize {
            background-color: #4f46e5;
            border-color: #4f46e5;
            color: white;
        }
        .swagger-ui .btn.authorize:hover {
            background-color: #4338ca;
            border-color: #4338ca;
        }
        .swagger-ui .btn.authorize svg {
            fill: white;
        }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            const ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                plugins: [
                    SwaggerUIBundle.plugins.DownloadUrl
                ],
                layout: "StandaloneLayout",
                persistAuthorization: true,
                displayRequestDuration: true,
                filter: true,
                showExtensions: true,
                showCommonExtensions: true,
                tryItOutEnabled: true
            });
            window.ui = ui;
        };
    </script>
</body>
</html>`

// CopyOpenAPISpecToDocsDir copies the OpenAPI spec to the docs directory for embedding.
// This is typically called during build time.
func CopyOpenAPISpecToDocsDir() error {
	srcPath := "api/openapi.yaml"
	dstDir := filepath.Join("internal", "api", "handlers", "docs")
	dstPath := filepath.Join(dstDir, "openapi.yaml")

	// Create docs directory if it doesn't exist
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return err
	}

	// Read source file
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}

	// Write to destination
	return os.WriteFile(dstPath, data, 0644)
}
