// Package ui provides the embedded static assets of the web pages.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static/*
var static embed.FS

// Handler serves the embedded assets. Mount it with the prefix stripped.
func Handler() http.Handler {
	fsys, err := fs.Sub(static, "static")
	if err != nil {
		panic("failed to get static subdirectory: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No directory listings.
		if !isAssetPath(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		fileServer.ServeHTTP(w, r)
	})
}

// isAssetPath returns true if the path appears to be a static asset.
func isAssetPath(path string) bool {
	assetExtensions := []string{
		".js", ".css", ".map",
		".png", ".svg", ".ico",
		".woff", ".woff2",
	}

	for _, ext := range assetExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

// Available returns true if the embedded assets are present.
func Available() bool {
	entries, err := static.ReadDir("static")
	if err != nil {
		return false
	}
	return len(entries) > 0
}
