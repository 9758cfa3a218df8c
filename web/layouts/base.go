// Package layouts provides the page shell shared by every web page.
package layouts

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/autobridge/autobridge/web/components"
)

// Nav identifies the highlighted navigation entry.
type Nav string

const (
	NavHome      Nav = "home"
	NavDashboard Nav = "dashboard"
	NavBuilder   Nav = "builder"
)

// BaseProps configures the page shell.
type BaseProps struct {
	Title   string
	Brand   string
	Tagline string
	Active  Nav
	// SessionID enables the live-reload script for the builder.
	SessionID string
	// SessionVersion is the version the page was rendered from.
	SessionVersion int
}

var navItems = []struct {
	nav   Nav
	label string
	href  string
}{
	{NavHome, "Home", "/"},
	{NavDashboard, "Dashboard", "/dashboard"},
	{NavBuilder, "Builder", "/builder"},
}

// Base renders a full HTML document around body.
func Base(p BaseProps, body templ.Component) templ.Component {
	return components.Component(func(m *components.Markup) {
		m.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1.0">`,
			"<title>").Text(p.Title+" · "+p.Brand).Raw("</title>",
			`<script src="https://cdn.tailwindcss.com"></script>`,
			`<link rel="stylesheet" href="/static/app.css">`,
			"</head>")

		m.Raw(`<body class="min-h-screen bg-gray-50 text-gray-900 antialiased"`)
		if p.SessionID != "" {
			m.Attr("data-session-id", p.SessionID).
				Attr("data-session-version", strconv.Itoa(p.SessionVersion))
		}
		m.Raw(">")

		m.Raw(`<header class="border-b border-gray-200 bg-white"><div class="mx-auto flex max-w-6xl items-center justify-between px-6 py-4">`,
			`<a href="/" class="flex flex-col"><span class="text-lg font-bold text-indigo-600">`).Text(p.Brand).
			Raw(`</span><span class="text-xs text-gray-500">`).Text(p.Tagline).Raw("</span></a>")

		m.Raw(`<nav class="flex items-center gap-1">`)
		for _, item := range navItems {
			m.Raw("<a").Attr("href", item.href).Class(
				"rounded-md px-3 py-2 text-sm font-medium text-gray-600 hover:bg-gray-100",
				activeClass(item.nav == p.Active),
			).Raw(">").Text(item.label).Raw("</a>")
		}
		m.Raw(`<a href="/api/docs" class="rounded-md px-3 py-2 text-sm font-medium text-gray-400 hover:text-gray-600">API</a>`,
			"</nav></div></header>")

		m.Raw(`<main class="mx-auto max-w-6xl px-6 py-8">`).Render(body).Raw("</main>")

		if p.SessionID != "" {
			m.Raw(`<script src="/static/builder.js" defer></script>`)
		}
		m.Raw("</body></html>")
	})
}

func activeClass(active bool) string {
	if active {
		return "bg-indigo-50 text-indigo-700 hover:bg-indigo-50"
	}
	return ""
}
