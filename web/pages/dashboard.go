package pages

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/web/components"
	"github.com/autobridge/autobridge/web/layouts"
)

// DashboardData holds what the dashboard shows.
type DashboardData struct {
	Catalog           *catalog.Catalog
	RecentDeployments []*models.DeploymentRecord
	// Error replaces the deployment history when it could not be loaded.
	Error string
}

// Dashboard renders the overview page.
func Dashboard(data DashboardData) templ.Component {
	d := data.Catalog.Dashboard
	body := components.Component(func(m *components.Markup) {
		m.Raw(`<div class="mb-8"><h1 class="text-3xl font-bold">Welcome back, `).Text(d.UserName).
			Raw(`</h1><p class="mt-1 text-gray-500">Here is what your connectors are doing.</p></div>`)

		m.Raw(`<section class="grid gap-6 md:grid-cols-3">`)
		for _, s := range d.Stats {
			m.Raw(`<div class="rounded-xl border border-gray-200 bg-white p-6 shadow-sm"><div class="text-sm text-gray-500">`).Text(s.Label).
				Raw(`</div><div class="mt-2 text-3xl font-bold"`)
			if s.Color != "" {
				m.Attr("style", "color: "+s.Color)
			}
			m.Raw(">").Text(s.Value).Raw("</div></div>")
		}
		m.Raw("</section>")

		m.Raw(`<div class="mt-8 grid gap-6 lg:grid-cols-2">`)

		m.Render(components.Card("",
			components.Heading("Recommended actions"),
			components.Component(func(m *components.Markup) {
				m.Raw(`<ul class="mt-4 divide-y divide-gray-100">`)
				for _, a := range d.RecommendedActions {
					m.Raw(`<li class="flex items-center justify-between py-3"><span class="text-sm">`).Text(a.Title).Raw("</span>").
						Render(components.Badge(components.BadgeInfo, a.App)).
						Raw("</li>")
				}
				m.Raw("</ul>")
			}),
		))

		m.Render(components.Card("",
			components.Heading("Recent connectors"),
			components.Component(func(m *components.Markup) {
				m.Raw(`<table class="mt-4 w-full text-sm"><thead><tr class="text-left text-gray-500">`,
					`<th class="pb-2 font-medium">Name</th><th class="pb-2 font-medium">Status</th>`,
					`<th class="pb-2 font-medium">Health</th><th class="pb-2 font-medium">Last run</th></tr></thead><tbody>`)
				for _, c := range d.RecentConnectors {
					m.Raw(`<tr class="border-t border-gray-100"><td class="py-2">`).Text(c.Name).Raw(`</td><td class="py-2">`).
						Render(components.Badge(connectorTone(c.Status), c.Status)).
						Raw(`</td><td class="py-2">`).Text(strconv.Itoa(c.Health) + "%").
						Raw(`</td><td class="py-2 text-gray-500">`).Text(c.LastRun).Raw("</td></tr>")
				}
				m.Raw("</tbody></table>")
			}),
		))

		m.Raw("</div>")

		m.Render(components.Card("mt-6",
			components.Heading("Deployment history"),
			deploymentHistory(data),
		))
	})

	return layouts.Base(layouts.BaseProps{
		Title:   "Dashboard",
		Brand:   data.Catalog.Brand,
		Tagline: data.Catalog.Tagline,
		Active:  layouts.NavDashboard,
	}, body)
}

func deploymentHistory(data DashboardData) templ.Component {
	return components.Component(func(m *components.Markup) {
		switch {
		case data.Error != "":
			m.Raw(`<p class="mt-4 text-sm text-red-600">`).Text(data.Error).Raw("</p>")
			return
		case len(data.RecentDeployments) == 0:
			m.Raw(`<p class="mt-4 text-sm text-gray-500">No deployments yet. <a href="/builder" class="text-indigo-600 hover:underline">Build your first connector</a>.</p>`)
			return
		}

		m.Raw(`<ul class="mt-4 divide-y divide-gray-100">`)
		for _, rec := range data.RecentDeployments {
			m.Raw(`<li class="flex items-center justify-between py-3"><div><div class="font-mono text-sm">`).
				Text(rec.Connector + " v" + rec.Version).
				Raw(`</div><div class="text-xs text-gray-500">`).Text(humanize.Comma(int64(rec.LogCount)) + " log lines").
				Raw(`</div></div><div class="flex items-center gap-2">`)
			for _, app := range rec.Apps {
				m.Render(components.Badge(components.BadgeNeutral, app))
			}
			m.Raw(`<span class="text-xs text-gray-400"`).Attr("title", rec.CreatedAt.Format("2006-01-02 15:04:05 MST")).Raw(">").
				Text(humanize.Time(rec.CreatedAt)).
				Raw("</span></div></li>")
		}
		m.Raw("</ul>")
	})
}

func connectorTone(status string) components.BadgeTone {
	switch status {
	case "active":
		return components.BadgeSuccess
	case "warning":
		return components.BadgeWarning
	case "error", "failed":
		return components.BadgeError
	default:
		return components.BadgeNeutral
	}
}
