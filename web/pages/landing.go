// Package pages renders the landing, dashboard and builder pages.
package pages

import (
	"github.com/a-h/templ"

	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/web/components"
	"github.com/autobridge/autobridge/web/layouts"
)

// Landing renders the marketing page.
func Landing(c *catalog.Catalog) templ.Component {
	l := c.Landing
	body := components.Component(func(m *components.Markup) {
		m.Raw(`<section class="py-16 text-center">`,
			`<h1 class="text-5xl font-extrabold tracking-tight text-gray-900">`).Text(l.Headline).
			Raw(`<br><span class="text-indigo-600">`).Text(l.Highlight).Raw("</span></h1>",
			`<p class="mx-auto mt-6 max-w-2xl text-lg text-gray-600">`).Text(l.Summary).Raw("</p>")

		m.Raw(`<div class="mt-8 flex justify-center gap-3">`,
			`<a href="/builder"`).Attr("class", components.ButtonClass(components.ButtonPrimary, "px-6 py-3 text-base")).Raw(">Start Building</a>",
			`<a href="/dashboard"`).Attr("class", components.ButtonClass(components.ButtonSecondary, "px-6 py-3 text-base")).Raw(">View Dashboard</a>",
			"</div>")

		m.Raw(`<div class="mt-8 flex flex-wrap justify-center gap-2">`)
		for _, app := range l.Apps {
			m.Render(components.Badge(components.BadgeNeutral, app))
		}
		m.Raw("</div></section>")

		m.Raw(`<section class="grid gap-6 md:grid-cols-3">`)
		for _, f := range l.Features {
			m.Render(components.Card("",
				components.Heading(f.Title),
				components.Component(func(m *components.Markup) {
					m.Raw(`<p class="mt-2 text-sm text-gray-600">`).Text(f.Description).Raw("</p>")
				}),
			))
		}
		m.Raw("</section>")

		m.Raw(`<section class="mt-12 grid gap-6 text-center md:grid-cols-3">`)
		for _, s := range l.Stats {
			m.Raw(`<div><div class="text-4xl font-bold text-indigo-600">`).Text(s.Value).
				Raw(`</div><div class="mt-1 text-sm text-gray-500">`).Text(s.Label).Raw("</div></div>")
		}
		m.Raw("</section>")

		m.Raw(`<footer class="mt-16 border-t border-gray-200 pt-6 text-center text-sm text-gray-400">`).Text(l.Footer).Raw("</footer>")
	})

	return layouts.Base(layouts.BaseProps{
		Title:   "Home",
		Brand:   c.Brand,
		Tagline: c.Tagline,
		Active:  layouts.NavHome,
	}, body)
}
