package pages

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/validation"
	"github.com/autobridge/autobridge/web/components"
	"github.com/autobridge/autobridge/web/layouts"
)

// BuilderData holds what the builder page shows.
type BuilderData struct {
	Catalog *catalog.Catalog
	Session *models.Session
	// Notice explains why the last submitted action did nothing.
	Notice string
}

var tabs = []struct {
	tab   models.Tab
	label string
}{
	{models.TabBuilder, "Builder"},
	{models.TabYAML, "YAML"},
	{models.TabLogs, "Logs"},
}

var phaseLabels = map[models.Phase]struct {
	label string
	tone  components.BadgeTone
}{
	models.PhaseIdle:       {"Idle", components.BadgeNeutral},
	models.PhaseGenerating: {"Generating…", components.BadgeInfo},
	models.PhaseReady:      {"Ready to validate", components.BadgeWarning},
	models.PhaseValidating: {"Validating…", components.BadgeInfo},
	models.PhaseValidated:  {"Validated", components.BadgeSuccess},
	models.PhaseDeployed:   {"Deployed", components.BadgeSuccess},
}

var severityClasses = map[models.Severity]string{
	models.SeverityInfo:    "text-gray-300",
	models.SeveritySuccess: "text-emerald-400",
	models.SeverityError:   "text-red-400",
}

// Builder renders the connector builder.
func Builder(data BuilderData) templ.Component {
	s := data.Session.State
	body := components.Component(func(m *components.Markup) {
		label := phaseLabels[s.Phase]
		m.Raw(`<div class="mb-6 flex items-center justify-between"><div><h1 class="text-3xl font-bold">Connector Builder</h1>`,
			`<p class="mt-1 text-gray-500">Describe the connector you need, then generate, validate and deploy it.</p></div>`).
			Render(components.Badge(label.tone, label.label)).
			Raw("</div>")

		if data.Notice != "" {
			m.Raw(`<div role="alert" class="mb-6 rounded-lg border border-amber-200 bg-amber-50 px-4 py-3 text-sm text-amber-800">`).
				Text(data.Notice).Raw("</div>")
		}

		m.Raw(`<div class="grid gap-6 lg:grid-cols-5"><div class="space-y-6 lg:col-span-2">`).
			Render(promptPanel(data)).
			Render(templatesPanel(data)).
			Raw(`</div><div class="lg:col-span-3">`).
			Render(tabBar(s.ActiveTab)).
			Render(activePanel(data)).
			Raw("</div></div>")
	})

	return layouts.Base(layouts.BaseProps{
		Title:          "Builder",
		Brand:          data.Catalog.Brand,
		Tagline:        data.Catalog.Tagline,
		Active:         layouts.NavBuilder,
		SessionID:      data.Session.ID,
		SessionVersion: data.Session.Version,
	}, body)
}

func promptPanel(data BuilderData) templ.Component {
	s := data.Session.State
	canGenerate := s.Phase.HasAction(models.BuilderActionGenerate)
	generateLabel := "Generate"
	if s.Phase == models.PhaseGenerating {
		generateLabel = "Generating…"
	} else if s.HasConfig() {
		generateLabel = "Regenerate"
	}

	return components.Card("",
		components.Heading("Prompt"),
		components.Component(func(m *components.Markup) {
			m.Raw(`<form method="post" action="/builder/generate" class="mt-4 space-y-3">`,
				`<textarea name="prompt" rows="6"`).
				Attr("maxlength", strconv.Itoa(validation.MaxPromptLength)).
				Raw(` placeholder="e.g. Create a Slack connector that posts when a Jira task is created"`,
					` class="w-full rounded-lg border border-gray-300 p-3 text-sm focus:border-indigo-500 focus:outline-none focus:ring-1 focus:ring-indigo-500">`).
				Text(s.Prompt).
				Raw(`</textarea><div class="flex gap-2">`).
				Render(components.Button(components.ButtonProps{
					Label:    generateLabel,
					Variant:  components.ButtonPrimary,
					Disabled: !canGenerate,
				})).
				Render(components.Button(components.ButtonProps{
					Label:      "Save",
					Variant:    components.ButtonGhost,
					FormAction: "/builder/prompt",
				})).
				Raw("</div></form>")
		}),
	)
}

func templatesPanel(data BuilderData) templ.Component {
	return components.Card("",
		components.Heading("Quick templates"),
		components.Component(func(m *components.Markup) {
			m.Raw(`<ul class="mt-4 space-y-2">`)
			for i, t := range data.Catalog.Templates {
				m.Raw(`<li><form method="post"`).Attr("action", "/builder/templates/"+strconv.Itoa(i)).
					Raw(`><button type="submit" class="w-full rounded-lg border border-gray-200 p-3 text-left hover:border-indigo-300 hover:bg-indigo-50">`,
						`<div class="flex items-center justify-between"><span class="text-sm font-medium">`).Text(t.Name).Raw("</span>").
					Render(components.Badge(components.BadgeNeutral, t.App)).
					Raw(`</div><p class="mt-1 text-xs text-gray-500">`).Text(t.Prompt).
					Raw("</p></button></form></li>")
			}
			m.Raw("</ul>")
		}),
	)
}

func tabBar(active models.Tab) templ.Component {
	return components.Component(func(m *components.Markup) {
		m.Raw(`<div class="flex gap-1 border-b border-gray-200">`)
		for _, t := range tabs {
			m.Raw(`<form method="post"`).Attr("action", "/builder/tab/"+string(t.tab)).Raw(`><button type="submit"`).
				Class("-mb-px border-b-2 border-transparent px-4 py-2 text-sm font-medium text-gray-500 hover:text-gray-700",
					tabClass(t.tab == active)).
				Raw(">").Text(t.label).Raw("</button></form>")
		}
		m.Raw("</div>")
	})
}

func tabClass(active bool) string {
	if active {
		return "border-indigo-600 text-indigo-600 hover:text-indigo-600"
	}
	return ""
}

func activePanel(data BuilderData) templ.Component {
	switch data.Session.State.ActiveTab {
	case models.TabYAML:
		return yamlPanel(data)
	case models.TabLogs:
		return logsPanel(data)
	default:
		return overviewPanel(data)
	}
}

func overviewPanel(data BuilderData) templ.Component {
	s := data.Session.State
	return components.Card("rounded-t-none border-t-0",
		components.Heading("Workflow"),
		components.Component(func(m *components.Markup) {
			steps := []struct {
				label string
				done  bool
				busy  bool
			}{
				{"Generate configuration", s.HasConfig(), s.Phase == models.PhaseGenerating},
				{"Validate configuration", s.ValidationStatus == models.ValidationSuccess, s.Phase == models.PhaseValidating},
				{"Deploy connector", s.Phase == models.PhaseDeployed, false},
			}
			m.Raw(`<ol class="mt-4 space-y-3">`)
			for i, step := range steps {
				tone, state := components.BadgeNeutral, "pending"
				switch {
				case step.busy:
					tone, state = components.BadgeInfo, "running"
				case step.done:
					tone, state = components.BadgeSuccess, "done"
				}
				m.Raw(`<li class="flex items-center justify-between"><span class="text-sm">`).
					Text(strconv.Itoa(i+1) + ". " + step.label).Raw("</span>").
					Render(components.Badge(tone, state)).
					Raw("</li>")
			}
			m.Raw(`</ol><div class="mt-6 flex gap-2">`).
				Render(actionButtons(s)).
				Raw("</div>")
		}),
	)
}

func yamlPanel(data BuilderData) templ.Component {
	s := data.Session.State
	return components.Card("rounded-t-none border-t-0",
		components.Component(func(m *components.Markup) {
			m.Raw(`<div class="flex items-center justify-between"><h2 class="text-lg font-semibold">`).
				Text(data.Catalog.Connector.Name + ".yaml").Raw("</h2>")
			if s.HasConfig() {
				m.Raw(`<a href="/builder/download"`).Attr("class", components.ButtonClass(components.ButtonSecondary, "px-3 py-1.5")).Raw(">Download</a>")
			}
			m.Raw("</div>")

			if !s.HasConfig() {
				m.Raw(`<p class="mt-4 text-sm text-gray-500">Nothing generated yet. Write a prompt and press Generate.</p>`)
				return
			}
			m.Raw(`<pre class="mt-4 max-h-[28rem] overflow-auto rounded-lg bg-gray-900 p-4 font-mono text-xs leading-relaxed text-gray-100"><code>`).
				Text(s.GeneratedConfig).
				Raw(`</code></pre><div class="mt-4 flex gap-2">`).
				Render(actionButtons(s)).
				Raw("</div>")
		}),
	)
}

func logsPanel(data BuilderData) templ.Component {
	logs := data.Session.State.DeploymentLogs
	return components.Card("rounded-t-none border-t-0",
		components.Heading("Deployment logs"),
		components.Component(func(m *components.Markup) {
			if len(logs) == 0 {
				m.Raw(`<p class="mt-4 text-sm text-gray-500">No deployments yet.</p>`)
				return
			}
			m.Raw(`<div class="mt-4 space-y-1 rounded-lg bg-gray-900 p-4 font-mono text-xs">`)
			for _, entry := range logs {
				m.Raw(`<div class="flex gap-3"><span class="text-gray-500">`).Text(entry.Time).Raw("</span><span").
					Class(severityClasses[entry.Severity]).Raw(">").Text(entry.Message).Raw("</span></div>")
			}
			m.Raw("</div>")
		}),
	)
}

// actionButtons renders Validate and Deploy, enabled by the phase.
func actionButtons(s models.BuilderState) templ.Component {
	return components.Component(func(m *components.Markup) {
		validateLabel := "Validate"
		if s.Phase == models.PhaseValidating {
			validateLabel = "Validating…"
		}
		m.Render(components.PostButton("/builder/validate", components.ButtonProps{
			Label:    validateLabel,
			Variant:  components.ButtonSecondary,
			Disabled: !s.Phase.HasAction(models.BuilderActionValidate),
		}))
		m.Render(components.PostButton("/builder/deploy", components.ButtonProps{
			Label:    "Deploy",
			Variant:  components.ButtonSuccess,
			Disabled: !s.CanDeploy(),
		}))
	})
}
