package components

import (
	"github.com/a-h/templ"
)

// ButtonVariant selects a button style.
type ButtonVariant string

const (
	ButtonPrimary   ButtonVariant = "primary"
	ButtonSecondary ButtonVariant = "secondary"
	ButtonSuccess   ButtonVariant = "success"
	ButtonGhost     ButtonVariant = "ghost"
)

const buttonBase = "inline-flex items-center justify-center gap-2 rounded-lg px-4 py-2 text-sm font-semibold transition-colors focus:outline-none focus:ring-2 focus:ring-offset-2 disabled:cursor-not-allowed disabled:opacity-50"

var buttonVariants = map[ButtonVariant]string{
	ButtonPrimary:   "bg-indigo-600 text-white hover:bg-indigo-700 focus:ring-indigo-500",
	ButtonSecondary: "border border-gray-300 bg-white text-gray-700 hover:bg-gray-50 focus:ring-gray-400",
	ButtonSuccess:   "bg-emerald-600 text-white hover:bg-emerald-700 focus:ring-emerald-500",
	ButtonGhost:     "bg-transparent text-gray-600 hover:bg-gray-100 focus:ring-gray-300",
}

// ButtonProps configures a submit button.
type ButtonProps struct {
	Label    string
	Variant  ButtonVariant
	Disabled bool
	Class    string
	// FormAction overrides the enclosing form's action.
	FormAction string
}

// ButtonClass returns the merged classes for a variant plus extra classes.
func ButtonClass(variant ButtonVariant, extra ...string) string {
	v, ok := buttonVariants[variant]
	if !ok {
		v = buttonVariants[ButtonPrimary]
	}
	return Cn(append([]string{buttonBase, v}, extra...)...)
}

// Button renders a submit button.
func Button(p ButtonProps) templ.Component {
	return Component(func(m *Markup) {
		m.Raw(`<button type="submit"`).Attr("class", ButtonClass(p.Variant, p.Class))
		if p.FormAction != "" {
			m.Attr("formaction", p.FormAction)
		}
		if p.Disabled {
			m.Raw(" disabled")
		}
		m.Raw(">").Text(p.Label).Raw("</button>")
	})
}

// PostButton renders a one-button form posting to action.
func PostButton(action string, p ButtonProps) templ.Component {
	return Component(func(m *Markup) {
		m.Raw(`<form method="post"`).Attr("action", action).Raw(` class="inline">`).
			Render(Button(p)).
			Raw("</form>")
	})
}

// Card wraps children in a bordered panel.
func Card(class string, children ...templ.Component) templ.Component {
	return Component(func(m *Markup) {
		m.Raw("<div").Class("rounded-xl border border-gray-200 bg-white p-6 shadow-sm", class).Raw(">")
		for _, c := range children {
			m.Render(c)
		}
		m.Raw("</div>")
	})
}

// BadgeTone selects a badge color.
type BadgeTone string

const (
	BadgeNeutral BadgeTone = "neutral"
	BadgeInfo    BadgeTone = "info"
	BadgeSuccess BadgeTone = "success"
	BadgeWarning BadgeTone = "warning"
	BadgeError   BadgeTone = "error"
)

var badgeTones = map[BadgeTone]string{
	BadgeNeutral: "bg-gray-100 text-gray-700",
	BadgeInfo:    "bg-blue-100 text-blue-700",
	BadgeSuccess: "bg-emerald-100 text-emerald-700",
	BadgeWarning: "bg-amber-100 text-amber-800",
	BadgeError:   "bg-red-100 text-red-700",
}

// Badge renders a small status pill.
func Badge(tone BadgeTone, label string) templ.Component {
	return Component(func(m *Markup) {
		m.Raw("<span").Class("inline-flex items-center rounded-full px-2.5 py-0.5 text-xs font-medium", badgeTones[tone]).Raw(">").
			Text(label).
			Raw("</span>")
	})
}

// Text renders escaped text as a component.
func Text(s string) templ.Component {
	return Component(func(m *Markup) { m.Text(s) })
}

// Heading renders a section heading.
func Heading(text string, class ...string) templ.Component {
	return Component(func(m *Markup) {
		m.Raw("<h2").Class(append([]string{"text-lg font-semibold text-gray-900"}, class...)...).Raw(">").
			Text(text).
			Raw("</h2>")
	})
}
