// Package components holds the shared building blocks of the web pages.
package components

import (
	"context"
	"io"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

// Cn merges Tailwind class lists; later classes win over conflicting earlier ones.
func Cn(classes ...string) string {
	return twmerge.Merge(strings.Join(classes, " "))
}

// Markup writes HTML and keeps the first write error, so page code can emit
// a sequence of fragments and check once at the end.
type Markup struct {
	ctx context.Context
	w   io.Writer
	err error
}

// NewMarkup wraps w.
func NewMarkup(ctx context.Context, w io.Writer) *Markup {
	return &Markup{ctx: ctx, w: w}
}

// Raw writes trusted markup as is.
func (m *Markup) Raw(parts ...string) *Markup {
	for _, s := range parts {
		if m.err != nil {
			return m
		}
		_, m.err = io.WriteString(m.w, s)
	}
	return m
}

// Text writes escaped text.
func (m *Markup) Text(s string) *Markup {
	return m.Raw(templ.EscapeString(s))
}

// Attr writes ` name="value"` with the value escaped.
func (m *Markup) Attr(name, value string) *Markup {
	return m.Raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// Class writes a merged class attribute.
func (m *Markup) Class(classes ...string) *Markup {
	return m.Attr("class", Cn(classes...))
}

// Render writes a child component.
func (m *Markup) Render(c templ.Component) *Markup {
	if m.err != nil || c == nil {
		return m
	}
	m.err = c.Render(m.ctx, m.w)
	return m
}

// Err returns the first error encountered.
func (m *Markup) Err() error {
	return m.err
}

// Component builds a templ.Component from a function that writes through a Markup.
func Component(fn func(m *Markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := NewMarkup(ctx, w)
		fn(m)
		return m.Err()
	})
}
