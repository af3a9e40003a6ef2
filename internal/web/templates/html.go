// Package templates renders the HTML pages of the web UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// page collects writes and keeps the first error, so components can emit
// markup without checking every call.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

// text writes s HTML-escaped.
func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

// rawf formats into markup. Every argument is escaped.
func (p *page) rawf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = templ.EscapeString(fmt.Sprint(a))
	}
	p.raw(fmt.Sprintf(format, escaped...))
}

// component adapts a page-writing function into a templ.Component.
func component(fn func(ctx context.Context, p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		fn(ctx, p)
		return p.err
	})
}

// child renders c in place.
func (p *page) child(ctx context.Context, c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(ctx, p.w)
	}
}
