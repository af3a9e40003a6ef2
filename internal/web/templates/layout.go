package templates

import (
	"context"

	"github.com/a-h/templ"
)

// Flash is a one-shot message shown at the top of the next page.
type Flash struct {
	Kind    string // "error" or "success"
	Message string
	Action  string
	Code    string
}

// Page carries what every page shares.
type Page struct {
	Title   string
	Active  string // path of the current nav entry
	Flashes []Flash
}

var navItems = []struct{ Path, Label string }{
	{"/", "Files"},
	{"/addorder", "Add Order"},
	{"/vieworder", "View Order"},
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;color:#333;background:#f6f8f7}
header{display:flex;align-items:center;gap:1.5rem;background:#14532d;color:#fff;padding:.75rem 1.5rem}
header h1{font-size:1.25rem;margin:0;letter-spacing:.1em}
nav a{color:#d1fae5;text-decoration:none;margin-right:1rem}
nav a.active{color:#fff;font-weight:600;border-bottom:2px solid #fff}
main{max-width:72rem;margin:1.5rem auto;padding:0 1rem}
section{background:#fff;border-radius:.5rem;padding:1rem 1.25rem;margin-bottom:1.25rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
table{border-collapse:collapse;width:100%;font-size:.9rem}
th,td{border:1px solid #d1d5db;padding:.35rem .5rem;text-align:left;vertical-align:top}
th{background:#16a085;color:#fff}
tr:nth-child(even) td{background:#f3f4f6}
.alert{padding:.75rem 1rem;border-radius:.375rem;margin-bottom:1rem}
.alert.error{background:#fee2e2;color:#991b1b}
.alert.success{background:#dcfce7;color:#166534}
.alert small{display:block;opacity:.8}
.muted{color:#6b7280}
.failed{color:#b91c1c}
.row{display:flex;flex-wrap:wrap;gap:.75rem;align-items:end}
label{display:flex;flex-direction:column;font-size:.85rem;gap:.2rem}
input,textarea{padding:.4rem;border:1px solid #cbd5e1;border-radius:.25rem;font:inherit}
button{padding:.4rem .8rem;border:0;border-radius:.25rem;background:#166534;color:#fff;cursor:pointer}
button.secondary{background:#e5e7eb;color:#111}
button.danger{background:#b91c1c}
.results{max-height:16rem;overflow:auto;border:1px solid #d1d5db;border-radius:.25rem}
.results button{display:block;width:100%;text-align:left;background:#fff;color:#111;border-bottom:1px solid #eee;border-radius:0}
.results button:hover{background:#ecfdf5}
`

// Layout wraps body in the page chrome.
func Layout(p Page, body templ.Component) templ.Component {
	return component(func(ctx context.Context, w *page) {
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.rawf(`<title>%s · OrderEase</title>`, p.Title)
		w.raw(`<style>` + styles + `</style></head><body>`)
		w.raw(`<header><h1>ORDEREASE</h1><nav>`)
		for _, n := range navItems {
			class := ""
			if n.Path == p.Active {
				class = ` class="active"`
			}
			w.raw(`<a href="` + templ.EscapeString(n.Path) + `"` + class + `>`)
			w.text(n.Label)
			w.raw(`</a>`)
		}
		w.raw(`</nav></header><main>`)
		for _, f := range p.Flashes {
			w.child(ctx, Alert(f))
		}
		w.child(ctx, body)
		w.raw(`</main></body></html>`)
	})
}

// Alert renders a flash message.
func Alert(f Flash) templ.Component {
	return component(func(_ context.Context, w *page) {
		kind := f.Kind
		if kind != "success" {
			kind = "error"
		}
		w.rawf(`<div class="alert %s" role="alert">`, kind)
		w.text(f.Message)
		if f.Code != "" {
			w.rawf(` <span class="muted">(Code: %s)</span>`, f.Code)
		}
		if f.Action != "" {
			w.rawf(`<small>%s</small>`, f.Action)
		}
		w.raw(`</div>`)
	})
}

// ErrorAlert renders a standalone error message.
func ErrorAlert(message, action, code string) templ.Component {
	return Alert(Flash{Kind: "error", Message: message, Action: action, Code: code})
}
