package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

// FileEntry is one uploaded file name with its parse state.
type FileEntry struct {
	Name  string
	Rows  int
	Phase core.UploadPhase // empty once the file is stored
	Error string
}

// HomeData feeds the upload and browse page.
type HomeData struct {
	Page
	Files    []FileEntry
	Records  []core.FileRecord // filtered by Query
	Query    string
	MaxFiles int
}

// Home renders the upload form, the file list and the row browser.
func Home(d HomeData) templ.Component {
	return Layout(d.Page, component(func(_ context.Context, w *page) {
		w.raw(`<section><h2>Upload spreadsheets</h2>`)
		w.raw(`<form method="post" action="/upload" enctype="multipart/form-data" class="row">`)
		w.raw(`<label>Files<input type="file" name="files" multiple accept=".xlsx,.xls,.csv" required></label>`)
		w.raw(`<button type="submit">Upload</button></form>`)
		if d.MaxFiles > 0 {
			w.rawf(`<p class="muted">Excel (.xlsx, .xls) and CSV files, up to %s at a time.</p>`, d.MaxFiles)
		}
		w.raw(`</section>`)

		if len(d.Files) == 0 {
			w.raw(`<section><p class="muted">No files uploaded yet.</p></section>`)
			return
		}

		w.raw(`<section><h2>Uploaded files</h2><table><thead><tr><th>File</th><th>Rows</th><th>Status</th><th></th></tr></thead><tbody>`)
		for _, f := range d.Files {
			w.raw(`<tr><td>`)
			w.text(f.Name)
			w.raw(`</td><td>`)
			w.text(strconv.Itoa(f.Rows))
			w.raw(`</td><td>`)
			switch {
			case f.Error != "":
				w.rawf(`<span class="failed">failed: %s</span>`, f.Error)
			case f.Phase != "" && f.Phase != core.PhaseComplete:
				w.text(string(f.Phase))
			default:
				w.text("ready")
			}
			w.raw(`</td><td><form method="post" action="/files/remove" onsubmit="return confirm('Are you sure you want to remove this file?')">`)
			w.rawf(`<input type="hidden" name="name" value="%s">`, f.Name)
			w.raw(`<button class="danger" type="submit">Remove</button></form></td></tr>`)
		}
		w.raw(`</tbody></table>`)
		w.raw(`<form method="post" action="/reset" onsubmit="return confirm('Are you sure you want to reset all files?')" style="margin-top:.75rem">`)
		w.raw(`<button class="danger" type="submit">Reset</button></form></section>`)

		w.raw(`<section><h2>Browse</h2><form method="get" action="/" class="row">`)
		w.rawf(`<label>Search<input type="search" name="q" value="%s" placeholder="Search all files"></label>`, d.Query)
		w.raw(`<button type="submit">Search</button></form>`)
		for _, rec := range d.Records {
			w.rawf(`<h3>%s</h3>`, rec.Name)
			writeRows(w, rec.Rows)
		}
		w.raw(`</section>`)
	}))
}

// writeRows renders rows as a table whose columns are the union of the row
// columns in order of first appearance.
func writeRows(w *page, rows []core.Row) {
	if len(rows) == 0 {
		w.raw(`<p class="muted">No matching rows.</p>`)
		return
	}
	cols := unionColumns(rows)
	w.raw(`<table><thead><tr>`)
	for _, c := range cols {
		w.rawf(`<th>%s</th>`, c)
	}
	w.raw(`</tr></thead><tbody>`)
	for _, r := range rows {
		w.raw(`<tr>`)
		for _, c := range cols {
			v, _ := r.Get(c)
			w.rawf(`<td>%s</td>`, v)
		}
		w.raw(`</tr>`)
	}
	w.raw(`</tbody></table>`)
}

func unionColumns(rows []core.Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for _, c := range r.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}
