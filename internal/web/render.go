package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
	"github.com/MuhammadJuraij/OrderEase/internal/logging"
	"github.com/MuhammadJuraij/OrderEase/internal/web/templates"
)

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	renderStatus(w, r, http.StatusOK, c)
}

func renderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

// renderError shows a page that could not load its data. Redirecting would
// loop, so the message is rendered in place.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	logError(r, err, http.StatusInternalServerError, msg)
	p := s.page(r, "Error", r.URL.Path)
	renderStatus(w, r, http.StatusInternalServerError,
		templates.Layout(p, templates.ErrorAlert(msg.Message, msg.Action, msg.Code)))
}
