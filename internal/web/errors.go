package web

// errors.go maps failures to responses. Every error is logged with its
// technical detail and the request and session ids; the client only sees the mapped
// core.UserMessage. API requests get JSON, page requests get a flash message
// and a redirect back to the page they came from.

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
	"github.com/MuhammadJuraij/OrderEase/internal/logging"
	"github.com/MuhammadJuraij/OrderEase/internal/web/templates"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)
	logError(r, err, status, msg)
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// failPage logs err, queues it as a flash message and redirects to target.
func (s *Server) failPage(w http.ResponseWriter, r *http.Request, err error, target string) {
	msg := core.MapError(err)
	logError(r, err, http.StatusSeeOther, msg)
	s.flashes.push(sessionID(r), templates.Flash{
		Kind:    "error",
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// succeed queues a success message and redirects to target.
func (s *Server) succeed(w http.ResponseWriter, r *http.Request, message, target string) {
	if message != "" {
		s.flashes.push(sessionID(r), templates.Flash{Kind: "success", Message: message})
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func logError(r *http.Request, err error, status int, msg core.UserMessage) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError || errors.Is(err, core.ErrPersistence) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)
}

// statusFor picks the HTTP status for an API error.
func statusFor(err error) int {
	msg := core.MapError(err)
	switch {
	case strings.HasPrefix(msg.Code, "VAL"), strings.HasPrefix(msg.Code, "ORD"):
		return http.StatusBadRequest
	case msg.Code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case msg.Code == "FILE002":
		return http.StatusUnsupportedMediaType
	case strings.HasPrefix(msg.Code, "FILE"):
		return http.StatusBadRequest
	case msg.Code == "UPL001":
		return http.StatusNotFound
	case msg.Code == "UPL002", msg.Code == "RATE001":
		return http.StatusTooManyRequests
	case msg.Code == "UPL005":
		return http.StatusConflict
	case msg.Code == "UPL004":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
