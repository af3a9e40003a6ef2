// Package web provides the HTTP server, pages and JSON API of OrderEase.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MuhammadJuraij/OrderEase/internal/config"
	"github.com/MuhammadJuraij/OrderEase/internal/core"
	"github.com/MuhammadJuraij/OrderEase/internal/web/middleware"
)

// Server is the HTTP server for the order entry application.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	flashes *flashStore
}

// NewServer creates a Server for service configured by cfg.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		flashes: newFlashStore(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Session(s.cfg.Session.CookieName, s.cfg.Session.CookieSecure))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}
}

func (s *Server) setupRoutes() {
	uploads := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled && s.cfg.Rate.UploadLimit > 0 {
		uploads = middleware.NewRateLimiter(s.cfg.Rate.UploadLimit).Handler
	}

	// Pages
	s.router.Get("/", s.handleHome)
	s.router.With(uploads).Post("/upload", s.handleUpload)
	s.router.Post("/files/remove", s.handleRemoveFile)
	s.router.Post("/reset", s.handleResetAll)

	s.router.Route("/addorder", func(r chi.Router) {
		r.Get("/", s.handleAddOrder)
		r.Post("/search", s.handleOrderSearch)
		r.Post("/select", s.handleOrderSelect)
		r.Post("/add", s.handleOrderAdd)
		r.Post("/edit/{index}", s.handleOrderEdit)
		r.Post("/delete/{index}", s.handleOrderDelete)
		r.Post("/cancel", s.handleOrderCancel)
		r.Post("/submit", s.handleOrderSubmit)
	})

	s.router.Route("/vieworder", func(r chi.Router) {
		r.Get("/", s.handleViewOrder)
		r.Post("/reset", s.handleResetOrders)
		r.Post("/export", s.handleExportPage)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.Get("/files", s.handleAPIFiles)
		r.Get("/search", s.handleAPISearch)
		r.Get("/ledger", s.handleAPILedger)
		r.Get("/uploads", s.handleAPIUploads)
		r.Get("/uploads/{uploadID}", s.handleAPIUploadStatus)
		r.Get("/upload-queue", s.handleAPIUploadQueue)
		r.With(uploads).Post("/upload", s.handleAPIUpload)
		r.Get("/export", s.handleAPIExport)
	})

	// Unknown paths go back to the start page.
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				// Pages use inline styles and confirm() handlers.
				h.Set("Content-Security-Policy", "default-src 'self'; script-src 'unsafe-inline'; style-src 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON. Encoding errors are only logged because the
// header has already been sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}

// requestContext attaches the client address to the request context for
// service-side logging.
func requestContext(r *http.Request) context.Context {
	return core.ContextWithIPAddress(r.Context(), r.RemoteAddr)
}

// uploadGrace bounds how long an API upload waits for its parses when the
// caller asks to wait.
const uploadGrace = 30 * time.Second
