package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nodrums/nodrums/pkg/domain/interfaces"
	"github.com/nodrums/nodrums/pkg/infra/store"
)

// config holds internal HTTP server configuration
type config struct {
	addr       string
	adminToken string
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithAdminToken enables bearer-token auth on destructive endpoints
func WithAdminToken(token string) Option {
	return func(c *config) {
		c.adminToken = token
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	jobs interfaces.JobRegistry,
	tracks interfaces.TrackStore,
	layout *store.Layout,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr: ":5000",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Web UI
	trackHandler := NewTrackHandler(jobs, tracks, layout, cfg.adminToken)
	router.Get("/", trackHandler.Index)
	router.Post("/", trackHandler.SubmitForm)

	// JSON API
	router.Route("/api", func(r chi.Router) {
		r.Post("/tracks", trackHandler.SubmitAsync)
		r.Get("/tracks", trackHandler.ListTracks)
		r.Get("/tracks/{id}", trackHandler.GetTrack)
		r.Delete("/tracks/{id}", trackHandler.DeleteTrack)
		r.Get("/jobs/{id}", trackHandler.GetJob)
	})

	// Uploaded and processed audio
	router.Get("/uploads/{name}", trackHandler.ServeUpload)
	router.Get("/output/*", trackHandler.ServeOutput)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
