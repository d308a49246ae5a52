// Package api provides the HTTP server for the audiobook add-on: typed huma
// operations for the add-on protocol plus raw chi handlers for the relay.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/metrics"
	"github.com/listenupapp/listenup-addon/internal/ratelimit"
	"github.com/listenupapp/listenup-addon/internal/relay"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	services       *Services
	relay          *relay.Relay
	metrics        *metrics.Metrics
	router         *chi.Mux
	api            huma.API
	publicBaseURL  string
	relayRateLimit *ratelimit.KeyedRateLimiter
	logger         *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, services *Services, rl *relay.Relay, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		services:      services,
		relay:         rl,
		metrics:       m,
		router:        chi.NewRouter(),
		publicBaseURL: cfg.Server.PublicBaseURL,
		logger:        logger,
	}
	if cfg.Relay.ClientRPS > 0 {
		s.relayRateLimit = ratelimit.New(cfg.Relay.ClientRPS, cfg.Relay.ClientBurst)
	}

	s.setupMiddleware()
	RegisterErrorHandler()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures the middleware stack shared by every route.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(withRequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// JSON operations live on their own router so compression and CORS stay
	// off the relay, which answers its own preflights and must not re-encode
	// byte ranges.
	jsonRouter := chi.NewRouter()
	jsonRouter.Use(middleware.Compress(5))
	jsonRouter.Use(s.withBaseURL)
	jsonRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         int((12 * time.Hour).Seconds()),
	}))

	humaConfig := huma.DefaultConfig(ManifestName, ManifestVersion)
	humaConfig.Info.Description = ManifestDescription
	// Add-on clients expect bare protocol objects, without a $schema link.
	humaConfig.CreateHooks = nil
	s.api = humachi.New(jsonRouter, humaConfig)

	s.registerManifestRoutes()
	s.registerAddonRoutes()
	s.registerDebugRoutes()
	s.registerHealthRoutes()

	s.router.Mount("/", jsonRouter)
	s.router.Get("/", s.handleRoot)
	s.router.Handle("/metrics", s.metrics.Handler())

	// Relay endpoints stream bytes, so they bypass huma.
	s.router.Group(func(r chi.Router) {
		if s.relayRateLimit != nil {
			r.Use(RateLimitMiddleware(s.relayRateLimit, s.logger))
		}
		r.Options("/proxy", s.relay.Preflight)
		r.Get("/proxy", s.relay.Proxy)
		r.Head("/proxy", s.relay.Proxy)
		r.Get("/img", s.relay.Image)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(ManifestName + " running. See /manifest.json"))
}
