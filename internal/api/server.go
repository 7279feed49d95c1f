// Package api provides the HTTP API server and handlers for the Shelfmark application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfmark/shelfmark-server/internal/http/response"
	"github.com/shelfmark/shelfmark-server/internal/ratelimit"
	"github.com/shelfmark/shelfmark-server/internal/service"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// Version is stamped by the build; defaults for dev runs.
var Version = "dev"

// Config holds the server's HTTP-level knobs.
type Config struct {
	AllowedOrigins    []string
	RequestsPerMinute int
	Burst             int
	// UploadsPath is served as static files under /uploads.
	UploadsPath string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	authService     *service.AuthService
	bookService     *service.BookService
	userService     *service.UserService
	statsService    *service.StatsService
	metadataService *service.MetadataService
	limiter         *ratelimit.KeyedRateLimiter
	config          Config
	router          *chi.Mux
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	store *store.Store,
	authService *service.AuthService,
	bookService *service.BookService,
	userService *service.UserService,
	statsService *service.StatsService,
	metadataService *service.MetadataService,
	cfg Config,
	logger *slog.Logger,
) *Server {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 120
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 30
	}

	s := &Server{
		store:           store,
		authService:     authService,
		bookService:     bookService,
		userService:     userService,
		statsService:    statsService,
		metadataService: metadataService,
		limiter:         ratelimit.New(float64(rpm)/60.0, burst),
		config:          cfg,
		router:          chi.NewRouter(),
		logger:          logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// Static cover and avatar files.
	if s.config.UploadsPath != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.config.UploadsPath)))
		s.router.Get("/uploads/*", fileServer.ServeHTTP)
	}

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)

		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
		})

		// Protected user endpoints.
		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleGetCurrentUser)
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Post("/avatar", s.handleUploadAvatar)
			r.Get("/dashboard", s.handleGetDashboard)
		})

		// Books.
		r.Route("/books", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleCreateBook)
			r.Get("/stats", s.handleGetStats)
			r.Get("/{id}", s.handleGetBook)
			r.Patch("/{id}", s.handleUpdateBook)
			r.Delete("/{id}", s.handleDeleteBook)
			r.Put("/{id}/progress", s.handleUpdateProgress)
			r.Post("/{id}/review", s.handleAddReview)
			r.Post("/{id}/cover", s.handleUploadCover)
		})

		// External metadata lookup.
		r.Route("/metadata", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/search", s.handleMetadataSearch)
		})
	})
}

// handleHealthCheck returns server health status. The store round trip
// catches a wedged database before a load balancer would.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health check store ping failed", "error", err)
		response.Error(w, http.StatusServiceUnavailable, "store unavailable", s.logger)
		return
	}

	response.Success(w, map[string]string{
		"status":  status,
		"version": Version,
	}, s.logger)
}
