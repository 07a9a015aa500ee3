package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"taskaty/backend/internal/config"
	authusecase "taskaty/backend/internal/usecase/auth"
	projectusecase "taskaty/backend/internal/usecase/project"
	userusecase "taskaty/backend/internal/usecase/user"

	"go.uber.org/zap"
)

// Services groups the use cases exposed over HTTP.
type Services struct {
	Auth     *authusecase.Service
	Users    *userusecase.Service
	Projects *projectusecase.Service
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	logger     *zap.Logger
	limiter    *ipLimiter

	auth     *authusecase.Service
	users    *userusecase.Service
	projects *projectusecase.Service

	session       config.SessionConfig
	secureCookies bool
	development   bool
	appBaseURL    string
	maxBodyBytes  int64
	addr          string
	nowFunc       func() time.Time
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg *config.Config, services Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 32 << 10
	}

	srv := &Server{
		router:        mux,
		logger:        logger,
		limiter:       newIPLimiter(cfg.RateLimitPerHr),
		auth:          services.Auth,
		users:         services.Users,
		projects:      services.Projects,
		session:       cfg.Session,
		secureCookies: cfg.Production(),
		development:   cfg.Development(),
		appBaseURL:    cfg.AppBaseURL,
		maxBodyBytes:  maxBody,
		addr:          addr,
		nowFunc:       time.Now,
	}

	handler := srv.withLogging(
		srv.withRecover(
			withSecurityHeaders(
				withCORS(srv.withRateLimit(mux), cfg.AllowedOrigins),
			),
		),
	)

	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
		ErrorLog:     zap.NewStdLog(logger),
	}
	srv.registerRoutes()
	return srv
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}

// SweepRateLimits drops per-IP buckets untouched since cutoff.
func (s *Server) SweepRateLimits(cutoff time.Time) int {
	return s.limiter.Sweep(cutoff)
}
