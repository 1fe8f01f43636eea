package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"blogposts/app/internal/article"
)

const (
	apiTitle   = "Articles API"
	apiVersion = "1.0.0"
)

// Options configures the HTTP server wiring.
type Options struct {
	ArticleService article.Service
	Database       *gorm.DB
	Logger         *logrus.Logger
	SentryHub      *sentry.Hub
	RateLimiter    RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour. A zero
// RequestsPerSecond disables rate limiting.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma on a chi router.
type Server struct {
	api         huma.API
	router      chi.Router
	articles    article.Service
	logger      *logrus.Logger
	sentry      *sentry.Hub
	db          *gorm.DB
	rateLimiter *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.ArticleService == nil {
		return nil, eris.New("article service is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)

	config := huma.DefaultConfig(apiTitle, apiVersion)
	// Responses carry exactly the article fields, without a $schema link.
	config.CreateHooks = nil

	api := humachi.New(router, config)

	srv := &Server{
		api:      api,
		router:   router,
		articles: opts.ArticleService,
		logger:   opts.Logger,
		sentry:   opts.SentryHub,
		db:       opts.Database,
	}

	settings := opts.RateLimiter
	if settings.RequestsPerSecond > 0 {
		if settings.Burst <= 0 {
			return nil, eris.New("rate limiter burst must be greater than zero")
		}
		if settings.ClientTTL <= 0 {
			return nil, eris.New("rate limiter client TTL must be greater than zero")
		}
		srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)
	} else if settings.RequestsPerSecond < 0 {
		return nil, eris.New("rate limiter requests per second must not be negative")
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.router
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.registerArticleRoutes()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.router.ServeHTTP(w, r)
}
