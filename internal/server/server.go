package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog-admin/internal/config"
	"catalog-admin/internal/database"
	"catalog-admin/internal/metrics"
	custommiddleware "catalog-admin/internal/middleware"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/service"
	"catalog-admin/internal/storage"
	"catalog-admin/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// imageDir is the disk directory catalog images are written under
const imageDir = "images"

// Deps are the long-lived resources the server is built from
type Deps struct {
	DB      database.Service
	Disk    storage.Disk
	Redis   *redis.Client // nil disables rate limiting
	Metrics *metrics.Metrics
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	router := chi.NewRouter()

	router.Use(deps.Metrics.Middleware)
	for _, mw := range custommiddleware.DefaultMiddlewareStack(logger) {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := deps.DB.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})
	router.Handle("/metrics", deps.Metrics.Handler())

	if prefix, ok := localImagePrefix(cfg.Storage); ok {
		router.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Storage.LocalRoot))))
	}

	// Initialize repositories
	store := repository.NewStore(deps.DB.DB())
	auditRepo := repository.NewAuditRepository(deps.DB.DB())

	// Initialize services
	recorder := service.NewAuditRecorder(logger, deps.Metrics, cfg.Audit.FlushTimeout,
		service.NewLogSink(logger),
		service.NewRepositorySink(auditRepo),
	)
	serviceDeps := service.Deps{
		Store:    store,
		Images:   service.NewImageResolver(deps.Disk, imageDir, logger),
		Audit:    recorder,
		Observer: deps.Metrics,
		Logger:   logger,
	}
	productService := service.NewProductService(serviceDeps)
	catalogService := service.NewCatalogService(serviceDeps)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, deps.Disk, logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, deps.Disk, logger)

	router.Route("/api/Brand", catalogHandler.RegisterPublicRoutes)

	router.Route("/api/manage", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
		r.Use(custommiddleware.MaxBodySize(cfg.Server.MaxBodyBytes))
		r.Use(custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger))
		r.Use(custommiddleware.RequireAdmin(logger))
		if deps.Redis != nil {
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "catalog_rate_limit",
			}, logger))
		}

		productHandler.RegisterRoutes(r)
		catalogHandler.RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server
}

// localImagePrefix is the route local disk images are served under
func localImagePrefix(cfg config.StorageConfig) (string, bool) {
	if cfg.Disk != "" && cfg.Disk != "local" {
		return "", false
	}
	u, err := url.Parse(cfg.LocalURL)
	if err != nil {
		return "", false
	}
	prefix := "/" + strings.Trim(u.Path, "/")
	return prefix, prefix != "/"
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

// Ready reports whether the server's dependencies answer
func (s *Server) Ready(ctx context.Context) error {
	if health := s.deps.DB.Health(ctx); health["status"] != "up" {
		return fmt.Errorf("database %s: %s", health["status"], health["error"])
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
