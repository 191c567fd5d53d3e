package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerdenough/ai-storytime/internal/api"
	"github.com/nerdenough/ai-storytime/internal/config"
	"github.com/nerdenough/ai-storytime/internal/home"
	"github.com/nerdenough/ai-storytime/internal/pipeline"
	"github.com/nerdenough/ai-storytime/internal/providers"
	"github.com/nerdenough/ai-storytime/internal/server/endpoints"
	"github.com/nerdenough/ai-storytime/internal/svcctx"
)

// Server is the main storytime HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	waitBackends time.Duration

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
	ready   bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the storytime home directory (default: ~/.storytime)
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// WaitBackends bounds how long Start waits for image backends that
	// report health before serving API requests. Zero skips the wait.
	WaitBackends time.Duration
	// SwaggerSpecPath optionally serves a swagger.json from disk
	SwaggerSpecPath string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server and every service behind it.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, err
		}
		cfg.Home = h
	}
	if err := cfg.Home.EnsureExists(); err != nil {
		return nil, err
	}

	current := cfg.ConfigManager.Get()
	if err := current.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(current.ToProviderRegistryConfig())

	// Watch for config changes; only the backends are rebuilt
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		cfg.Logger.Info("provider registry reloaded from config")
	})

	services, err := buildServices(current, cfg.Home, registry, cfg.Logger)
	if err != nil {
		return nil, err
	}
	services.ConfigManager = cfg.ConfigManager

	s := &Server{
		registry:     registry,
		configMgr:    cfg.ConfigManager,
		logger:       cfg.Logger,
		waitBackends: cfg.WaitBackends,
		services:     services,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{SwaggerSpecPath: cfg.SwaggerSpecPath}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		// Book creation holds the request open for the model call and every
		// illustration, so writes are not bounded here.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start serves HTTP until the context is cancelled or an error occurs.
// API requests get 503 until the image backends report ready.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if err := s.waitForBackends(ctx); err != nil {
		_ = s.shutdown()
		return err
	}
	s.setReady(true)
	s.logger.Info("server ready",
		"layout", s.services.BookStore.Layout().Name(),
		"data_dir", s.services.BookStore.Root())

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// waitForBackends blocks until every image backend with a health check
// answers, or WaitBackends elapses.
func (s *Server) waitForBackends(ctx context.Context) error {
	if s.waitBackends <= 0 {
		return nil
	}
	for name, hc := range s.registry.HealthCheckers() {
		s.logger.Info("waiting for image backend", "name", name, "timeout", s.waitBackends)
		if err := providers.WaitReady(ctx, hc, s.waitBackends); err != nil {
			return fmt.Errorf("image backend %s: %w", name, err)
		}
		s.logger.Info("image backend is ready", "name", name)
	}
	return nil
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")
	s.setReady(false)

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// IsReady returns whether API requests are being served.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Pipeline returns the book pipeline.
func (s *Server) Pipeline() *pipeline.Pipeline {
	return s.services.Pipeline
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable while backends are still being waited on.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.IsReady() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
