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

	_ "github.com/jackzampolin/extract/docs" // register swagger spec
	"github.com/jackzampolin/extract/internal/api"
	"github.com/jackzampolin/extract/internal/config"
	"github.com/jackzampolin/extract/internal/home"
	"github.com/jackzampolin/extract/internal/postgres"
	"github.com/jackzampolin/extract/internal/providers"
	"github.com/jackzampolin/extract/internal/server/endpoints"
	"github.com/jackzampolin/extract/internal/store"
	"github.com/jackzampolin/extract/internal/svcctx"
)

// Server is the main Extract HTTP server.
// It manages the Postgres container lifecycle - starting it on server start
// and stopping it on server shutdown - unless an external DSN is configured.
type Server struct {
	httpServer *http.Server
	pgManager  *postgres.DockerManager
	dsn        string
	st         *store.Store
	registry   *providers.Registry
	configMgr  *config.Manager
	homeDir    *home.Dir
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8765)
	Port string
	// Home is the extract home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	appCfg := cfg.ConfigManager.Get()
	if cfg.Port == "" {
		cfg.Port = appCfg.Server.Port
	}
	if cfg.Port == "" {
		cfg.Port = "8765"
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		homeDir:   cfg.Home,
		logger:    cfg.Logger,
		dsn:       appCfg.Postgres.DSN,
	}

	// External DSN skips container management entirely
	if s.dsn == "" {
		var dataPath string
		if cfg.Home != nil {
			if err := cfg.Home.EnsureExists(); err != nil {
				return nil, fmt.Errorf("failed to create home directory: %w", err)
			}
			dataPath = cfg.Home.PostgresDataPath()
		}
		pgManager, err := postgres.NewDockerManager(postgres.DockerConfig{
			ContainerName: appCfg.Postgres.ContainerName,
			Image:         appCfg.Postgres.Image,
			DataPath:      dataPath,
			HostPort:      appCfg.Postgres.Port,
			User:          appCfg.Postgres.User,
			Password:      appCfg.Postgres.Password,
			Database:      appCfg.Postgres.Database,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres manager: %w", err)
		}
		s.pgManager = pgManager
		s.dsn = pgManager.DSN()
	}

	// Create provider registry with hot reload
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(appCfg.ToProviderRegistryConfig())
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		cfg.Logger.Info("provider registry reloaded from config")
	})
	s.registry = registry

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{PostgresManager: s.pgManager}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // Model calls have no timeout of their own
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server and Postgres.
// It blocks until the context is cancelled or an error occurs.
// If an existing Postgres container exists, it validates the configuration matches.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if s.pgManager != nil {
		// Validate any existing container matches our config
		if err := s.pgManager.ValidateExisting(ctx); err != nil {
			s.setNotRunning()
			return fmt.Errorf("existing postgres container incompatible: %w", err)
		}

		s.logger.Info("starting Postgres")
		if err := s.pgManager.Start(ctx); err != nil {
			s.setNotRunning()
			return fmt.Errorf("failed to start postgres: %w", err)
		}
	}

	st, err := store.Open(s.dsn)
	if err != nil {
		_ = s.shutdown()
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.st = st

	if err := st.Ping(ctx); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	s.logger.Info("Postgres is ready")

	s.logger.Info("running migrations")
	if err := store.Migrate(ctx, st.DB()); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("migration failed: %w", err)
	}

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Store:    s.st,
		Registry: s.registry,
		Config:   s.configMgr,
		Logger:   s.logger,
		Home:     s.homeDir,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

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

// shutdown performs graceful shutdown of the HTTP server, store and Postgres.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.st != nil {
		if err := s.st.Close(); err != nil {
			s.logger.Error("store close error", "error", err)
		}
	}

	if s.pgManager != nil {
		s.logger.Info("stopping Postgres")
		if err := s.pgManager.Stop(shutdownCtx); err != nil {
			s.logger.Error("postgres stop error", "error", err)
		}
		if err := s.pgManager.Close(); err != nil {
			s.logger.Error("postgres manager close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Store returns the Postgres store.
// Returns nil if the server hasn't started yet.
func (s *Server) Store() *store.Store {
	return s.st
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
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
// Returns 503 Service Unavailable if the store isn't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.st == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
