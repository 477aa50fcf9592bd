package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-login-servers/pkg/config"
	"github.com/sirosfoundation/go-login-servers/pkg/middleware"
)

// RouteProvider contributes routes to the shared router
type RouteProvider interface {
	RegisterRoutes(router gin.IRouter)
}

// Manager builds the router and runs the HTTP server
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	providers []RouteProvider

	router     *gin.Engine
	limiter    *middleware.RateLimiter
	httpServer *http.Server
	listener   net.Listener
}

// NewManager creates a new server manager
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.Named("server"),
	}
}

// AddProvider registers a route provider. Must be called before Handler or Start.
func (m *Manager) AddProvider(p RouteProvider) {
	m.providers = append(m.providers, p)
}

// Handler returns the router, building it on first use
func (m *Manager) Handler() http.Handler {
	if m.router == nil {
		m.router = m.buildRouter()
		for _, p := range m.providers {
			p.RegisterRoutes(m.router)
		}
	}
	return m.router
}

// buildRouter creates a new router with common middleware
func (m *Manager) buildRouter() *gin.Engine {
	if m.cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(m.logger))
	router.Use(cors.New(m.corsConfig()))

	if m.cfg.RateLimit.Enabled {
		m.limiter = middleware.NewRateLimiter(middleware.RateLimitConfigFrom(m.cfg.RateLimit), m.logger)
		router.Use(middleware.RateLimitMiddleware(m.limiter, m.logger))
	}

	return router
}

func (m *Manager) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(m.cfg.Server.AllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = m.cfg.Server.AllowedOrigins
	}
	return cfg
}

// Start listens on the configured address and serves in the background.
// Listen errors are returned directly.
func (m *Manager) Start(ctx context.Context) error {
	handler := m.Handler()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", m.cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.cfg.Server.Address(), err)
	}
	m.listener = ln

	m.httpServer = &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		m.logger.Info("HTTP server listening", zap.String("address", ln.Addr().String()))
		if err := m.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded
func (m *Manager) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Shutdown gracefully stops the server and the rate limiter
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.limiter != nil {
		m.limiter.Stop()
	}
	if m.httpServer == nil {
		return nil
	}
	if err := m.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
