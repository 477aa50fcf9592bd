package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-login-servers/internal/domain"
	"github.com/sirosfoundation/go-login-servers/internal/service"
	"github.com/sirosfoundation/go-login-servers/internal/storage"
)

// ServiceName is reported by the status endpoints
const ServiceName = "login-servers"

// persistTimeout bounds the storage writes a mutating request triggers
const persistTimeout = 10 * time.Second

// Handlers aggregates all HTTP handlers
type Handlers struct {
	manager *service.LoginServerManager
	store   storage.KeyValueStore
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(manager *service.LoginServerManager, store storage.KeyValueStore, logger *zap.Logger) *Handlers {
	return &Handlers{
		manager: manager,
		store:   store,
		logger:  logger.Named("handlers"),
	}
}

// LoginServersResponse is the registry listing
type LoginServersResponse struct {
	LoginServers []domain.LoginServer `json:"login_servers"`
	Selected     domain.LoginServer   `json:"selected"`
}

// AddLoginServerRequest is the body of POST /login-servers
type AddLoginServerRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

// SelectLoginServerRequest is the body of PUT /login-servers/selected
type SelectLoginServerRequest struct {
	URL string `json:"url" binding:"required"`
}

// RegisterRoutes attaches every registry route to router
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	router.GET("/status", h.Status)
	router.GET("/health", h.Status)

	servers := router.Group("/login-servers")
	{
		servers.GET("", h.ListLoginServers)
		servers.POST("", h.AddLoginServer)
		servers.GET("/lookup", h.LookupLoginServer)
		servers.GET("/selected", h.GetSelectedLoginServer)
		servers.PUT("/selected", h.SelectLoginServer)
		servers.POST("/sandbox", h.UseSandbox)
		servers.POST("/reset", h.Reset)
	}
}

// Status handles the /status and /health endpoints
func (h *Handlers) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := StatusResponse{
		Status:       "ok",
		Service:      ServiceName,
		APIVersion:   CurrentAPIVersion,
		Capabilities: APICapabilities[CurrentAPIVersion],
	}
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Storage ping failed", zap.Error(err))
		resp.Status = "unavailable"
		resp.Error = "storage unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListLoginServers returns every login server and the current selection
func (h *Handlers) ListLoginServers(c *gin.Context) {
	c.JSON(http.StatusOK, h.listing())
}

// LookupLoginServer finds a login server by its exact URL
func (h *Handlers) LookupLoginServer(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	server, ok := h.manager.LoginServerFromURL(url)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "login server not found"})
		return
	}

	c.JSON(http.StatusOK, server)
}

// GetSelectedLoginServer returns the current selection
func (h *Handlers) GetSelectedLoginServer(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.SelectedLoginServer())
}

// SelectLoginServer selects a registered login server by URL
func (h *Handlers) SelectLoginServer(c *gin.Context) {
	var req SelectLoginServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	server, ok := h.manager.LoginServerFromURL(req.URL)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "login server not found"})
		return
	}

	ctx, cancel := persistContext(c)
	defer cancel()
	h.manager.SetSelectedLoginServer(ctx, server)
	c.JSON(http.StatusOK, server)
}

// AddLoginServer adds a custom login server and selects it
func (h *Handlers) AddLoginServer(c *gin.Context) {
	var req AddLoginServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and url are required"})
		return
	}

	if err := domain.ValidateLoginServer(req.Name, req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := persistContext(c)
	defer cancel()
	server := h.manager.AddCustomLoginServer(ctx, req.Name, req.URL)
	c.JSON(http.StatusCreated, server)
}

// UseSandbox selects the built-in sandbox server
func (h *Handlers) UseSandbox(c *gin.Context) {
	ctx, cancel := persistContext(c)
	defer cancel()
	h.manager.UseSandbox(ctx)
	c.JSON(http.StatusOK, h.manager.SelectedLoginServer())
}

// Reset drops all custom servers and restores the default selection
func (h *Handlers) Reset(c *gin.Context) {
	ctx, cancel := persistContext(c)
	defer cancel()
	h.manager.Reset(ctx)
	c.JSON(http.StatusOK, h.listing())
}

func (h *Handlers) listing() LoginServersResponse {
	servers, selected := h.manager.Snapshot()
	return LoginServersResponse{
		LoginServers: servers,
		Selected:     selected,
	}
}

// persistContext detaches storage writes from the client connection so a
// disconnect cannot cut short a change already applied in memory
func persistContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), persistTimeout)
}
