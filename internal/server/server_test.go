package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-login-servers/pkg/config"
	"github.com/sirosfoundation/go-login-servers/pkg/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingProvider struct{}

func (pingProvider) RegisterRoutes(router gin.IRouter) {
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			AllowedOrigins: []string{"https://app.example.com"},
		},
		Logging: logging.DefaultConfig(),
	}
}

func TestManager_HandlerServesProviders(t *testing.T) {
	m := NewManager(testConfig(), zap.NewNop())
	m.AddProvider(pingProvider{})

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestManager_CORS(t *testing.T) {
	m := NewManager(testConfig(), zap.NewNop())
	m.AddProvider(pingProvider{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestManager_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, BurstSize: 2}

	m := NewManager(cfg, zap.NewNop())
	m.AddProvider(pingProvider{})
	defer func() { _ = m.Shutdown(context.Background()) }()

	handler := m.Handler()
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestManager_StartAndShutdown(t *testing.T) {
	m := NewManager(testConfig(), zap.NewNop())
	m.AddProvider(pingProvider{})

	require.NoError(t, m.Start(context.Background()))
	require.NotEmpty(t, m.Addr())

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + m.Addr() + "/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	_, err = client.Get("http://" + m.Addr() + "/ping")
	assert.Error(t, err)
}

func TestManager_StartListenError(t *testing.T) {
	first := NewManager(testConfig(), zap.NewNop())
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Shutdown(context.Background()) }()

	cfg := testConfig()
	_, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	cfg.Server.Port, err = strconv.Atoi(port)
	require.NoError(t, err)

	second := NewManager(cfg, zap.NewNop())
	assert.Error(t, second.Start(context.Background()))
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	m := NewManager(testConfig(), zap.NewNop())
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_EmptyOriginsAllowAll(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = nil

	m := NewManager(cfg, zap.NewNop())
	m.AddProvider(pingProvider{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://any.example.com")
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
