package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-login-servers/internal/domain"
	"github.com/sirosfoundation/go-login-servers/internal/storage"
)

// Storage keys owned by LoginServerManager
const (
	// SelectedLoginServerKey holds the URL of the selected login server
	SelectedLoginServerKey = "selected_login_server_url"
	// CustomLoginServersNamespace holds the ordered name,url pairs of custom servers
	CustomLoginServersNamespace = "custom_login_servers"
)

// LoginServerManager keeps the ordered list of login servers (built-ins
// followed by custom servers in the order they were added) and the selected
// entry, and mirrors both into a key-value store.
//
// Storage is treated as a best-effort cache: read failures fall back to the
// defaults and write failures are logged, never returned. The in-memory state
// stays authoritative for the lifetime of the manager.
type LoginServerManager struct {
	store  storage.KeyValueStore
	logger *zap.Logger

	mu           sync.RWMutex
	servers      []domain.LoginServer
	builtinCount int
	selected     domain.LoginServer
}

// NewLoginServerManager creates a manager and rehydrates it from store
func NewLoginServerManager(ctx context.Context, store storage.KeyValueStore, logger *zap.Logger) *LoginServerManager {
	m := &LoginServerManager{
		store:  store,
		logger: logger.Named("login_servers"),
	}
	m.load(ctx)
	return m
}

func (m *LoginServerManager) load(ctx context.Context) {
	m.servers = domain.BuiltinLoginServers()
	m.builtinCount = len(m.servers)
	m.selected = domain.DefaultLoginServer()

	pairs, err := m.store.GetPairs(ctx, CustomLoginServersNamespace)
	if err != nil {
		m.logger.Warn("Failed to load custom login servers, using built-ins only", zap.Error(err))
	} else {
		for _, p := range pairs {
			m.servers = append(m.servers, domain.NewCustomLoginServer(p.Name, p.Value))
		}
	}

	selectedURL, err := m.store.Get(ctx, SelectedLoginServerKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		m.logger.Warn("Failed to load selected login server, using default", zap.Error(err))
	default:
		if server, ok := m.lookup(selectedURL); ok {
			m.selected = server
		} else {
			m.logger.Info("Persisted login server no longer exists, using default",
				zap.String("url", selectedURL))
		}
	}

	m.logger.Debug("Loaded login servers",
		zap.Int("custom", len(m.servers)-m.builtinCount),
		zap.String("selected", m.selected.URL))
}

// LoginServers returns built-in servers in declaration order followed by
// custom servers in the order they were added
func (m *LoginServerManager) LoginServers() []domain.LoginServer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	servers := make([]domain.LoginServer, len(m.servers))
	copy(servers, m.servers)
	return servers
}

// CustomLoginServers returns only the user-added servers
func (m *LoginServerManager) CustomLoginServers() []domain.LoginServer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	servers := make([]domain.LoginServer, len(m.servers)-m.builtinCount)
	copy(servers, m.servers[m.builtinCount:])
	return servers
}

// LoginServerFromURL returns the first server whose URL equals url exactly.
// No normalization is applied: scheme case and trailing slashes matter.
func (m *LoginServerManager) LoginServerFromURL(url string) (domain.LoginServer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lookup(url)
}

func (m *LoginServerManager) lookup(url string) (domain.LoginServer, bool) {
	for _, server := range m.servers {
		if server.URL == url {
			return server, true
		}
	}
	return domain.LoginServer{}, false
}

// Snapshot returns the server list and the selection read under one lock,
// so the selection always belongs to the returned list when it was chosen
// from the registry
func (m *LoginServerManager) Snapshot() ([]domain.LoginServer, domain.LoginServer) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	servers := make([]domain.LoginServer, len(m.servers))
	copy(servers, m.servers)
	return servers, m.selected
}

// DefaultLoginServer returns the first built-in server
func (m *LoginServerManager) DefaultLoginServer() domain.LoginServer {
	return domain.DefaultLoginServer()
}

// SelectedLoginServer returns the current selection
func (m *LoginServerManager) SelectedLoginServer() domain.LoginServer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.selected
}

// SetSelectedLoginServer replaces the selection and persists its URL.
// server is not required to be a member of the registry.
func (m *LoginServerManager) SetSelectedLoginServer(ctx context.Context, server domain.LoginServer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setSelected(ctx, server)
}

func (m *LoginServerManager) setSelected(ctx context.Context, server domain.LoginServer) {
	m.selected = server
	if err := m.store.Put(ctx, SelectedLoginServerKey, server.URL); err != nil {
		m.logger.Warn("Failed to persist selected login server",
			zap.String("url", server.URL),
			zap.Error(err))
		return
	}

	m.logger.Debug("Selected login server",
		zap.String("name", server.Name),
		zap.String("url", server.URL))
}

// AddCustomLoginServer appends a custom server, persists it and selects it.
// Duplicate URLs are accepted; lookups by URL keep returning the first match.
// Only the selected URL is persisted, so after a restart a duplicate's
// selection resolves to the earlier entry with that URL.
func (m *LoginServerManager) AddCustomLoginServer(ctx context.Context, name, url string) domain.LoginServer {
	m.mu.Lock()
	defer m.mu.Unlock()

	server := domain.NewCustomLoginServer(name, url)
	if _, exists := m.lookup(url); exists {
		m.logger.Info("Adding custom login server with a URL already in the registry",
			zap.String("url", url))
	}

	m.servers = append(m.servers, server)
	if err := m.store.AppendPair(ctx, CustomLoginServersNamespace, storage.Pair{Name: name, Value: url}); err != nil {
		m.logger.Warn("Failed to persist custom login server",
			zap.String("name", name),
			zap.String("url", url),
			zap.Error(err))
	} else {
		m.logger.Info("Added custom login server",
			zap.String("name", name),
			zap.String("url", url))
	}

	m.setSelected(ctx, server)
	return server
}

// UseSandbox selects the built-in sandbox server
func (m *LoginServerManager) UseSandbox(ctx context.Context) {
	m.SetSelectedLoginServer(ctx, domain.SandboxLoginServer())
}

// Reset drops every custom server from memory and storage and selects the
// first built-in server again
func (m *LoginServerManager) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := len(m.servers) - m.builtinCount
	m.servers = m.servers[:m.builtinCount:m.builtinCount]
	if err := m.store.DeletePairs(ctx, CustomLoginServersNamespace); err != nil {
		m.logger.Warn("Failed to clear persisted custom login servers", zap.Error(err))
	}

	m.setSelected(ctx, domain.DefaultLoginServer())
	m.logger.Info("Reset login servers", zap.Int("removed_custom", removed))
}
