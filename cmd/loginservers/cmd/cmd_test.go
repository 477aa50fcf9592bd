package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-login-servers/internal/domain"
	"github.com/sirosfoundation/go-login-servers/internal/service"
	"github.com/sirosfoundation/go-login-servers/internal/storage/memory"
	"github.com/sirosfoundation/go-login-servers/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// writeConfig creates a config file backed by a file store in a temp dir
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n" +
		"  type: file\n" +
		"  file:\n" +
		"    path: " + filepath.Join(dir, "store.yaml") + "\n" +
		"logging:\n" +
		"  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestListTable(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "list", "-c", cfg, "-o", "table")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2+len(domain.BuiltinLoginServers()))
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[2], "*")
	assert.Contains(t, lines[2], domain.ProductionURL)
	assert.NotContains(t, lines[3], "*")
}

func TestListJSON(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "list", "-c", cfg, "-o", "json")
	require.NoError(t, err)

	var resp listing
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, domain.BuiltinLoginServers(), resp.LoginServers)
	assert.Equal(t, domain.DefaultLoginServer(), resp.Selected)
}

func TestAddPersistsAcrossInvocations(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "add", "-c", cfg, "-o", "table", "--name", "New", "--url", "https://new.com")
	require.NoError(t, err)
	assert.Equal(t, "New (https://new.com)\n", out)

	out, err = run(t, "selected", "-c", cfg, "-o", "json")
	require.NoError(t, err)
	var selected domain.LoginServer
	require.NoError(t, json.Unmarshal([]byte(out), &selected))
	assert.Equal(t, domain.NewCustomLoginServer("New", "https://new.com"), selected)

	out, err = run(t, "lookup", "-c", cfg, "-o", "table", "https://new.com")
	require.NoError(t, err)
	assert.Equal(t, "New (https://new.com)\n", out)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, "add", "-c", cfg, "--name", "New", "--url", "new.com")
	assert.Error(t, err)

	_, err = run(t, "add", "-c", cfg, "--name", " ", "--url", "https://new.com")
	assert.Error(t, err)

	out, err := run(t, "list", "-c", cfg, "-o", "json")
	require.NoError(t, err)
	var resp listing
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.LoginServers, len(domain.BuiltinLoginServers()))
}

func TestLookupUnknown(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, "lookup", "-c", cfg, "https://wrong.example.com")
	assert.Error(t, err)
}

func TestSelectSandboxAndReset(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "select", "-c", cfg, "-o", "table", domain.OtherURL)
	require.NoError(t, err)
	assert.Contains(t, out, domain.OtherURL)

	_, err = run(t, "select", "-c", cfg, "https://unknown.example.com")
	assert.Error(t, err)

	_, err = run(t, "sandbox", "-c", cfg, "-o", "table")
	require.NoError(t, err)
	out, err = run(t, "selected", "-c", cfg, "-o", "table")
	require.NoError(t, err)
	assert.Equal(t, domain.SandboxLoginServer().String()+"\n", out)

	_, err = run(t, "add", "-c", cfg, "-o", "table", "--name", "New", "--url", "https://new.com")
	require.NoError(t, err)

	out, err = run(t, "reset", "-c", cfg, "-o", "json")
	require.NoError(t, err)
	var resp listing
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, domain.BuiltinLoginServers(), resp.LoginServers)
	assert.Equal(t, domain.DefaultLoginServer(), resp.Selected)

	_, err = run(t, "lookup", "-c", cfg, "https://new.com")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  type: cassandra\n"), 0o600))

	_, err := run(t, "list", "-c", path)
	assert.Error(t, err)
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"A", "LONGER"}, [][]string{{"value", "x"}})

	assert.Equal(t, "A      LONGER\n-----  ------\nvalue  x\n", buf.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	store := memory.NewStore()
	logger := zap.NewNop()
	a := &app{
		cfg: &config.Config{
			Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
			Storage: config.StorageConfig{Type: config.StorageMemory},
		},
		logger:  logger,
		store:   store,
		manager: service.NewLoginServerManager(context.Background(), store, logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, a) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
