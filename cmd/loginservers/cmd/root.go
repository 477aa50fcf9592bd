// Package cmd contains all CLI commands for loginservers.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-login-servers/internal/backend"
	"github.com/sirosfoundation/go-login-servers/internal/service"
	"github.com/sirosfoundation/go-login-servers/internal/storage"
	"github.com/sirosfoundation/go-login-servers/pkg/config"
	"github.com/sirosfoundation/go-login-servers/pkg/logging"
)

// defaultConfigName is looked up in the XDG config directories when --config is not set
const defaultConfigName = "login-servers/config.yaml"

var (
	// Global flags
	configFile string
	output     string
)

// app holds the components every command works with
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   storage.KeyValueStore
	manager *service.LoginServerManager
}

// openApp loads configuration and wires logger, store and manager
func openApp(ctx context.Context) (*app, error) {
	path := configFile
	if path == "" {
		if found, err := xdg.SearchConfigFile(defaultConfigName); err == nil {
			path = found
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := backend.New(initCtx, cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	logger.Debug("Storage backend initialized", zap.String("type", cfg.Storage.Type))

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		manager: service.NewLoginServerManager(ctx, store, logger),
	}, nil
}

// Close releases the store and flushes the logger
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close storage backend", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp runs fn against a freshly opened app
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// printJSON formats and prints v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printTable prints data in a simple table format
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, 0, len(cells))
		for i, cell := range cells {
			if i < len(widths) {
				parts = append(parts, fmt.Sprintf("%-*s", widths[i], cell))
			}
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	separators := make([]string, len(headers))
	for i := range headers {
		separators[i] = strings.Repeat("-", widths[i])
	}
	printRow(separators)
	for _, row := range rows {
		printRow(row)
	}
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "loginservers",
	Short: "Manage the login server registry",
	Long: `loginservers manages the list of login servers a client can authenticate
against, and which one is currently selected.

The registry always starts with the built-in servers (Production, Sandbox,
Other). Custom servers are added after them and persisted in the configured
storage backend along with the selection.

Examples:
  # List all login servers
  loginservers list

  # Add a custom server (it becomes the selected one)
  loginservers add --name "My Domain" --url https://mydomain.my.salesforce.com

  # Switch to the sandbox
  loginservers sandbox

  # Serve the registry over HTTP
  loginservers serve

Environment Variables:
  LOGINSERVERS_STORAGE_TYPE   memory, file, redis or mongodb
  LOGINSERVERS_LOGGING_LEVEL  debug, info, warn or error`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (default: $XDG_CONFIG_HOME/"+defaultConfigName+")")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table, json")
}
