package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-login-servers/internal/api"
	"github.com/sirosfoundation/go-login-servers/internal/server"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registry over HTTP",
	Long:  `Run the HTTP API until SIGINT or SIGTERM, then shut down gracefully.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withApp(cmd, func(a *app) error {
			return serve(ctx, a)
		})
	},
}

// serve runs the HTTP API until ctx is done
func serve(ctx context.Context, a *app) error {
	a.logger.Info("Starting login server registry",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("storage", a.cfg.Storage.Type),
	)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := a.store.Ping(pingCtx)
	cancel()
	if err != nil {
		a.logger.Warn("Storage ping failed, serving from defaults", zap.Error(err))
	}

	srv := server.NewManager(a.cfg, a.logger)
	srv.AddProvider(api.NewHandlers(a.manager, a.store, a.logger))
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	a.logger.Info("Server exited")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
