package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bargom/notifydal/internal/api"
	"github.com/bargom/notifydal/internal/api/handlers"
	"github.com/bargom/notifydal/pkg/logging"
	"github.com/bargom/notifydal/pkg/metrics"
)

var (
	serverHost string
	serverPort int
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notification template API server",
		Long: `Start the HTTP API over the configured storage backend.

The server shuts down gracefully on SIGINT or SIGTERM, waiting up to
HTTP_SHUTDOWN_TIMEOUT for in-flight requests.`,
		Args: cobra.NoArgs,
		Example: `  notifydal serve
  notifydal serve --port 9090
  notifydal serve --backend memory --cache none`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serverHost, "host", "", "host to bind to (default HTTP_HOST)")
	cmd.Flags().IntVarP(&serverPort, "port", "p", 0, "port to listen on (default HTTP_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cmd, cfg.Log, false)
	logger.SetDefault()

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		mc := metrics.DefaultConfig()
		mc.DefaultLabels["version"] = Version
		mc.DefaultLabels["environment"] = cfg.Metrics.Environment
		reg = metrics.NewRegistry(mc)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := openConnection(cmd, cfg, logger.Logger, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(context.Background()); err != nil {
			logger.Error("closing storage failed", "error", err)
		}
	}()

	handler := handlers.NewHandler(conn.Templates(), conn, logger.WithModule("api").Logger)

	verbosity := logging.VerbosityStandard
	if isVerbose() {
		verbosity = logging.VerbosityVerbose
	}
	router := api.NewRouterWithConfig(handler, api.RouterConfig{
		Metrics:        reg,
		Logger:         logger.Logger,
		RequestTimeout: cfg.Server.RequestTimeout,
		Verbosity:      verbosity,
	})

	addr := cfg.Server.Addr()
	server := api.NewServer(router, addr,
		api.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout))

	fmt.Fprintf(cmd.OutOrStdout(), "Server listening on %s (%s backend)\n", addr, conn.Backend())
	logger.Info("server starting", "addr", addr, "backend", string(conn.Backend()))

	if err := server.Run(ctx, cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Server stopped")
	return nil
}
