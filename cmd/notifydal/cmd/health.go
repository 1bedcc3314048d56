package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bargom/notifydal/internal/api/types"
	"github.com/bargom/notifydal/internal/database/mongodb"
)

// newHealthCmd creates the health command.
func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the storage backend",
		Long: `Connect to the configured storage backend and run its health check.
Exits non-zero when the backend is unhealthy.`,
		Args: cobra.NoArgs,
		Example: `  notifydal health
  notifydal health --mongo-uri mongodb://localhost:27017 -o json`,
		RunE: runHealth,
	}
	return cmd
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Log, true)

	conn, err := openConnection(cmd, cfg, logger.Logger, nil)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(cmd.Context()))

	result := conn.HealthCheck(cmd.Context())

	if getOutputFormat() == "json" {
		if err := writeJSON(cmd.OutOrStdout(), types.HealthFromResult(result)); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\n", conn.Backend())
		fmt.Fprintf(cmd.OutOrStdout(), "Status:  %s\n", result.Status)
		if result.Message != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Message: %s\n", result.Message)
		}
		if result.Latency > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Latency: %s\n", result.Latency)
		}
	}

	if result.Status == mongodb.HealthStatusUnhealthy {
		printError(cmd, "storage backend is unhealthy")
		return fmt.Errorf("health check failed: %s", result.Message)
	}
	return nil
}
