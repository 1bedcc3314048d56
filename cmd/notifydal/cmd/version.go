package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// VersionInfo holds version information for JSON output.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, build date, and git commit of the notifydal CLI.`,
		Args:  cobra.NoArgs,
		Example: `  notifydal version
  notifydal version --output json`,
		RunE: runVersion,
	}

	return cmd
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}

	switch getOutputFormat() {
	case "json":
		return writeJSON(cmd.OutOrStdout(), info)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "notifydal v%s\n", info.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", info.BuildDate)
		fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", info.GitCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "Go Version: %s\n", info.GoVersion)
		return nil
	}
}
