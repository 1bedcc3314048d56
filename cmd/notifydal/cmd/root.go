// Package cmd provides the CLI commands for notifydal.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bargom/notifydal/internal/config"
	"github.com/bargom/notifydal/internal/database/setup"
	"github.com/bargom/notifydal/pkg/logging"
	"github.com/bargom/notifydal/pkg/metrics"
)

var (
	// envFile is an optional .env file read before the environment
	envFile string
	// verbose enables verbose output
	verbose bool
	// outputFormat specifies the output format (json, table)
	outputFormat string
	// storage overrides
	backendName  string
	mongoURI     string
	databaseName string
	cacheType    string
)

// openStorage opens the configured backend. Tests replace it to share an
// in-process connection across commands.
var openStorage = setup.Open

const rootLong = `notifydal serves and inspects notification templates stored in MongoDB.

Settings come from the environment (MONGODB_URI, MONGODB_DATABASE,
STORAGE_BACKEND, CACHE_TYPE, ...) and an optional .env file. The global
flags override the matching environment variables.`

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "notifydal",
	Short:        "Notification template data access tool",
	Long:         rootLong,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// NewRootCmd creates a new root command for testing.
// This allows tests to create fresh command trees.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "notifydal",
		Short:        rootCmd.Short,
		Long:         rootLong,
		SilenceUsage: true,
	}
	registerCommands(cmd)
	return cmd
}

func init() {
	registerCommands(rootCmd)
}

func registerCommands(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", "", "read settings from this .env file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVarP(&outputFormat, "output", "o", "table", "output format (json|table)")
	flags.StringVar(&backendName, "backend", "", "storage backend (mongodb|memory)")
	flags.StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string")
	flags.StringVar(&databaseName, "database", "", "MongoDB database name")
	flags.StringVar(&cacheType, "cache", "", "template cache (memory|redis|none)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newTemplatesCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newCompletionCmd())
}

// loadConfig reads the environment, then applies any storage flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if envFile != "" {
		cfg, err = config.LoadFile(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Storage.Backend = backendName
	}
	if flags.Changed("mongo-uri") {
		cfg.Mongo.URI = mongoURI
	}
	if flags.Changed("database") {
		cfg.Mongo.Database = databaseName
	}
	if flags.Changed("cache") {
		cfg.Cache.Type = cacheType
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. One-shot commands log to stderr and
// stay quiet below warn unless --verbose is set.
func newLogger(cmd *cobra.Command, cfg logging.Config, quiet bool) *logging.Logger {
	if quiet && !verbose {
		cfg.Level = "warn"
	}
	var out io.Writer = cmd.ErrOrStderr()
	if !quiet {
		out = cfg.GetOutput()
	}
	return logging.NewWithWriter(cfg, out)
}

// openConnection opens storage for cfg. reg may be nil.
func openConnection(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, reg *metrics.Registry) (*setup.Connection, error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, err
	}

	printVerbose(cmd, "Opening %s storage\n", backend)

	conn, err := openStorage(cmd.Context(), setup.Options{
		Backend: backend,
		Mongo:   cfg.MongoDB(),
		Cache:   cfg.CacheBackend(),
		Metrics: reg,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return conn, nil
}

// isVerbose returns true if verbose mode is enabled.
func isVerbose() bool {
	return verbose
}

// getOutputFormat returns the current output format.
func getOutputFormat() string {
	return outputFormat
}

// printVerbose prints message only if verbose mode is enabled.
func printVerbose(cmd *cobra.Command, format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

// printError prints an error message to stderr.
func printError(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: "+format+"\n", args...)
}
