// Package cmd provides the CLI commands for htmlstore.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/pjamar/htmls-to-datasette/internal/config"
	"github.com/pjamar/htmls-to-datasette/internal/errors"
	"github.com/pjamar/htmls-to-datasette/internal/logging"
	"github.com/pjamar/htmls-to-datasette/internal/output"
	"github.com/pjamar/htmls-to-datasette/pkg/version"
)

var (
	debugMode      bool
	databaseFlag   string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the htmlstore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "htmlstore",
		Short: "Index archived HTML files into a searchable SQLite store",
		Long: `htmlstore builds a full-text searchable SQLite index over directories
of archived HTML files.

Each file is identified by its canonical path, so re-running the indexer
updates documents in place instead of duplicating them. Content can be
stored inline (--store-binary) or referenced by path.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("htmlstore version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&databaseFlag, "database", "d", "", "Path to the SQLite store (default "+config.DefaultDatabase+")")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.htmlstore/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newPurgeCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// resolveLogConfig builds the logging configuration: --debug wins, else
// the config file's log_level, else defaults.
func resolveLogConfig(debug bool) logging.Config {
	if debug {
		return logging.DebugConfig()
	}
	cfg := logging.DefaultConfig()
	if fileCfg, err := loadConfig(); err == nil && fileCfg.LogLevel != "" {
		cfg.Level = fileCfg.LogLevel
	}
	return cfg
}

// startLogging initializes file logging, at debug level when --debug is set.
func startLogging(_ *cobra.Command, _ []string) error {
	logger, cleanup, err := logging.Setup(resolveLogConfig(debugMode))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	if debugMode {
		slog.Info("Debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	}
	return nil
}

// stopLogging flushes and closes the log writer.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig resolves the effective configuration: .htmlstore.yaml in the
// working directory overridden by flags.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return nil, err
	}
	if databaseFlag != "" {
		cfg.Database = databaseFlag
	}
	return cfg, nil
}

// acquireStoreLock takes the per-store lock guarding mutating commands.
// The returned release function must be called when done.
func acquireStoreLock(dbPath string) (func(), error) {
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.New(errors.ErrCodeStoreLocked, "acquiring store lock", err).WithPath(dbPath)
	}
	if !locked {
		return nil, errors.New(errors.ErrCodeStoreLocked, "another htmlstore run is writing to this store", nil).WithPath(dbPath)
	}
	return func() { _ = lock.Unlock() }, nil
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		output.New(os.Stderr).Errorf("%v", err)
		return err
	}
	return nil
}
