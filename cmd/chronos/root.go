package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/chronos/pkg/activity"
	"github.com/entrhq/chronos/pkg/config"
	"github.com/entrhq/chronos/pkg/identifier"
	"github.com/entrhq/chronos/pkg/logging"
	"github.com/entrhq/chronos/pkg/reminder"
	"github.com/entrhq/chronos/pkg/server"
	"github.com/entrhq/chronos/pkg/storage"
	"github.com/entrhq/chronos/pkg/store"
	"github.com/entrhq/chronos/pkg/timezone"
)

var flags struct {
	configPath    string
	storageMode   string
	dataDir       string
	projectRoot   string
	idFormat      string
	localTimezone string
	timeout       int
	logLevel      string
}

var rootCmd = &cobra.Command{
	Use:   "chronos",
	Short: "Activity tracking and reminder MCP server",
	Long: `chronos is a local MCP server that gives an AI coding assistant
persistent activity logs, time-based reminders, and timezone utilities.
It speaks the protocol on stdin/stdout and stores its data in a single
JSON file, either shared or per project.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chronos %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&flags.storageMode, "storage-mode", "", "storage mode: centralized or per-project")
	rootCmd.Flags().StringVar(&flags.dataDir, "data-dir", "", "data directory for centralized mode")
	rootCmd.Flags().StringVar(&flags.projectRoot, "project-root", "", "project root for per-project mode")
	rootCmd.Flags().StringVar(&flags.idFormat, "id-format", "", "identifier format: uuid, short or custom")
	rootCmd.Flags().StringVar(&flags.localTimezone, "local-timezone", "", "IANA timezone overriding host detection")
	rootCmd.Flags().IntVar(&flags.timeout, "timeout", 0, "per-tool-call timeout in seconds")
	rootCmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runServe(cmd *cobra.Command, _ []string) error {
	if _, err := logging.Setup(logging.Options{Level: flags.logLevel}); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, err := storage.Resolve(cfg.Mode(), cfg.ProjectRoot, cfg.DataDir)
	if err != nil {
		return err
	}
	if err := storage.EnsureWritable(dir); err != nil {
		return err
	}

	ids, err := identifier.NewGenerator(cfg.IDFormat)
	if err != nil {
		return err
	}
	tz, err := timezone.NewService(cfg.LocalTimezone)
	if err != nil {
		return err
	}

	fileStore := store.NewFileStore(dir)
	activities := activity.NewManager(fileStore, ids)
	reminders := reminder.NewManager(fileStore, ids)

	server.Version = version
	srv := server.New(cfg, activities, reminders, tz)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("chronos server starting",
		"version", version,
		"storageMode", cfg.StorageMode,
		"dataFile", fileStore.Path(),
		"idFormat", cfg.IDFormat,
		"localTimezone", tz.LocalName(),
	)

	if err := srv.ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	slog.Info("chronos server stopped")
	return nil
}

// loadConfig overlays defaults, the optional config file, and any flags
// the user set explicitly, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("storage-mode") {
		cfg.StorageMode = flags.storageMode
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = flags.dataDir
	}
	if cmd.Flags().Changed("project-root") {
		cfg.ProjectRoot = flags.projectRoot
	}
	if cmd.Flags().Changed("id-format") {
		cfg.IDFormat = flags.idFormat
	}
	if cmd.Flags().Changed("local-timezone") {
		cfg.LocalTimezone = flags.localTimezone
	}
	if cmd.Flags().Changed("timeout") {
		cfg.TimeoutSeconds = flags.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
