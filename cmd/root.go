// Package cmd wires the CLI commands to the migration engine.
package cmd

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/cmd/cleanup"
	"github.com/voicevault/voicevault/cmd/migrate"
	"github.com/voicevault/voicevault/cmd/rollback"
	"github.com/voicevault/voicevault/cmd/status"
	"github.com/voicevault/voicevault/internal/datastore"
	"github.com/voicevault/voicevault/internal/engine"
	"github.com/voicevault/voicevault/internal/logging"
	"github.com/voicevault/voicevault/internal/observability"
	"github.com/voicevault/voicevault/internal/runtime"
)

// RootCommand creates and returns the root command.
func RootCommand(ctx *runtime.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voicevault",
		Short: "VoiceVault capture-store maintenance CLI",
	}

	settings := ctx.Settings
	rootCmd.PersistentFlags().BoolVar(&settings.Debug, "debug", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Database.Path, "db", settings.Database.Path, "Path to the SQLite database file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}

		engineLogger := logging.ForService("engine")
		if settings.Log.Path != "" {
			fileLogger, closeLog, err := logging.NewFileLogger(settings.Log.Path, "engine", logging.Level())
			if err != nil {
				return err
			}
			engineLogger = fileLogger
			ctx.CloseLog = closeLog
		}

		db, err := datastore.Open(settings.Database.Path, logging.ForService("datastore"))
		if err != nil {
			return err
		}

		metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}

		ctx.Engine = engine.New(db, engine.Config{
			BackupTablePrefix:  settings.Backup.TablePrefix,
			ProgressBufferSize: settings.Progress.BufferSize,
			Logger:             engineLogger,
			Metrics:            metrics,
		})
		return nil
	}

	rootCmd.AddCommand(
		migrate.Command(ctx),
		rollback.Command(ctx),
		cleanup.Command(ctx),
		status.Command(ctx),
	)

	return rootCmd
}
