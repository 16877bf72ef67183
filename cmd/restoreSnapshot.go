package cmd

import (
	"fmt"

	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/logger"
	"github.com/steakhouse-fi/sizzle/pkg/postgres"
	"github.com/steakhouse-fi/sizzle/pkg/snapshot"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var restoreSnapshotCmd = &cobra.Command{
	Use:   "restore-snapshot",
	Short: "Restore a database snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		initRestoreSnapshotCmd(cmd)
		cfg := config.NewConfig()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		// pg_restore needs the target database to exist.
		pgConfig := postgres.PostgresConfigFromDbConfig(&cfg.DatabaseConfig)
		if err := postgres.CreateDatabaseIfNotExists(pgConfig); err != nil {
			l.Sugar().Fatalw("Failed to create database", zap.Error(err))
		}

		ss := snapshot.NewSnapshotService(l, nil)

		if err := ss.RestoreSnapshot(&snapshot.RestoreSnapshotConfig{
			DBConfig:  snapshot.SnapshotDbConfigFromConfig(cfg.DatabaseConfig),
			InputFile: cfg.SnapshotConfig.InputFile,
		}); err != nil {
			l.Sugar().Fatalw("Failed to restore snapshot", zap.Error(err))
		}
		fmt.Println("Snapshot restored")
	},
}

func initRestoreSnapshotCmd(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
