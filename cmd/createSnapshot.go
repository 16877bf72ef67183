package cmd

import (
	"fmt"

	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/logger"
	"github.com/steakhouse-fi/sizzle/internal/metrics"
	"github.com/steakhouse-fi/sizzle/pkg/snapshot"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var createSnapshotCmd = &cobra.Command{
	Use:   "create-snapshot",
	Short: "Create a database snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		initCreateSnapshotCmd(cmd)
		cfg := config.NewConfig()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		metricsClients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
		if err != nil {
			l.Sugar().Fatal("Failed to setup metrics clients", zap.Error(err))
		}
		sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, metricsClients)
		if err != nil {
			l.Sugar().Fatal("Failed to setup metrics sink", zap.Error(err))
		}

		ss := snapshot.NewSnapshotService(l, sink)

		outputFile, err := ss.CreateSnapshot(&snapshot.CreateSnapshotConfig{
			DBConfig:   snapshot.SnapshotDbConfigFromConfig(cfg.DatabaseConfig),
			OutputFile: cfg.SnapshotConfig.OutputFile,
		})
		if err != nil {
			l.Sugar().Fatalw("Failed to create snapshot", zap.Error(err))
		}
		fmt.Printf("Snapshot written to %s\n", outputFile)
	},
}

func initCreateSnapshotCmd(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
