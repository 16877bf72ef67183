package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/logger"
	"github.com/steakhouse-fi/sizzle/internal/metrics"
	"github.com/steakhouse-fi/sizzle/internal/metrics/prometheus"
	"github.com/steakhouse-fi/sizzle/internal/shutdown"
	"github.com/steakhouse-fi/sizzle/pkg/allocation"
	"github.com/steakhouse-fi/sizzle/pkg/allocationQueue"
	"github.com/steakhouse-fi/sizzle/pkg/daemon"
	"github.com/steakhouse-fi/sizzle/pkg/engine"
	"github.com/steakhouse-fi/sizzle/pkg/eventBus"
	"github.com/steakhouse-fi/sizzle/pkg/fetcher"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/pipeline"
	"github.com/steakhouse-fi/sizzle/pkg/postgres"
	"github.com/steakhouse-fi/sizzle/pkg/postgres/migrations"
	"github.com/steakhouse-fi/sizzle/pkg/scoring"
	pgStorage "github.com/steakhouse-fi/sizzle/pkg/storage/postgres"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sizzle daemon",
	Run: func(cmd *cobra.Command, args []string) {
		initRunCmd(cmd)
		cfg := config.NewConfig()
		ctx := context.Background()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		if err := cfg.Validate(); err != nil {
			l.Sugar().Fatalw("Invalid configuration", zap.Error(err))
		}

		metricsClients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
		if err != nil {
			l.Sugar().Fatal("Failed to setup metrics clients", zap.Error(err))
		}
		sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, metricsClients)
		if err != nil {
			l.Sugar().Fatal("Failed to setup metrics sink", zap.Error(err))
		}

		pgConfig := postgres.PostgresConfigFromDbConfig(&cfg.DatabaseConfig)
		pgConfig.CreateDbIfNotExists = true

		pg, err := postgres.NewPostgres(pgConfig)
		if err != nil {
			l.Fatal("Failed to setup postgres connection", zap.Error(err))
		}

		grm, err := postgres.NewGormFromPostgresConnection(pg.Db)
		if err != nil {
			l.Fatal("Failed to create gorm instance", zap.Error(err))
		}

		migrator := migrations.NewMigrator(pg.Db, grm, l)
		if err = migrator.MigrateAll(); err != nil {
			l.Fatal("Failed to migrate", zap.Error(err))
		}

		store := pgStorage.NewPostgresLeaderboardStore(grm, l, cfg)

		registry, err := phases.NewRegistry(&cfg.PhasesConfig)
		if err != nil {
			l.Sugar().Fatalw("Failed to build phase registry", zap.Error(err))
		}

		eb := eventBus.NewEventBus(l)
		cache := scoring.NewScoreCache(cfg.ScoreCacheConfig.Ttl, nil)
		calculator := scoring.NewScoreCalculator(l)
		distributor := allocation.NewDistributor(l)

		ae := engine.NewAllocationEngine(l, cfg, store, registry, calculator, cache, distributor, eb, sink)

		queue := allocationQueue.NewAllocationQueue(ae, l)

		feedClient := fetcher.NewFeedClient(&cfg.FeedConfig, l)
		p := pipeline.NewSnapshotPipeline(l, cfg, feedClient, store, registry, cache, queue, eb, sink)

		d := daemon.NewDaemon(cfg, store, registry, ae, queue, p, eb, sink, l)

		// RPC channel to notify the RPC server to shutdown gracefully
		rpcChannel := make(chan bool)
		if err := d.WithRpcServer(ctx, rpcChannel); err != nil {
			l.Sugar().Fatalw("Failed to start RPC server", zap.Error(err))
		}

		promShutdown := make(chan bool)
		if cfg.PrometheusConfig.Enabled {
			promServer := prometheus.NewPrometheusServer(&prometheus.PrometheusServerConfig{
				Port: cfg.PrometheusConfig.Port,
			}, l)
			if err := promServer.Start(promShutdown); err != nil {
				l.Sugar().Fatalw("Failed to start prometheus server", zap.Error(err))
			}
		}

		// Start the daemon main process in a goroutine so that we can listen for a shutdown signal
		go d.Start(ctx)

		l.Sugar().Info("Started sizzle")

		gracefulShutdown := shutdown.CreateGracefulShutdownChannel()

		done := make(chan bool)
		shutdown.ListenForShutdown(gracefulShutdown, done, func() {
			l.Sugar().Info("Shutting down...")
			rpcChannel <- true
			if cfg.PrometheusConfig.Enabled {
				promShutdown <- true
			}
			d.ShutdownChan <- true
		}, time.Second*5, l)
	},
}

func initRunCmd(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
