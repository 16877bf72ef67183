package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/logger"
	"github.com/steakhouse-fi/sizzle/pkg/allocation"
	"github.com/steakhouse-fi/sizzle/pkg/allocationQueue"
	"github.com/steakhouse-fi/sizzle/pkg/engine"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/postgres"
	"github.com/steakhouse-fi/sizzle/pkg/postgres/migrations"
	"github.com/steakhouse-fi/sizzle/pkg/scoring"
	pgStorage "github.com/steakhouse-fi/sizzle/pkg/storage/postgres"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var calculateAllocationsCmd = &cobra.Command{
	Use:   "calculate-allocations",
	Short: "Calculate reward allocations for an ended phase",
	Run: func(cmd *cobra.Command, args []string) {
		initCalculateAllocationsCmd(cmd)
		cfg := config.NewConfig()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		if err := cfg.Validate(); err != nil {
			l.Sugar().Fatalw("Invalid configuration", zap.Error(err))
		}

		phaseNumber := viper.GetUint64("phase")
		asOf := time.Now().UTC()
		if raw := viper.GetString(config.KebabToSnakeCase("as-of")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				l.Sugar().Fatalw("Invalid --as-of value, expected RFC3339", zap.String("asOf", raw))
			}
			asOf = parsed.UTC()
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

		cache := scoring.NewScoreCache(cfg.ScoreCacheConfig.Ttl, nil)
		calculator := scoring.NewScoreCalculator(l)
		distributor := allocation.NewDistributor(l)

		ae := engine.NewAllocationEngine(l, cfg, store, registry, calculator, cache, distributor, nil, nil)

		// Same path the daemon's cutoff scheduler takes, so runs stay
		// serialized even if one is already in flight.
		queue := allocationQueue.NewAllocationQueue(ae, l)
		go queue.Process()
		defer queue.Close()

		response, err := queue.EnqueueAndWait(context.Background(), allocationQueue.AllocationCalculationData{
			CalculationType: allocationQueue.AllocationCalculationType_CalculateAllocations,
			PhaseNumber:     phaseNumber,
			AsOf:            asOf,
		})
		if err != nil {
			l.Sugar().Fatalw("Failed to calculate allocations", zap.Error(err))
		}

		result := response.Result
		fmt.Printf("Phase %d allocated: %d participants, total raw score %s\n",
			response.PhaseNumber, len(result.Shares), result.TotalRawScore.String())
		for _, share := range result.Shares {
			fmt.Printf("  #%d %s share=%s%% tokens=%s\n",
				share.ScoreRank, share.Address, share.SharePercent.String(), share.TokenAmount.String())
		}
	},
}

func initCalculateAllocationsCmd(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
