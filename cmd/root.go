package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultFeedRefreshInterval = 30 * time.Minute
	defaultFeedRequestTimeout  = 30 * time.Second
	defaultScoreCacheTtl       = 5 * time.Minute
)

var rootCmd = &cobra.Command{
	Use:   "sizzle",
	Short: "Sizzle tracks the staking leaderboard and allocates phase airdrop rewards",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool("debug", false, `"true" or "false"`)

	rootCmd.PersistentFlags().String(config.DatabaseHost, "localhost", `PostgreSQL host`)
	rootCmd.PersistentFlags().Int(config.DatabasePort, 5432, `PostgreSQL port`)
	rootCmd.PersistentFlags().String(config.DatabaseUser, "sizzle", `PostgreSQL username`)
	rootCmd.PersistentFlags().String(config.DatabasePassword, "", `PostgreSQL password`)
	rootCmd.PersistentFlags().String(config.DatabaseDbName, "sizzle", `PostgreSQL database name`)
	rootCmd.PersistentFlags().String(config.DatabaseSchemaName, "", `PostgreSQL schema name (default "public")`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLMode, "disable", `PostgreSQL ssl mode`)

	rootCmd.PersistentFlags().String(config.FeedBaseUrl, "", `Leaderboard feed URL`)
	rootCmd.PersistentFlags().Duration(config.FeedRefreshInterval, defaultFeedRefreshInterval, `How often to pull the leaderboard snapshot`)
	rootCmd.PersistentFlags().Duration(config.FeedRequestTimeout, defaultFeedRequestTimeout, `Feed HTTP request timeout`)

	rootCmd.PersistentFlags().Duration(config.ScoreCacheTtl, defaultScoreCacheTtl, `How long display score breakdowns stay cached`)

	rootCmd.PersistentFlags().String(config.PhasesLaunchTime, "", `Launch time of phase 1 (RFC3339)`)
	rootCmd.PersistentFlags().Int(config.PhasesCount, 6, `Total number of phases`)
	rootCmd.PersistentFlags().Int(config.PhasesDurationDays, 30, `Phase duration in days`)
	rootCmd.PersistentFlags().String(config.PhasesRewardPool, config.DefaultPhaseRewardPool, `Per-phase reward pool in tokens`)

	rootCmd.PersistentFlags().Int("rpc.http-port", 7101, `http rpc port`)

	rootCmd.PersistentFlags().Bool("datadog.statsd.enabled", false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String("datadog.statsd.url", "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64(config.DataDogStatsdSampleRate, 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.PersistentFlags().Bool("prometheus.enabled", false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int("prometheus.port", 2112, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runVersionCmd)
	rootCmd.AddCommand(calculateAllocationsCmd)
	rootCmd.AddCommand(createSnapshotCmd)
	rootCmd.AddCommand(restoreSnapshotCmd)

	// bind any subcommand flags
	calculateAllocationsCmd.PersistentFlags().Uint64("phase", 0, "Phase to allocate (0 = oldest ended, unallocated phase)")
	calculateAllocationsCmd.PersistentFlags().String("as-of", "", "Allocate as of this time (RFC3339, default now)")
	createSnapshotCmd.PersistentFlags().String(config.SnapshotOutputFile, "", "Path to save the snapshot file to (required)")
	restoreSnapshotCmd.PersistentFlags().String(config.SnapshotInputFile, "", "Path to the snapshot file (required)")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}
