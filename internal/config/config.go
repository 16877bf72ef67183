package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "SIZZLE"

// Namespaced flag/env keys. Flags use kebab-case, env vars use
// SIZZLE_<SNAKE_CASE> (see KebabToSnakeCase and cmd/root.go).
const (
	Debug = "debug"

	DatabaseHost       = "database.host"
	DatabasePort       = "database.port"
	DatabaseUser       = "database.user"
	DatabasePassword   = "database.password"
	DatabaseDbName     = "database.db_name"
	DatabaseSchemaName = "database.schema_name"
	DatabaseSSLMode    = "database.ssl_mode"

	FeedBaseUrl         = "feed.base-url"
	FeedRefreshInterval = "feed.refresh-interval"
	FeedRequestTimeout  = "feed.request-timeout"

	ScoreCacheTtl = "score-cache.ttl"

	PhasesLaunchTime   = "phases.launch-time"
	PhasesCount        = "phases.count"
	PhasesDurationDays = "phases.duration-days"
	PhasesRewardPool   = "phases.reward-pool"

	RpcHttpPort = "rpc.http-port"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample-rate"

	SnapshotOutputFile = "output-file"
	SnapshotInputFile  = "input-file"
)

// Default per-phase pool: 1B total supply, 25% airdrop fraction, 6 phases.
const DefaultPhaseRewardPool = "41670000"

type Config struct {
	Debug bool

	DatabaseConfig   DatabaseConfig
	FeedConfig       FeedConfig
	ScoreCacheConfig ScoreCacheConfig
	PhasesConfig     PhasesConfig
	RpcConfig        RpcConfig
	PrometheusConfig PrometheusConfig
	DataDogConfig    DataDogConfig
	SnapshotConfig   SnapshotConfig
}

type DatabaseConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	DbName     string
	SchemaName string
	SSLMode    string
}

type FeedConfig struct {
	BaseUrl         string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
}

type ScoreCacheConfig struct {
	Ttl time.Duration
}

type PhasesConfig struct {
	LaunchTime   time.Time
	Count        int
	DurationDays int
	RewardPool   decimal.Decimal
}

type RpcConfig struct {
	HttpPort int
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type DataDogConfig struct {
	StatsdConfig StatsdConfig
}

type StatsdConfig struct {
	Enabled    bool
	Url        string
	SampleRate float64
}

type SnapshotConfig struct {
	OutputFile string
	InputFile  string
}

func KebabToSnakeCase(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}

func parseTimeVar(value string, defaultVal time.Time) time.Time {
	if value == "" {
		return defaultVal
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return defaultVal
	}
	return t.UTC()
}

func parseDecimalVar(value string, defaultVal string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.RequireFromString(defaultVal)
	}
	return d
}

var defaultLaunchTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// NewConfig materializes a Config from viper. Flag defaults and env
// bindings are registered in cmd/root.go before this is called.
func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(KebabToSnakeCase(Debug)),

		DatabaseConfig: DatabaseConfig{
			Host:       viper.GetString(KebabToSnakeCase(DatabaseHost)),
			Port:       viper.GetInt(KebabToSnakeCase(DatabasePort)),
			User:       viper.GetString(KebabToSnakeCase(DatabaseUser)),
			Password:   viper.GetString(KebabToSnakeCase(DatabasePassword)),
			DbName:     viper.GetString(KebabToSnakeCase(DatabaseDbName)),
			SchemaName: viper.GetString(KebabToSnakeCase(DatabaseSchemaName)),
			SSLMode:    viper.GetString(KebabToSnakeCase(DatabaseSSLMode)),
		},

		FeedConfig: FeedConfig{
			BaseUrl:         viper.GetString(KebabToSnakeCase(FeedBaseUrl)),
			RefreshInterval: viper.GetDuration(KebabToSnakeCase(FeedRefreshInterval)),
			RequestTimeout:  viper.GetDuration(KebabToSnakeCase(FeedRequestTimeout)),
		},

		ScoreCacheConfig: ScoreCacheConfig{
			Ttl: viper.GetDuration(KebabToSnakeCase(ScoreCacheTtl)),
		},

		PhasesConfig: PhasesConfig{
			LaunchTime:   parseTimeVar(viper.GetString(KebabToSnakeCase(PhasesLaunchTime)), defaultLaunchTime),
			Count:        viper.GetInt(KebabToSnakeCase(PhasesCount)),
			DurationDays: viper.GetInt(KebabToSnakeCase(PhasesDurationDays)),
			RewardPool:   parseDecimalVar(viper.GetString(KebabToSnakeCase(PhasesRewardPool)), DefaultPhaseRewardPool),
		},

		RpcConfig: RpcConfig{
			HttpPort: viper.GetInt(KebabToSnakeCase(RpcHttpPort)),
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(KebabToSnakeCase(PrometheusEnabled)),
			Port:    viper.GetInt(KebabToSnakeCase(PrometheusPort)),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: StatsdConfig{
				Enabled:    viper.GetBool(KebabToSnakeCase(DataDogStatsdEnabled)),
				Url:        viper.GetString(KebabToSnakeCase(DataDogStatsdUrl)),
				SampleRate: viper.GetFloat64(KebabToSnakeCase(DataDogStatsdSampleRate)),
			},
		},

		SnapshotConfig: SnapshotConfig{
			OutputFile: viper.GetString(KebabToSnakeCase(SnapshotOutputFile)),
			InputFile:  viper.GetString(KebabToSnakeCase(SnapshotInputFile)),
		},
	}
}

func (c *Config) Validate() error {
	if c.PhasesConfig.Count <= 0 {
		return fmt.Errorf("phases.count must be positive, got %d", c.PhasesConfig.Count)
	}
	if c.PhasesConfig.DurationDays <= 0 {
		return fmt.Errorf("phases.duration-days must be positive, got %d", c.PhasesConfig.DurationDays)
	}
	if c.PhasesConfig.RewardPool.Sign() <= 0 {
		return fmt.Errorf("phases.reward-pool must be positive, got %s", c.PhasesConfig.RewardPool.String())
	}
	return nil
}
