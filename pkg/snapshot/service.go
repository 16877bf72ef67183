package snapshot

import (
	"fmt"

	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/metrics"
	"go.uber.org/zap"
)

type SnapshotDatabaseConfig struct {
	Host       string
	Port       int
	DbName     string
	User       string
	Password   string
	SchemaName string
}

func (sdc *SnapshotDatabaseConfig) IsValid() (bool, error) {
	if sdc.DbName == "" {
		return false, fmt.Errorf("database name is required")
	}
	return true, nil
}

type CreateSnapshotConfig struct {
	DBConfig   SnapshotDatabaseConfig
	OutputFile string
}

func (csc *CreateSnapshotConfig) IsValid() (bool, error) {
	if csc.OutputFile == "" {
		return false, fmt.Errorf("output file is required")
	}
	return csc.DBConfig.IsValid()
}

type RestoreSnapshotConfig struct {
	DBConfig  SnapshotDatabaseConfig
	InputFile string
}

func (rsc *RestoreSnapshotConfig) IsValid() (bool, error) {
	if rsc.InputFile == "" {
		return false, fmt.Errorf("input file is required")
	}
	return rsc.DBConfig.IsValid()
}

func SnapshotDbConfigFromConfig(cfg config.DatabaseConfig) SnapshotDatabaseConfig {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	schemaName := cfg.SchemaName
	if schemaName == "" {
		schemaName = "public"
	}

	return SnapshotDatabaseConfig{
		Host:       host,
		Port:       port,
		DbName:     cfg.DbName,
		User:       cfg.User,
		Password:   cfg.Password,
		SchemaName: schemaName,
	}
}

type SnapshotService struct {
	logger      *zap.Logger
	metricsSink *metrics.MetricsSink
}

func NewSnapshotService(l *zap.Logger, sink *metrics.MetricsSink) *SnapshotService {
	return &SnapshotService{
		logger:      l,
		metricsSink: sink,
	}
}
