package snapshot

import (
	"fmt"
	"path/filepath"
	"time"

	pgcommands "github.com/habx/pg-commands"
	"github.com/steakhouse-fi/sizzle/internal/metrics/metricsTypes"
	"go.uber.org/zap"
)

// CreateSnapshot dumps the database to a custom-format archive at the
// configured output path.
func (ss *SnapshotService) CreateSnapshot(cfg *CreateSnapshotConfig) (string, error) {
	startTime := time.Now()

	if valid, err := cfg.IsValid(); !valid || err != nil {
		return "", err
	}

	outputFile, err := filepath.Abs(cfg.OutputFile)
	if err != nil {
		return "", fmt.Errorf("error getting absolute path: %w", err)
	}

	dump, err := pgcommands.NewDump(&pgcommands.Postgres{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		DB:       cfg.DBConfig.DbName,
		Username: cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
	})
	if err != nil {
		return "", fmt.Errorf("error initializing pg_dump: %w", err)
	}
	dump.SetFileName(outputFile)
	dump.SetupFormat("c")
	dump.Options = append(dump.Options, "--no-owner", "--no-privileges", "--clean")

	result := dump.Exec(pgcommands.ExecOptions{StreamPrint: false})
	if result.Error != nil {
		return "", fmt.Errorf("error creating snapshot: %s", result.Output)
	}

	if ss.metricsSink != nil {
		_ = ss.metricsSink.Timing(metricsTypes.Metric_Timing_CreateSnapshot, time.Since(startTime), nil)
	}
	ss.logger.Sugar().Infow("Snapshot dump complete", zap.String("outputFile", outputFile))
	return outputFile, nil
}
