package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	pgcommands "github.com/habx/pg-commands"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RestoreSnapshot restores a previously created archive into the
// configured database. The target database must already exist.
func (ss *SnapshotService) RestoreSnapshot(cfg *RestoreSnapshotConfig) error {
	if valid, err := cfg.IsValid(); !valid || err != nil {
		return err
	}

	inputFile, err := filepath.Abs(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("error getting absolute path: %w", err)
	}
	if _, err := os.Stat(inputFile); err != nil {
		return errors.Wrap(err, "snapshot file not found")
	}

	restore, err := pgcommands.NewRestore(&pgcommands.Postgres{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		DB:       cfg.DBConfig.DbName,
		Username: cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
	})
	if err != nil {
		return fmt.Errorf("error initializing pg_restore: %w", err)
	}
	restore.Options = append(restore.Options, "--no-owner", "--no-privileges", "--clean", "--if-exists")

	result := restore.Exec(inputFile, pgcommands.ExecOptions{StreamPrint: false})
	if result.Error != nil {
		return fmt.Errorf("error restoring snapshot: %s", result.Output)
	}

	ss.logger.Sugar().Infow("Snapshot restore complete", zap.String("inputFile", inputFile))
	return nil
}
