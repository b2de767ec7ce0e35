package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"gorm.io/gorm"

	"github.com/appetiteclub/pantry/internal/sqlite"
)

// ResetDB drops every table and recreates the schema with fresh reference
// data. USE WITH CAUTION.
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop ALL pantry tables!")
	logger.Infof("⚠️  This action cannot be undone!")

	baseRepo, db, err := openDB(ctx, config, logger)
	if err != nil {
		return err
	}
	defer baseRepo.Stop(ctx)

	return resetSchema(ctx, db, logger)
}

func resetSchema(ctx context.Context, db *gorm.DB, logger apt.Logger) error {
	if err := sqlite.Drop(ctx, db); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	logger.Info("All tables have been dropped")

	if err := sqlite.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	if err := sqlite.Seed(ctx, db); err != nil {
		return fmt.Errorf("seed reference data: %w", err)
	}
	logger.Info("Schema recreated and seeded")
	return nil
}
