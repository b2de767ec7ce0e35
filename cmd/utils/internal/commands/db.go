package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"gorm.io/gorm"

	"github.com/appetiteclub/pantry/internal/sqlite"
)

// openDB starts the same SQLite repository the web service uses, so the
// schema is migrated and reference data seeded before any command runs.
func openDB(ctx context.Context, config *apt.Config, logger apt.Logger) (*sqlite.BaseRepo, *gorm.DB, error) {
	baseRepo := sqlite.NewBaseRepo(config, logger)
	if err := baseRepo.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start base repository: %w", err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		return nil, nil, errors.New("repository database is nil")
	}
	return baseRepo, db, nil
}

func configUint(config *apt.Config, key string) (uint, error) {
	raw, ok := config.GetString(key)
	if !ok || raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	var id uint
	if _, err := fmt.Sscan(raw, &id); err != nil || id == 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", key, raw)
	}
	return id, nil
}
