package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/appetiteclub/pantry/internal/pantry"
)

// DefaultMeasurements is the fixed unit set seeded into an empty database.
var DefaultMeasurements = []string{"pcs", "l", "kg"}

// DefaultEstablishments is seeded into an empty database.
var DefaultEstablishments = []pantry.Establishment{
	{ID: 1, Name: "Лукашевича"},
	{ID: 2, Name: "Ленина"},
}

var allModels = []interface{}{
	&pantry.Establishment{},
	&pantry.User{},
	&pantry.Location{},
	&pantry.Measurement{},
	&pantry.Supplier{},
	&pantry.Product{},
	&pantry.Dish{},
	&pantry.DishProduct{},
	&pantry.Assignment{},
}

type BaseRepo struct {
	db     *gorm.DB
	logger apt.Logger
	config *apt.Config
}

func NewBaseRepo(config *apt.Config, logger apt.Logger) *BaseRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BaseRepo{
		logger: logger,
		config: config,
	}
}

// Start opens the database, migrates the schema and seeds reference data.
func (r *BaseRepo) Start(ctx context.Context) error {
	path := "pantry.db"
	if r.config != nil {
		path = r.config.GetStringOrDef("db.sqlite.path", path)
	}

	db, err := Open(path)
	if err != nil {
		return err
	}

	if err := Migrate(ctx, db); err != nil {
		return err
	}

	if err := Seed(ctx, db); err != nil {
		return err
	}

	r.db = db
	r.logger.Infof("Opened SQLite database: %s", path)
	return nil
}

func (r *BaseRepo) Stop(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("cannot access sql database: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("cannot close sqlite database: %w", err)
	}
	r.logger.Info("Closed SQLite database")
	return nil
}

func (r *BaseRepo) GetDatabase() *gorm.DB {
	return r.db
}

// Open connects to a SQLite database file (or DSN).
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open sqlite database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("cannot migrate schema: %w", err)
	}
	return nil
}

// Drop removes every table, including the supplier/product join table.
func Drop(ctx context.Context, db *gorm.DB) error {
	tables := append([]interface{}{"supplier_products"}, allModels...)
	if err := db.WithContext(ctx).Migrator().DropTable(tables...); err != nil {
		return fmt.Errorf("cannot drop schema: %w", err)
	}
	return nil
}

// Seed inserts establishments and measurements when their tables are empty.
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&pantry.Establishment{}).Count(&count).Error; err != nil {
			return fmt.Errorf("cannot count establishments: %w", err)
		}
		if count == 0 {
			seeds := make([]pantry.Establishment, len(DefaultEstablishments))
			copy(seeds, DefaultEstablishments)
			if err := tx.Create(&seeds).Error; err != nil {
				return fmt.Errorf("cannot seed establishments: %w", err)
			}
		}

		if err := tx.Model(&pantry.Measurement{}).Count(&count).Error; err != nil {
			return fmt.Errorf("cannot count measurements: %w", err)
		}
		if count == 0 {
			seeds := make([]pantry.Measurement, 0, len(DefaultMeasurements))
			for _, name := range DefaultMeasurements {
				seeds = append(seeds, pantry.Measurement{Name: name})
			}
			if err := tx.Create(&seeds).Error; err != nil {
				return fmt.Errorf("cannot seed measurements: %w", err)
			}
		}
		return nil
	})
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pantry.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
