package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/appetiteclub/apt"
	"gorm.io/gorm"

	"github.com/appetiteclub/pantry/internal/pantry"
	"github.com/appetiteclub/pantry/internal/sheet"
	"github.com/appetiteclub/pantry/internal/sqlite"
)

// ImportReport counts what an import did with each row.
type ImportReport struct {
	Created  int
	Existing int
	Skipped  int
}

// ImportProducts loads products from an xlsx workbook into one establishment.
func ImportProducts(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	path, _ := config.GetString("import.file")
	if path == "" {
		return errors.New("import.file is required")
	}
	establishmentID, err := configUint(config, "import.establishment")
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := sheet.ReadProducts(f)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}

	baseRepo, db, err := openDB(ctx, config, logger)
	if err != nil {
		return err
	}
	defer baseRepo.Stop(ctx)

	report, err := importRows(ctx, catalogRepos(db), establishmentID, rows, logger)
	if err != nil {
		return err
	}
	logger.Info("Import finished",
		"file", path,
		"created", report.Created,
		"existing", report.Existing,
		"skipped", report.Skipped,
	)
	return nil
}

// importRows creates a product for every row whose location and unit are
// known. Rows naming an unknown location or unit are logged and skipped;
// products already present in the location are left untouched.
func importRows(ctx context.Context, repos pantry.Repos, establishmentID uint, rows []sheet.ImportRow, logger apt.Logger) (ImportReport, error) {
	var report ImportReport

	if _, err := repos.EstablishmentRepo.Get(ctx, establishmentID); err != nil {
		return report, fmt.Errorf("establishment %d: %w", establishmentID, err)
	}

	locations, err := repos.LocationRepo.ListByEstablishment(ctx, establishmentID)
	if err != nil {
		return report, fmt.Errorf("list locations: %w", err)
	}
	byName := make(map[string]*pantry.Location, len(locations))
	for _, l := range locations {
		byName[strings.ToLower(l.Name)] = l
	}

	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		loc, ok := byName[strings.ToLower(strings.TrimSpace(row.Location))]
		if !ok {
			logger.Info("Skipping row with unknown location", "line", row.Line, "location", row.Location)
			report.Skipped++
			continue
		}

		unit, err := repos.MeasurementRepo.GetByName(ctx, strings.TrimSpace(row.Unit))
		if errors.Is(err, pantry.ErrNotFound) {
			logger.Info("Skipping row with unknown unit", "line", row.Line, "unit", row.Unit)
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("line %d: %w", row.Line, err)
		}

		_, err = repos.ProductRepo.FindInLocation(ctx, name, loc.ID, establishmentID)
		if err == nil {
			report.Existing++
			continue
		}
		if !errors.Is(err, pantry.ErrNotFound) {
			return report, fmt.Errorf("line %d: %w", row.Line, err)
		}

		p := &pantry.Product{
			Name:            name,
			LocationID:      loc.ID,
			MeasurementID:   unit.ID,
			EstablishmentID: establishmentID,
		}
		if err := repos.ProductRepo.Create(ctx, p); err != nil {
			return report, fmt.Errorf("line %d: create product %q: %w", row.Line, row.Name, err)
		}
		report.Created++
	}

	return report, nil
}

func catalogRepos(db *gorm.DB) pantry.Repos {
	return pantry.Repos{
		EstablishmentRepo: sqlite.NewEstablishmentRepo(db),
		LocationRepo:      sqlite.NewLocationRepo(db),
		MeasurementRepo:   sqlite.NewMeasurementRepo(db),
		ProductRepo:       sqlite.NewProductRepo(db),
	}
}
