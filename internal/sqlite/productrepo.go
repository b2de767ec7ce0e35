package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/appetiteclub/pantry/internal/pantry"
)

type ProductRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create inserts the product and, when a supplier is set, links it through
// the supplier/product association as well.
func (r *ProductRepo) Create(ctx context.Context, p *pantry.Product) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkProductRefs(tx, p); err != nil {
			return err
		}
		if err := tx.Omit("Location", "Measurement", "Supplier").Create(p).Error; err != nil {
			return fmt.Errorf("cannot create product: %w", err)
		}
		return linkSupplier(tx, p)
	})
}

func (r *ProductRepo) Get(ctx context.Context, id uint) (*pantry.Product, error) {
	var p pantry.Product
	err := r.preloaded(ctx).First(&p, id).Error
	if err != nil {
		return nil, fmt.Errorf("cannot get product: %w", mapNotFound(err))
	}
	return &p, nil
}

func (r *ProductRepo) ListByEstablishment(ctx context.Context, establishmentID uint) ([]*pantry.Product, error) {
	var result []*pantry.Product
	err := r.preloaded(ctx).
		Where("establishment_id = ?", establishmentID).
		Order("name").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("cannot list products: %w", err)
	}
	return result, nil
}

func (r *ProductRepo) ListByLocations(ctx context.Context, locationIDs []uint) ([]*pantry.Product, error) {
	if len(locationIDs) == 0 {
		return []*pantry.Product{}, nil
	}
	var result []*pantry.Product
	err := r.preloaded(ctx).
		Where("location_id IN ?", locationIDs).
		Order("location_id").
		Order("name").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("cannot list products by location: %w", err)
	}
	return result, nil
}

func (r *ProductRepo) FindInLocation(ctx context.Context, name string, locationID, establishmentID uint) (*pantry.Product, error) {
	var p pantry.Product
	err := r.db.WithContext(ctx).
		Where("name = ? AND location_id = ? AND establishment_id = ?", name, locationID, establishmentID).
		First(&p).Error
	if err != nil {
		return nil, fmt.Errorf("cannot find product: %w", mapNotFound(err))
	}
	return &p, nil
}

func (r *ProductRepo) Save(ctx context.Context, p *pantry.Product) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkProductRefs(tx, p); err != nil {
			return err
		}
		result := tx.Model(&pantry.Product{}).
			Where("id = ?", p.ID).
			Select("name", "location_id", "measurement_id", "supplier_id").
			Updates(map[string]interface{}{
				"name":           p.Name,
				"location_id":    p.LocationID,
				"measurement_id": p.MeasurementID,
				"supplier_id":    p.SupplierID,
			})
		if result.Error != nil {
			return fmt.Errorf("cannot update product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("cannot update product: %w", pantry.ErrNotFound)
		}
		return linkSupplier(tx, p)
	})
}

// Delete removes the product together with its supplier links.
func (r *ProductRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&pantry.DishProduct{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("cannot check product usage: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("cannot delete product %d: %w", id, pantry.ErrInUse)
		}

		if err := tx.Exec("DELETE FROM supplier_products WHERE product_id = ?", id).Error; err != nil {
			return fmt.Errorf("cannot unlink product: %w", err)
		}

		result := tx.Delete(&pantry.Product{}, id)
		if result.Error != nil {
			return fmt.Errorf("cannot delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("cannot delete product: %w", pantry.ErrNotFound)
		}
		return nil
	})
}

func (r *ProductRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Location").
		Preload("Measurement").
		Preload("Supplier")
}

func checkProductRefs(tx *gorm.DB, p *pantry.Product) error {
	var loc pantry.Location
	if err := tx.First(&loc, p.LocationID).Error; err != nil {
		return fmt.Errorf("unknown location %d: %w", p.LocationID, pantry.ErrInvalid)
	}
	if loc.EstablishmentID != p.EstablishmentID {
		return fmt.Errorf("location %d belongs to another establishment: %w", p.LocationID, pantry.ErrInvalid)
	}
	var m pantry.Measurement
	if err := tx.First(&m, p.MeasurementID).Error; err != nil {
		return fmt.Errorf("unknown measurement %d: %w", p.MeasurementID, pantry.ErrInvalid)
	}
	if p.SupplierID != nil {
		var s pantry.Supplier
		if err := tx.First(&s, *p.SupplierID).Error; err != nil {
			return fmt.Errorf("unknown supplier %d: %w", *p.SupplierID, pantry.ErrInvalid)
		}
	}
	return nil
}

func linkSupplier(tx *gorm.DB, p *pantry.Product) error {
	if p.SupplierID == nil {
		return nil
	}
	var count int64
	err := tx.Table("supplier_products").
		Where("supplier_id = ? AND product_id = ?", *p.SupplierID, p.ID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("cannot check supplier link: %w", err)
	}
	if count > 0 {
		return nil
	}
	err = tx.Table("supplier_products").Create(map[string]interface{}{
		"supplier_id": *p.SupplierID,
		"product_id":  p.ID,
	}).Error
	if err != nil {
		return fmt.Errorf("cannot link supplier: %w", err)
	}
	return nil
}
