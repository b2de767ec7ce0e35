package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/appetiteclub/pantry/internal/pantry"
)

type LocationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Create(ctx context.Context, l *pantry.Location) error {
	if l == nil {
		return fmt.Errorf("location is nil")
	}
	if err := r.db.WithContext(ctx).Omit("Products").Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cannot create location %q: %w", l.Name, pantry.ErrDuplicate)
		}
		return fmt.Errorf("cannot create location: %w", err)
	}
	return nil
}

func (r *LocationRepo) Get(ctx context.Context, id uint) (*pantry.Location, error) {
	var l pantry.Location
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, fmt.Errorf("cannot get location: %w", mapNotFound(err))
	}
	return &l, nil
}

func (r *LocationRepo) ListByEstablishment(ctx context.Context, establishmentID uint) ([]*pantry.Location, error) {
	var result []*pantry.Location
	err := r.db.WithContext(ctx).
		Where("establishment_id = ?", establishmentID).
		Order("name").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("cannot list locations: %w", err)
	}
	return result, nil
}

func (r *LocationRepo) Save(ctx context.Context, l *pantry.Location) error {
	if l == nil {
		return fmt.Errorf("location is nil")
	}
	result := r.db.WithContext(ctx).Model(&pantry.Location{}).
		Where("id = ?", l.ID).
		Update("name", l.Name)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("cannot update location %q: %w", l.Name, pantry.ErrDuplicate)
		}
		return fmt.Errorf("cannot update location: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cannot update location: %w", pantry.ErrNotFound)
	}
	return nil
}

// Delete refuses with ErrInUse while any product is kept at the location.
func (r *LocationRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&pantry.Product{}).Where("location_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("cannot check location usage: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("cannot delete location %d: %w", id, pantry.ErrInUse)
		}

		if err := tx.Where("location_id = ?", id).Delete(&pantry.Assignment{}).Error; err != nil {
			return fmt.Errorf("cannot clear location assignments: %w", err)
		}

		result := tx.Delete(&pantry.Location{}, id)
		if result.Error != nil {
			return fmt.Errorf("cannot delete location: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("cannot delete location: %w", pantry.ErrNotFound)
		}
		return nil
	})
}

type MeasurementRepo struct {
	db *gorm.DB
}

func NewMeasurementRepo(db *gorm.DB) *MeasurementRepo {
	return &MeasurementRepo{db: db}
}

func (r *MeasurementRepo) Get(ctx context.Context, id uint) (*pantry.Measurement, error) {
	var m pantry.Measurement
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, fmt.Errorf("cannot get measurement: %w", mapNotFound(err))
	}
	return &m, nil
}

func (r *MeasurementRepo) GetByName(ctx context.Context, name string) (*pantry.Measurement, error) {
	var m pantry.Measurement
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return nil, fmt.Errorf("cannot get measurement by name: %w", mapNotFound(err))
	}
	return &m, nil
}

func (r *MeasurementRepo) List(ctx context.Context) ([]*pantry.Measurement, error) {
	var result []*pantry.Measurement
	if err := r.db.WithContext(ctx).Order("id").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("cannot list measurements: %w", err)
	}
	return result, nil
}

type SupplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) *SupplierRepo {
	return &SupplierRepo{db: db}
}

func (r *SupplierRepo) Create(ctx context.Context, s *pantry.Supplier) error {
	if s == nil {
		return fmt.Errorf("supplier is nil")
	}
	if err := r.db.WithContext(ctx).Omit("Products").Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cannot create supplier %q: %w", s.Name, pantry.ErrDuplicate)
		}
		return fmt.Errorf("cannot create supplier: %w", err)
	}
	return nil
}

func (r *SupplierRepo) Get(ctx context.Context, id uint) (*pantry.Supplier, error) {
	var s pantry.Supplier
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.name") }).
		Preload("Products.Measurement").
		First(&s, id).Error
	if err != nil {
		return nil, fmt.Errorf("cannot get supplier: %w", mapNotFound(err))
	}
	return &s, nil
}

func (r *SupplierRepo) List(ctx context.Context) ([]*pantry.Supplier, error) {
	var result []*pantry.Supplier
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.name") }).
		Preload("Products.Measurement").
		Order("name").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("cannot list suppliers: %w", err)
	}
	return result, nil
}

// Save renames the supplier and swaps its whole product association set in
// one transaction, so a rejected product list leaves the old name in place.
// Unknown product ids fail with ErrInvalid.
func (r *SupplierRepo) Save(ctx context.Context, s *pantry.Supplier, productIDs []uint) error {
	if s == nil {
		return fmt.Errorf("supplier is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&pantry.Supplier{}).
			Where("id = ?", s.ID).
			Update("name", s.Name)
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				return fmt.Errorf("cannot update supplier %q: %w", s.Name, pantry.ErrDuplicate)
			}
			return fmt.Errorf("cannot update supplier: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("cannot update supplier: %w", pantry.ErrNotFound)
		}
		return replaceSupplierProducts(tx, s.ID, productIDs)
	})
}

// Delete refuses with ErrInUse while any product names the supplier, either
// as its primary supplier or through the supplier/product association.
func (r *SupplierRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var direct int64
		if err := tx.Model(&pantry.Product{}).Where("supplier_id = ?", id).Count(&direct).Error; err != nil {
			return fmt.Errorf("cannot check supplier usage: %w", err)
		}
		var linked int64
		if err := tx.Table("supplier_products").Where("supplier_id = ?", id).Count(&linked).Error; err != nil {
			return fmt.Errorf("cannot check supplier links: %w", err)
		}
		if direct+linked > 0 {
			return fmt.Errorf("cannot delete supplier %d: %w", id, pantry.ErrInUse)
		}

		result := tx.Delete(&pantry.Supplier{}, id)
		if result.Error != nil {
			return fmt.Errorf("cannot delete supplier: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("cannot delete supplier: %w", pantry.ErrNotFound)
		}
		return nil
	})
}

func replaceSupplierProducts(tx *gorm.DB, id uint, productIDs []uint) error {
	supplier := pantry.Supplier{ID: id}

	unique := make(map[uint]bool, len(productIDs))
	for _, pid := range productIDs {
		unique[pid] = true
	}

	var products []pantry.Product
	if len(unique) > 0 {
		if err := tx.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return fmt.Errorf("cannot load products: %w", err)
		}
		if len(products) != len(unique) {
			return fmt.Errorf("cannot link supplier %d to unknown products: %w", id, pantry.ErrInvalid)
		}
	}

	if err := tx.Model(&supplier).Association("Products").Replace(products); err != nil {
		return fmt.Errorf("cannot replace supplier products: %w", err)
	}
	return nil
}

func (r *SupplierRepo) AddProduct(ctx context.Context, id, productID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier pantry.Supplier
		if err := tx.First(&supplier, id).Error; err != nil {
			return fmt.Errorf("cannot get supplier: %w", mapNotFound(err))
		}
		var product pantry.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return fmt.Errorf("cannot get product: %w", mapNotFound(err))
		}
		if err := tx.Model(&supplier).Association("Products").Append(&product); err != nil {
			return fmt.Errorf("cannot link product: %w", err)
		}
		return nil
	})
}

func (r *SupplierRepo) RemoveProduct(ctx context.Context, id, productID uint) error {
	result := r.db.WithContext(ctx).
		Exec("DELETE FROM supplier_products WHERE supplier_id = ? AND product_id = ?", id, productID)
	if result.Error != nil {
		return fmt.Errorf("cannot unlink product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cannot unlink product: %w", pantry.ErrNotFound)
	}
	return nil
}
