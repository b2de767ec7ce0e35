package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/appetiteclub/pantry/internal/pantry"
)

type DishRepo struct {
	db *gorm.DB
}

func NewDishRepo(db *gorm.DB) *DishRepo {
	return &DishRepo{db: db}
}

// Create writes the dish and its ingredient lines in one transaction.
func (r *DishRepo) Create(ctx context.Context, d *pantry.Dish) error {
	if d == nil {
		return fmt.Errorf("dish is nil")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	ingredients := d.Ingredients

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Ingredients").Create(d).Error; err != nil {
			return fmt.Errorf("cannot create dish: %w", err)
		}
		if err := insertIngredients(tx, d.ID, ingredients); err != nil {
			return err
		}
		d.Ingredients = ingredients
		return nil
	})
}

func (r *DishRepo) Get(ctx context.Context, id uint) (*pantry.Dish, error) {
	var d pantry.Dish
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("dish_products.id") }).
		Preload("Ingredients.Product").
		Preload("Ingredients.Product.Measurement").
		First(&d, id).Error
	if err != nil {
		return nil, fmt.Errorf("cannot get dish: %w", mapNotFound(err))
	}
	return &d, nil
}

func (r *DishRepo) List(ctx context.Context) ([]*pantry.Dish, error) {
	var result []*pantry.Dish
	if err := r.db.WithContext(ctx).Order("name").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("cannot list dishes: %w", err)
	}
	return result, nil
}

// Save updates the dish columns and replaces the ingredient lines.
func (r *DishRepo) Save(ctx context.Context, d *pantry.Dish) error {
	if d == nil {
		return fmt.Errorf("dish is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&pantry.Dish{}).
			Where("id = ?", d.ID).
			Select("name", "image_path", "video_path", "preparation_steps").
			Updates(map[string]interface{}{
				"name":              d.Name,
				"image_path":        d.ImagePath,
				"video_path":        d.VideoPath,
				"preparation_steps": d.PreparationSteps,
			})
		if result.Error != nil {
			return fmt.Errorf("cannot update dish: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("cannot update dish: %w", pantry.ErrNotFound)
		}

		if err := tx.Where("dish_id = ?", d.ID).Delete(&pantry.DishProduct{}).Error; err != nil {
			return fmt.Errorf("cannot clear ingredients: %w", err)
		}
		return insertIngredients(tx, d.ID, d.Ingredients)
	})
}

func (r *DishRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dish_id = ?", id).Delete(&pantry.DishProduct{}).Error; err != nil {
			return fmt.Errorf("cannot clear ingredients: %w", err)
		}
		result := tx.Delete(&pantry.Dish{}, id)
		if result.Error != nil {
			return fmt.Errorf("cannot delete dish: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("cannot delete dish: %w", pantry.ErrNotFound)
		}
		return nil
	})
}

func insertIngredients(tx *gorm.DB, dishID uint, ingredients []pantry.DishProduct) error {
	if len(ingredients) == 0 {
		return nil
	}
	rows := make([]pantry.DishProduct, 0, len(ingredients))
	for _, in := range ingredients {
		rows = append(rows, pantry.DishProduct{
			DishID:    dishID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
		})
	}
	if err := tx.Omit("Product").Create(&rows).Error; err != nil {
		return fmt.Errorf("cannot create ingredients: %w", err)
	}
	for i := range ingredients {
		ingredients[i].ID = rows[i].ID
		ingredients[i].DishID = dishID
	}
	return nil
}
