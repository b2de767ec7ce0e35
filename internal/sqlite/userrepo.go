package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/appetiteclub/pantry/internal/pantry"
	"github.com/appetiteclub/pantry/pkg/enums/role"
)

type EstablishmentRepo struct {
	db *gorm.DB
}

func NewEstablishmentRepo(db *gorm.DB) *EstablishmentRepo {
	return &EstablishmentRepo{db: db}
}

func (r *EstablishmentRepo) Get(ctx context.Context, id uint) (*pantry.Establishment, error) {
	var e pantry.Establishment
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, fmt.Errorf("cannot get establishment: %w", mapNotFound(err))
	}
	return &e, nil
}

func (r *EstablishmentRepo) List(ctx context.Context) ([]*pantry.Establishment, error) {
	var result []*pantry.Establishment
	if err := r.db.WithContext(ctx).Order("id").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("cannot list establishments: %w", err)
	}
	return result, nil
}

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts the user inside a transaction so a username clash leaves
// the table untouched.
func (r *UserRepo) Create(ctx context.Context, u *pantry.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	u.Normalize()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&pantry.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("cannot check username: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("cannot create user %q: %w", u.Username, pantry.ErrDuplicate)
		}

		if err := tx.Omit("Establishment").Create(u).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("cannot create user %q: %w", u.Username, pantry.ErrDuplicate)
			}
			return fmt.Errorf("cannot create user: %w", err)
		}
		return nil
	})
}

func (r *UserRepo) Get(ctx context.Context, id uint) (*pantry.User, error) {
	var u pantry.User
	if err := r.db.WithContext(ctx).Preload("Establishment").First(&u, id).Error; err != nil {
		return nil, fmt.Errorf("cannot get user: %w", mapNotFound(err))
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*pantry.User, error) {
	var u pantry.User
	err := r.db.WithContext(ctx).Preload("Establishment").
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		return nil, fmt.Errorf("cannot get user by username: %w", mapNotFound(err))
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*pantry.User, error) {
	var result []*pantry.User
	if err := r.db.WithContext(ctx).Preload("Establishment").Order("id").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("cannot list users: %w", err)
	}
	return result, nil
}

func (r *UserRepo) SetRole(ctx context.Context, id uint, ro role.Role) error {
	result := r.db.WithContext(ctx).Model(&pantry.User{}).Where("id = ?", id).Update("role", ro)
	if result.Error != nil {
		return fmt.Errorf("cannot set role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cannot set role: %w", pantry.ErrNotFound)
	}
	return nil
}

type AssignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

func (r *AssignmentRepo) ListByUser(ctx context.Context, userID uint) ([]*pantry.Assignment, error) {
	var result []*pantry.Assignment
	err := r.db.WithContext(ctx).Preload("Location").
		Where("user_id = ?", userID).
		Order("id").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("cannot list assignments: %w", err)
	}
	return result, nil
}

// Replace deletes every assignment of the user and inserts the new set.
func (r *AssignmentRepo) Replace(ctx context.Context, userID uint, locationIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&pantry.Assignment{}).Error; err != nil {
			return fmt.Errorf("cannot clear assignments: %w", err)
		}

		seen := make(map[uint]bool, len(locationIDs))
		rows := make([]pantry.Assignment, 0, len(locationIDs))
		for _, id := range locationIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, pantry.Assignment{UserID: userID, LocationID: id})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Omit("Location").Create(&rows).Error; err != nil {
			return fmt.Errorf("cannot create assignments: %w", err)
		}
		return nil
	})
}
