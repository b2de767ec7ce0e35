package pantry

import (
	"context"
	"errors"

	"github.com/appetiteclub/pantry/pkg/enums/role"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInUse     = errors.New("still referenced")
	ErrDuplicate = errors.New("already exists")
	ErrInvalid   = errors.New("invalid")
)

type EstablishmentRepo interface {
	Get(ctx context.Context, id uint) (*Establishment, error)
	List(ctx context.Context) ([]*Establishment, error)
}

type UserRepo interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, id uint) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	SetRole(ctx context.Context, id uint, r role.Role) error
}

type LocationRepo interface {
	Create(ctx context.Context, location *Location) error
	Get(ctx context.Context, id uint) (*Location, error)
	ListByEstablishment(ctx context.Context, establishmentID uint) ([]*Location, error)
	Save(ctx context.Context, location *Location) error
	Delete(ctx context.Context, id uint) error
}

type MeasurementRepo interface {
	Get(ctx context.Context, id uint) (*Measurement, error)
	GetByName(ctx context.Context, name string) (*Measurement, error)
	List(ctx context.Context) ([]*Measurement, error)
}

type SupplierRepo interface {
	Create(ctx context.Context, supplier *Supplier) error
	Get(ctx context.Context, id uint) (*Supplier, error)
	List(ctx context.Context) ([]*Supplier, error)
	// Save renames the supplier and replaces its product links atomically.
	Save(ctx context.Context, supplier *Supplier, productIDs []uint) error
	Delete(ctx context.Context, id uint) error
	AddProduct(ctx context.Context, id, productID uint) error
	RemoveProduct(ctx context.Context, id, productID uint) error
}

type ProductRepo interface {
	Create(ctx context.Context, product *Product) error
	Get(ctx context.Context, id uint) (*Product, error)
	ListByEstablishment(ctx context.Context, establishmentID uint) ([]*Product, error)
	ListByLocations(ctx context.Context, locationIDs []uint) ([]*Product, error)
	FindInLocation(ctx context.Context, name string, locationID, establishmentID uint) (*Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uint) error
}

type DishRepo interface {
	Create(ctx context.Context, dish *Dish) error
	Get(ctx context.Context, id uint) (*Dish, error)
	List(ctx context.Context) ([]*Dish, error)
	Save(ctx context.Context, dish *Dish) error
	Delete(ctx context.Context, id uint) error
}

type AssignmentRepo interface {
	ListByUser(ctx context.Context, userID uint) ([]*Assignment, error)
	Replace(ctx context.Context, userID uint, locationIDs []uint) error
}

// Repos groups every repository the handler needs.
type Repos struct {
	EstablishmentRepo EstablishmentRepo
	UserRepo          UserRepo
	LocationRepo      LocationRepo
	MeasurementRepo   MeasurementRepo
	SupplierRepo      SupplierRepo
	ProductRepo       ProductRepo
	DishRepo          DishRepo
	AssignmentRepo    AssignmentRepo
}
