package pantry

import (
	"strings"
	"time"

	"github.com/appetiteclub/pantry/pkg/enums/role"
)

// Establishment is a restaurant, the tenant boundary for users, locations
// and products.
type Establishment struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:80;not null"`
}

// User is an account bound to exactly one establishment.
type User struct {
	ID              uint      `gorm:"primaryKey"`
	Username        string    `gorm:"size:25;uniqueIndex;not null"`
	PasswordHash    string    `gorm:"size:128;not null"`
	Role            role.Role `gorm:"type:varchar(20);not null"`
	EstablishmentID uint      `gorm:"index;not null"`
	Establishment   *Establishment
	CreatedAt       time.Time
}

// Normalize trims the username and stamps the creation time.
func (u *User) Normalize() {
	u.Username = normalizeName(u.Username)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
}

// Location is a storage place (fridge, dry store, bar) inside an establishment.
type Location struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:80;not null;uniqueIndex:idx_location_establishment_name"`
	EstablishmentID uint   `gorm:"not null;uniqueIndex:idx_location_establishment_name"`
	Products        []Product
}

// Measurement is a unit of quantity.
type Measurement struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:20;uniqueIndex;not null"`
}

// Supplier is shared by every establishment.
type Supplier struct {
	ID       uint      `gorm:"primaryKey"`
	Name     string    `gorm:"size:80;uniqueIndex;not null"`
	Products []Product `gorm:"many2many:supplier_products"`
}

// Product is a stock item kept at one location of one establishment.
type Product struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:80;not null"`
	LocationID      uint   `gorm:"index;not null"`
	Location        *Location
	MeasurementID   uint `gorm:"not null"`
	Measurement     *Measurement
	SupplierID      *uint `gorm:"index"`
	Supplier        *Supplier
	EstablishmentID uint `gorm:"index;not null"`
}

// LocationName returns the preloaded location name or an empty string.
func (p Product) LocationName() string {
	if p.Location == nil {
		return ""
	}
	return p.Location.Name
}

// MeasurementName returns the preloaded measurement name or an empty string.
func (p Product) MeasurementName() string {
	if p.Measurement == nil {
		return ""
	}
	return p.Measurement.Name
}

// Dish is a recipe: preparation steps plus ordered ingredient lines.
type Dish struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:120;not null"`
	ImagePath        string `gorm:"size:255"`
	VideoPath        string `gorm:"size:255"`
	PreparationSteps string `gorm:"type:text"`
	Ingredients      []DishProduct
	CreatedAt        time.Time
}

// DishProduct is one ingredient line of a dish.
type DishProduct struct {
	ID        uint `gorm:"primaryKey"`
	DishID    uint `gorm:"index;not null"`
	ProductID uint `gorm:"not null"`
	Product   *Product
	Quantity  float64 `gorm:"not null"`
}

// Assignment grants a user inventory-taking responsibility for a location.
type Assignment struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint `gorm:"index;not null"`
	LocationID uint `gorm:"not null"`
	Location   *Location
}

func (Assignment) TableName() string {
	return "user_product_locations"
}

func normalizeName(value string) string {
	return strings.TrimSpace(value)
}
