package pantry

import (
	"context"
	"html/template"
	"sync"

	"github.com/appetiteclub/pantry/pkg/enums/role"
)

// fakeTemplates renders every page as a single line exposing the page name
// and its messages, so tests can assert on what was rendered.
type fakeTemplates struct{}

const fakePage = `template={{.Template}} error={{.Error}} success={{.Success}}`

func (fakeTemplates) Get(name string) (*template.Template, error) {
	return template.New(name).Parse(fakePage)
}

type MockEstablishmentRepo struct {
	GetFunc  func(ctx context.Context, id uint) (*Establishment, error)
	ListFunc func(ctx context.Context) ([]*Establishment, error)
}

func (m *MockEstablishmentRepo) Get(ctx context.Context, id uint) (*Establishment, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &Establishment{ID: id, Name: "Ленина"}, nil
}

func (m *MockEstablishmentRepo) List(ctx context.Context) ([]*Establishment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*Establishment{{ID: 1, Name: "Лукашевича"}, {ID: 2, Name: "Ленина"}}, nil
}

type MockUserRepo struct {
	CreateFunc        func(ctx context.Context, user *User) error
	GetFunc           func(ctx context.Context, id uint) (*User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*User, error)
	ListFunc          func(ctx context.Context) ([]*User, error)
	SetRoleFunc       func(ctx context.Context, id uint, r role.Role) error
}

func (m *MockUserRepo) Create(ctx context.Context, user *User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *MockUserRepo) Get(ctx context.Context, id uint) (*User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, ErrNotFound
}

func (m *MockUserRepo) List(ctx context.Context) ([]*User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockUserRepo) SetRole(ctx context.Context, id uint, r role.Role) error {
	if m.SetRoleFunc != nil {
		return m.SetRoleFunc(ctx, id, r)
	}
	return nil
}

type MockLocationRepo struct {
	CreateFunc              func(ctx context.Context, location *Location) error
	GetFunc                 func(ctx context.Context, id uint) (*Location, error)
	ListByEstablishmentFunc func(ctx context.Context, establishmentID uint) ([]*Location, error)
	SaveFunc                func(ctx context.Context, location *Location) error
	DeleteFunc              func(ctx context.Context, id uint) error
}

func (m *MockLocationRepo) Create(ctx context.Context, location *Location) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, location)
	}
	return nil
}

func (m *MockLocationRepo) Get(ctx context.Context, id uint) (*Location, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockLocationRepo) ListByEstablishment(ctx context.Context, establishmentID uint) ([]*Location, error) {
	if m.ListByEstablishmentFunc != nil {
		return m.ListByEstablishmentFunc(ctx, establishmentID)
	}
	return nil, nil
}

func (m *MockLocationRepo) Save(ctx context.Context, location *Location) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, location)
	}
	return nil
}

func (m *MockLocationRepo) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type MockMeasurementRepo struct {
	ListFunc func(ctx context.Context) ([]*Measurement, error)
}

func (m *MockMeasurementRepo) Get(ctx context.Context, id uint) (*Measurement, error) {
	return &Measurement{ID: id, Name: "kg"}, nil
}

func (m *MockMeasurementRepo) GetByName(ctx context.Context, name string) (*Measurement, error) {
	return &Measurement{ID: 1, Name: name}, nil
}

func (m *MockMeasurementRepo) List(ctx context.Context) ([]*Measurement, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*Measurement{{ID: 1, Name: "pcs"}, {ID: 2, Name: "l"}, {ID: 3, Name: "kg"}}, nil
}

type MockSupplierRepo struct {
	CreateFunc        func(ctx context.Context, supplier *Supplier) error
	GetFunc           func(ctx context.Context, id uint) (*Supplier, error)
	ListFunc          func(ctx context.Context) ([]*Supplier, error)
	SaveFunc          func(ctx context.Context, supplier *Supplier, productIDs []uint) error
	DeleteFunc        func(ctx context.Context, id uint) error
	AddProductFunc    func(ctx context.Context, id, productID uint) error
	RemoveProductFunc func(ctx context.Context, id, productID uint) error
}

func (m *MockSupplierRepo) Create(ctx context.Context, supplier *Supplier) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, supplier)
	}
	return nil
}

func (m *MockSupplierRepo) Get(ctx context.Context, id uint) (*Supplier, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockSupplierRepo) List(ctx context.Context) ([]*Supplier, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockSupplierRepo) Save(ctx context.Context, supplier *Supplier, productIDs []uint) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, supplier, productIDs)
	}
	return nil
}

func (m *MockSupplierRepo) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockSupplierRepo) AddProduct(ctx context.Context, id, productID uint) error {
	if m.AddProductFunc != nil {
		return m.AddProductFunc(ctx, id, productID)
	}
	return nil
}

func (m *MockSupplierRepo) RemoveProduct(ctx context.Context, id, productID uint) error {
	if m.RemoveProductFunc != nil {
		return m.RemoveProductFunc(ctx, id, productID)
	}
	return nil
}

type MockProductRepo struct {
	CreateFunc              func(ctx context.Context, product *Product) error
	GetFunc                 func(ctx context.Context, id uint) (*Product, error)
	ListByEstablishmentFunc func(ctx context.Context, establishmentID uint) ([]*Product, error)
	ListByLocationsFunc     func(ctx context.Context, locationIDs []uint) ([]*Product, error)
	SaveFunc                func(ctx context.Context, product *Product) error
	DeleteFunc              func(ctx context.Context, id uint) error
}

func (m *MockProductRepo) Create(ctx context.Context, product *Product) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, product)
	}
	return nil
}

func (m *MockProductRepo) Get(ctx context.Context, id uint) (*Product, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockProductRepo) ListByEstablishment(ctx context.Context, establishmentID uint) ([]*Product, error) {
	if m.ListByEstablishmentFunc != nil {
		return m.ListByEstablishmentFunc(ctx, establishmentID)
	}
	return nil, nil
}

func (m *MockProductRepo) ListByLocations(ctx context.Context, locationIDs []uint) ([]*Product, error) {
	if m.ListByLocationsFunc != nil {
		return m.ListByLocationsFunc(ctx, locationIDs)
	}
	return nil, nil
}

func (m *MockProductRepo) FindInLocation(ctx context.Context, name string, locationID, establishmentID uint) (*Product, error) {
	return nil, ErrNotFound
}

func (m *MockProductRepo) Save(ctx context.Context, product *Product) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, product)
	}
	return nil
}

func (m *MockProductRepo) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type MockDishRepo struct {
	CreateFunc func(ctx context.Context, dish *Dish) error
	GetFunc    func(ctx context.Context, id uint) (*Dish, error)
	ListFunc   func(ctx context.Context) ([]*Dish, error)
	SaveFunc   func(ctx context.Context, dish *Dish) error
	DeleteFunc func(ctx context.Context, id uint) error
}

func (m *MockDishRepo) Create(ctx context.Context, dish *Dish) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, dish)
	}
	dish.ID = 1
	return nil
}

func (m *MockDishRepo) Get(ctx context.Context, id uint) (*Dish, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockDishRepo) List(ctx context.Context) ([]*Dish, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockDishRepo) Save(ctx context.Context, dish *Dish) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, dish)
	}
	return nil
}

func (m *MockDishRepo) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type MockAssignmentRepo struct {
	ListByUserFunc func(ctx context.Context, userID uint) ([]*Assignment, error)
	ReplaceFunc    func(ctx context.Context, userID uint, locationIDs []uint) error
}

func (m *MockAssignmentRepo) ListByUser(ctx context.Context, userID uint) ([]*Assignment, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAssignmentRepo) Replace(ctx context.Context, userID uint, locationIDs []uint) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, userID, locationIDs)
	}
	return nil
}

// MockPublisher records every published message.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []PublishedMessage
	Err      error
}

type PublishedMessage struct {
	Topic   string
	Payload []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, PublishedMessage{Topic: topic, Payload: payload})
	return m.Err
}

func (m *MockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}

func newMockRepos() Repos {
	return Repos{
		EstablishmentRepo: &MockEstablishmentRepo{},
		UserRepo:          &MockUserRepo{},
		LocationRepo:      &MockLocationRepo{},
		MeasurementRepo:   &MockMeasurementRepo{},
		SupplierRepo:      &MockSupplierRepo{},
		ProductRepo:       &MockProductRepo{},
		DishRepo:          &MockDishRepo{},
		AssignmentRepo:    &MockAssignmentRepo{},
	}
}
