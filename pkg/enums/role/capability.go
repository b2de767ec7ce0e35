package role

// Capability names an action a role may perform.
type Capability string

const (
	ManageUsers     Capability = "manage-users"
	AssignInventory Capability = "assign-inventory"
	ManageCatalog   Capability = "manage-catalog"
	TakeInventory   Capability = "take-inventory"
	PlaceOrders     Capability = "place-orders"
	ManageRecipes   Capability = "manage-recipes"
)

var kitchenCapabilities = []Capability{
	ManageCatalog,
	TakeInventory,
	PlaceOrders,
	ManageRecipes,
}

var capabilities = map[string][]Capability{
	Roles.Admin.Name: {
		ManageUsers,
		AssignInventory,
		ManageCatalog,
		TakeInventory,
		PlaceOrders,
		ManageRecipes,
	},
	Roles.CookLB.Name:   kitchenCapabilities,
	Roles.PizzaLB.Name:  kitchenCapabilities,
	Roles.SushiLB.Name:  kitchenCapabilities,
	Roles.SeniorLB.Name: kitchenCapabilities,
	Roles.CookPB.Name:   kitchenCapabilities,
	Roles.SushiPB.Name:  kitchenCapabilities,
	Roles.SeniorPB.Name: kitchenCapabilities,
	Roles.PizzaPB.Name:  kitchenCapabilities,
}
