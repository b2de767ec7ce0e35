package event

import "time"

const (
	// ExportsTopic carries notifications about generated documents.
	ExportsTopic = "pantry.exports"
	// UsersTopic carries notifications about user role and assignment changes.
	UsersTopic = "pantry.users"

	EventInventoryExported   = "inventory.exported"
	EventOrderExported       = "order.exported"
	EventRecipeRendered      = "recipe.rendered"
	EventUserRoleChanged     = "user.role.changed"
	EventAssignmentsReplaced = "user.assignments.replaced"
)

// ExportEvent is published whenever a spreadsheet or recipe sheet is produced.
type ExportEvent struct {
	EventType       string    `json:"event_type"`
	OccurredAt      time.Time `json:"occurred_at"`
	FileName        string    `json:"file_name"`
	Rows            int       `json:"rows"`
	UserID          uint      `json:"user_id"`
	EstablishmentID uint      `json:"establishment_id"`
	SupplierID      uint      `json:"supplier_id,omitempty"`
	DishID          uint      `json:"dish_id,omitempty"`
}

// UserEvent is published when an admin changes a user's role or assignments.
type UserEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	UserID      uint      `json:"user_id"`
	ActorID     uint      `json:"actor_id"`
	Role        string    `json:"role,omitempty"`
	LocationIDs []uint    `json:"location_ids,omitempty"`
}
