package pantry

import (
	"context"

	"github.com/appetiteclub/pantry/pkg/enums/role"
)

type contextKey string

const (
	contextKeyViewer  contextKey = "viewer"
	contextKeySession contextKey = "session"
)

// Viewer is the signed-in user as seen by handlers and templates.
type Viewer struct {
	UserID            uint
	Username          string
	DisplayName       string
	Role              role.Role
	RoleLabel         string
	EstablishmentID   uint
	EstablishmentName string
}

// NewViewer builds the viewer for a user with its establishment preloaded.
func NewViewer(u *User) *Viewer {
	v := &Viewer{
		UserID:          u.ID,
		Username:        u.Username,
		DisplayName:     u.Username,
		Role:            u.Role,
		RoleLabel:       u.Role.Label(),
		EstablishmentID: u.EstablishmentID,
	}
	if u.Establishment != nil {
		v.EstablishmentName = u.Establishment.Name
	}
	return v
}

func (v *Viewer) Can(c role.Capability) bool {
	if v == nil {
		return false
	}
	return v.Role.Can(c)
}

func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role.IsAdmin()
}

func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, contextKeyViewer, v)
}

func ViewerFrom(ctx context.Context) *Viewer {
	if v, ok := ctx.Value(contextKeyViewer).(*Viewer); ok {
		return v
	}
	return nil
}
