package auth

import (
	"context"
	"time"

	"github.com/judyrop/crm/models"
)

const (
	SourceSession = "session"
	SourceOIDC    = "oidc"
)

// Identity is the authenticated caller of one request.
type Identity struct {
	UserID    uint
	Username  string
	Role      models.Role
	Source    string
	TokenID   string
	ExpiresAt time.Time
}

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == models.RoleAdmin }

// HasRole reports whether the identity holds one of roles.
func (i *Identity) HasRole(roles ...models.Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the authentication middleware.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}
