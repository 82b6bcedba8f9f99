package middleware

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/models"
)

const identityKey = "identity"

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// UserAuth admits any signed-in caller, customer or admin.
func UserAuth(verifier TokenVerifier) gin.HandlerFunc {
	return AuthGuard(verifier, models.RoleUser, models.RoleAdmin)
}

// CurrentIdentity returns the identity AuthGuard stored on c.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// WithIdentity stores identity on c. Tests use it to skip token verification.
func WithIdentity(c *gin.Context, identity Identity) {
	c.Set(identityKey, identity)
}
