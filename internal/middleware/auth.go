package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/logger"
	"storefront/internal/models"
)

// AuthGuard verifies the bearer token and, when roles are given, requires
// the caller to hold one of them. The verified Identity is stored on the context.
func AuthGuard(verifier TokenVerifier, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.For("AUTH").WithField("path", c.FullPath())

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			log.Warn("invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			log.WithError(err).Warn("token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if identity.Role == r {
					match = true
					break
				}
			}
			if !match {
				log.WithField("userId", identity.UserID).Warn("role not allowed")
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func AdminAuth(verifier TokenVerifier) gin.HandlerFunc {
	return AuthGuard(verifier, models.RoleAdmin)
}
