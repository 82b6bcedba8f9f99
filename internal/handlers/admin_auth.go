package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
)

// AdminLogin is Login restricted to admin accounts. A customer's valid
// credentials are reported as invalid here.
func AdminLogin(users UserStore, issuer TokenIssuer, accessTTL time.Duration) gin.HandlerFunc {
	return loginHandler("POST /admin/login", users, issuer, accessTTL, models.RoleAdmin)
}
