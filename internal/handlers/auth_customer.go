package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

// TokenIssuer signs access tokens for users that signed in with a password.
type TokenIssuer interface {
	Issue(user models.User, ttl time.Duration) (string, error)
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func authResponse(token string, user models.User) gin.H {
	return gin.H{
		"accessToken": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	}
}

func Register(users UserStore, issuer TokenIssuer, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" || strings.TrimSpace(req.Password) == "" {
			respondWithError(c, http.StatusBadRequest, route, "email, password and name are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		now := time.Now()
		user, err := users.Create(ctx, models.User{
			Email:        req.Email,
			PasswordHash: string(hash),
			Name:         name,
			Phone:        strings.TrimSpace(req.Phone),
			Role:         models.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if errors.Is(err, database.ErrDuplicate) {
			respondWithError(c, http.StatusConflict, route, "email already registered")
			return
		}
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		token, err := issuer.Issue(user, accessTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		logger.For("AUTH").WithField("userId", user.ID).Info("user registered")
		c.JSON(http.StatusCreated, authResponse(token, user))
	}
}

// Login signs in any role. Blocked users are refused.
func Login(users UserStore, issuer TokenIssuer, accessTTL time.Duration) gin.HandlerFunc {
	return loginHandler("POST /auth/login", users, issuer, accessTTL, "")
}

func loginHandler(route string, users UserStore, issuer TokenIssuer, accessTTL time.Duration, requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.FindByEmail(ctx, req.Email)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if requiredRole != "" && user.Role != requiredRole {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if user.IsBlocked {
			respondWithError(c, http.StatusForbidden, route, "user is blocked")
			return
		}

		token, err := issuer.Issue(user, accessTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		logger.For("AUTH").WithField("userId", user.ID).Info("login succeeded")
		c.JSON(http.StatusOK, authResponse(token, user))
	}
}

// SyncProfile makes sure a user signed in through the identity provider has
// a profile document, so admin listings can show their name. Blocked
// profiles are refused here, whatever token they present.
func SyncProfile(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "profile sync"

		identity, ok := middleware.CurrentIdentity(c)
		if !ok {
			c.Next()
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		err := users.EnsureProfile(ctx, models.User{
			ID:    identity.UserID,
			Email: identity.Email,
			Name:  identity.Name,
			Role:  identity.Role,
		})
		if err != nil {
			logger.For("AUTH").WithField("userId", identity.UserID).WithError(err).Warn("profile sync failed")
		}

		profile, err := users.FindByID(ctx, identity.UserID)
		switch {
		case errors.Is(err, database.ErrNotFound):
		case err != nil:
			respondDomainError(c, route, err)
			return
		case profile.IsBlocked:
			respondWithError(c, http.StatusForbidden, route, "user is blocked")
			return
		}
		c.Next()
	}
}
