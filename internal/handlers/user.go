package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/logger"
)

type updateMeRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type favoriteRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func GetMe(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.FindByID(ctx, identity.UserID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateMe edits the caller's own name and phone. Fields left out of the
// body keep their value.
func UpdateMe(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /auth/me"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		var req updateMeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		fields := bson.M{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			fields["name"] = name
		}
		if req.Phone != nil {
			fields["phone"] = strings.TrimSpace(*req.Phone)
		}
		if len(fields) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.UpdateProfile(ctx, identity.UserID, fields)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		logger.For("USER").WithField("userId", identity.UserID).Info("profile updated")
		c.JSON(http.StatusOK, user)
	}
}

func GetUserFavorites(users UserStore, products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /favorites"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.FindByID(ctx, identity.UserID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		favorites, err := products.FindByIDs(ctx, user.Favorites)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": favorites})
	}
}

func AddUserFavorite(users UserStore, products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /favorites"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		var req favoriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		updateFavorite(c, route, products, identity.UserID, productID, users.AddFavorite)
	}
}

func DeleteUserFavorite(users UserStore, products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /favorites/:productId"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		productID, ok := objectIDParam(c, route, "productId")
		if !ok {
			return
		}

		updateFavorite(c, route, products, identity.UserID, productID, users.RemoveFavorite)
	}
}

func updateFavorite(
	c *gin.Context,
	route string,
	products ProductStore,
	userID string,
	productID primitive.ObjectID,
	apply func(ctx context.Context, userID string, productID primitive.ObjectID) error,
) {
	ctx, cancel := requestContext(c)
	defer cancel()

	exists, err := products.Exists(ctx, productID)
	if err != nil {
		respondDomainError(c, route, err)
		return
	}
	if !exists {
		respondWithError(c, http.StatusBadRequest, route, "invalid productId")
		return
	}

	if err := apply(ctx, userID, productID); err != nil {
		respondDomainError(c, route, err)
		return
	}

	logger.For("FAVORITE").WithField("userId", userID).WithField("productId", productID.Hex()).Info("favorites updated")
	c.JSON(http.StatusOK, gin.H{"message": "favorite updated"})
}
