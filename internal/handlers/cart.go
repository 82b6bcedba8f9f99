package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/orderflow"
)

type addToCartRequest struct {
	ProductID     string `json:"productId" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
	SelectedSize  string `json:"selectedSize"`
	SelectedColor string `json:"selectedColor"`
}

type cartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// cartTotal sums price times quantity over the lines.
func cartTotal(items []models.CartItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}

func hasOption(options models.StringList, chosen string) bool {
	if len(options) == 0 {
		return chosen == ""
	}
	for _, o := range options {
		if o == chosen {
			return true
		}
	}
	return false
}

func GetCart(carts CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := carts.List(ctx, identity.UserID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		total := cartTotal(items)
		c.JSON(http.StatusOK, gin.H{
			"data":      items,
			"total":     total,
			"totalText": orderflow.FormatVND(total),
		})
	}
}

// AddToCart adds a product line, merging with an existing line for the same
// size and color.
func AddToCart(carts CartStore, products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}
		size := strings.TrimSpace(req.SelectedSize)
		color := strings.TrimSpace(req.SelectedColor)

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := products.FindByID(ctx, productID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		if !hasOption(product.Sizes, size) {
			respondWithError(c, http.StatusBadRequest, route, "invalid selectedSize")
			return
		}
		if !hasOption(product.Colors, color) {
			respondWithError(c, http.StatusBadRequest, route, "invalid selectedColor")
			return
		}
		if req.Quantity > product.Stock {
			respondDomainError(c, route, database.OutOfStockError{
				ProductID: productID,
				Available: product.Stock,
				Requested: req.Quantity,
			})
			return
		}

		item, err := carts.Add(ctx, models.CartItem{
			UserID:          identity.UserID,
			ProductID:       productID,
			ProductName:     product.Name,
			ProductImageURL: product.ImageURL,
			Price:           product.EffectivePrice(),
			Quantity:        req.Quantity,
			SelectedSize:    size,
			SelectedColor:   color,
		})
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		logger.For("CART").WithField("userId", identity.UserID).WithField("productId", productID.Hex()).Info("cart line added")
		c.JSON(http.StatusOK, gin.H{"item": item})
	}
}

// UpdateCartItem sets a line's quantity. Zero or less removes the line.
func UpdateCartItem(carts CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/:id"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		var req cartQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if *req.Quantity <= 0 {
			if err := carts.Remove(ctx, identity.UserID, id); err != nil {
				respondDomainError(c, route, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "item removed"})
			return
		}

		item, err := carts.SetQuantity(ctx, identity.UserID, id, *req.Quantity)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item})
	}
}

func DeleteCartItem(carts CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/:id"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := carts.Remove(ctx, identity.UserID, id); err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "item removed"})
	}
}

// ClearCart empties the caller's cart, typically right after checkout.
func ClearCart(carts CartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		removed, err := carts.Clear(ctx, identity.UserID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}
