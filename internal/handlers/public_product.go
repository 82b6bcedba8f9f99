package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/reviews"
)

/*
GET /products
- page + limit are optional; without them every product is returned
*/
func GetProducts(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		filter := database.ProductFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Search:   strings.TrimSpace(c.Query("search")),
		}

		pageStr := c.Query("page")
		limitStr := c.Query("limit")
		if pageStr != "" || limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			filter.Skip = (page - 1) * limit
			filter.Limit = limit
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := products.List(ctx, filter)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		logger.For("PRODUCT").WithField("count", len(list)).Debug("products listed")
		c.JSON(http.StatusOK, list)
	}
}

type bestSellerResponse struct {
	models.Product
	UnitsSold int `json:"unitsSold"`
}

// GetBestSellers returns the top selling products, hydrated in rank order.
// Ranked products that no longer exist are skipped.
func GetBestSellers(source StatsSource, products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/best-sellers"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		ranked := source.BestSellers(ctx)
		ids := make([]primitive.ObjectID, 0, len(ranked))
		for _, r := range ranked {
			ids = append(ids, r.ProductID)
		}

		found, err := products.FindByIDs(ctx, ids)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		byID := make(map[primitive.ObjectID]models.Product, len(found))
		for _, p := range found {
			byID[p.ID] = p
		}

		out := make([]bestSellerResponse, 0, len(ranked))
		for _, r := range ranked {
			if p, ok := byID[r.ProductID]; ok {
				out = append(out, bestSellerResponse{Product: p, UnitsSold: r.UnitsSold})
			}
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}

func GetProductReviews(store ReviewStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id/reviews"
		defer handlePanic(c, route)

		productID, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := store.ListByProduct(ctx, productID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":    list,
			"summary": reviews.Summarize(list),
		})
	}
}
