package handlers

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/models"
)

type createProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	SaleEnabled bool     `json:"saleEnabled"`
	SalePrice   *float64 `json:"salePrice"`
	Category    string   `json:"category" binding:"required"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Stock       *int     `json:"stock" binding:"required,min=0"`
}

type updateProductRequest struct {
	Name        *string   `json:"name"`
	Price       *float64  `json:"price"`
	SaleEnabled *bool     `json:"saleEnabled"`
	SalePrice   *float64  `json:"salePrice"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"imageUrl"`
	Sizes       *[]string `json:"sizes"`
	Colors      *[]string `json:"colors"`
	Stock       *int      `json:"stock"`
}

// normalizeOptions trims the size or color choices and drops blanks and
// repeats, keeping the first occurrence order.
func normalizeOptions(values []string) models.StringList {
	seen := map[string]struct{}{}
	out := make(models.StringList, 0, len(values))
	for _, v := range values {
		name := strings.TrimSpace(v)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func sanitizeLogValue(value string, max int) string {
	trimmed := strings.TrimSpace(value)
	if max <= 0 {
		max = 80
	}
	if len(trimmed) <= max {
		return trimmed
	}
	return trimmed[:max] + "..."
}

/*
GET /admin/api/products
- same filters as the public listing, always paginated
*/
func GetAllProducts(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := database.ProductFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Search:   strings.TrimSpace(c.Query("search")),
			Skip:     (page - 1) * limit,
			Limit:    limit,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		total, err := products.Count(ctx, filter)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		list, err := products.List(ctx, filter)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		totalPages := int64(0)
		if total > 0 {
			totalPages = int64(math.Ceil(float64(total) / float64(limit)))
		}

		c.JSON(http.StatusOK, gin.H{
			"data": list,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages,
			},
		})
	}
}

func CreateProduct(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}
		category := strings.TrimSpace(req.Category)
		if category == "" {
			respondWithError(c, http.StatusBadRequest, route, "category required")
			return
		}

		salePrice := 0.0
		if req.SalePrice != nil {
			salePrice = *req.SalePrice
		}
		if err := validateSaleFields(req.Price, req.SaleEnabled, salePrice, req.SalePrice != nil); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if !req.SaleEnabled {
			salePrice = 0
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		created, err := products.Create(ctx, models.Product{
			Name:        name,
			Price:       req.Price,
			SaleEnabled: req.SaleEnabled,
			SalePrice:   salePrice,
			Category:    category,
			Description: strings.TrimSpace(req.Description),
			ImageURL:    strings.TrimSpace(req.ImageURL),
			Sizes:       normalizeOptions(req.Sizes),
			Colors:      normalizeOptions(req.Colors),
			Stock:       *req.Stock,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		logger.For("PRODUCT").WithField("productId", created.ID.Hex()).
			WithField("name", sanitizeLogValue(name, 80)).
			Info("product created")
		c.JSON(http.StatusCreated, created)
	}
}

func UpdateProduct(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		set := bson.M{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required")
				return
			}
			set["name"] = name
		}
		if req.Price != nil && *req.Price <= 0 {
			respondWithError(c, http.StatusBadRequest, route, "invalid price")
			return
		}
		if req.Category != nil {
			category := strings.TrimSpace(*req.Category)
			if category == "" {
				respondWithError(c, http.StatusBadRequest, route, "category required")
				return
			}
			set["category"] = category
		}
		if req.Description != nil {
			set["description"] = strings.TrimSpace(*req.Description)
		}
		if req.ImageURL != nil {
			set["imageUrl"] = strings.TrimSpace(*req.ImageURL)
		}
		if req.Sizes != nil {
			set["sizes"] = normalizeOptions(*req.Sizes)
		}
		if req.Colors != nil {
			set["colors"] = normalizeOptions(*req.Colors)
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				respondWithError(c, http.StatusBadRequest, route, "stock must be zero or greater")
				return
			}
			set["stock"] = *req.Stock
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if req.Price != nil || req.SaleEnabled != nil || req.SalePrice != nil {
			existing, err := products.FindByID(ctx, id)
			if err != nil {
				respondDomainError(c, route, err)
				return
			}

			sale, err := resolveSaleUpdate(
				saleUpdateResult{Price: existing.Price, SaleEnabled: existing.SaleEnabled, SalePrice: existing.SalePrice},
				saleUpdateInput{Price: req.Price, SaleEnabled: req.SaleEnabled, SalePrice: req.SalePrice},
			)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			if req.Price != nil {
				set["price"] = sale.Price
			}
			if sale.SetSaleEnabled {
				set["saleEnabled"] = sale.SaleEnabled
			}
			if sale.SetSalePrice {
				set["salePrice"] = sale.SalePrice
			}
		}

		if len(set) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		updated, err := products.Update(ctx, id, set)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		logger.For("PRODUCT").WithField("productId", id.Hex()).WithField("fields", len(set)).Info("product updated")
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteProduct soft-deletes, so order history and reviews keep resolving.
func DeleteProduct(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
		defer handlePanic(c, route)

		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := products.SoftDelete(ctx, id); err != nil {
			respondDomainError(c, route, err)
			return
		}

		logger.For("PRODUCT").WithField("productId", id.Hex()).Info("product deleted")
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
