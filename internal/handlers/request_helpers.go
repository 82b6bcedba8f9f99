package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/messaging"
	"storefront/internal/middleware"
	"storefront/internal/orderflow"
	"storefront/internal/reviews"
)

const requestTimeout = 5 * time.Second

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		logger.For("HTTP").WithField("route", route).Errorf("panic recovered: %v", r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	entry := logger.For("HTTP").WithFields(logrus.Fields{
		"route":     route,
		"status":    status,
		"requestId": middleware.GetRequestID(c),
	})
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Info(message)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "min", "gte", "gt":
				details = append(details, fmt.Sprintf("%s is too small", field))
			case "max", "lte", "lt":
				details = append(details, fmt.Sprintf("%s is too large", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondDomainError maps core and store errors onto HTTP statuses.
func respondDomainError(c *gin.Context, route string, err error) {
	var stockErr database.OutOfStockError
	var missingErr database.ProductNotFoundError
	var queryErr *database.QueryFailure

	switch {
	case errors.As(err, &stockErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "out of stock",
			"productId": stockErr.ProductID.Hex(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.As(err, &missingErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "product not found",
			"productId": missingErr.ProductID.Hex(),
		})
	case errors.Is(err, database.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "not found")
	case errors.Is(err, database.ErrStaleWrite):
		respondWithError(c, http.StatusConflict, route, "order was changed by someone else, reload and retry")
	case errors.Is(err, database.ErrDuplicate):
		respondWithError(c, http.StatusConflict, route, "already exists")
	case errors.Is(err, orderflow.ErrNotPermitted), errors.Is(err, reviews.ErrNotOwner):
		respondWithError(c, http.StatusForbidden, route, err.Error())
	case errors.Is(err, orderflow.ErrInvalidTransition),
		errors.Is(err, orderflow.ErrAlreadyTerminal),
		errors.Is(err, orderflow.ErrMissingReason),
		errors.Is(err, messaging.ErrEmptyContent),
		errors.Is(err, reviews.ErrInvalidRating),
		errors.Is(err, reviews.ErrOrderNotDelivered),
		errors.Is(err, reviews.ErrEmptyReply),
		errors.Is(err, reviews.ErrProductNotInOrder),
		errors.Is(err, reviews.ErrReviewWindowClosed):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.As(err, &queryErr):
		logger.For("HTTP").WithField("route", route).WithError(err).Warn("store unavailable")
		respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
	default:
		logger.For("HTTP").WithField("route", route).WithError(err).Error("store write failed")
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}

func requireIdentity(c *gin.Context, route string) (middleware.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok || identity.UserID == "" {
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
		return middleware.Identity{}, false
	}
	return identity, true
}

func objectIDParam(c *gin.Context, route, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}
