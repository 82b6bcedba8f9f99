package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/logger"
	"storefront/internal/reviews"
)

type createReviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type replyRequest struct {
	Reply string `json:"reply" binding:"required"`
}

// CreateReview reviews one of the caller's recently delivered orders,
// optionally for a single product of that order. A nil clock means time.Now.
func CreateReview(orders OrderStore, store ReviewStore, clock func() time.Time) gin.HandlerFunc {
	if clock == nil {
		clock = time.Now
	}
	return func(c *gin.Context) {
		const route = "POST /orders/:id/reviews"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		orderID, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		var req createReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		draft := reviews.Draft{Rating: req.Rating, Comment: req.Comment}
		if raw := strings.TrimSpace(req.ProductID); raw != "" {
			productID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid productId")
				return
			}
			draft.ProductID = &productID
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.FindByID(ctx, orderID)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		review, err := reviews.New(order, reviews.Author{ID: identity.UserID, Name: identity.Name}, draft, clock())
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		created, err := store.Create(ctx, review)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		logger.For("REVIEW").WithField("reviewId", created.ID.Hex()).WithField("orderId", orderID.Hex()).Info("review created")
		c.JSON(http.StatusCreated, gin.H{"review": created})
	}
}

func UpdateReview(store ReviewStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /reviews/:id"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		var req updateReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		existing, err := store.FindByID(ctx, id)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		fields, err := reviews.Edit(existing, identity.UserID, req.Rating, req.Comment, time.Now())
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		updated, err := store.Update(ctx, id, fields)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"review": updated})
	}
}

func ListReviews(store ReviewStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reviews"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := store.ListAll(ctx)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

// ReplyToReview sets or edits the single admin reply of a review.
func ReplyToReview(store ReviewStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/reviews/:id/reply"
		defer handlePanic(c, route)

		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		var req replyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		fields, err := reviews.Reply(req.Reply, time.Now())
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		updated, err := store.Update(ctx, id, fields)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"review": updated})
	}
}
