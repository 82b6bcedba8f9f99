package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/orderflow"
)

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func ListOrders(orders OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		filter := database.OrderFilter{}
		if raw := strings.TrimSpace(c.Query("status")); raw != "" {
			status, ok := orderflow.ParseStatus(raw)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "unknown status")
				return
			}
			filter.Status = string(status)
		}
		filter.UserID = strings.TrimSpace(c.Query("userId"))

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := orders.List(ctx, filter)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": newOrderViews(list)})
	}
}

// applyOrderChange loads the order, lets decide compute the update and
// persists it guarded by the status it was computed from.
func applyOrderChange(c *gin.Context, route string, orders OrderStore, decide func(models.Order) (orderflow.Update, error)) {
	id, ok := objectIDParam(c, route, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := orders.FindByID(ctx, id)
	if err != nil {
		respondDomainError(c, route, err)
		return
	}

	update, err := decide(order)
	if err != nil {
		respondDomainError(c, route, err)
		return
	}

	if err := orders.ApplyUpdate(ctx, id, string(update.From), update.Fields()); err != nil {
		respondDomainError(c, route, err)
		return
	}

	logger.For("ORDER").WithField("orderId", id.Hex()).
		WithField("from", update.From).
		WithField("to", update.Status).
		Info("order updated")
	c.JSON(http.StatusOK, gin.H{"order": newOrderView(update.Apply(order))})
}

func UpdateOrderStatus(orders OrderStore, machine *orderflow.Machine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		target, known := orderflow.ParseStatus(strings.TrimSpace(req.Status))
		if !known {
			respondWithError(c, http.StatusBadRequest, route, "unknown status")
			return
		}

		applyOrderChange(c, route, orders, func(o models.Order) (orderflow.Update, error) {
			// Cancelling always records a reason, whichever endpoint is used.
			if target == orderflow.StatusCancelled {
				if identity.Role != models.RoleAdmin {
					return orderflow.Update{}, orderflow.ErrNotPermitted
				}
				return machine.Cancel(o, req.Reason)
			}
			return machine.Transition(o, target, identity.Role)
		})
	}
}

func CancelOrder(orders OrderStore, machine *orderflow.Machine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:id/cancel"
		defer handlePanic(c, route)

		var req cancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		applyOrderChange(c, route, orders, func(o models.Order) (orderflow.Update, error) {
			return machine.Cancel(o, req.Reason)
		})
	}
}

func MarkOrderProcessed(orders OrderStore, machine *orderflow.Machine) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:id/processed"
		defer handlePanic(c, route)

		applyOrderChange(c, route, orders, machine.MarkProcessed)
	}
}
