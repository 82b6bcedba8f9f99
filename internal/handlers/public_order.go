package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/orderflow"
)

type createOrderItemRequest struct {
	ProductID     string `json:"productId" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
	SelectedSize  string `json:"selectedSize"`
	SelectedColor string `json:"selectedColor"`
}

type shippingAddressRequest struct {
	Name   string `json:"name" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
	Detail string `json:"detail" binding:"required"`
	Note   string `json:"note"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress shippingAddressRequest   `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                   `json:"paymentMethod" binding:"required"`
	CouponCode      string                   `json:"couponCode"`
	Notes           string                   `json:"notes"`
}

// Pricing holds the store-wide checkout settings.
type Pricing struct {
	ShippingFee float64
	TaxRate     float64
	Coupons     map[string]float64
}

// Price fills in subtotal, shipping, tax, discount and total on an order
// whose line items are already priced.
func (p Pricing) Price(order *models.Order) orderflow.Totals {
	subtotal := orderflow.Subtotal(order.Items)
	tax := math.Round(subtotal * p.TaxRate)
	discount := 0.0
	if code := strings.ToUpper(strings.TrimSpace(order.CouponCode)); code != "" {
		discount = p.Coupons[code]
	}

	totals := orderflow.ComputeTotal(order.Items, p.ShippingFee, tax, discount)
	order.Subtotal = totals.Subtotal
	order.ShippingCost = totals.Shipping
	order.Tax = totals.Tax
	order.Discount = totals.Discount
	order.TotalAmount = totals.Total
	return totals
}

var errInvalidPaymentMethod = errors.New("invalid payment method")

func buildOrderFromRequest(req createOrderRequest, userID string, now time.Time) (models.Order, error) {
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method != "cash" && method != "card" {
		return models.Order{}, errInvalidPaymentMethod
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
		if err != nil {
			return models.Order{}, errors.New("invalid productId")
		}
		if item.Quantity <= 0 {
			return models.Order{}, errors.New("quantity must be greater than zero")
		}
		items = append(items, models.OrderItem{
			ProductID:     productID,
			Quantity:      item.Quantity,
			SelectedSize:  strings.TrimSpace(item.SelectedSize),
			SelectedColor: strings.TrimSpace(item.SelectedColor),
		})
	}

	return models.Order{
		UserID: userID,
		Items:  items,
		ShippingAddress: models.ShippingAddress{
			Name:   strings.TrimSpace(req.ShippingAddress.Name),
			Phone:  strings.TrimSpace(req.ShippingAddress.Phone),
			Detail: strings.TrimSpace(req.ShippingAddress.Detail),
			Note:   strings.TrimSpace(req.ShippingAddress.Note),
		},
		PaymentMethod: method,
		CouponCode:    strings.ToUpper(strings.TrimSpace(req.CouponCode)),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        string(orderflow.StatusPending),
		CreatedAt:     now,
		OrderDate:     &now,
	}, nil
}

// CreateOrder is checkout: it prices the cart from the catalogue, reserves
// stock and stores a pending order.
func CreateOrder(orders OrderStore, pricing Pricing) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order, err := buildOrderFromRequest(req, identity.UserID, time.Now())
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var totals orderflow.Totals
		created, err := orders.PlaceOrder(ctx, order, func(o *models.Order) {
			totals = pricing.Price(o)
		})
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		log := logger.For("ORDER").WithField("orderId", created.ID.Hex()).WithField("userId", identity.UserID)
		if totals.NegativeTotal {
			log.WithField("discount", totals.Discount).Warn("discount exceeded order value, total clamped to zero")
		}
		log.WithField("total", created.TotalAmount).Info("order created")

		c.JSON(http.StatusCreated, gin.H{
			"orderId": created.ID.Hex(),
			"order":   newOrderView(created),
			"message": "order created",
		})
	}
}

// GetMyOrders lists the caller's own orders, newest first.
func GetMyOrders(orders OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/mine"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := orders.List(ctx, database.OrderFilter{UserID: identity.UserID})
		if err != nil {
			respondDomainError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": newOrderViews(list)})
	}
}

// orderView is an order plus the derived display fields.
type orderView struct {
	models.Order
	Presentation orderflow.Presentation `json:"presentation"`
	TotalText    string                 `json:"totalText"`
	NextStatuses []orderflow.Status     `json:"nextStatuses"`
}

func newOrderView(o models.Order) orderView {
	return orderView{
		Order:        o,
		Presentation: orderflow.DerivePresentation(o.Status),
		TotalText:    orderflow.FormatVND(o.TotalAmount),
		NextStatuses: orderflow.Status(o.Status).Next(),
	}
}

func newOrderViews(list []models.Order) []orderView {
	out := make([]orderView, 0, len(list))
	for _, o := range list {
		out = append(out, newOrderView(o))
	}
	return out
}
