package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is one line of an order, priced at checkout time.
type OrderItem struct {
	ProductID     primitive.ObjectID `bson:"productId" json:"productId"`
	Name          string             `bson:"name" json:"name"`
	Price         float64            `bson:"price" json:"price"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	SelectedSize  string             `bson:"selectedSize,omitempty" json:"selectedSize,omitempty"`
	SelectedColor string             `bson:"selectedColor,omitempty" json:"selectedColor,omitempty"`
}

// ShippingAddress is copied onto the order so later profile edits do not rewrite history.
type ShippingAddress struct {
	Name   string `bson:"name" json:"name"`
	Phone  string `bson:"phone" json:"phone"`
	Detail string `bson:"detail" json:"detail"`
	Note   string `bson:"note,omitempty" json:"note,omitempty"`
}

// Order defines the persisted order document.
type Order struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             string             `bson:"userId" json:"userId"`
	Items              []OrderItem        `bson:"items" json:"items"`
	Subtotal           float64            `bson:"subtotal" json:"subtotal"`
	ShippingCost       float64            `bson:"shippingCost" json:"shippingCost"`
	Tax                float64            `bson:"tax" json:"tax"`
	Discount           float64            `bson:"discount" json:"discount"`
	CouponCode         string             `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	TotalAmount        float64            `bson:"totalAmount" json:"totalAmount"`
	PaymentMethod      string             `bson:"paymentMethod" json:"paymentMethod"`
	ShippingAddress    ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	Notes              string             `bson:"orderNotes,omitempty" json:"notes,omitempty"`
	Status             string             `bson:"status" json:"status"`
	IsProcessed        bool               `bson:"isProcessed" json:"isProcessed"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	OrderDate          *time.Time         `bson:"orderDate,omitempty" json:"orderDate,omitempty"`
	PickupTime         *time.Time         `bson:"pickupTime,omitempty" json:"pickupTime,omitempty"`
	ConfirmedAt        *time.Time         `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	DeliveredAt        *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancellationReason string             `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
}
