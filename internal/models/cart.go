package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line of a customer's cart. Name, image and price are
// copied from the product when the line is first added.
type CartItem struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"userId" json:"userId"`
	ProductID       primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName     string             `bson:"productName" json:"productName"`
	ProductImageURL string             `bson:"productImageUrl,omitempty" json:"productImageUrl,omitempty"`
	Price           float64            `bson:"price" json:"price"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	SelectedSize    string             `bson:"selectedSize" json:"selectedSize"`
	SelectedColor   string             `bson:"selectedColor" json:"selectedColor"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
