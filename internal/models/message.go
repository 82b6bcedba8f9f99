package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one chat line between a customer and the admin party.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	Read       bool               `bson:"read" json:"read"`
	SenderID   string             `bson:"senderId" json:"senderId"`
	SenderName string             `bson:"senderName" json:"senderName"`
	SenderRole string             `bson:"senderRole" json:"senderRole"`
	ReceiverID string             `bson:"receiverId" json:"receiverId"`
	OrderID    string             `bson:"orderId,omitempty" json:"orderId,omitempty"`
}
