package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID    primitive.ObjectID  `bson:"orderId" json:"orderId"`
	ProductID  *primitive.ObjectID `bson:"productId,omitempty" json:"productId,omitempty"`
	UserID     string              `bson:"userId" json:"userId"`
	UserName   string              `bson:"userName" json:"userName"`
	Rating     int                 `bson:"rating" json:"rating"`
	Comment    string              `bson:"comment" json:"comment"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  *time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	AdminReply string              `bson:"adminReply,omitempty" json:"adminReply,omitempty"`
	RepliedAt  *time.Time          `bson:"repliedAt,omitempty" json:"repliedAt,omitempty"`
}
