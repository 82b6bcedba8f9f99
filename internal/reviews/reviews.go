// Package reviews validates customer reviews and admin replies and recomputes
// product ratings from the full review set.
package reviews

import (
	"errors"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/orderflow"
)

const (
	MinRating = 1
	MaxRating = 5

	// ReviewWindow is how long after delivery a new review is accepted.
	ReviewWindow = 7 * 24 * time.Hour
)

var (
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrOrderNotDelivered  = errors.New("only delivered orders can be reviewed")
	ErrNotOwner           = errors.New("order belongs to another customer")
	ErrEmptyReply         = errors.New("reply is empty")
	ErrProductNotInOrder  = errors.New("product is not part of the order")
	ErrReviewWindowClosed = errors.New("orders can only be reviewed within 7 days of delivery")
)

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// Author is the customer writing a review.
type Author struct {
	ID   string
	Name string
}

// Draft is the review content a customer submits.
type Draft struct {
	ProductID *primitive.ObjectID
	Rating    int
	Comment   string
}

// New builds the review for order. The order must be delivered and owned by
// the author, delivered no more than ReviewWindow before now, and an optional
// product must be one of its line items. An order without a delivery time
// cannot be reviewed.
func New(order models.Order, author Author, d Draft, now time.Time) (models.Review, error) {
	if order.UserID != author.ID {
		return models.Review{}, ErrNotOwner
	}
	if orderflow.Status(order.Status) != orderflow.StatusDelivered {
		return models.Review{}, ErrOrderNotDelivered
	}
	if order.DeliveredAt == nil || now.Sub(*order.DeliveredAt) > ReviewWindow {
		return models.Review{}, ErrReviewWindowClosed
	}
	if err := ValidateRating(d.Rating); err != nil {
		return models.Review{}, err
	}
	if d.ProductID != nil && !containsProduct(order, *d.ProductID) {
		return models.Review{}, ErrProductNotInOrder
	}

	return models.Review{
		OrderID:   order.ID,
		ProductID: d.ProductID,
		UserID:    author.ID,
		UserName:  strings.TrimSpace(author.Name),
		Rating:    d.Rating,
		Comment:   strings.TrimSpace(d.Comment),
		CreatedAt: now,
	}, nil
}

func containsProduct(order models.Order, productID primitive.ObjectID) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Edit returns the $set fields for an in-place rating/comment change by the author.
func Edit(review models.Review, authorID string, rating int, comment string, now time.Time) (bson.M, error) {
	if review.UserID != authorID {
		return nil, ErrNotOwner
	}
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	return bson.M{
		"rating":    rating,
		"comment":   strings.TrimSpace(comment),
		"updatedAt": now,
	}, nil
}

// Reply returns the $set fields for the admin reply. A review has a single
// reply slot, so replying again overwrites (edits) it.
func Reply(text string, now time.Time) (bson.M, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReply
	}
	return bson.M{
		"adminReply": text,
		"repliedAt":  now,
	}, nil
}

// Summary is a product's rating rollup.
type Summary struct {
	Average float64 `json:"rating"`
	Count   int     `json:"reviewCount"`
}

// Summarize averages every valid rating. Out-of-range ratings in legacy data are ignored.
func Summarize(all []models.Review) Summary {
	var sum, n int
	for _, r := range all {
		if ValidateRating(r.Rating) != nil {
			continue
		}
		sum += r.Rating
		n++
	}
	if n == 0 {
		return Summary{}
	}
	avg := float64(sum) / float64(n)
	return Summary{Average: math.Round(avg*100) / 100, Count: n}
}

// Fields returns the product $set document for the summary.
func (s Summary) Fields() bson.M {
	return bson.M{"rating": s.Average, "reviewCount": s.Count}
}
