package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type CartRepo struct {
	db *mongo.Database
}

func NewCartRepo(db *mongo.Database) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) coll() *mongo.Collection {
	return r.db.Collection(cartCollection)
}

// List returns the user's cart lines, oldest first.
func (r *CartRepo) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	cursor, err := r.coll().Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, queryFailure(cartCollection, "list", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.CartItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, queryFailure(cartCollection, "list", err)
	}
	return items, nil
}

// Add merges item into the line with the same product, size and color, or
// starts a new line. The product snapshot is refreshed either way.
func (r *CartRepo) Add(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	now := time.Now()
	var stored models.CartItem
	err := r.coll().FindOneAndUpdate(ctx,
		bson.M{
			"userId":        item.UserID,
			"productId":     item.ProductID,
			"selectedSize":  item.SelectedSize,
			"selectedColor": item.SelectedColor,
		},
		bson.M{
			"$inc": bson.M{"quantity": item.Quantity},
			"$set": bson.M{
				"productName":     item.ProductName,
				"productImageUrl": item.ProductImageURL,
				"price":           item.Price,
				"updatedAt":       now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return models.CartItem{}, writeFailure(cartCollection, "add", err)
	}
	return stored, nil
}

// SetQuantity changes one of the user's lines. Lines of other users never match.
func (r *CartRepo) SetQuantity(ctx context.Context, userID string, id primitive.ObjectID, quantity int) (models.CartItem, error) {
	var stored models.CartItem
	err := r.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"quantity": quantity, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CartItem{}, ErrNotFound
	}
	if err != nil {
		return models.CartItem{}, writeFailure(cartCollection, "setQuantity", err)
	}
	return stored, nil
}

func (r *CartRepo) Remove(ctx context.Context, userID string, id primitive.ObjectID) error {
	res, err := r.coll().DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return writeFailure(cartCollection, "remove", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear empties the user's cart and reports how many lines were removed.
func (r *CartRepo) Clear(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll().DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, writeFailure(cartCollection, "clear", err)
	}
	return res.DeletedCount, nil
}
