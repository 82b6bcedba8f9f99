package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/logger"
)

const (
	ordersCollection   = "orders"
	messagesCollection = "messages"
	reviewsCollection  = "reviews"
	usersCollection    = "users"
	productsCollection = "products"
	cartCollection     = "cart"
)

func ensureIndexes(db *mongo.Database, collection string, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := logger.For("DB").WithField("collection", collection)
	log.Info("ensuring indexes")
	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		log.WithError(err).Error("index creation failed")
		return err
	}
	log.WithField("indexes", names).Info("indexes ready")
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	return ensureIndexes(db, ordersCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_createdAt"),
		},
	})
}

func EnsureMessageIndexes(db *mongo.Database) error {
	return ensureIndexes(db, messagesCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "receiverId", Value: 1}, {Key: "read", Value: 1}},
			Options: options.Index().SetName("receiverId_read"),
		},
		{
			Keys:    bson.D{{Key: "senderId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("senderId_createdAt"),
		},
	})
}

// legacyReviewIndex allowed a single review per order, which blocked
// reviewing the other products of a multi-item order.
const legacyReviewIndex = "userId_orderId_unique"

// EnsureReviewIndexes keeps one order-level review per order and one review
// per customer and product.
func EnsureReviewIndexes(db *mongo.Database) error {
	dropLegacyIndex(db, reviewsCollection, legacyReviewIndex)
	return ensureIndexes(db, reviewsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "orderId", Value: 1}, {Key: "productId", Value: 1}},
			Options: options.Index().SetName("userId_orderId_productId_unique").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}},
			Options: options.Index().
				SetName("userId_productId_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"productId": bson.M{"$type": "objectId"}}),
		},
		{
			Keys:    bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("productId_createdAt"),
		},
	})
}

func EnsureCartIndexes(db *mongo.Database) error {
	return ensureIndexes(db, cartCollection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "productId", Value: 1},
				{Key: "selectedSize", Value: 1},
				{Key: "selectedColor", Value: 1},
			},
			Options: options.Index().SetName("userId_product_options_unique").SetUnique(true),
		},
	})
}

func dropLegacyIndex(db *mongo.Database, collection, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.Collection(collection).Indexes().DropOne(ctx, name); err != nil {
		logger.For("DB").WithField("collection", collection).WithField("index", name).
			WithError(err).Debug("legacy index not dropped")
		return
	}
	logger.For("DB").WithField("collection", collection).WithField("index", name).Info("legacy index dropped")
}

func EnsureUserIndexes(db *mongo.Database) error {
	return ensureIndexes(db, usersCollection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"email": bson.M{"$type": "string", "$gt": ""},
				}),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("role_index"),
		},
	})
}

// EnsureAll creates every index, logging failures without stopping.
func EnsureAll(db *mongo.Database) {
	for name, ensure := range map[string]func(*mongo.Database) error{
		ordersCollection:   EnsureOrderIndexes,
		messagesCollection: EnsureMessageIndexes,
		reviewsCollection:  EnsureReviewIndexes,
		usersCollection:    EnsureUserIndexes,
		cartCollection:     EnsureCartIndexes,
	} {
		if err := ensure(db); err != nil {
			logger.For("DB").WithError(err).Warnf("%s index warning", name)
		}
	}
}
