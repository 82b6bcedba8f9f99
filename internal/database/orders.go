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

// OrderFilter narrows order listings. Zero fields are ignored.
type OrderFilter struct {
	UserID string
	Status string
}

func (f OrderFilter) bson() bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

type OrderRepo struct {
	db *mongo.Database
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) coll() *mongo.Collection {
	return r.db.Collection(ordersCollection)
}

func (r *OrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	if err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return models.Order{}, queryFailure(ordersCollection, "findOne", err)
	}
	return order, nil
}

// List returns matching orders, newest first.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	return r.find(ctx, "list", f.bson(), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *OrderRepo) FindByStatus(ctx context.Context, status string) ([]models.Order, error) {
	return r.find(ctx, "findByStatus", bson.M{"status": status}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *OrderRepo) FindByStatusSince(ctx context.Context, status string, since time.Time) ([]models.Order, error) {
	return r.find(ctx, "findByStatusSince", bson.M{
		"status":    status,
		"createdAt": bson.M{"$gte": since},
	})
}

func (r *OrderRepo) CountAll(ctx context.Context) (int64, error) {
	n, err := r.coll().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, queryFailure(ordersCollection, "count", err)
	}
	return n, nil
}

func (r *OrderRepo) find(ctx context.Context, op string, filter bson.M, opts ...*options.FindOptions) ([]models.Order, error) {
	cursor, err := r.coll().Find(ctx, filter, opts...)
	if err != nil {
		return nil, queryFailure(ordersCollection, op, err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, queryFailure(ordersCollection, op, err)
	}
	return orders, nil
}

// ApplyUpdate writes a status field set in one update, only if the order is
// still in status from. A concurrent writer that got there first yields
// ErrStaleWrite instead of a silent overwrite.
func (r *OrderRepo) ApplyUpdate(ctx context.Context, id primitive.ObjectID, from string, fields bson.M) error {
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": fields})
	if err != nil {
		return writeFailure(ordersCollection, "applyUpdate", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll().CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return queryFailure(ordersCollection, "applyUpdate", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrStaleWrite
	}
	return nil
}

// PlaceOrder prices every line from the products collection, reserves stock
// and inserts the order in one transaction. finalize runs after pricing and
// before the insert so the caller can fill in totals.
func (r *OrderRepo) PlaceOrder(ctx context.Context, order models.Order, finalize func(*models.Order)) (models.Order, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return models.Order{}, writeFailure(ordersCollection, "startSession", err)
	}
	defer session.EndSession(ctx)

	products := r.db.Collection(productsCollection)
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		priced := make([]models.OrderItem, 0, len(order.Items))

		for _, item := range order.Items {
			var product models.Product
			err := products.FindOne(
				sessCtx,
				bson.M{
					"_id":       item.ProductID,
					"isDeleted": bson.M{"$ne": true},
				},
			).Decode(&product)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ProductNotFoundError{ProductID: item.ProductID}
			}
			if err != nil {
				return nil, err
			}

			if product.Stock < item.Quantity {
				return nil, OutOfStockError{
					ProductID: item.ProductID,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}

			item.Name = product.Name
			item.Price = product.EffectivePrice()
			priced = append(priced, item)

			filter := bson.M{
				"_id":       item.ProductID,
				"isDeleted": bson.M{"$ne": true},
				"stock":     bson.M{"$gte": item.Quantity},
			}
			res, err := products.UpdateOne(sessCtx, filter, bson.M{"$inc": bson.M{"stock": -item.Quantity}})
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, OutOfStockError{
					ProductID: item.ProductID,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}
		}

		order.Items = priced
		if finalize != nil {
			finalize(&order)
		}

		res, err := r.coll().InsertOne(sessCtx, order)
		if err != nil {
			return nil, err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}
		return nil, nil
	})
	if err != nil {
		var stockErr OutOfStockError
		var notFoundErr ProductNotFoundError
		if errors.As(err, &stockErr) || errors.As(err, &notFoundErr) {
			return models.Order{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Order{}, ctxErr
		}
		return models.Order{}, writeFailure(ordersCollection, "placeOrder", err)
	}
	return order, nil
}
