package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/reviews"
)

type ReviewRepo struct {
	db *mongo.Database
}

func NewReviewRepo(db *mongo.Database) *ReviewRepo {
	return &ReviewRepo{db: db}
}

func (r *ReviewRepo) coll() *mongo.Collection {
	return r.db.Collection(reviewsCollection)
}

// Create inserts the review and, when it names a product, recomputes that
// product's rating in the same transaction.
func (r *ReviewRepo) Create(ctx context.Context, review models.Review) (models.Review, error) {
	err := r.withTransaction(ctx, "create", func(sessCtx mongo.SessionContext) error {
		res, err := r.coll().InsertOne(sessCtx, review)
		if err != nil {
			return err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			review.ID = id
		}
		if review.ProductID == nil {
			return nil
		}
		return r.recomputeRating(sessCtx, *review.ProductID)
	})
	if err != nil {
		return models.Review{}, err
	}
	return review, nil
}

// Update applies fields to the review and recomputes the product rating
// when the rating may have changed.
func (r *ReviewRepo) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Review, error) {
	var updated models.Review
	err := r.withTransaction(ctx, "update", func(sessCtx mongo.SessionContext) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := r.coll().FindOneAndUpdate(sessCtx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&updated); err != nil {
			return err
		}
		if _, ratingChanged := fields["rating"]; !ratingChanged || updated.ProductID == nil {
			return nil
		}
		return r.recomputeRating(sessCtx, *updated.ProductID)
	})
	if err != nil {
		return models.Review{}, err
	}
	return updated, nil
}

func (r *ReviewRepo) recomputeRating(ctx context.Context, productID primitive.ObjectID) error {
	cursor, err := r.coll().Find(ctx, bson.M{"productId": productID})
	if err != nil {
		return err
	}
	var all []models.Review
	if err := cursor.All(ctx, &all); err != nil {
		return err
	}
	summary := reviews.Summarize(all)
	_, err = r.db.Collection(productsCollection).UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": summary.Fields()},
	)
	return err
}

func (r *ReviewRepo) withTransaction(ctx context.Context, op string, fn func(mongo.SessionContext) error) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return writeFailure(reviewsCollection, op, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return writeFailure(reviewsCollection, op, err)
}

func (r *ReviewRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Review, error) {
	var review models.Review
	if err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return models.Review{}, queryFailure(reviewsCollection, "findOne", err)
	}
	return review, nil
}

func (r *ReviewRepo) ListAll(ctx context.Context) ([]models.Review, error) {
	return r.find(ctx, "listAll", bson.M{})
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	return r.find(ctx, "listByProduct", bson.M{"productId": productID})
}

func (r *ReviewRepo) ListByUser(ctx context.Context, userID string) ([]models.Review, error) {
	return r.find(ctx, "listByUser", bson.M{"userId": userID})
}

func (r *ReviewRepo) find(ctx context.Context, op string, filter bson.M) ([]models.Review, error) {
	cursor, err := r.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, queryFailure(reviewsCollection, op, err)
	}
	defer cursor.Close(ctx)

	out := make([]models.Review, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, queryFailure(reviewsCollection, op, err)
	}
	return out, nil
}
