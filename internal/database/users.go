package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type UserRepo struct {
	db *mongo.Database
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) coll() *mongo.Collection {
	return r.db.Collection(usersCollection)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return models.User{}, queryFailure(usersCollection, "findByID", err)
	}
	return user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.coll().FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return models.User{}, queryFailure(usersCollection, "findByEmail", err)
	}
	return user, nil
}

// Create inserts a profile. A missing id gets a fresh ObjectID hex string;
// a taken email surfaces as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, err := r.coll().InsertOne(ctx, user); err != nil {
		return models.User{}, writeFailure(usersCollection, "create", err)
	}
	return user, nil
}

// EnsureProfile creates a minimal profile for an externally authenticated
// user the first time they are seen. Existing profiles are left untouched.
func (r *UserRepo) EnsureProfile(ctx context.Context, user models.User) error {
	now := time.Now()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	_, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$setOnInsert": bson.M{
			"email":     strings.ToLower(strings.TrimSpace(user.Email)),
			"name":      user.Name,
			"role":      user.Role,
			"isBlocked": false,
			"createdAt": now,
			"updatedAt": now,
		}},
		options.Update().SetUpsert(true),
	)
	return writeFailure(usersCollection, "ensureProfile", err)
}

// ListCustomers returns every non-admin profile, oldest first.
func (r *UserRepo) ListCustomers(ctx context.Context) ([]models.User, error) {
	cursor, err := r.coll().Find(ctx,
		bson.M{"role": bson.M{"$ne": models.RoleAdmin}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, queryFailure(usersCollection, "listCustomers", err)
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, queryFailure(usersCollection, "listCustomers", err)
	}
	return users, nil
}

// UpdateProfile sets the editable profile fields and returns the stored
// profile after the change.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, fields bson.M) (models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	var user models.User
	err := r.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, writeFailure(usersCollection, "updateProfile", err)
	}
	return user, nil
}

// SetBlocked flags or clears a customer's block. Admin profiles never match.
func (r *UserRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id, "role": bson.M{"$ne": models.RoleAdmin}},
		bson.M{"$set": bson.M{"isBlocked": blocked, "updatedAt": time.Now()}},
	)
	if err != nil {
		return writeFailure(usersCollection, "setBlocked", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) AddFavorite(ctx context.Context, userID string, productID primitive.ObjectID) error {
	return r.updateFavorites(ctx, "addFavorite", userID, bson.M{
		"$addToSet": bson.M{"favorites": productID},
		"$set":      bson.M{"updatedAt": time.Now()},
	})
}

func (r *UserRepo) RemoveFavorite(ctx context.Context, userID string, productID primitive.ObjectID) error {
	return r.updateFavorites(ctx, "removeFavorite", userID, bson.M{
		"$pull": bson.M{"favorites": productID},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (r *UserRepo) updateFavorites(ctx context.Context, op, userID string, update bson.M) error {
	res, err := r.coll().UpdateByID(ctx, userID, update)
	if err != nil {
		return writeFailure(usersCollection, op, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
