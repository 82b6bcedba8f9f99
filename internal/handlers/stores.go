package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/stats"
)

//go:generate mockgen -source=stores.go -destination=mock_stores_test.go -package=handlers

type OrderStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	List(ctx context.Context, f database.OrderFilter) ([]models.Order, error)
	ApplyUpdate(ctx context.Context, id primitive.ObjectID, from string, fields bson.M) error
	PlaceOrder(ctx context.Context, order models.Order, finalize func(*models.Order)) (models.Order, error)
}

type MessageStore interface {
	ThreadSnapshot(ctx context.Context, customerID string, adminIDs []string) ([]models.Message, error)
	Unread(ctx context.Context, receiverIDs []string) ([]models.Message, error)
	Insert(ctx context.Context, msg models.Message) (models.Message, error)
	MarkRead(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	Changes(ctx context.Context, poll time.Duration) <-chan struct{}
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	EnsureProfile(ctx context.Context, user models.User) error
	ListCustomers(ctx context.Context) ([]models.User, error)
	AddFavorite(ctx context.Context, userID string, productID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, userID string, productID primitive.ObjectID) error
	UpdateProfile(ctx context.Context, id string, fields bson.M) (models.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
}

type ReviewStore interface {
	Create(ctx context.Context, review models.Review) (models.Review, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Review, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Review, error)
	ListAll(ctx context.Context) ([]models.Review, error)
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
}

type ProductStore interface {
	List(ctx context.Context, f database.ProductFilter) ([]models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	Count(ctx context.Context, f database.ProductFilter) (int64, error)
	Create(ctx context.Context, p models.Product) (models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Product, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type CartStore interface {
	List(ctx context.Context, userID string) ([]models.CartItem, error)
	Add(ctx context.Context, item models.CartItem) (models.CartItem, error)
	SetQuantity(ctx context.Context, userID string, id primitive.ObjectID, quantity int) (models.CartItem, error)
	Remove(ctx context.Context, userID string, id primitive.ObjectID) error
	Clear(ctx context.Context, userID string) (int64, error)
}

// StatsSource produces the admin dashboard figures.
type StatsSource interface {
	Collect(ctx context.Context) (stats.Snapshot, error)
	BestSellers(ctx context.Context) []stats.ProductSales
}
