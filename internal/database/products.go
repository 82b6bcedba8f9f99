package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// ProductFilter narrows the public catalogue listing.
type ProductFilter struct {
	Category string
	Search   string
	Skip     int64
	Limit    int64
}

type ProductRepo struct {
	db *mongo.Database
}

func NewProductRepo(db *mongo.Database) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) coll() *mongo.Collection {
	return r.db.Collection(productsCollection)
}

func (f ProductFilter) bson() bson.M {
	filter := bson.M{"isDeleted": bson.M{"$ne": true}}
	if category := strings.TrimSpace(f.Category); category != "" {
		filter["category"] = category
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		filter["name"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}}
	}
	return filter
}

// List returns live products, newest first. Pagination applies only when
// Limit is set.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetSkip(f.Skip).SetLimit(f.Limit)
	}
	return r.find(ctx, "list", f.bson(), opts)
}

// Count ignores Skip and Limit.
func (r *ProductRepo) Count(ctx context.Context, f ProductFilter) (int64, error) {
	n, err := r.coll().CountDocuments(ctx, f.bson())
	if err != nil {
		return 0, queryFailure(productsCollection, "count", err)
	}
	return n, nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	found, err := r.find(ctx, "findByID", bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}})
	if err != nil {
		return models.Product{}, err
	}
	if len(found) == 0 {
		return models.Product{}, ErrNotFound
	}
	return found[0], nil
}

func (r *ProductRepo) Create(ctx context.Context, p models.Product) (models.Product, error) {
	p.ID = primitive.NewObjectID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.IsDeleted = false
	if _, err := r.coll().InsertOne(ctx, p); err != nil {
		return models.Product{}, writeFailure(productsCollection, "create", err)
	}
	p.InStock = p.Stock > 0
	p.IsOnSale = p.OnSale()
	return p, nil
}

// Update sets fields on a live product and returns it after the change.
func (r *ProductRepo) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Product, error) {
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	var raw bson.M
	err := r.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, writeFailure(productsCollection, "update", err)
	}

	p, err := normalizeProduct(raw)
	if err != nil {
		return models.Product{}, queryFailure(productsCollection, "update", err)
	}
	return p, nil
}

// SoftDelete hides a product from the catalogue. Past orders keep their
// snapshot of it.
func (r *ProductRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return writeFailure(productsCollection, "softDelete", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByIDs returns live products in the order of ids. Unknown ids are skipped.
func (r *ProductRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	found, err := r.find(ctx, "findByIDs", bson.M{
		"_id":       bson.M{"$in": ids},
		"isDeleted": bson.M{"$ne": true},
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *ProductRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.coll().CountDocuments(ctx, bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}}, options.Count().SetLimit(1))
	if err != nil {
		return false, queryFailure(productsCollection, "exists", err)
	}
	return n > 0, nil
}

func (r *ProductRepo) find(ctx context.Context, op string, filter bson.M, opts ...*options.FindOptions) ([]models.Product, error) {
	cursor, err := r.coll().Find(ctx, filter, opts...)
	if err != nil {
		return nil, queryFailure(productsCollection, op, err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, queryFailure(productsCollection, op, err)
		}
		p, err := normalizeProduct(raw)
		if err != nil {
			return nil, queryFailure(productsCollection, op, err)
		}
		products = append(products, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, queryFailure(productsCollection, op, err)
	}
	return products, nil
}

// normalizeProduct decodes a product document written by older admin tools,
// where category may be an array and stock or prices may be any numeric type.
func normalizeProduct(raw bson.M) (models.Product, error) {
	switch cat := raw["category"].(type) {
	case bson.A:
		raw["category"] = ""
		for _, v := range cat {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				raw["category"] = strings.TrimSpace(s)
				break
			}
		}
	case string:
	default:
		raw["category"] = ""
	}

	raw["stock"] = int(toFloat(raw["stock"]))
	for _, key := range []string{"price", "salePrice", "rating"} {
		raw[key] = toFloat(raw[key])
	}
	if n, ok := raw["reviewCount"]; ok {
		raw["reviewCount"] = int(toFloat(n))
	}

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Product{}, err
	}
	var p models.Product
	if err := bson.Unmarshal(data, &p); err != nil {
		return models.Product{}, err
	}

	p.InStock = p.Stock > 0
	p.IsOnSale = p.OnSale()
	return p, nil
}

func toFloat(v interface{}) float64 {
	switch typed := v.(type) {
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case float64:
		return typed
	case primitive.Decimal128:
		d, err := decimal.NewFromString(typed.String())
		if err != nil {
			return 0
		}
		return d.InexactFloat64()
	default:
		return 0
	}
}
