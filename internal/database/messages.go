package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/logger"
	"storefront/internal/models"
)

type MessageRepo struct {
	db *mongo.Database
}

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) coll() *mongo.Collection {
	return r.db.Collection(messagesCollection)
}

// ThreadSnapshot returns every message that can belong to customerID's thread,
// in insertion order. The caller still resolves and sorts the thread.
func (r *MessageRepo) ThreadSnapshot(ctx context.Context, customerID string, adminIDs []string) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": customerID, "receiverId": bson.M{"$in": adminIDs}},
		bson.M{"senderRole": models.RoleAdmin, "receiverId": customerID},
	}}
	return r.find(ctx, "threadSnapshot", filter)
}

// Unread returns unread messages addressed to any of receiverIDs.
func (r *MessageRepo) Unread(ctx context.Context, receiverIDs []string) ([]models.Message, error) {
	return r.find(ctx, "unread", bson.M{
		"receiverId": bson.M{"$in": receiverIDs},
		"read":       false,
	})
}

func (r *MessageRepo) find(ctx context.Context, op string, filter bson.M) ([]models.Message, error) {
	cursor, err := r.coll().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, queryFailure(messagesCollection, op, err)
	}
	defer cursor.Close(ctx)

	msgs := make([]models.Message, 0)
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, queryFailure(messagesCollection, op, err)
	}
	return msgs, nil
}

func (r *MessageRepo) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	res, err := r.coll().InsertOne(ctx, msg)
	if err != nil {
		return models.Message{}, writeFailure(messagesCollection, "insert", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = id
	}
	return msg, nil
}

// MarkRead flips read on the given ids. Already-read messages are left alone.
func (r *MessageRepo) MarkRead(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll().UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, writeFailure(messagesCollection, "markRead", err)
	}
	return res.ModifiedCount, nil
}

// Changes signals whenever the messages collection changes. It uses a change
// stream when the deployment supports one and falls back to polling every
// poll interval otherwise. Signals are coalesced; the channel closes when ctx
// is done.
func (r *MessageRepo) Changes(ctx context.Context, poll time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)
	notify := func() {
		select {
		case out <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(out)
		log := logger.For("DB").WithField("collection", messagesCollection)

		stream, err := r.coll().Watch(ctx, mongo.Pipeline{})
		if err == nil {
			defer stream.Close(context.Background())
			for stream.Next(ctx) {
				notify()
			}
			if ctx.Err() != nil {
				return
			}
			log.WithError(stream.Err()).Warn("change stream ended, falling back to polling")
		} else if ctx.Err() == nil {
			log.WithError(err).Info("change streams unavailable, polling")
		}

		if poll <= 0 {
			poll = 3 * time.Second
		}
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				notify()
			}
		}
	}()
	return out
}
