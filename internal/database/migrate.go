package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/logger"
)

// legacyDateLayout is how older clients wrote orderDate and pickupTime.
const legacyDateLayout = "02/01/2006 15:04"

var legacyDateFields = []string{"orderDate", "pickupTime"}

// MigrationReport counts what a legacy migration run touched.
type MigrationReport struct {
	OrdersScanned   int
	OrdersUpdated   int
	OrdersSkipped   int
	MessagesRenamed int64
	MessagesDefault int64
}

// parseLegacyDate reads a "dd/MM/yyyy HH:mm" string in the store timezone.
func parseLegacyDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(legacyDateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse legacy date %q: %w", value, err)
	}
	return t, nil
}

// legacyDateUpdate returns the $set document that converts string date
// fields of raw into real dates. Unparseable values are reported and left alone.
func legacyDateUpdate(raw bson.M, loc *time.Location) (bson.M, []error) {
	set := bson.M{}
	var errs []error
	for _, field := range legacyDateFields {
		value, ok := raw[field].(string)
		if !ok {
			continue
		}
		t, err := parseLegacyDate(value, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			continue
		}
		set[field] = t
	}
	return set, errs
}

// MigrateLegacy converts string order dates into dates and renames the
// legacy isRead message flag to read. It is safe to run repeatedly.
func MigrateLegacy(ctx context.Context, db *mongo.Database, loc *time.Location) (MigrationReport, error) {
	log := logger.For("MIGRATION")
	var report MigrationReport

	orders := db.Collection(ordersCollection)
	filter := bson.M{"$or": bson.A{
		bson.M{"orderDate": bson.M{"$type": "string"}},
		bson.M{"pickupTime": bson.M{"$type": "string"}},
	}}
	cursor, err := orders.Find(ctx, filter)
	if err != nil {
		return report, queryFailure(ordersCollection, "migrate", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return report, queryFailure(ordersCollection, "migrate", err)
		}
		report.OrdersScanned++

		id, _ := raw["_id"].(primitive.ObjectID)
		set, errs := legacyDateUpdate(raw, loc)
		for _, e := range errs {
			log.WithField("orderId", id.Hex()).WithError(e).Warn("legacy date left unchanged")
		}
		if len(set) == 0 {
			report.OrdersSkipped++
			continue
		}
		if _, err := orders.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
			return report, writeFailure(ordersCollection, "migrate", err)
		}
		report.OrdersUpdated++
	}
	if err := cursor.Err(); err != nil {
		return report, queryFailure(ordersCollection, "migrate", err)
	}

	messages := db.Collection(messagesCollection)
	res, err := messages.UpdateMany(ctx,
		bson.M{"isRead": bson.M{"$exists": true}, "read": bson.M{"$exists": false}},
		bson.M{"$rename": bson.M{"isRead": "read"}},
	)
	if err != nil {
		return report, writeFailure(messagesCollection, "migrate", err)
	}
	report.MessagesRenamed = res.ModifiedCount

	if _, err := messages.UpdateMany(ctx,
		bson.M{"isRead": bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"isRead": ""}},
	); err != nil {
		return report, writeFailure(messagesCollection, "migrate", err)
	}

	res, err = messages.UpdateMany(ctx,
		bson.M{"read": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"read": false}},
	)
	if err != nil {
		return report, writeFailure(messagesCollection, "migrate", err)
	}
	report.MessagesDefault = res.ModifiedCount

	log.WithFields(logrus.Fields{
		"ordersScanned":   report.OrdersScanned,
		"ordersUpdated":   report.OrdersUpdated,
		"ordersSkipped":   report.OrdersSkipped,
		"messagesRenamed": report.MessagesRenamed,
		"messagesDefault": report.MessagesDefault,
	}).Info("legacy migration finished")
	return report, nil
}
