package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the services rely on. Safe to call on
// every startup; Mongo treats existing identical indexes as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"rooms": {
			{Keys: bson.D{{Key: "landlord_id", Value: 1}}},
			{Keys: bson.D{{Key: "city", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		"applications": {
			{Keys: bson.D{{Key: "applicant_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "landlord_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "room_id", Value: 1}}},
		},
		"conversations": {
			// One conversation per (room, applicant, landlord); find-or-create
			// relies on the duplicate key error from this index.
			{
				Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "applicant_id", Value: 1}, {Key: "landlord_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"messages": {
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "application_id", Value: 1}}},
		},
		"reviews": {
			{Keys: bson.D{{Key: "application_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", coll, err)
		}
	}
	return nil
}
