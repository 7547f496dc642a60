package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ShareAccessCollection holds one document per share-link resolution.
const ShareAccessCollection = "share_access_logs"

func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return errors.New("mongo database is nil; call OpenMongo() first")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	logs := db.Collection(ShareAccessCollection)
	_, err := logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// TTL: expire at ExpiresAt (must be Date)
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "accessed_at", Value: -1}},
			Options: options.Index().SetName("by_project_accessed"),
		},
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}, {Key: "accessed_at", Value: -1}},
			Options: options.Index().SetName("by_token_accessed"),
		},
	})
	return err
}
