package migrations

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// isIndexExistsError checks if error is due to index already existing
func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return mongo.IsDuplicateKeyError(err) ||
		strings.Contains(errStr, "already exists") ||
		strings.Contains(errStr, "IndexKeySpecsConflict") ||
		strings.Contains(errStr, "IndexOptionsConflict") ||
		strings.Contains(errStr, "equivalent index already exists")
}

// createIndexes builds indexes on collection, tolerating ones that exist
func createIndexes(ctx context.Context, db *mongo.Database, collection string, indexes []mongo.IndexModel) error {
	opts := options.CreateIndexes().SetMaxTime(30 * time.Second)
	_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes, opts)
	if err != nil && !isIndexExistsError(err) {
		return err
	}
	return nil
}

// dropIndexes removes every non-_id index of collection
func dropIndexes(ctx context.Context, db *mongo.Database, collection string) error {
	_, err := db.Collection(collection).Indexes().DropAll(ctx)
	return err
}
