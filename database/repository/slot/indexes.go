// FILE: database/repository/slot/indexes.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the slots collection.
func (r *mongoSlotRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One slot per provider per start instant; regeneration relies on this to never double-insert.
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("provider_start_unique"),
		},
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("provider_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "hold.id", Value: 1}},
			Options: options.Index().SetName("hold_id_idx").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "hold.holderId", Value: 1}, {Key: "hold.expiresAt", Value: 1}},
			Options: options.Index().SetName("hold_holder_expiry_idx").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "hold.expiresAt", Value: 1}},
			Options: options.Index().SetName("status_expiry_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}
	return nil
}
