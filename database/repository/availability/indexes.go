package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes for schedules, overrides and services.
func (r *mongoAvailabilityRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sets := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{r.scheduleColl, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "providerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_provider"),
		}}},
		{r.overrideColl, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("provider_date_unique"),
		}}},
		{r.serviceColl, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("provider_service_unique"),
		}}},
	}
	for _, s := range sets {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", s.coll.Name(), err)
		}
	}
	return nil
}
