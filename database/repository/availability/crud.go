package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservo/apperr"
	"reservo/database"
	"reservo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoAvailabilityRepo) GetSchedule(ctx context.Context, providerID string) (*models.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.Schedule
	err := r.scheduleColl.FindOne(ctx, bson.M{"providerId": providerID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Schedule{ProviderID: providerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching schedule for %s: %w", providerID, err)
	}
	return &s, nil
}

func (r *mongoAvailabilityRepo) SaveSchedule(ctx context.Context, s models.Schedule) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.scheduleColl.ReplaceOne(ctx, bson.M{"providerId": s.ProviderID}, s, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) ListProviderIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	raw, err := r.scheduleColl.Distinct(ctx, "providerId", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (r *mongoAvailabilityRepo) ListOverrides(ctx context.Context, providerID, fromDate, toDate string) ([]models.DateOverride, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": providerID, "date": bson.M{"$gte": fromDate, "$lte": toDate}}
	cursor, err := r.overrideColl.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error fetching overrides: %w", err)
	}
	defer cursor.Close(ctx)

	var overrides []models.DateOverride
	if err := cursor.All(ctx, &overrides); err != nil {
		return nil, fmt.Errorf("error decoding overrides: %w", err)
	}
	return overrides, nil
}

func (r *mongoAvailabilityRepo) UpsertOverride(ctx context.Context, o models.DateOverride) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": o.ProviderID, "date": o.Date}
	if _, err := r.overrideColl.ReplaceOne(ctx, filter, o, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert override: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) DeleteOverride(ctx context.Context, providerID, date string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.overrideColl.DeleteOne(ctx, bson.M{"providerId": providerID, "date": date})
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("no override for %s on %s", providerID, date)
	}
	return nil
}

func (r *mongoAvailabilityRepo) ListServices(ctx context.Context, providerID string) ([]models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.serviceColl.Find(ctx, bson.M{"providerId": providerID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error fetching services: %w", err)
	}
	defer cursor.Close(ctx)

	var services []models.Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("error decoding services: %w", err)
	}
	return services, nil
}

func (r *mongoAvailabilityRepo) GetService(ctx context.Context, providerID, serviceID string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.Service
	err := r.serviceColl.FindOne(ctx, bson.M{"providerId": providerID, "id": serviceID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("service %s not offered by %s", serviceID, providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching service %s: %w", serviceID, err)
	}
	return &s, nil
}

// ReplaceServices swaps the provider's whole catalogue in one transaction.
func (r *mongoAvailabilityRepo) ReplaceServices(ctx context.Context, providerID string, services []models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		if _, err := r.serviceColl.DeleteMany(sc, bson.M{"providerId": providerID}); err != nil {
			return fmt.Errorf("clear services: %w", err)
		}
		if len(services) == 0 {
			return nil
		}
		docs := make([]interface{}, len(services))
		for i := range services {
			docs[i] = services[i]
		}
		if _, err := r.serviceColl.InsertMany(sc, docs); err != nil {
			return fmt.Errorf("insert services: %w", err)
		}
		return nil
	})
}
