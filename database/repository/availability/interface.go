// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"

	"reservo/database"
	"reservo/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityRepository stores what a provider offers: weekly rules, date overrides and the
// service catalogue.
type AvailabilityRepository interface {
	// GetSchedule returns an empty schedule when the provider has none.
	GetSchedule(ctx context.Context, providerID string) (*models.Schedule, error)
	SaveSchedule(ctx context.Context, s models.Schedule) error
	ListProviderIDs(ctx context.Context) ([]string, error)

	ListOverrides(ctx context.Context, providerID, fromDate, toDate string) ([]models.DateOverride, error)
	UpsertOverride(ctx context.Context, o models.DateOverride) error
	DeleteOverride(ctx context.Context, providerID, date string) error

	ListServices(ctx context.Context, providerID string) ([]models.Service, error)
	GetService(ctx context.Context, providerID, serviceID string) (*models.Service, error)
	ReplaceServices(ctx context.Context, providerID string, services []models.Service) error

	EnsureIndexes(ctx context.Context) error
}

type mongoAvailabilityRepo struct {
	client       *mongo.Client
	scheduleColl *mongo.Collection
	overrideColl *mongo.Collection
	serviceColl  *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a new MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo() AvailabilityRepository {
	db := database.Mongo()
	return &mongoAvailabilityRepo{
		client:       database.MongoClient,
		scheduleColl: db.Collection("schedules"),
		overrideColl: db.Collection("date_overrides"),
		serviceColl:  db.Collection("services"),
	}
}
