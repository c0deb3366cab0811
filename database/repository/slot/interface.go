// File: database/repository/slot/interface.go
package slotRepo

import (
	"context"
	"time"

	"reservo/database"
	"reservo/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// SlotRepository stores concrete slots. A slot document is the unit of mutual exclusion:
// holds live on it and every claim is a conditional update on its status.
type SlotRepository interface {
	InsertMany(ctx context.Context, slots []models.Slot) error
	GetByIDs(ctx context.Context, ids []string) ([]models.Slot, error)
	ListByProviderDates(ctx context.Context, providerID, fromDate, toDate string) ([]models.Slot, error)
	// DeleteFreeFrom removes available (or lapsed-hold) slots starting at or after from.
	DeleteFreeFrom(ctx context.Context, providerID string, from, now time.Time) (int64, error)
	// Claim places hold on every slot in ids, or on none of them.
	Claim(ctx context.Context, ids []string, hold models.SlotHold, now time.Time) error
	// ReleaseHold frees slots still held by holderID, selected by hold id and/or slot ids.
	ReleaseHold(ctx context.Context, holderID, holdID string, ids []string) (int64, error)
	GetByHoldID(ctx context.Context, holdID string) ([]models.Slot, error)
	ListHeldBy(ctx context.Context, holderID string, now time.Time) ([]models.Slot, error)
	ReleaseExpired(ctx context.Context, now time.Time) ([]string, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoSlotRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository.
func NewMongoSlotRepo() SlotRepository {
	db := database.Mongo()
	return &mongoSlotRepo{
		client: database.MongoClient,
		coll:   db.Collection("slots"),
	}
}
