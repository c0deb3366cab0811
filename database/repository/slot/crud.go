// File: database/repository/slot/crud.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"reservo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoSlotRepo) InsertMany(ctx context.Context, slots []models.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	docs := make([]interface{}, len(slots))
	for i := range slots {
		docs[i] = slots[i]
	}
	// Unordered so a start that already exists does not stop the rest of the batch.
	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicateKeys(err) {
		return fmt.Errorf("insert slots: %w", err)
	}
	return nil
}

func onlyDuplicateKeys(err error) bool {
	bwe, ok := err.(mongo.BulkWriteException)
	if !ok {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return bwe.WriteConcernError == nil
}

func (r *mongoSlotRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Slot, error) {
	return r.find(ctx, bson.M{"id": bson.M{"$in": ids}})
}

func (r *mongoSlotRepo) ListByProviderDates(ctx context.Context, providerID, fromDate, toDate string) ([]models.Slot, error) {
	return r.find(ctx, bson.M{
		"providerId": providerID,
		"date":       bson.M{"$gte": fromDate, "$lte": toDate},
	})
}

func (r *mongoSlotRepo) GetByHoldID(ctx context.Context, holdID string) ([]models.Slot, error) {
	return r.find(ctx, bson.M{"status": models.SlotHeld, "hold.id": holdID})
}

func (r *mongoSlotRepo) ListHeldBy(ctx context.Context, holderID string, now time.Time) ([]models.Slot, error) {
	return r.find(ctx, bson.M{
		"status":         models.SlotHeld,
		"hold.holderId":  holderID,
		"hold.expiresAt": bson.M{"$gt": now},
	})
}

func (r *mongoSlotRepo) DeleteFreeFrom(ctx context.Context, providerID string, from, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	filter := ClaimableFilter(now)
	filter["providerId"] = providerID
	filter["start"] = bson.M{"$gte": from, "$gt": now}
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete free slots: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoSlotRepo) find(ctx context.Context, filter bson.M) ([]models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return slots, nil
}
