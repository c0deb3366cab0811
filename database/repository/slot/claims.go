// File: database/repository/slot/claims.go
package slotRepo

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
)

// ClaimableFilter matches slots a new hold may take at now: not yet started, and available or held
// with a lapsed hold.
func ClaimableFilter(now time.Time) bson.M {
	return bson.M{
		"start": bson.M{"$gt": now},
		"$or": bson.A{
			bson.M{"status": models.SlotAvailable},
			bson.M{"status": models.SlotHeld, "hold.expiresAt": bson.M{"$lte": now}},
		},
	}
}

// HeldByFilter matches slots carrying an unexpired hold owned by holderID that have not started.
func HeldByFilter(holderID string, now time.Time) bson.M {
	return bson.M{
		"start":          bson.M{"$gt": now},
		"status":         models.SlotHeld,
		"hold.holderId":  holderID,
		"hold.expiresAt": bson.M{"$gt": now},
	}
}

func (r *mongoSlotRepo) Claim(ctx context.Context, ids []string, hold models.SlotHold, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		for _, id := range ids {
			filter := ClaimableFilter(now)
			filter["id"] = id
			update := bson.M{"$set": bson.M{
				"status":    models.SlotHeld,
				"hold":      hold,
				"updatedAt": now,
			}}
			res, err := r.coll.UpdateOne(sc, filter, update)
			if err != nil {
				return fmt.Errorf("claim slot %s: %w", id, err)
			}
			if res.MatchedCount == 0 {
				return apperr.SlotConflict(id)
			}
		}
		return nil
	})
	if errors.Is(err, database.ErrWriteConflict) {
		return apperr.SlotConflict(ids...)
	}
	return err
}

func (r *mongoSlotRepo) ReleaseHold(ctx context.Context, holderID, holdID string, ids []string) (int64, error) {
	if holdID == "" && len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"status": models.SlotHeld, "hold.holderId": holderID}
	if holdID != "" {
		filter["hold.id"] = holdID
	}
	if len(ids) > 0 {
		filter["id"] = bson.M{"$in": ids}
	}
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{
		"$set":   bson.M{"status": models.SlotAvailable, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"hold": ""},
	})
	if err != nil {
		return 0, fmt.Errorf("release hold: %w", err)
	}
	return res.ModifiedCount, nil
}

// ReleaseExpired frees every slot whose hold lapsed and returns the affected provider ids.
func (r *mongoSlotRepo) ReleaseExpired(ctx context.Context, now time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{"status": models.SlotHeld, "hold.expiresAt": bson.M{"$lte": now}}
	raw, err := r.coll.Distinct(ctx, "providerId", filter)
	if err != nil {
		return nil, fmt.Errorf("find expired holds: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if _, err := r.coll.UpdateMany(ctx, filter, bson.M{
		"$set":   bson.M{"status": models.SlotAvailable, "updatedAt": now},
		"$unset": bson.M{"hold": ""},
	}); err != nil {
		return nil, fmt.Errorf("release expired holds: %w", err)
	}

	providers := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			providers = append(providers, s)
		}
	}
	return providers, nil
}
