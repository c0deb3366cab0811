package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservo/apperr"
	"reservo/database"
	slotRepo "reservo/database/repository/slot"
	"reservo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Create converts the caller's held slots into booked slots and inserts the booking in one
// transaction. Any slot no longer held by holderID aborts the whole thing.
func (repo *MongoBookingRepo) Create(ctx context.Context, b *models.Booking, holderID string, now time.Time) error {
	if err := b.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := database.WithTransaction(ctx, repo.client, func(sc mongo.SessionContext) error {
		if err := repo.bookHeldSlots(sc, b.ID, b.SlotIDs, holderID, now); err != nil {
			return err
		}
		if _, err := repo.bookingColl.InsertOne(sc, b); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
	return mapConflict(err, apperr.SlotConflict(b.SlotIDs...))
}

// UpdateAndRelease writes a terminal transition and frees the booking's slots together.
func (repo *MongoBookingRepo) UpdateAndRelease(ctx context.Context, b *models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := database.WithTransaction(ctx, repo.client, func(sc mongo.SessionContext) error {
		if err := repo.replaceVersioned(sc, b); err != nil {
			return err
		}
		return repo.releaseBooked(sc, b.ID, b.SlotIDs, b.UpdatedAt)
	})
	if err = mapConflict(err, apperr.VersionConflict("booking")); err != nil {
		return err
	}
	b.Version++
	return nil
}

// Reschedule books the new slot set already on b.SlotIDs and frees whatever of oldIDs it no longer uses.
func (repo *MongoBookingRepo) Reschedule(ctx context.Context, b *models.Booking, oldIDs []string, holderID string, now time.Time) error {
	if err := b.Validate(); err != nil {
		return err
	}
	toClaim := difference(b.SlotIDs, oldIDs)
	toRelease := difference(oldIDs, b.SlotIDs)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := database.WithTransaction(ctx, repo.client, func(sc mongo.SessionContext) error {
		if err := repo.replaceVersioned(sc, b); err != nil {
			return err
		}
		if err := repo.bookHeldSlots(sc, b.ID, toClaim, holderID, now); err != nil {
			return err
		}
		return repo.releaseBooked(sc, b.ID, toRelease, now)
	})
	if err = mapConflict(err, apperr.SlotConflict(toClaim...)); err != nil {
		return err
	}
	b.Version++
	return nil
}

// Delete removes a pending booking and frees its slots.
func (repo *MongoBookingRepo) Delete(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := database.WithTransaction(ctx, repo.client, func(sc mongo.SessionContext) error {
		res, err := repo.bookingColl.DeleteOne(sc, bson.M{
			"id":      b.ID,
			"version": b.Version,
			"status":  models.StatusPending,
		})
		if err != nil {
			return fmt.Errorf("delete booking %s: %w", b.ID, err)
		}
		if res.DeletedCount == 0 {
			return apperr.VersionConflict("booking")
		}
		return repo.releaseBooked(sc, b.ID, b.SlotIDs, time.Now().UTC())
	})
	return mapConflict(err, apperr.VersionConflict("booking"))
}

func (repo *MongoBookingRepo) bookHeldSlots(sc mongo.SessionContext, bookingID string, ids []string, holderID string, now time.Time) error {
	for _, id := range ids {
		filter := slotRepo.HeldByFilter(holderID, now)
		filter["id"] = id
		res, err := repo.slotColl.UpdateOne(sc, filter, bson.M{
			"$set":   bson.M{"status": models.SlotBooked, "bookingId": bookingID, "updatedAt": now},
			"$unset": bson.M{"hold": ""},
		})
		if err != nil {
			return fmt.Errorf("book slot %s: %w", id, err)
		}
		if res.MatchedCount == 0 {
			return apperr.HoldExpired().With("slot_id", id)
		}
	}
	return nil
}

func (repo *MongoBookingRepo) releaseBooked(sc mongo.SessionContext, bookingID string, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.slotColl.UpdateMany(sc, bson.M{
		"id":        bson.M{"$in": ids},
		"bookingId": bookingID,
		"status":    models.SlotBooked,
	}, bson.M{
		"$set":   bson.M{"status": models.SlotAvailable, "updatedAt": now},
		"$unset": bson.M{"bookingId": ""},
	})
	if err != nil {
		return fmt.Errorf("release booked slots: %w", err)
	}
	return nil
}

func mapConflict(err error, conflict *apperr.Error) error {
	if errors.Is(err, database.ErrWriteConflict) {
		return conflict
	}
	return err
}

func difference(a, b []string) []string {
	skip := make(map[string]struct{}, len(b))
	for _, id := range b {
		skip[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
