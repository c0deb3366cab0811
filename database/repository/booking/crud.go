package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservo/apperr"
	"reservo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetByID retrieves a booking document by ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("booking %s not found", id)
		}
		return nil, fmt.Errorf("error fetching booking with id %s: %w", id, err)
	}
	return &b, nil
}

func (repo *MongoBookingRepo) Update(ctx context.Context, b *models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := repo.replaceVersioned(ctx, b); err != nil {
		return err
	}
	b.Version++
	return nil
}

// replaceVersioned swaps in b at version+1 if the stored version still equals b.Version.
func (repo *MongoBookingRepo) replaceVersioned(ctx context.Context, b *models.Booking) error {
	next := *b
	next.Version = b.Version + 1
	res, err := repo.bookingColl.ReplaceOne(ctx, bson.M{"id": b.ID, "version": b.Version}, next)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperr.VersionConflict("booking")
	}
	return nil
}

func (repo *MongoBookingRepo) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.ClientID != "" {
		filter["clientId"] = f.ClientID
	}
	if f.ProviderID != "" {
		filter["providerId"] = f.ProviderID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.UpdatedSince.IsZero() {
		filter["updatedAt"] = bson.M{"$gte": f.UpdatedSince}
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return repo.find(ctx, filter, opts)
}

// ListConfirmationDue returns bookings whose client confirmation window has lapsed.
func (repo *MongoBookingRepo) ListConfirmationDue(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":                          models.StatusAwaitingConfirmation,
		"completion.confirmationDeadline": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "completion.confirmationDeadline", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return repo.find(ctx, filter, opts)
}

func (repo *MongoBookingRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
