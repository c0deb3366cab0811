// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"time"

	"reservo/database"
	"reservo/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository persists bookings together with the slots they occupy, so that slot moves
// and booking writes commit as one unit.
type BookingRepository interface {
	// Create books the slots held by holderID and inserts b, atomically.
	Create(ctx context.Context, b *models.Booking, holderID string, now time.Time) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// Update writes b if its stored version still equals b.Version, then bumps b.Version.
	Update(ctx context.Context, b *models.Booking) error
	// UpdateAndRelease is Update plus freeing the booking's slots.
	UpdateAndRelease(ctx context.Context, b *models.Booking) error
	// Reschedule moves b from oldIDs onto newIDs, which must be held by holderID.
	Reschedule(ctx context.Context, b *models.Booking, oldIDs []string, holderID string, now time.Time) error
	Delete(ctx context.Context, b *models.Booking) error
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	ListConfirmationDue(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
	EnsureIndexes(ctx context.Context) error
}

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	client      *mongo.Client
	bookingColl *mongo.Collection
	slotColl    *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	db := database.Mongo()
	return &MongoBookingRepo{
		client:      database.MongoClient,
		bookingColl: db.Collection("bookings"),
		slotColl:    db.Collection("slots"),
	}
}
