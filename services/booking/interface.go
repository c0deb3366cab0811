package booking

import (
	"context"
	"time"

	availabilityRepo "reservo/database/repository/availability"
	bookingRepo "reservo/database/repository/booking"
	slotRepo "reservo/database/repository/slot"
	"reservo/models"
	"reservo/services/events"
	"reservo/services/hold"
	"reservo/services/payment"
	"reservo/services/storage"

	"go.uber.org/zap"
)

// BookingService drives the booking lifecycle. Every mutating call checks the caller's role
// against the transition table and writes with optimistic concurrency.
type BookingService interface {
	Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	List(ctx context.Context, actor models.Actor, role models.Role, status models.BookingStatus) ([]models.Booking, error)
	Delete(ctx context.Context, actor models.Actor, id string) error

	UpdateStatus(ctx context.Context, actor models.Actor, id string, req models.UpdateStatusRequest) (*models.Booking, error)
	Accept(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	Reject(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error)
	Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error)
	Reschedule(ctx context.Context, actor models.Actor, id string, req models.RescheduleRequest) (*models.Booking, error)

	Complete(ctx context.Context, actor models.Actor, id, notes string, files []models.EvidenceUpload) (*models.Booking, error)
	AddEvidence(ctx context.Context, actor models.Actor, id string, files []models.EvidenceUpload) (*models.Booking, error)
	Confirm(ctx context.Context, actor models.Actor, id string, req models.ConfirmRequest) (*models.Booking, error)
	ResolveDispute(ctx context.Context, actor models.Actor, id string, req models.ResolveDisputeRequest) (*models.Booking, error)

	AutoConfirm(ctx context.Context, id string) (*models.Booking, error)
	SweepAutoConfirm(ctx context.Context) (int, error)
	SettledEvents(ctx context.Context, since time.Time) ([]models.BookingEvent, error)
}

// DeadlineScheduler arranges for AutoConfirm to run when a confirmation window closes.
type DeadlineScheduler interface {
	ScheduleAutoConfirm(ctx context.Context, bookingID string, at time.Time) error
}

type CalendarInvalidator interface {
	Invalidate(ctx context.Context, providerID string)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings  bookingRepo.BookingRepository
	Slots     slotRepo.SlotRepository
	Catalogue availabilityRepo.AvailabilityRepository
	Holds     hold.HoldService
	Payments  payment.Processor
	Storage   storage.StorageService
	Events    events.Publisher
	Deadlines DeadlineScheduler
	Calendar  CalendarInvalidator
	Logger    *zap.Logger

	ConfirmationWindow time.Duration
	Now                func() time.Time
}
