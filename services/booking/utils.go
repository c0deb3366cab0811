package booking

import (
	"context"
	"time"

	"reservo/apperr"
	"reservo/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxVersionRetries = 3

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *DefaultBookingService) window() time.Duration {
	if s.ConfirmationWindow > 0 {
		return s.ConfirmationWindow
	}
	return 48 * time.Hour
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// load fetches a booking the actor is a party to. Outsiders get not_found rather than a hint
// that the booking exists.
func (s *DefaultBookingService) load(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if partyOf(actor, b) == 0 {
		return nil, apperr.NotFound("booking %s not found", id)
	}
	return b, nil
}

// retryOnVersion reruns fn against a fresh copy while writes lose the version race. fn must be
// safe to repeat; it is used for writes nobody is waiting on, such as payment status.
func (s *DefaultBookingService) retryOnVersion(ctx context.Context, id string, fn func(b *models.Booking) error) (*models.Booking, error) {
	var err error
	for i := 0; i < maxVersionRetries; i++ {
		var b *models.Booking
		b, err = s.Bookings.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err = fn(b); err == nil {
			return b, nil
		}
		if !apperr.Is(err, apperr.CodeVersionConflict) {
			return nil, err
		}
	}
	return nil, err
}

func (s *DefaultBookingService) publish(ctx context.Context, b *models.Booking, t models.BookingEventType, actor models.Actor) {
	if s.Events == nil {
		return
	}
	evt := eventFor(b, t, actor)
	if err := s.Events.Publish(ctx, evt); err != nil {
		s.logger().Error("Failed to publish booking event",
			zap.String("bookingId", b.ID),
			zap.String("type", string(t)),
			zap.Error(err))
	}
}

func eventFor(b *models.Booking, t models.BookingEventType, actor models.Actor) models.BookingEvent {
	evt := models.BookingEvent{
		ID:          uuid.New().String(),
		Type:        t,
		BookingID:   b.ID,
		ClientID:    b.ClientID,
		ProviderID:  b.ProviderID,
		Status:      b.Status,
		ServiceFee:  b.ServiceFee,
		PlatformFee: b.PlatformFee,
		TotalPrice:  b.TotalPrice,
		Currency:    b.Currency,
		Actor:       actor.ID,
		OccurredAt:  b.UpdatedAt,
	}
	if b.Resolution != nil {
		evt.RefundPercentage = b.Resolution.RefundPercentage
		evt.ResolvedInFavorOf = b.Resolution.InFavorOf
	}
	return evt
}

func (s *DefaultBookingService) invalidate(ctx context.Context, providerID string) {
	if s.Calendar != nil {
		s.Calendar.Invalidate(ctx, providerID)
	}
}
