package booking

import (
	"context"
	"fmt"
	"time"

	"reservo/apperr"
	"reservo/models"

	"go.uber.org/zap"
)

const (
	dateLayout     = "2006-01-02"
	sweepBatchSize = 100
)

// AutoConfirm completes a booking whose confirmation window has lapsed. It is a no-op for any
// booking that is not overdue, so duplicate deliveries of the deadline task are harmless.
func (s *DefaultBookingService) AutoConfirm(ctx context.Context, id string) (*models.Booking, error) {
	var b *models.Booking
	var err error
	for i := 0; i < maxVersionRetries; i++ {
		b, err = s.Bookings.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		now := s.now()
		if !b.ConfirmationOverdue(now) {
			return b, nil
		}
		to, cerr := Check(OpAutoConfirm, models.SystemActor, b)
		if cerr != nil {
			return nil, cerr
		}
		b.Status = to
		b.Completion.ConfirmedAt = &now
		b.Completion.AutoConfirmed = true
		b.UpdatedAt = now
		err = s.Bookings.Update(ctx, b)
		if err == nil {
			s.logger().Info("Booking auto-confirmed", zap.String("bookingId", b.ID))
			s.publish(ctx, b, models.EventBookingCompleted, models.SystemActor)
			return b, nil
		}
		if !apperr.Is(err, apperr.CodeVersionConflict) {
			break
		}
		// The client answered in the meantime; the next read settles it.
	}
	s.logger().Warn("Auto-confirm failed", zap.String("bookingId", id), zap.Error(err))
	return nil, err
}

// SweepAutoConfirm confirms every overdue booking. It backs up the per-booking deadline task.
func (s *DefaultBookingService) SweepAutoConfirm(ctx context.Context) (int, error) {
	due, err := s.Bookings.ListConfirmationDue(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	confirmed := 0
	for _, b := range due {
		if ctx.Err() != nil {
			return confirmed, ctx.Err()
		}
		got, err := s.AutoConfirm(ctx, b.ID)
		if err == nil && got.Completion != nil && got.Completion.AutoConfirmed && got.Status == models.StatusCompleted {
			confirmed++
		}
	}
	return confirmed, nil
}

// settlements pairs the terminal statuses that move money with the event announcing them.
var settlements = []struct {
	status models.BookingStatus
	event  models.BookingEventType
}{
	{models.StatusCompleted, models.EventBookingCompleted},
	{models.StatusResolved, models.EventBookingResolved},
}

// SettledEvents rebuilds the completed and resolved events of bookings settled since the given
// time. Consumers replay them to recover events that were lost after the booking was written.
func (s *DefaultBookingService) SettledEvents(ctx context.Context, since time.Time) ([]models.BookingEvent, error) {
	var out []models.BookingEvent
	for _, st := range settlements {
		settled, err := s.Bookings.List(ctx, models.BookingFilter{Status: st.status, UpdatedSince: since})
		if err != nil {
			return nil, fmt.Errorf("list %s bookings: %w", st.status, err)
		}
		for i := range settled {
			out = append(out, eventFor(&settled[i], st.event, models.SystemActor))
		}
	}
	return out, nil
}
