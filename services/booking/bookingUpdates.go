package booking

import (
	"context"

	"reservo/apperr"
	"reservo/models"

	"go.uber.org/zap"
)

// UpdateStatus is the provider's answer to a booking request.
func (s *DefaultBookingService) UpdateStatus(ctx context.Context, actor models.Actor, id string, req models.UpdateStatusRequest) (*models.Booking, error) {
	switch req.Status {
	case models.StatusAccepted:
		return s.Accept(ctx, actor, id)
	case models.StatusRejected:
		return s.Reject(ctx, actor, id, req.Reason)
	default:
		return nil, apperr.Validation(apperr.CodeInvalidInput, "status must be accepted or rejected, got %q", req.Status)
	}
}

func (s *DefaultBookingService) Accept(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	to, err := Check(OpAccept, actor, b)
	if err != nil {
		return nil, err
	}
	now := s.now()
	b.Status = to
	b.AcceptedAt = &now
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger().Info("Booking accepted", zap.String("bookingId", b.ID), zap.String("providerId", actor.ID))
	s.publish(ctx, b, models.EventBookingAccepted, actor)
	return b, nil
}

// Reject declines a pending request and frees its slots. Rejecting twice returns the booking unchanged.
func (s *DefaultBookingService) Reject(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error) {
	return s.end(ctx, actor, id, reason, OpReject, models.StatusRejected, models.EventBookingRejected)
}

// Cancel ends a pending or accepted booking from either side and frees its slots. Idempotent.
func (s *DefaultBookingService) Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error) {
	return s.end(ctx, actor, id, reason, OpCancel, models.StatusCancelled, models.EventBookingCancelled)
}

func (s *DefaultBookingService) end(ctx context.Context, actor models.Actor, id, reason string, op Op, terminal models.BookingStatus, evt models.BookingEventType) (*models.Booking, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(op, actor, b); err != nil {
		return nil, err
	}
	if b.Status == terminal {
		return b, nil
	}
	to, err := Check(op, actor, b)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &models.Cancellation{By: actor.ID, Reason: reason, At: now}
	b.Status = to
	b.UpdatedAt = now
	if terminal == models.StatusRejected {
		b.Rejection = record
	} else {
		b.Cancellation = record
	}
	if err := s.Bookings.UpdateAndRelease(ctx, b); err != nil {
		if apperr.Is(err, apperr.CodeVersionConflict) {
			// A racing call may have ended it the same way; that is still success.
			if cur, gerr := s.Bookings.GetByID(ctx, id); gerr == nil && cur.Status == terminal {
				return cur, nil
			}
		}
		return nil, err
	}
	s.invalidate(ctx, b.ProviderID)
	s.logger().Info("Booking ended",
		zap.String("bookingId", b.ID),
		zap.String("status", string(b.Status)),
		zap.String("by", actor.ID))
	s.publish(ctx, b, evt, actor)
	return b, nil
}
