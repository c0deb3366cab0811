package booking

import (
	"context"

	"reservo/models"

	"go.uber.org/zap"
)

// attachPayment opens a payment intent for the booking total and records the outcome. A processor
// failure is recorded as a failed payment; the booking stands.
func (s *DefaultBookingService) attachPayment(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if s.Payments == nil {
		return b, nil
	}
	status := models.PaymentFailed
	ref := ""
	res, err := s.Payments.CreatePayment(ctx, models.PaymentRequest{
		BookingID:   b.ID,
		ClientID:    b.ClientID,
		ProviderID:  b.ProviderID,
		Amount:      b.TotalPrice,
		Currency:    b.Currency,
		Idempotency: "booking-" + b.ID,
		Description: "Booking " + b.ID,
	})
	if err != nil {
		s.logger().Error("Payment processing failed", zap.String("bookingId", b.ID), zap.Error(err))
	} else {
		status, ref = res.Status, res.Ref
	}

	return s.retryOnVersion(ctx, b.ID, func(cur *models.Booking) error {
		cur.PaymentStatus = status
		cur.PaymentRef = ref
		return s.Bookings.Update(ctx, cur)
	})
}
