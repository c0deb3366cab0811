package booking

import (
	"context"

	"reservo/apperr"
	"reservo/models"
	"reservo/services/hold"

	"go.uber.org/zap"
)

// Reschedule moves a pending or accepted booking onto a block the caller holds. The new block
// must belong to the same provider and last as long as the old one, so the quoted price stands.
func (s *DefaultBookingService) Reschedule(ctx context.Context, actor models.Actor, id string, req models.RescheduleRequest) (*models.Booking, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := Check(OpReschedule, actor, b); err != nil {
		return nil, err
	}

	ids := req.SlotIDs
	if len(ids) == 0 {
		if ids, err = s.resolveBlock(ctx, actor.ID, b, req); err != nil {
			return nil, err
		}
	}
	found, err := s.Slots.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	ordered, err := hold.ValidateSelection(ids, found)
	if err != nil {
		return nil, err
	}
	if ordered[0].ProviderID != b.ProviderID {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "a booking cannot move to another provider")
	}
	start, end := ordered[0].Start, ordered[len(ordered)-1].End
	if int(end.Sub(start).Minutes()) != b.DurationMinutes {
		return nil, apperr.Validation(apperr.CodeInvalidInput,
			"new block lasts %d minutes, booking lasts %d", int(end.Sub(start).Minutes()), b.DurationMinutes)
	}
	if start.Equal(b.Start) && end.Equal(b.End) {
		return b, nil
	}

	owned := make(map[string]bool, len(b.SlotIDs))
	for _, sid := range b.SlotIDs {
		owned[sid] = true
	}
	if err := s.checkHeldByCaller(ctx, ordered, actor.ID, owned); err != nil {
		return nil, err
	}

	now := s.now()
	oldIDs := b.SlotIDs
	count := b.RescheduleCount() + 1
	b.Reschedule = &models.RescheduleInfo{
		Count:         count,
		PreviousStart: b.Start,
		PreviousEnd:   b.End,
		Reason:        req.Reason,
		RequestedBy:   actor.ID,
		RescheduledAt: now,
	}
	b.SlotIDs = models.SlotIDs(ordered)
	b.Start, b.End = start, end
	b.UpdatedAt = now
	if err := s.Bookings.Reschedule(ctx, b, oldIDs, actor.ID, now); err != nil {
		return nil, err
	}

	s.invalidate(ctx, b.ProviderID)
	s.logger().Info("Booking rescheduled",
		zap.String("bookingId", b.ID),
		zap.Time("start", b.Start),
		zap.Int("count", count))
	s.publish(ctx, b, models.EventBookingRescheduled, actor)
	return b, nil
}

// resolveBlock finds the slots spanning req.StartDate..req.EndDate. A block the caller holds
// outright is preferred; otherwise the interval may reuse slots the booking already occupies.
func (s *DefaultBookingService) resolveBlock(ctx context.Context, holderID string, b *models.Booking, req models.RescheduleRequest) ([]string, error) {
	start, end := req.StartDate.UTC(), req.EndDate.UTC()
	if start.IsZero() || end.IsZero() {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "start_date and end_date or slot_ids are required")
	}
	if s.Holds != nil {
		h, err := s.Holds.FindHeldBlock(ctx, holderID, start, end)
		if err == nil {
			return h.SlotIDs, nil
		}
		if !apperr.Is(err, apperr.CodeHoldExpired) {
			return nil, err
		}
	}

	// Slot dates are provider-local, so search a day either side.
	from := start.AddDate(0, 0, -1).Format(dateLayout)
	to := end.AddDate(0, 0, 1).Format(dateLayout)
	slots, err := s.Slots.ListByProviderDates(ctx, b.ProviderID, from, to)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, sl := range slots {
		if !sl.Start.Before(start) && !sl.End.After(end) {
			ids = append(ids, sl.ID)
		}
	}
	if len(ids) == 0 {
		return nil, apperr.HoldExpired().With("start", start).With("end", end)
	}
	return ids, nil
}
