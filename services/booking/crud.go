package booking

import (
	"context"
	"fmt"

	"reservo/apperr"
	"reservo/models"
	"reservo/services/hold"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Create turns the caller's hold into a booking. The hold must be live, owned by the caller and
// cover exactly the requested slots; the slot flip and the insert commit together.
func (s *DefaultBookingService) Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error) {
	if actor.Role != models.RoleClient {
		return nil, apperr.Forbidden("only clients can create bookings")
	}
	found, err := s.Slots.GetByIDs(ctx, req.SlotIDs)
	if err != nil {
		return nil, err
	}
	ordered, err := hold.ValidateSelection(req.SlotIDs, found)
	if err != nil {
		return nil, err
	}
	if ordered[0].ProviderID != req.ProviderID {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "slots do not belong to provider %s", req.ProviderID)
	}

	now := s.now()
	if err := s.checkHeldByCaller(ctx, ordered, actor.ID, nil); err != nil {
		return nil, err
	}

	svc, err := s.Catalogue.GetService(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "service %s is not bookable", svc.ID)
	}
	start, end := ordered[0].Start, ordered[len(ordered)-1].End
	minutes := int(end.Sub(start).Minutes())
	price, err := Quote(*svc, minutes)
	if err != nil {
		return nil, err
	}

	mode := req.BookingMode
	if mode == "" {
		mode = svc.BookingMode
	}
	if mode == "" {
		mode = models.ModeRequest
	}
	if mode != models.ModeRequest && mode != models.ModeInstant {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "unknown booking_mode %q", mode)
	}
	currency := svc.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	b := &models.Booking{
		ID:              uuid.New().String(),
		ClientID:        actor.ID,
		ProviderID:      req.ProviderID,
		ServiceID:       svc.ID,
		SlotIDs:         models.SlotIDs(ordered),
		Start:           start,
		End:             end,
		DurationMinutes: minutes,
		ServiceFee:      price.ServiceFee,
		PlatformFee:     price.PlatformFee,
		TotalPrice:      price.Total,
		Currency:        currency,
		Status:          models.StatusPending,
		BookingMode:     mode,
		PaymentStatus:   models.PaymentPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if mode == models.ModeInstant {
		b.Status = models.StatusAccepted
		b.AcceptedAt = &now
	}

	if err := s.Bookings.Create(ctx, b, actor.ID, now); err != nil {
		return nil, err
	}
	s.invalidate(ctx, b.ProviderID)
	s.logger().Info("Booking created",
		zap.String("bookingId", b.ID),
		zap.String("clientId", b.ClientID),
		zap.String("providerId", b.ProviderID),
		zap.String("status", string(b.Status)),
		zap.Float64("total", b.TotalPrice))

	s.publish(ctx, b, models.EventBookingCreated, actor)
	if b.Status == models.StatusAccepted {
		s.publish(ctx, b, models.EventBookingAccepted, actor)
	}

	if paid, err := s.attachPayment(ctx, b); err == nil {
		b = paid
	}
	return b, nil
}

// checkHeldByCaller distinguishes a hold owned by someone else from a hold that is gone.
// Slots listed in owned (already booked by the booking being moved) pass as they are.
func (s *DefaultBookingService) checkHeldByCaller(ctx context.Context, slots []models.Slot, holderID string, owned map[string]bool) error {
	now := s.now()
	holdID := ""
	heldCount := 0
	for _, sl := range slots {
		if owned[sl.ID] {
			continue
		}
		if sl.Elapsed(now) {
			return apperr.SlotConflict(sl.ID)
		}
		if sl.HeldBy(holderID, now) {
			if holdID == "" {
				holdID = sl.Hold.ID
			}
			heldCount++
			continue
		}
		if sl.EffectiveStatus(now) == models.SlotHeld {
			return apperr.HoldNotOwned().With("slot_id", sl.ID)
		}
		return apperr.HoldExpired().With("slot_id", sl.ID)
	}
	if holdID == "" {
		return nil
	}

	// The hold must be consumed whole: a booking over part of a hold would leave the rest stranded.
	held, err := s.Slots.GetByHoldID(ctx, holdID)
	if err != nil {
		return err
	}
	if len(held) != heldCount {
		return apperr.Validation(apperr.CodeInvalidInput, "selection must match the held slots exactly").
			With("hold_id", holdID)
	}
	for _, sl := range slots {
		if sl.Hold != nil && !owned[sl.ID] && sl.Hold.ID != holdID {
			return apperr.Validation(apperr.CodeInvalidInput, "selection spans more than one hold")
		}
	}
	return nil
}

// Get returns a booking the caller is party to, confirming it first if its window has lapsed.
func (s *DefaultBookingService) Get(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.ConfirmationOverdue(s.now()) {
		if confirmed, err := s.AutoConfirm(ctx, b.ID); err == nil {
			return confirmed, nil
		}
	}
	return b, nil
}

func (s *DefaultBookingService) List(ctx context.Context, actor models.Actor, role models.Role, status models.BookingStatus) ([]models.Booking, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "unknown status %q", status)
	}
	if role == "" {
		role = actor.Role
	}
	filter := models.BookingFilter{Status: status, Limit: 200}
	switch {
	case actor.Role == models.RoleAdmin:
	case role == models.RoleClient && actor.Role == models.RoleClient:
		filter.ClientID = actor.ID
	case role == models.RoleProvider && actor.Role == models.RoleProvider:
		filter.ProviderID = actor.ID
	default:
		return nil, apperr.Forbidden("cannot list bookings as %s", role)
	}
	bookings, err := s.Bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// Delete removes a booking nobody has acted on yet and frees its slots.
func (s *DefaultBookingService) Delete(ctx context.Context, actor models.Actor, id string) error {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if _, err := Check(OpDelete, actor, b); err != nil {
		return err
	}
	if !b.Deletable() {
		return apperr.InvalidTransition("booking %s was already acted on and can only be cancelled", b.ID)
	}
	if err := s.Bookings.Delete(ctx, b); err != nil {
		return err
	}
	b.UpdatedAt = s.now()
	s.invalidate(ctx, b.ProviderID)
	s.publish(ctx, b, models.EventBookingDeleted, actor)
	return nil
}
