package memory

import (
	"context"
	"sort"
	"time"

	"reservo/apperr"
	"reservo/models"
)

type BookingStore struct{ s *Store }

func (r *BookingStore) Create(_ context.Context, b *models.Booking, holderID string, now time.Time) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.bookings[b.ID]; exists {
		return apperr.Conflict(apperr.CodeVersionConflict, apperr.RefreshBooking, "booking %s already exists", b.ID)
	}
	if err := r.checkHeld(b.SlotIDs, holderID, now); err != nil {
		return err
	}
	r.book(b.ID, b.SlotIDs, now)
	r.s.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (r *BookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking %s not found", id)
	}
	out := cloneBooking(b)
	return &out, nil
}

func (r *BookingStore) Update(_ context.Context, b *models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkVersion(b); err != nil {
		return err
	}
	r.store(b)
	return nil
}

func (r *BookingStore) UpdateAndRelease(_ context.Context, b *models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkVersion(b); err != nil {
		return err
	}
	r.release(b.ID, b.SlotIDs, b.UpdatedAt)
	r.store(b)
	return nil
}

func (r *BookingStore) Reschedule(_ context.Context, b *models.Booking, oldIDs []string, holderID string, now time.Time) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkVersion(b); err != nil {
		return err
	}
	toClaim := difference(b.SlotIDs, oldIDs)
	if err := r.checkHeld(toClaim, holderID, now); err != nil {
		return err
	}
	r.book(b.ID, toClaim, now)
	r.release(b.ID, difference(oldIDs, b.SlotIDs), now)
	r.store(b)
	return nil
}

func (r *BookingStore) Delete(_ context.Context, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.bookings[b.ID]
	if !ok || cur.Version != b.Version || cur.Status != models.StatusPending {
		return apperr.VersionConflict("booking")
	}
	r.release(b.ID, cur.SlotIDs, time.Now().UTC())
	delete(r.s.bookings, b.ID)
	return nil
}

func (r *BookingStore) List(_ context.Context, f models.BookingFilter) ([]models.Booking, error) {
	out := r.filter(func(b models.Booking) bool {
		return (f.ClientID == "" || b.ClientID == f.ClientID) &&
			(f.ProviderID == "" || b.ProviderID == f.ProviderID) &&
			(f.Status == "" || b.Status == f.Status) &&
			(f.UpdatedSince.IsZero() || !b.UpdatedAt.Before(f.UpdatedSince))
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *BookingStore) ListConfirmationDue(_ context.Context, now time.Time, limit int) ([]models.Booking, error) {
	out := r.filter(func(b models.Booking) bool { return b.ConfirmationOverdue(now) })
	sort.Slice(out, func(i, j int) bool {
		return out[i].Completion.ConfirmationDeadline.Before(out[j].Completion.ConfirmationDeadline)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *BookingStore) EnsureIndexes(context.Context) error { return nil }

func (r *BookingStore) filter(keep func(models.Booking) bool) []models.Booking {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Booking
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

// The helpers below expect r.s.mu to be held for writing.

func (r *BookingStore) checkVersion(b *models.Booking) error {
	cur, ok := r.s.bookings[b.ID]
	if !ok {
		return apperr.NotFound("booking %s not found", b.ID)
	}
	if cur.Version != b.Version {
		return apperr.VersionConflict("booking")
	}
	return nil
}

func (r *BookingStore) store(b *models.Booking) {
	b.Version++
	r.s.bookings[b.ID] = cloneBooking(*b)
}

func (r *BookingStore) checkHeld(ids []string, holderID string, now time.Time) error {
	for _, id := range ids {
		sl, ok := r.s.slots[id]
		if !ok || !sl.HeldBy(holderID, now) {
			return apperr.HoldExpired().With("slot_id", id)
		}
	}
	return nil
}

func (r *BookingStore) book(bookingID string, ids []string, now time.Time) {
	for _, id := range ids {
		sl := r.s.slots[id]
		sl.Status = models.SlotBooked
		sl.Hold = nil
		sl.BookingID = bookingID
		sl.UpdatedAt = now
		r.s.slots[id] = sl
	}
}

func (r *BookingStore) release(bookingID string, ids []string, now time.Time) {
	for _, id := range ids {
		sl, ok := r.s.slots[id]
		if !ok || sl.Status != models.SlotBooked || sl.BookingID != bookingID {
			continue
		}
		sl.Status = models.SlotAvailable
		sl.BookingID = ""
		sl.UpdatedAt = now
		r.s.slots[id] = sl
	}
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
