package models

import (
	"testing"
	"time"
)

func validBooking() *Booking {
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	return &Booking{
		ID: "b1", ClientID: "c", ProviderID: "p", SlotIDs: []string{"s1"},
		Start: start, End: start.Add(time.Hour),
		ServiceFee: 40, PlatformFee: 6, TotalPrice: 46,
		Status: StatusPending, Version: 1,
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2030, 1, 7, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		mutate func(b *Booking)
		ok     bool
	}{
		{"pending", func(b *Booking) {}, true},
		{"unknown status", func(b *Booking) { b.Status = "lost" }, false},
		{"no slots", func(b *Booking) { b.SlotIDs = nil }, false},
		{"bad total", func(b *Booking) { b.TotalPrice = 50 }, false},
		{"pending with acceptance", func(b *Booking) { b.AcceptedAt = &now }, false},
		{"awaiting without completion", func(b *Booking) {
			b.Status = StatusAwaitingConfirmation
			b.AcceptedAt = &now
		}, false},
		{"awaiting", func(b *Booking) {
			b.Status = StatusAwaitingConfirmation
			b.AcceptedAt = &now
			b.Completion = &Completion{RequestedAt: now, ConfirmationDeadline: now.Add(48 * time.Hour)}
		}, true},
		{"completed unconfirmed", func(b *Booking) {
			b.Status = StatusCompleted
			b.AcceptedAt = &now
			b.Completion = &Completion{RequestedAt: now}
		}, false},
		{"disputed without dispute", func(b *Booking) {
			b.Status = StatusDisputed
			b.AcceptedAt = &now
			b.Completion = &Completion{RequestedAt: now}
		}, false},
		{"rejected", func(b *Booking) {
			b.Status = StatusRejected
			b.Rejection = &Cancellation{By: "p", At: now}
		}, true},
		{"cancelled without record", func(b *Booking) { b.Status = StatusCancelled }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := validBooking()
			tc.mutate(b)
			if err := b.Validate(); (err == nil) != tc.ok {
				t.Fatalf("Validate() = %v", err)
			}
		})
	}
}

func TestConfirmationOverdue(t *testing.T) {
	deadline := time.Date(2030, 1, 9, 12, 0, 0, 0, time.UTC)
	b := validBooking()
	b.Status = StatusAwaitingConfirmation
	b.Completion = &Completion{ConfirmationDeadline: deadline}

	if b.ConfirmationOverdue(deadline.Add(-time.Nanosecond)) {
		t.Error("overdue before the deadline")
	}
	if !b.ConfirmationOverdue(deadline) {
		t.Error("not overdue at the deadline")
	}
	b.Status = StatusDisputed
	if b.ConfirmationOverdue(deadline.Add(time.Hour)) {
		t.Error("disputed booking reported overdue")
	}
}

func TestSlotEffectiveStatus(t *testing.T) {
	exp := time.Date(2030, 1, 7, 8, 10, 0, 0, time.UTC)
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	s := Slot{Start: start, End: start.Add(time.Hour), Status: SlotHeld, Hold: &SlotHold{ID: "h", HolderID: "c", ExpiresAt: exp}}

	if s.EffectiveStatus(exp.Add(-time.Second)) != SlotHeld || !s.HeldBy("c", exp.Add(-time.Second)) {
		t.Error("hold should be in force before expires_at")
	}
	if s.EffectiveStatus(exp) != SlotAvailable || s.HeldBy("c", exp) || !s.Claimable(exp) {
		t.Error("hold should be gone at expires_at")
	}
	if v := s.View(exp); v.Hold != nil || v.Status != SlotAvailable {
		t.Errorf("view %+v", v)
	}
	booked := Slot{Start: start, Status: SlotBooked}
	if booked.Claimable(exp) {
		t.Error("booked slot claimable")
	}
}

func TestElapsedSlotsAreClosed(t *testing.T) {
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	free := Slot{Start: start, End: start.Add(time.Hour), Status: SlotAvailable}
	held := Slot{Start: start, End: start.Add(time.Hour), Status: SlotHeld, Hold: &SlotHold{HolderID: "c", ExpiresAt: start.Add(time.Hour)}}
	booked := Slot{Start: start, End: start.Add(time.Hour), Status: SlotBooked}

	before := start.Add(-time.Second)
	if !free.Claimable(before) || !free.Listed(before) || !held.HeldBy("c", before) {
		t.Fatal("slot should be open before it starts")
	}
	for _, now := range []time.Time{start, start.Add(2 * time.Hour)} {
		if free.Claimable(now) || free.Listed(now) {
			t.Errorf("free slot open at %s", now)
		}
		if held.HeldBy("c", now) || held.Listed(now) {
			t.Errorf("held slot still bookable at %s", now)
		}
		if !booked.Listed(now) {
			t.Errorf("booked slot dropped at %s", now)
		}
	}
}

func TestHoldFromSlots(t *testing.T) {
	base := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	h := &SlotHold{ID: "h1", HolderID: "c", ExpiresAt: base}
	slots := []Slot{
		{ID: "b", ProviderID: "p", Start: base.Add(time.Hour), End: base.Add(2 * time.Hour), Hold: h},
		{ID: "a", ProviderID: "p", Start: base, End: base.Add(time.Hour), Hold: h},
	}
	got := HoldFromSlots(slots)
	if got.SlotIDs[0] != "a" || !got.Start.Equal(base) || !got.End.Equal(base.Add(2*time.Hour)) {
		t.Errorf("hold %+v", got)
	}
	if HoldFromSlots(nil) != nil {
		t.Error("empty slots gave a hold")
	}
}

func TestEvidenceTypeFor(t *testing.T) {
	for ct, want := range map[string]EvidenceType{
		"image/png":       EvidenceImage,
		"video/mp4":       EvidenceVideo,
		"application/pdf": EvidenceDocument,
		"":                EvidenceDocument,
	} {
		if got := EvidenceTypeFor(ct); got != want {
			t.Errorf("EvidenceTypeFor(%q) = %s", ct, got)
		}
	}
}
