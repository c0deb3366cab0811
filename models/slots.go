package models

import (
	"sort"
	"time"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotHeld      SlotStatus = "held"
	SlotBooked    SlotStatus = "booked"
)

// SlotHold is the claim embedded on a held slot. Every slot of a multi-slot hold carries the same ID.
type SlotHold struct {
	ID        string    `bson:"id" json:"id"`
	HolderID  string    `bson:"holderId" json:"holder_id"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expires_at"`
}

// Slot is a concrete bookable interval of a provider's time.
type Slot struct {
	ID         string     `bson:"id" json:"id"`
	ProviderID string     `bson:"providerId" json:"provider_id"`
	Date       string     `bson:"date" json:"date"` // provider-local day, "2006-01-02"
	Start      time.Time  `bson:"start" json:"start"`
	End        time.Time  `bson:"end" json:"end"`
	Status     SlotStatus `bson:"status" json:"status"`
	Hold       *SlotHold  `bson:"hold,omitempty" json:"hold,omitempty"`
	BookingID  string     `bson:"bookingId,omitempty" json:"booking_id,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updated_at"`
}

// EffectiveStatus reads a held slot whose hold has lapsed as available.
func (s Slot) EffectiveStatus(now time.Time) SlotStatus {
	if s.Status == SlotHeld && (s.Hold == nil || !now.Before(s.Hold.ExpiresAt)) {
		return SlotAvailable
	}
	return s.Status
}

// Elapsed reports whether the slot has started by now. Elapsed slots can no longer be held or booked.
func (s Slot) Elapsed(now time.Time) bool {
	return !now.Before(s.Start)
}

// Claimable reports whether a new hold may take this slot at now.
func (s Slot) Claimable(now time.Time) bool {
	return !s.Elapsed(now) && s.EffectiveStatus(now) == SlotAvailable
}

// HeldBy reports whether the slot carries an unexpired hold owned by holderID and can still be booked.
func (s Slot) HeldBy(holderID string, now time.Time) bool {
	return !s.Elapsed(now) && s.EffectiveStatus(now) == SlotHeld && s.Hold.HolderID == holderID
}

// Listed reports whether the slot still belongs in availability views at now: booked slots stay
// on record, free or held slots drop out once they have started.
func (s Slot) Listed(now time.Time) bool {
	return s.Status == SlotBooked || !s.Elapsed(now)
}

// View returns a copy with the effective status applied; lapsed holds are stripped.
func (s Slot) View(now time.Time) Slot {
	if s.EffectiveStatus(now) != s.Status {
		s.Status = SlotAvailable
		s.Hold = nil
	}
	return s
}

// Overlaps reports whether two slots share any instant.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// SortSlots orders slots by start time.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
}

// SlotIDs returns the ids of slots in order.
func SlotIDs(slots []Slot) []string {
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids
}

// DaySlotsResponse is returned by the day timeslots endpoint.
type DaySlotsResponse struct {
	ProviderID string    `json:"provider_id"`
	Date       string    `json:"date"`
	Slots      []Slot    `json:"slots"`
	ServerTime time.Time `json:"server_time"`
}
