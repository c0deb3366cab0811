package models

import "time"

// Hold is a temporary exclusive claim on an ordered, contiguous run of slots.
// It is not stored on its own: it is read back from the slots carrying its id.
type Hold struct {
	ID         string    `json:"id"`
	HolderID   string    `json:"holder_id"`
	ProviderID string    `json:"provider_id"`
	SlotIDs    []string  `json:"slot_ids"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Active reports whether the hold is still in force at now. expires_at <= now means absent.
func (h Hold) Active(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}

// HoldFromSlots rebuilds a hold from the slots that carry it. Slots must share one hold id.
func HoldFromSlots(slots []Slot) *Hold {
	if len(slots) == 0 || slots[0].Hold == nil {
		return nil
	}
	ordered := append([]Slot(nil), slots...)
	SortSlots(ordered)
	first, last := ordered[0], ordered[len(ordered)-1]
	return &Hold{
		ID:         first.Hold.ID,
		HolderID:   first.Hold.HolderID,
		ProviderID: first.ProviderID,
		SlotIDs:    SlotIDs(ordered),
		Start:      first.Start,
		End:        last.End,
		ExpiresAt:  first.Hold.ExpiresAt,
	}
}

// HoldRequest is the body of POST /availability/slots/hold.
type HoldRequest struct {
	SlotIDs        []string `json:"slot_ids" binding:"required"`
	PreviousHoldID string   `json:"previous_hold_id,omitempty"`
	TTLSeconds     int      `json:"ttl_seconds,omitempty"`
}

// ReleaseRequest is the body of POST /availability/slots/release.
type ReleaseRequest struct {
	SlotIDs []string `json:"slot_ids,omitempty"`
	HoldID  string   `json:"hold_id,omitempty"`
}

type HoldResponse struct {
	Hold       Hold      `json:"hold"`
	ExpiresAt  time.Time `json:"expires_at"`
	ServerTime time.Time `json:"server_time"`
}
