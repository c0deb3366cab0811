package models

import "time"

// CalendarDay summarises one date of a provider's calendar.
type CalendarDay struct {
	Date           string        `json:"date"`
	AvailableCount int           `json:"available_count"`
	HeldCount      int           `json:"held_count"`
	BookedCount    int           `json:"booked_count"`
	TotalCount     int           `json:"total_count"`
	FullyBooked    bool          `json:"fully_booked"`
	Override       *DateOverride `json:"override,omitempty"`
}

// Add counts one slot under its effective status.
func (d *CalendarDay) Add(status SlotStatus) {
	switch status {
	case SlotAvailable:
		d.AvailableCount++
	case SlotHeld:
		d.HeldCount++
	case SlotBooked:
		d.BookedCount++
	}
	d.TotalCount++
	d.FullyBooked = d.TotalCount > 0 && d.AvailableCount == 0
}

type CalendarMonth struct {
	ProviderID  string         `json:"provider_id"`
	Year        int            `json:"year"`
	Month       int            `json:"month"`
	Days        []CalendarDay  `json:"days"`
	Overrides   []DateOverride `json:"overrides"`
	GeneratedAt time.Time      `json:"generated_at"`
}
