// Package memory is an in-process implementation of every repository. It backs the service tests
// and STORE_DRIVER=memory; one mutex serialises all writes, which gives the same all-or-nothing
// claims the mongo transactions give.
package memory

import (
	"sync"

	"reservo/models"
)

type Store struct {
	mu        sync.RWMutex
	slots     map[string]models.Slot
	bookings  map[string]models.Booking
	schedules map[string]models.Schedule
	overrides map[string]map[string]models.DateOverride
	services  map[string][]models.Service
	wallets   map[string]models.Wallet
	txs       []models.Transaction
	txKeys    map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		slots:     map[string]models.Slot{},
		bookings:  map[string]models.Booking{},
		schedules: map[string]models.Schedule{},
		overrides: map[string]map[string]models.DateOverride{},
		services:  map[string][]models.Service{},
		wallets:   map[string]models.Wallet{},
		txKeys:    map[string]struct{}{},
	}
}

func (s *Store) Slots() *SlotStore { return &SlotStore{s} }
func (s *Store) Bookings() *BookingStore { return &BookingStore{s} }
func (s *Store) Availability() *AvailabilityStore { return &AvailabilityStore{s} }
func (s *Store) Wallets() *WalletStore { return &WalletStore{s} }

func cloneSlot(sl models.Slot) models.Slot {
	if sl.Hold != nil {
		h := *sl.Hold
		sl.Hold = &h
	}
	return sl
}

func cloneBooking(b models.Booking) models.Booking {
	b.SlotIDs = append([]string(nil), b.SlotIDs...)
	if b.AcceptedAt != nil {
		t := *b.AcceptedAt
		b.AcceptedAt = &t
	}
	if b.Rejection != nil {
		r := *b.Rejection
		b.Rejection = &r
	}
	if b.Cancellation != nil {
		c := *b.Cancellation
		b.Cancellation = &c
	}
	if b.Completion != nil {
		c := *b.Completion
		c.Evidence = append([]models.Evidence(nil), c.Evidence...)
		if c.ConfirmedAt != nil {
			t := *c.ConfirmedAt
			c.ConfirmedAt = &t
		}
		b.Completion = &c
	}
	if b.Dispute != nil {
		d := *b.Dispute
		b.Dispute = &d
	}
	if b.Resolution != nil {
		r := *b.Resolution
		b.Resolution = &r
	}
	if b.Reschedule != nil {
		r := *b.Reschedule
		b.Reschedule = &r
	}
	return b
}
