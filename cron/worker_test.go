package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reservo/database/repository/memory"
	"reservo/models"
	"reservo/services/booking"
	"reservo/services/events"
	"reservo/services/hold"
	"reservo/services/payment"
	"reservo/services/storage"
	"reservo/services/wallet"

	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

// outage fails the first n ledger writes, as a database blip would.
type outage struct {
	*wallet.Ledger
	mu sync.Mutex
	n  int
}

func (o *outage) Handle(ctx context.Context, evt models.BookingEvent) error {
	o.mu.Lock()
	fail := o.n > 0
	if fail {
		o.n--
	}
	o.mu.Unlock()
	if fail {
		return errors.New("ledger database unavailable")
	}
	return o.Ledger.Handle(ctx, evt)
}

func TestReconcileLedgerRecoversLostEvent(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	now := t0
	clock := func() time.Time { return now }

	start := t0.Add(time.Hour)
	slot := models.Slot{ID: "slot-0900", ProviderID: "prov-1", Date: "2030-01-07", Start: start, End: start.Add(time.Hour), Status: models.SlotAvailable}
	if err := store.Slots().InsertMany(ctx, []models.Slot{slot}); err != nil {
		t.Fatal(err)
	}
	err := store.Availability().ReplaceServices(ctx, "prov-1", []models.Service{{
		ID: "svc-1", ProviderID: "prov-1", Name: "Deep cleaning", PricingType: models.PricingHourly,
		HourlyRate: 40, Currency: "USD", BookingMode: models.ModeInstant, Active: true,
	}})
	if err != nil {
		t.Fatal(err)
	}

	ledger := &outage{Ledger: wallet.NewLedger(store.Wallets(), logger), n: 1}
	bus := events.NewLocalBus(logger)
	bus.Subscribe(ledger.Handle, wallet.Consumes...)

	holds := &hold.Manager{Slots: store.Slots(), Logger: logger, DefaultTTL: 10 * time.Minute, Now: clock}
	svc := &booking.DefaultBookingService{
		Bookings:           store.Bookings(),
		Slots:              store.Slots(),
		Catalogue:          store.Availability(),
		Holds:              holds,
		Payments:           &payment.SimulatedProcessor{Logger: logger},
		Storage:            storage.NewMemoryStorage(),
		Events:             bus,
		Logger:             logger,
		ConfirmationWindow: 48 * time.Hour,
		Now:                clock,
	}

	client := models.Actor{ID: "client-1", Role: models.RoleClient}
	prov := models.Actor{ID: "prov-1", Role: models.RoleProvider}
	if _, err := holds.Hold(ctx, client.ID, []string{slot.ID}, 0); err != nil {
		t.Fatal(err)
	}
	b, err := svc.Create(ctx, client, models.CreateBookingRequest{ProviderID: "prov-1", ServiceID: "svc-1", SlotIDs: []string{slot.ID}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	photo := []models.EvidenceUpload{{Filename: "after.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")}}
	if _, err := svc.Complete(ctx, prov, b.ID, "", photo); err != nil {
		t.Fatalf("complete: %v", err)
	}
	confirmed := true
	if _, err := svc.Confirm(ctx, client, b.ID, models.ConfirmRequest{Confirmed: &confirmed}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	w, _ := ledger.GetWallet(ctx, "prov-1")
	if w.AvailableBalance != 0 {
		t.Fatalf("the failed event still moved money: %+v", w)
	}

	jobs := Jobs{Bookings: svc, Ledger: ledger, Logger: logger, Now: clock}
	for i := 0; i < 2; i++ {
		if err := jobs.handleReconcileLedger(ctx, nil); err != nil {
			t.Fatalf("reconcile run %d: %v", i+1, err)
		}
	}

	w, _ = ledger.GetWallet(ctx, "prov-1")
	if w.AvailableBalance != 40 || w.PendingBalance != 0 {
		t.Errorf("wallet after reconcile %+v", w)
	}
	drift, err := ledger.Verify(ctx, "prov-1")
	if err != nil || !drift.Consistent || drift.TransactionCount != 3 {
		t.Errorf("verify %+v, %v", drift, err)
	}

	// only bookings settled inside the window are replayed
	if evts, _ := svc.SettledEvents(ctx, t0); len(evts) != 1 || evts[0].Type != models.EventBookingCompleted {
		t.Errorf("settled since t0: %+v", evts)
	}
	if evts, _ := svc.SettledEvents(ctx, t0.Add(time.Minute)); len(evts) != 0 {
		t.Errorf("settled after the booking: %d events", len(evts))
	}
}

func TestReconcileLedgerWithoutLedger(t *testing.T) {
	svc := &booking.DefaultBookingService{Bookings: memory.NewStore().Bookings(), Logger: zaptest.NewLogger(t)}
	if err := (Jobs{Bookings: svc, Logger: zaptest.NewLogger(t)}).handleReconcileLedger(context.Background(), nil); err != nil {
		t.Errorf("reconcile without a ledger: %v", err)
	}
}
