package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"reservo/database/repository/memory"
	"reservo/models"
	"reservo/services/events"
	"reservo/services/hold"
	"reservo/services/payment"
	"reservo/services/storage"
	"reservo/services/wallet"

	"go.uber.org/zap/zaptest"
)

// 2030-01-07 08:00 UTC; the seeded slots run hourly from 09:00.
var t0 = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

var (
	client   = models.Actor{ID: "client-1", Role: models.RoleClient}
	stranger = models.Actor{ID: "client-2", Role: models.RoleClient}
	provider = models.Actor{ID: "prov-1", Role: models.RoleProvider}
	admin    = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recorder keeps every published event and hands it on to the bus the ledger listens on.
type recorder struct {
	mu     sync.Mutex
	events []models.BookingEvent
	next   events.Publisher
}

func (r *recorder) Publish(ctx context.Context, evt models.BookingEvent) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	if r.next == nil {
		return nil
	}
	return r.next.Publish(ctx, evt)
}

func (r *recorder) types(bookingID string) []models.BookingEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BookingEventType
	for _, e := range r.events {
		if e.BookingID == bookingID {
			out = append(out, e.Type)
		}
	}
	return out
}

type deadlines struct {
	mu  sync.Mutex
	due map[string]time.Time
}

func (d *deadlines) ScheduleAutoConfirm(_ context.Context, bookingID string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.due[bookingID] = at
	return nil
}

type fixture struct {
	svc       *DefaultBookingService
	store     *memory.Store
	holds     *hold.Manager
	files     *storage.MemoryStorage
	ledger    *wallet.Ledger
	events    *recorder
	deadlines *deadlines
	clock     *clock
	slotIDs   []string
}

func newFixture(t *testing.T, mode models.BookingMode) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	c := &clock{now: t0}

	var slots []models.Slot
	for i := 0; i < 4; i++ {
		start := t0.Add(time.Duration(1+i) * time.Hour)
		slots = append(slots, models.Slot{
			ID:         "slot-" + start.Format("1504"),
			ProviderID: provider.ID,
			Date:       "2030-01-07",
			Start:      start,
			End:        start.Add(time.Hour),
			Status:     models.SlotAvailable,
		})
	}
	if err := store.Slots().InsertMany(ctx, slots); err != nil {
		t.Fatal(err)
	}
	err := store.Availability().ReplaceServices(ctx, provider.ID, []models.Service{{
		ID:          "svc-1",
		ProviderID:  provider.ID,
		Name:        "Deep cleaning",
		PricingType: models.PricingHourly,
		HourlyRate:  40,
		Currency:    "USD",
		BookingMode: mode,
		Active:      true,
	}})
	if err != nil {
		t.Fatal(err)
	}

	holds := &hold.Manager{Slots: store.Slots(), Logger: logger, DefaultTTL: 10 * time.Minute, Now: c.Now}
	ledger := wallet.NewLedger(store.Wallets(), logger)
	ledger.Now = c.Now
	bus := events.NewLocalBus(logger)
	bus.Subscribe(ledger.Handle, wallet.Consumes...)
	f := &fixture{
		store:     store,
		holds:     holds,
		files:     storage.NewMemoryStorage(),
		ledger:    ledger,
		events:    &recorder{next: bus},
		deadlines: &deadlines{due: map[string]time.Time{}},
		clock:     c,
		slotIDs:   models.SlotIDs(slots),
	}
	f.svc = &DefaultBookingService{
		Bookings:           store.Bookings(),
		Slots:              store.Slots(),
		Catalogue:          store.Availability(),
		Holds:              holds,
		Payments:           &payment.SimulatedProcessor{Logger: logger},
		Storage:            f.files,
		Events:             f.events,
		Deadlines:          f.deadlines,
		Logger:             logger,
		ConfirmationWindow: 48 * time.Hour,
		Now:                c.Now,
	}
	return f
}

// book holds the given slots for actor and turns them into a booking.
func (f *fixture) book(t *testing.T, actor models.Actor, ids ...string) *models.Booking {
	t.Helper()
	ctx := context.Background()
	if _, err := f.holds.Hold(ctx, actor.ID, ids, 0); err != nil {
		t.Fatalf("hold: %v", err)
	}
	b, err := f.svc.Create(ctx, actor, models.CreateBookingRequest{ProviderID: provider.ID, ServiceID: "svc-1", SlotIDs: ids})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return b
}

func (f *fixture) slotStatus(t *testing.T, id string) models.SlotStatus {
	t.Helper()
	got, err := f.store.Slots().GetByIDs(context.Background(), []string{id})
	if err != nil || len(got) != 1 {
		t.Fatalf("slot %s: %v", id, err)
	}
	return got[0].EffectiveStatus(f.clock.Now())
}

func (f *fixture) balance(t *testing.T) *models.Wallet {
	t.Helper()
	w, err := f.ledger.GetWallet(context.Background(), provider.ID)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func afterPhoto() []models.EvidenceUpload {
	return []models.EvidenceUpload{{Filename: "after.jpg", ContentType: "image/jpeg", Data: []byte("jpeg bytes")}}
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }
