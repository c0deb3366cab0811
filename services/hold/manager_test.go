package hold

import (
	"context"
	"sync"
	"testing"
	"time"

	"reservo/apperr"
	"reservo/database/repository/memory"
	"reservo/models"

	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

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

// seed stores n back-to-back hour slots from 09:00 for provider.
func seed(t *testing.T, store *memory.Store, provider string, n int) []string {
	t.Helper()
	var slots []models.Slot
	for i := 0; i < n; i++ {
		start := t0.Add(time.Duration(1+i) * time.Hour)
		slots = append(slots, models.Slot{
			ID:         provider + "-" + start.Format("1504"),
			ProviderID: provider,
			Date:       start.Format("2006-01-02"),
			Start:      start,
			End:        start.Add(time.Hour),
			Status:     models.SlotAvailable,
		})
	}
	if err := store.Slots().InsertMany(context.Background(), slots); err != nil {
		t.Fatal(err)
	}
	return models.SlotIDs(slots)
}

func newManager(t *testing.T) (*Manager, *memory.Store, *clock) {
	store := memory.NewStore()
	c := &clock{now: t0}
	return &Manager{
		Slots:      store.Slots(),
		Logger:     zaptest.NewLogger(t),
		DefaultTTL: 10 * time.Minute,
		MaxTTL:     30 * time.Minute,
		Now:        c.Now,
	}, store, c
}

func TestHoldContiguousBlock(t *testing.T) {
	m, store, _ := newManager(t)
	ids := seed(t, store, "prov-1", 3)

	h, err := m.Hold(context.Background(), "client-1", []string{ids[1], ids[0]}, 0)
	if err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if len(h.SlotIDs) != 2 || h.SlotIDs[0] != ids[0] {
		t.Errorf("slot ids not ordered by start: %v", h.SlotIDs)
	}
	if !h.ExpiresAt.Equal(t0.Add(10*time.Minute)) || h.End.Sub(h.Start) != 2*time.Hour {
		t.Errorf("unexpected hold %+v", h)
	}
	if got, _ := m.Get(context.Background(), h.ID); got == nil || got.HolderID != "client-1" {
		t.Errorf("Get returned %+v", got)
	}
}

func TestHoldRejectsBadSelections(t *testing.T) {
	m, store, _ := newManager(t)
	ids := seed(t, store, "prov-1", 3)
	other := seed(t, store, "prov-2", 1)
	ctx := context.Background()

	if _, err := m.Hold(ctx, "c", []string{ids[0], ids[2]}, 0); !apperr.Is(err, apperr.CodeNonContiguousSelection) {
		t.Errorf("gap: %v", err)
	}
	if _, err := m.Hold(ctx, "c", nil, 0); !apperr.Is(err, apperr.CodeInvalidInput) {
		t.Errorf("empty: %v", err)
	}
	if _, err := m.Hold(ctx, "c", []string{ids[0], ids[0]}, 0); !apperr.Is(err, apperr.CodeInvalidInput) {
		t.Errorf("duplicate: %v", err)
	}
	if _, err := m.Hold(ctx, "c", []string{ids[0], "missing"}, 0); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing: %v", err)
	}
	if _, err := m.Hold(ctx, "c", []string{ids[0], other[0]}, 0); err == nil {
		t.Error("cross-provider selection accepted")
	}
}

func TestHoldIsExclusiveUnderRace(t *testing.T) {
	m, store, _ := newManager(t)
	ids := seed(t, store, "prov-1", 2)

	const racers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Hold(context.Background(), "client-"+string(rune('a'+i)), ids, 0)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperr.Is(err, apperr.CodeSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 || conflicts != racers-1 {
		t.Fatalf("wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestHoldExpiresAtDeadline(t *testing.T) {
	m, store, c := newManager(t)
	ids := seed(t, store, "prov-1", 1)
	ctx := context.Background()

	h, err := m.Hold(ctx, "client-1", ids, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(5*time.Minute - time.Second)
	if _, err := m.Hold(ctx, "client-2", ids, 0); !apperr.Is(err, apperr.CodeSlotConflict) {
		t.Fatalf("slot should still be held: %v", err)
	}

	c.Advance(time.Second)
	if _, err := m.Get(ctx, h.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("hold should read as gone at expires_at: %v", err)
	}
	if _, err := m.Hold(ctx, "client-2", ids, 0); err != nil {
		t.Fatalf("expired hold should not block: %v", err)
	}
}

func TestHoldTTLIsCapped(t *testing.T) {
	m, store, _ := newManager(t)
	ids := seed(t, store, "prov-1", 1)
	h, err := m.Hold(context.Background(), "client-1", ids, 2*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !h.ExpiresAt.Equal(t0.Add(30 * time.Minute)) {
		t.Errorf("ttl not capped: %s", h.ExpiresAt)
	}
}

func TestReleaseIsIdempotentAndOwnerOnly(t *testing.T) {
	m, store, _ := newManager(t)
	ids := seed(t, store, "prov-1", 2)
	ctx := context.Background()

	h, err := m.Hold(ctx, "client-1", ids, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := m.Release(ctx, "client-2", h.ID, nil); n != 0 {
		t.Errorf("stranger released %d slots", n)
	}
	if n, err := m.Release(ctx, "client-1", h.ID, nil); err != nil || n != 2 {
		t.Fatalf("Release = %d, %v", n, err)
	}
	if n, err := m.Release(ctx, "client-1", h.ID, nil); err != nil || n != 0 {
		t.Fatalf("second Release = %d, %v", n, err)
	}
	if _, err := m.Release(ctx, "client-1", "", nil); !apperr.Is(err, apperr.CodeInvalidInput) {
		t.Errorf("empty release: %v", err)
	}
}

func TestReholdSwapsSelection(t *testing.T) {
	m, store, _ := newManager(t)
	ids := seed(t, store, "prov-1", 3)
	ctx := context.Background()

	first, err := m.Hold(ctx, "client-1", ids[:2], 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Rehold(ctx, "client-1", first.ID, ids[1:], 0)
	if err != nil {
		t.Fatalf("Rehold: %v", err)
	}
	if second.ID == first.ID {
		t.Error("rehold reused the hold id")
	}
	active, _ := m.ActiveForHolder(ctx, "client-1")
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("active holds: %+v", active)
	}
	// the dropped slot is free again
	if _, err := m.Hold(ctx, "client-2", ids[:1], 0); err != nil {
		t.Errorf("released slot not claimable: %v", err)
	}
}

func TestFindHeldBlock(t *testing.T) {
	m, store, _ := newManager(t)
	ids := seed(t, store, "prov-1", 2)
	ctx := context.Background()

	h, err := m.Hold(ctx, "client-1", ids, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.FindHeldBlock(ctx, "client-1", h.Start, h.End)
	if err != nil || got.ID != h.ID {
		t.Fatalf("FindHeldBlock = %+v, %v", got, err)
	}
	if _, err := m.FindHeldBlock(ctx, "client-2", h.Start, h.End); !apperr.Is(err, apperr.CodeHoldExpired) {
		t.Errorf("other holder: %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	m, store, c := newManager(t)
	ids := seed(t, store, "prov-1", 1)
	ctx := context.Background()
	if _, err := m.Hold(ctx, "client-1", ids, time.Minute); err != nil {
		t.Fatal(err)
	}
	if n, _ := m.SweepExpired(ctx); n != 0 {
		t.Errorf("swept %d providers before expiry", n)
	}
	c.Advance(time.Minute)
	if n, _ := m.SweepExpired(ctx); n != 1 {
		t.Errorf("swept %d providers after expiry", n)
	}
	slots, _ := store.Slots().GetByIDs(ctx, ids)
	if slots[0].Status != models.SlotAvailable || slots[0].Hold != nil {
		t.Errorf("slot not reset: %+v", slots[0])
	}
}
