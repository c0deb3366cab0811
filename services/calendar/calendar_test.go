package calendar

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"reservo/database/repository/memory"
	"reservo/models"

	"go.uber.org/zap/zaptest"
)

var now = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

// mapCache mirrors the redis cache's versioned keys in memory.
type mapCache struct {
	mu       sync.Mutex
	versions map[string]int
	months   map[string]*models.CalendarMonth
	hits     int
}

func newMapCache() *mapCache {
	return &mapCache{versions: map[string]int{}, months: map[string]*models.CalendarMonth{}}
}

func (c *mapCache) Key(_ context.Context, providerID string, year, month int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%s:%d:%04d-%02d", providerID, c.versions[providerID], year, month)
}

func (c *mapCache) Get(_ context.Context, key string) (*models.CalendarMonth, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.months[key]
	if ok {
		c.hits++
	}
	return m, ok
}

func (c *mapCache) Set(_ context.Context, key string, m *models.CalendarMonth) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.months[key] = m
}

func (c *mapCache) Invalidate(_ context.Context, providerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[providerID]++
}

func seed(t *testing.T, store *memory.Store) []models.Slot {
	t.Helper()
	var slots []models.Slot
	for i := 0; i < 3; i++ {
		start := now.Add(time.Duration(1+i) * time.Hour)
		slots = append(slots, models.Slot{
			ID: fmt.Sprintf("s%d", i), ProviderID: "prov-1", Date: "2030-01-07",
			Start: start, End: start.Add(time.Hour), Status: models.SlotAvailable,
		})
	}
	if err := store.Slots().InsertMany(context.Background(), slots); err != nil {
		t.Fatal(err)
	}
	return slots
}

func TestMonthCountsEffectiveStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	slots := seed(t, store)
	clock := now
	agg := &Aggregator{Slots: store.Slots(), Availability: store.Availability(), Logger: zaptest.NewLogger(t), Now: func() time.Time { return clock }}

	hold := models.SlotHold{ID: "h1", HolderID: "client-1", ExpiresAt: now.Add(5 * time.Minute)}
	if err := store.Slots().Claim(ctx, []string{slots[0].ID}, hold, now); err != nil {
		t.Fatal(err)
	}
	if err := store.Availability().UpsertOverride(ctx, models.DateOverride{ProviderID: "prov-1", Date: "2030-01-20"}); err != nil {
		t.Fatal(err)
	}

	m, err := agg.Month(ctx, "prov-1", 2030, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Days) != 31 {
		t.Fatalf("want every day of January, got %d", len(m.Days))
	}
	day := m.Days[6]
	if day.Date != "2030-01-07" || day.HeldCount != 1 || day.AvailableCount != 2 || day.TotalCount != 3 {
		t.Errorf("Jan 7: %+v", day)
	}
	if m.Days[19].Override == nil || len(m.Overrides) != 1 {
		t.Errorf("override missing: %+v", m.Days[19])
	}

	clock = now.Add(5 * time.Minute)
	d, err := agg.Day(ctx, "prov-1", "2030-01-07")
	if err != nil {
		t.Fatal(err)
	}
	if d.HeldCount != 0 || d.AvailableCount != 3 || d.FullyBooked {
		t.Errorf("lapsed hold still counted: %+v", d)
	}
}

func TestMonthValidation(t *testing.T) {
	store := memory.NewStore()
	agg := &Aggregator{Slots: store.Slots(), Availability: store.Availability()}
	for _, ym := range [][2]int{{2030, 0}, {2030, 13}, {1900, 5}} {
		if _, err := agg.Month(context.Background(), "prov-1", ym[0], ym[1]); err == nil {
			t.Errorf("month %v accepted", ym)
		}
	}
	if _, err := agg.Day(context.Background(), "prov-1", "tomorrow"); err == nil {
		t.Error("bad day accepted")
	}
}

func TestMonthCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	slots := seed(t, store)
	cache := newMapCache()
	agg := &Aggregator{Slots: store.Slots(), Availability: store.Availability(), Cache: cache, Now: func() time.Time { return now }}

	if _, err := agg.Month(ctx, "prov-1", 2030, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := agg.Month(ctx, "prov-1", 2030, 1); err != nil {
		t.Fatal(err)
	}
	if cache.hits != 1 {
		t.Fatalf("second read should hit the cache, hits=%d", cache.hits)
	}

	hold := models.SlotHold{ID: "h1", HolderID: "client-1", ExpiresAt: now.Add(time.Hour)}
	if err := store.Slots().Claim(ctx, models.SlotIDs(slots), hold, now); err != nil {
		t.Fatal(err)
	}
	agg.Invalidate(ctx, "prov-1")

	m, err := agg.Month(ctx, "prov-1", 2030, 1)
	if err != nil {
		t.Fatal(err)
	}
	if m.Days[6].HeldCount != 3 || !m.Days[6].FullyBooked {
		t.Errorf("stale month served after invalidation: %+v", m.Days[6])
	}
}
