package memory

import (
	"context"
	"time"

	"reservo/apperr"
	"reservo/models"
)

type SlotStore struct{ s *Store }

func (r *SlotStore) InsertMany(_ context.Context, slots []models.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	taken := map[string]struct{}{}
	for _, sl := range r.s.slots {
		taken[sl.ProviderID+"|"+sl.Start.UTC().Format(time.RFC3339)] = struct{}{}
	}
	for _, sl := range slots {
		key := sl.ProviderID + "|" + sl.Start.UTC().Format(time.RFC3339)
		if _, dup := r.s.slots[sl.ID]; dup {
			continue
		}
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}
		r.s.slots[sl.ID] = cloneSlot(sl)
	}
	return nil
}

func (r *SlotStore) GetByIDs(_ context.Context, ids []string) ([]models.Slot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Slot
	for _, id := range ids {
		if sl, ok := r.s.slots[id]; ok {
			out = append(out, cloneSlot(sl))
		}
	}
	models.SortSlots(out)
	return out, nil
}

func (r *SlotStore) ListByProviderDates(_ context.Context, providerID, fromDate, toDate string) ([]models.Slot, error) {
	return r.filter(func(sl models.Slot) bool {
		return sl.ProviderID == providerID && sl.Date >= fromDate && sl.Date <= toDate
	}), nil
}

func (r *SlotStore) GetByHoldID(_ context.Context, holdID string) ([]models.Slot, error) {
	return r.filter(func(sl models.Slot) bool {
		return sl.Status == models.SlotHeld && sl.Hold != nil && sl.Hold.ID == holdID
	}), nil
}

func (r *SlotStore) ListHeldBy(_ context.Context, holderID string, now time.Time) ([]models.Slot, error) {
	return r.filter(func(sl models.Slot) bool { return sl.HeldBy(holderID, now) }), nil
}

func (r *SlotStore) DeleteFreeFrom(_ context.Context, providerID string, from, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, sl := range r.s.slots {
		if sl.ProviderID == providerID && !sl.Start.Before(from) && sl.Claimable(now) {
			delete(r.s.slots, id)
			n++
		}
	}
	return n, nil
}

func (r *SlotStore) Claim(_ context.Context, ids []string, hold models.SlotHold, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range ids {
		sl, ok := r.s.slots[id]
		if !ok || !sl.Claimable(now) {
			return apperr.SlotConflict(id)
		}
	}
	for _, id := range ids {
		sl := r.s.slots[id]
		h := hold
		sl.Status = models.SlotHeld
		sl.Hold = &h
		sl.UpdatedAt = now
		r.s.slots[id] = sl
	}
	return nil
}

func (r *SlotStore) ReleaseHold(_ context.Context, holderID, holdID string, ids []string) (int64, error) {
	if holdID == "" && len(ids) == 0 {
		return 0, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for id, sl := range r.s.slots {
		if sl.Status != models.SlotHeld || sl.Hold == nil || sl.Hold.HolderID != holderID {
			continue
		}
		if holdID != "" && sl.Hold.ID != holdID {
			continue
		}
		if len(ids) > 0 && !want[id] {
			continue
		}
		sl.Status = models.SlotAvailable
		sl.Hold = nil
		sl.UpdatedAt = time.Now().UTC()
		r.s.slots[id] = sl
		n++
	}
	return n, nil
}

func (r *SlotStore) ReleaseExpired(_ context.Context, now time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := map[string]bool{}
	var providers []string
	for id, sl := range r.s.slots {
		if sl.Status != models.SlotHeld || sl.EffectiveStatus(now) != models.SlotAvailable {
			continue
		}
		sl.Status = models.SlotAvailable
		sl.Hold = nil
		sl.UpdatedAt = now
		r.s.slots[id] = sl
		if !seen[sl.ProviderID] {
			seen[sl.ProviderID] = true
			providers = append(providers, sl.ProviderID)
		}
	}
	return providers, nil
}

func (r *SlotStore) EnsureIndexes(context.Context) error { return nil }

func (r *SlotStore) filter(keep func(models.Slot) bool) []models.Slot {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Slot
	for _, sl := range r.s.slots {
		if keep(sl) {
			out = append(out, cloneSlot(sl))
		}
	}
	models.SortSlots(out)
	return out
}
