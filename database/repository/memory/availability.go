package memory

import (
	"context"
	"sort"

	"reservo/apperr"
	"reservo/models"
)

type AvailabilityStore struct{ s *Store }

func (r *AvailabilityStore) GetSchedule(_ context.Context, providerID string) (*models.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sched, ok := r.s.schedules[providerID]
	if !ok {
		return &models.Schedule{ProviderID: providerID}, nil
	}
	sched.Rules = append([]models.WeeklyRule(nil), sched.Rules...)
	return &sched, nil
}

func (r *AvailabilityStore) SaveSchedule(_ context.Context, sched models.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sched.Rules = append([]models.WeeklyRule(nil), sched.Rules...)
	r.s.schedules[sched.ProviderID] = sched
	return nil
}

func (r *AvailabilityStore) ListProviderIDs(context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]string, 0, len(r.s.schedules))
	for id := range r.s.schedules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *AvailabilityStore) ListOverrides(_ context.Context, providerID, fromDate, toDate string) ([]models.DateOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.DateOverride
	for date, o := range r.s.overrides[providerID] {
		if date >= fromDate && date <= toDate {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *AvailabilityStore) UpsertOverride(_ context.Context, o models.DateOverride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.overrides[o.ProviderID] == nil {
		r.s.overrides[o.ProviderID] = map[string]models.DateOverride{}
	}
	r.s.overrides[o.ProviderID][o.Date] = o
	return nil
}

func (r *AvailabilityStore) DeleteOverride(_ context.Context, providerID, date string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.overrides[providerID][date]; !ok {
		return apperr.NotFound("no override for %s on %s", providerID, date)
	}
	delete(r.s.overrides[providerID], date)
	return nil
}

func (r *AvailabilityStore) ListServices(_ context.Context, providerID string) ([]models.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]models.Service(nil), r.s.services[providerID]...), nil
}

func (r *AvailabilityStore) GetService(_ context.Context, providerID, serviceID string) (*models.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, svc := range r.s.services[providerID] {
		if svc.ID == serviceID {
			out := svc
			return &out, nil
		}
	}
	return nil, apperr.NotFound("service %s not offered by %s", serviceID, providerID)
}

func (r *AvailabilityStore) ReplaceServices(_ context.Context, providerID string, services []models.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.services[providerID] = append([]models.Service(nil), services...)
	return nil
}

func (r *AvailabilityStore) EnsureIndexes(context.Context) error { return nil }
