// Package calendar aggregates live slot state into per-day counts. It never writes slots.
package calendar

import (
	"context"
	"fmt"
	"time"

	"reservo/apperr"
	availabilityRepo "reservo/database/repository/availability"
	slotRepo "reservo/database/repository/slot"
	"reservo/models"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type CalendarService interface {
	Month(ctx context.Context, providerID string, year, month int) (*models.CalendarMonth, error)
	Day(ctx context.Context, providerID, date string) (*models.CalendarDay, error)
	Invalidate(ctx context.Context, providerID string)
}

// MonthCache stores computed months. Key is taken before the month is computed so a write that
// races an invalidation lands under the old version. Invalidate drops every month of a provider.
type MonthCache interface {
	Key(ctx context.Context, providerID string, year, month int) string
	Get(ctx context.Context, key string) (*models.CalendarMonth, bool)
	Set(ctx context.Context, key string, m *models.CalendarMonth)
	Invalidate(ctx context.Context, providerID string)
}

type Aggregator struct {
	Slots        slotRepo.SlotRepository
	Availability availabilityRepo.AvailabilityRepository
	Cache        MonthCache
	Logger       *zap.Logger
	Now          func() time.Time
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

func (a *Aggregator) Month(ctx context.Context, providerID string, year, month int) (*models.CalendarMonth, error) {
	if month < 1 || month > 12 || year < 1970 || year > 9999 {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "invalid month %d/%d", month, year)
	}
	var key string
	if a.Cache != nil {
		key = a.Cache.Key(ctx, providerID, year, month)
		if key != "" {
			if cached, ok := a.Cache.Get(ctx, key); ok {
				return cached, nil
			}
		}
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	fromDate, toDate := first.Format(dateLayout), last.Format(dateLayout)

	slots, err := a.Slots.ListByProviderDates(ctx, providerID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("calendar month: %w", err)
	}
	overrides, err := a.Availability.ListOverrides(ctx, providerID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("calendar overrides: %w", err)
	}

	days := aggregate(slots, overrides, first, last, a.now())
	out := &models.CalendarMonth{
		ProviderID:  providerID,
		Year:        year,
		Month:       month,
		Days:        days,
		Overrides:   overrides,
		GeneratedAt: a.now(),
	}
	if out.Overrides == nil {
		out.Overrides = []models.DateOverride{}
	}
	if key != "" {
		a.Cache.Set(ctx, key, out)
	}
	return out, nil
}

func (a *Aggregator) Day(ctx context.Context, providerID, date string) (*models.CalendarDay, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "date %q is not YYYY-MM-DD", date)
	}
	slots, err := a.Slots.ListByProviderDates(ctx, providerID, date, date)
	if err != nil {
		return nil, err
	}
	overrides, err := a.Availability.ListOverrides(ctx, providerID, date, date)
	if err != nil {
		return nil, err
	}
	days := aggregate(slots, overrides, day, day, a.now())
	return &days[0], nil
}

func (a *Aggregator) Invalidate(ctx context.Context, providerID string) {
	if a.Cache != nil {
		a.Cache.Invalidate(ctx, providerID)
	}
}

// aggregate counts slots per date between first and last inclusive, every date present.
func aggregate(slots []models.Slot, overrides []models.DateOverride, first, last time.Time, now time.Time) []models.CalendarDay {
	index := map[string]int{}
	var days []models.CalendarDay
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		index[date] = len(days)
		days = append(days, models.CalendarDay{Date: date})
	}
	for _, s := range slots {
		if i, ok := index[s.Date]; ok && s.Listed(now) {
			days[i].Add(s.EffectiveStatus(now))
		}
	}
	for _, o := range overrides {
		if i, ok := index[o.Date]; ok {
			o := o
			days[i].Override = &o
		}
	}
	return days
}
