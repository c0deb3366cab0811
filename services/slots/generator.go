package slots

import (
	"time"

	"reservo/models"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Generate expands the schedule and overrides into concrete slots for days starting on the
// provider-local date of from. Slots that start before from are not produced.
func Generate(sched models.Schedule, overrides []models.DateOverride, from time.Time, days int, now time.Time) []models.Slot {
	loc := sched.Location()
	byDate := make(map[string]models.DateOverride, len(overrides))
	for _, o := range overrides {
		byDate[o.Date] = o
	}

	local := from.In(loc)
	first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var out []models.Slot
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		date := day.Format(dateLayout)
		for _, w := range windowsFor(sched.Rules, byDate, day) {
			for m := w.start; m+w.duration <= w.end; m += w.duration + w.buffer {
				start := time.Date(day.Year(), day.Month(), day.Day(), 0, m, 0, 0, loc)
				end := time.Date(day.Year(), day.Month(), day.Day(), 0, m+w.duration, 0, 0, loc)
				if start.Before(from) {
					continue
				}
				out = append(out, models.Slot{
					ID:         uuid.New().String(),
					ProviderID: sched.ProviderID,
					Date:       date,
					Start:      start.UTC(),
					End:        end.UTC(),
					Status:     models.SlotAvailable,
					CreatedAt:  now,
					UpdatedAt:  now,
				})
			}
		}
	}
	return out
}

// windowsFor picks the working hours of one day. Invalid entries are skipped; they are rejected
// when stored, so this only guards against data written by older versions.
func windowsFor(rules []models.WeeklyRule, overrides map[string]models.DateOverride, day time.Time) []window {
	if o, ok := overrides[day.Format(dateLayout)]; ok {
		if !o.IsAvailable || !o.HasHours() {
			return nil
		}
		w, err := overrideWindow(o, day.Weekday(), rules)
		if err != nil {
			return nil
		}
		return []window{w}
	}

	var out []window
	for _, r := range rules {
		if r.DayOfWeek != int(day.Weekday()) {
			continue
		}
		w, err := ruleWindow(r)
		if err != nil {
			continue
		}
		out = append(out, w)
	}
	return out
}

// dropOverlapping removes candidates that collide with a retained slot.
func dropOverlapping(candidates, retained []models.Slot) []models.Slot {
	if len(retained) == 0 {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		clash := false
		for _, r := range retained {
			if c.Overlaps(r) {
				clash = true
				break
			}
		}
		if !clash {
			out = append(out, c)
		}
	}
	return out
}
