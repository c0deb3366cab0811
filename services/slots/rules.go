package slots

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"reservo/apperr"
	"reservo/models"
)

// parseClock turns "HH:MM" into minutes from midnight.
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("time %q has an invalid hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q has an invalid minute", s)
	}
	return h*60 + m, nil
}

// window is one block of working hours in minutes from midnight.
type window struct {
	start, end       int
	duration, buffer int
}

// validateWindow enforces that the block splits into whole slots, the trailing buffer being optional.
func validateWindow(w window) error {
	switch {
	case w.end <= w.start:
		return apperr.InvalidRule("end time must be after start time")
	case w.duration <= 0:
		return apperr.InvalidRule("slot duration must be positive")
	case w.buffer < 0:
		return apperr.InvalidRule("buffer minutes cannot be negative")
	case (w.end-w.start+w.buffer)%(w.duration+w.buffer) != 0:
		return apperr.InvalidRule("%d minutes of working time do not divide into %d minute slots with %d minute buffers",
			w.end-w.start, w.duration, w.buffer)
	}
	return nil
}

func ruleWindow(r models.WeeklyRule) (window, error) {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return window{}, apperr.InvalidRule("day_of_week must be 0-6, got %d", r.DayOfWeek)
	}
	start, err := parseClock(r.StartTime)
	if err != nil {
		return window{}, apperr.InvalidRule("%v", err)
	}
	end, err := parseClock(r.EndTime)
	if err != nil {
		return window{}, apperr.InvalidRule("%v", err)
	}
	w := window{start: start, end: end, duration: r.SlotDuration, buffer: r.BufferMinutes}
	return w, validateWindow(w)
}

// ValidateRules checks every rule and rejects overlapping rules on the same weekday.
func ValidateRules(rules []models.WeeklyRule) error {
	byDay := map[int][]window{}
	for _, r := range rules {
		w, err := ruleWindow(r)
		if err != nil {
			return err
		}
		byDay[r.DayOfWeek] = append(byDay[r.DayOfWeek], w)
	}
	for day, ws := range byDay {
		sort.Slice(ws, func(i, j int) bool { return ws[i].start < ws[j].start })
		for i := 1; i < len(ws); i++ {
			if ws[i].start < ws[i-1].end {
				return apperr.InvalidRule("rules overlap on %s", time.Weekday(day))
			}
		}
	}
	return nil
}

// overrideWindow resolves the hours an override opens. Slot length falls back to the weekday's
// rule, then to any rule of the schedule.
func overrideWindow(o models.DateOverride, weekday time.Weekday, rules []models.WeeklyRule) (window, error) {
	start, err := parseClock(o.StartTime)
	if err != nil {
		return window{}, apperr.InvalidRule("%v", err)
	}
	end, err := parseClock(o.EndTime)
	if err != nil {
		return window{}, apperr.InvalidRule("%v", err)
	}
	w := window{start: start, end: end, duration: o.SlotDuration, buffer: o.BufferMinutes}
	if w.duration == 0 {
		var fallback *models.WeeklyRule
		for i := range rules {
			if rules[i].DayOfWeek == int(weekday) {
				fallback = &rules[i]
				break
			}
			if fallback == nil {
				fallback = &rules[i]
			}
		}
		if fallback == nil {
			return window{}, apperr.InvalidRule("override hours need slot_duration when the provider has no weekly rules")
		}
		w.duration, w.buffer = fallback.SlotDuration, fallback.BufferMinutes
	}
	return w, validateWindow(w)
}

// ValidateOverride checks an override before it is stored.
func ValidateOverride(o models.DateOverride, rules []models.WeeklyRule) error {
	day, err := time.Parse(dateLayout, o.Date)
	if err != nil {
		return apperr.Validation(apperr.CodeInvalidInput, "date %q is not YYYY-MM-DD", o.Date)
	}
	if !o.IsAvailable {
		return nil
	}
	if !o.HasHours() {
		return apperr.InvalidRule("an available override needs start_time and end_time")
	}
	_, err = overrideWindow(o, day.Weekday(), rules)
	return err
}
