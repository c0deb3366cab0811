package slots

import (
	"testing"
	"time"

	"reservo/models"
)

// 2030-01-07 is a Monday.
var monday = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

func mondayMornings() models.Schedule {
	return models.Schedule{
		ProviderID: "prov-1",
		Rules:      []models.WeeklyRule{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", SlotDuration: 60}},
	}
}

func TestGenerateWeek(t *testing.T) {
	got := Generate(mondayMornings(), nil, monday, 7, monday)
	if len(got) != 3 {
		t.Fatalf("want 3 slots, got %d", len(got))
	}
	for i, s := range got {
		wantStart := monday.Add(time.Duration(9+i) * time.Hour)
		if !s.Start.Equal(wantStart) || !s.End.Equal(wantStart.Add(time.Hour)) {
			t.Errorf("slot %d: %s-%s", i, s.Start, s.End)
		}
		if s.Status != models.SlotAvailable || s.Date != "2030-01-07" || s.ID == "" {
			t.Errorf("slot %d malformed: %+v", i, s)
		}
	}
}

func TestGenerateSkipsPast(t *testing.T) {
	from := monday.Add(10 * time.Hour)
	got := Generate(mondayMornings(), nil, from, 1, from)
	if len(got) != 2 {
		t.Fatalf("want 2 slots from 10:00, got %d", len(got))
	}
}

func TestGenerateOverrides(t *testing.T) {
	blocked := []models.DateOverride{{Date: "2030-01-07"}}
	if got := Generate(mondayMornings(), blocked, monday, 1, monday); len(got) != 0 {
		t.Fatalf("blocked date produced %d slots", len(got))
	}

	afternoon := []models.DateOverride{{Date: "2030-01-07", IsAvailable: true, StartTime: "13:00", EndTime: "15:00"}}
	got := Generate(mondayMornings(), afternoon, monday, 1, monday)
	if len(got) != 2 {
		t.Fatalf("want 2 afternoon slots, got %d", len(got))
	}
	if got[0].Start.Hour() != 13 {
		t.Errorf("first slot starts %s", got[0].Start)
	}
}

func TestGenerateBuffer(t *testing.T) {
	sched := models.Schedule{
		ProviderID: "prov-1",
		Rules:      []models.WeeklyRule{{DayOfWeek: 1, StartTime: "09:00", EndTime: "13:45", SlotDuration: 60, BufferMinutes: 15}},
	}
	got := Generate(sched, nil, monday, 1, monday)
	if len(got) != 4 {
		t.Fatalf("want 4 slots, got %d", len(got))
	}
	if gap := got[1].Start.Sub(got[0].End); gap != 15*time.Minute {
		t.Errorf("buffer = %s", gap)
	}
}

func TestGenerateTimezone(t *testing.T) {
	sched := mondayMornings()
	sched.Timezone = "America/New_York"
	got := Generate(sched, nil, monday, 2, monday)
	if len(got) != 3 {
		t.Fatalf("want 3 slots, got %d", len(got))
	}
	// 09:00 EST is 14:00 UTC in January.
	if got[0].Start.Hour() != 14 || got[0].Date != "2030-01-07" {
		t.Errorf("first slot %s on %s", got[0].Start, got[0].Date)
	}
}
