package models

import "time"

// WeeklyRule is one recurring block of working hours, split into fixed-length slots.
type WeeklyRule struct {
	DayOfWeek     int    `bson:"dayOfWeek" json:"day_of_week"`         // 0 = Sunday
	StartTime     string `bson:"startTime" json:"start_time"`          // "09:00"
	EndTime       string `bson:"endTime" json:"end_time"`              // "17:00"
	SlotDuration  int    `bson:"slotDuration" json:"slot_duration"`    // minutes
	BufferMinutes int    `bson:"bufferMinutes" json:"buffer_minutes"` // gap after each slot
}

// Schedule is a provider's full weekly rule set.
type Schedule struct {
	ProviderID string       `bson:"providerId" json:"provider_id"`
	Timezone   string       `bson:"timezone" json:"timezone"`
	Rules      []WeeklyRule `bson:"rules" json:"rules"`
	UpdatedAt  time.Time    `bson:"updatedAt" json:"updated_at"`
}

// Location resolves the schedule timezone, falling back to UTC.
func (s Schedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DateOverride replaces the weekly rules for one date. With IsAvailable false the date is blocked;
// with hours set those hours replace the rules' hours for the day.
type DateOverride struct {
	ProviderID    string    `bson:"providerId" json:"provider_id"`
	Date          string    `bson:"date" json:"date"`
	IsAvailable   bool      `bson:"isAvailable" json:"is_available"`
	StartTime     string    `bson:"startTime,omitempty" json:"start_time,omitempty"`
	EndTime       string    `bson:"endTime,omitempty" json:"end_time,omitempty"`
	SlotDuration  int       `bson:"slotDuration,omitempty" json:"slot_duration,omitempty"`
	BufferMinutes int       `bson:"bufferMinutes,omitempty" json:"buffer_minutes,omitempty"`
	Reason        string    `bson:"reason,omitempty" json:"reason,omitempty"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updated_at"`
}

// HasHours reports whether the override carries replacement hours.
func (o DateOverride) HasHours() bool {
	return o.StartTime != "" && o.EndTime != ""
}

type SetRulesRequest struct {
	Timezone string       `json:"timezone"`
	Rules    []WeeklyRule `json:"rules"`
}
