package item

import (
	"errors"
	"testing"
	"time"
)

func TestParseWhen(t *testing.T) {
	// Wednesday 2025-03-12 10:00 UTC.
	now := wedMorning

	tests := []struct {
		input        string
		want         time.Time
		dateExplicit bool
	}{
		{"2025-06-01 09:30", time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC), true},
		{"2025-06-01T09:30:15", time.Date(2025, 6, 1, 9, 30, 15, 0, time.UTC), true},
		{"in 20 minutes", now.Add(20 * time.Minute), true},
		{"in 2 hours", now.Add(2 * time.Hour), true},
		{"in 3 days", now.AddDate(0, 0, 3), true},
		{"15:04", at(now, 15, 4), false},
		{"3:04pm", at(now, 15, 4), false},
		{"3:04 pm", at(now, 15, 4), false},
		{"12am", at(now, 0, 0), false},
		{"12pm", at(now, 12, 0), false},
		// Bare hours below 7 read as evening, 7 and up as morning.
		{"6", at(now, 18, 0), false},
		{"7", at(now, 7, 0), false},
		{"tomorrow at 7", at(now.AddDate(0, 0, 1), 7, 0), true},
		{"day after tomorrow 9:15", at(now.AddDate(0, 0, 2), 9, 15), true},
		{"monday at 8am", at(now.AddDate(0, 0, 5), 8, 0), true},
		{"next friday 18:00", at(now.AddDate(0, 0, 9), 18, 0), true},
		// Naming today's weekday means next week, not today.
		{"wednesday at 11am", at(now.AddDate(0, 0, 7), 11, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, explicit, err := ParseWhen(tt.input, now)
			if err != nil {
				t.Fatalf("ParseWhen(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseWhen(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if explicit != tt.dateExplicit {
				t.Errorf("ParseWhen(%q) dateExplicit = %v, want %v", tt.input, explicit, tt.dateExplicit)
			}
		})
	}
}

func TestParseWhenErrors(t *testing.T) {
	for _, input := range []string{"", "soon", "in minutes", "in -5 minutes", "in 2 fortnights", "25:99"} {
		t.Run(input, func(t *testing.T) {
			_, _, err := ParseWhen(input, wedMorning)
			if err == nil {
				t.Fatalf("ParseWhen(%q) succeeded, want error", input)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ParseWhen(%q) error = %v, want ErrInvalidInput", input, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := Item{
		ID:            "alarm_1",
		Kind:          KindAlarm,
		ScheduledTime: wedMorning,
		Repeat:        RepeatOnce,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Item)
	}{
		{"unknown kind", func(it *Item) { it.Kind = "timer" }},
		{"reminder without name", func(it *Item) { it.Kind = KindReminder; it.DisplayName = "" }},
		{"unknown repeat", func(it *Item) { it.Repeat = "fortnightly" }},
		{"weekly without days", func(it *Item) { it.Repeat = RepeatWeekly; it.RepeatDays = nil }},
		{"zero time", func(it *Item) { it.ScheduledTime = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := base
			tt.mutate(&it)
			if err := it.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Validate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestNameToID(t *testing.T) {
	if got := NameToID("  take out trash "); got != "take_out_trash" {
		t.Errorf("NameToID() = %q", got)
	}
}
