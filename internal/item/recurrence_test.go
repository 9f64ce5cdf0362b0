package item

import (
	"testing"
	"time"
)

// 2025-03-12 is a Wednesday.
var wedMorning = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func at(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

func TestNextTrigger(t *testing.T) {
	tests := []struct {
		name   string
		repeat Repeat
		days   DaySet
		tod    time.Time // carries the time-of-day
		now    time.Time
		want   time.Time
		wantOK bool
	}{
		{
			name:   "once later today",
			repeat: RepeatOnce,
			tod:    at(wedMorning, 15, 0),
			now:    wedMorning,
			want:   at(wedMorning, 15, 0),
			wantOK: true,
		},
		{
			name:   "once already passed rolls to tomorrow",
			repeat: RepeatOnce,
			tod:    at(wedMorning, 8, 0),
			now:    wedMorning,
			want:   at(wedMorning.AddDate(0, 0, 1), 8, 0),
			wantOK: true,
		},
		{
			name:   "daily already passed rolls to tomorrow",
			repeat: RepeatDaily,
			tod:    at(wedMorning, 9, 59),
			now:    wedMorning,
			want:   at(wedMorning.AddDate(0, 0, 1), 9, 59),
			wantOK: true,
		},
		{
			name:   "weekdays later today",
			repeat: RepeatWeekdays,
			tod:    at(wedMorning, 17, 30),
			now:    wedMorning,
			want:   at(wedMorning, 17, 30),
			wantOK: true,
		},
		{
			name:   "weekdays passed on friday skips weekend",
			repeat: RepeatWeekdays,
			tod:    at(wedMorning, 8, 0),
			now:    wedMorning.AddDate(0, 0, 2), // Friday 10:00
			want:   at(wedMorning.AddDate(0, 0, 5), 8, 0),
			wantOK: true,
		},
		{
			name:   "weekends from midweek",
			repeat: RepeatWeekends,
			tod:    at(wedMorning, 9, 0),
			now:    wedMorning,
			want:   at(wedMorning.AddDate(0, 0, 3), 9, 0), // Saturday
			wantOK: true,
		},
		{
			name:   "weekends passed on sunday wraps to next saturday",
			repeat: RepeatWeekends,
			tod:    at(wedMorning, 8, 0),
			now:    wedMorning.AddDate(0, 0, 4), // Sunday 10:00
			want:   at(wedMorning.AddDate(0, 0, 10), 8, 0),
			wantOK: true,
		},
		{
			name:   "weekly today still ahead",
			repeat: RepeatWeekly,
			days:   DaySet{time.Wednesday},
			tod:    at(wedMorning, 20, 0),
			now:    wedMorning,
			want:   at(wedMorning, 20, 0),
			wantOK: true,
		},
		{
			name:   "weekly today passed wraps a full week",
			repeat: RepeatWeekly,
			days:   DaySet{time.Wednesday},
			tod:    at(wedMorning, 6, 0),
			now:    wedMorning,
			want:   at(wedMorning.AddDate(0, 0, 7), 6, 0),
			wantOK: true,
		},
		{
			name:   "weekly picks earliest of several days",
			repeat: RepeatWeekly,
			days:   DaySet{time.Monday, time.Friday},
			tod:    at(wedMorning, 7, 0),
			now:    wedMorning,
			want:   at(wedMorning.AddDate(0, 0, 2), 7, 0), // Friday
			wantOK: true,
		},
		{
			name:   "weekly with empty set has no trigger",
			repeat: RepeatWeekly,
			tod:    at(wedMorning, 7, 0),
			now:    wedMorning,
			wantOK: false,
		},
		{
			name:   "custom keeps stored time",
			repeat: RepeatCustom,
			tod:    at(wedMorning.AddDate(0, 0, -3), 7, 0),
			now:    wedMorning,
			want:   at(wedMorning.AddDate(0, 0, -3), 7, 0),
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := Item{Repeat: tt.repeat, RepeatDays: tt.days, ScheduledTime: tt.tod}
			got, ok := NextTrigger(it, tt.now)
			if ok != tt.wantOK {
				t.Fatalf("NextTrigger() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("NextTrigger() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextTriggerIsAlwaysAhead(t *testing.T) {
	// For every auto-advancing policy the result must be strictly after now.
	policies := []struct {
		repeat Repeat
		days   DaySet
	}{
		{RepeatOnce, nil},
		{RepeatDaily, nil},
		{RepeatWeekdays, nil},
		{RepeatWeekends, nil},
		{RepeatWeekly, DaySet{time.Tuesday, time.Saturday}},
	}

	for _, p := range policies {
		for hour := 0; hour < 24; hour += 3 {
			it := Item{Repeat: p.repeat, RepeatDays: p.days, ScheduledTime: at(wedMorning, hour, 0)}
			got, ok := NextTrigger(it, wedMorning)
			if !ok {
				t.Fatalf("%s: no trigger", p.repeat)
			}
			if !got.After(wedMorning) {
				t.Errorf("%s at %02d:00: next trigger %v not after now %v", p.repeat, hour, got, wedMorning)
			}
		}
	}
}

func TestParseDays(t *testing.T) {
	ds, err := ParseDays([]string{"mon", "WED", " fri"})
	if err != nil {
		t.Fatalf("ParseDays() error = %v", err)
	}
	for _, wd := range []time.Weekday{time.Monday, time.Wednesday, time.Friday} {
		if !ds.Contains(wd) {
			t.Errorf("ParseDays() missing %v", wd)
		}
	}

	if _, err := ParseDays([]string{"monday"}); err == nil {
		t.Error("ParseDays() accepted long day name")
	}
}
