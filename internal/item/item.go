// Package item holds the alarm/reminder data model and the recurrence math.
package item

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes alarms from reminders.
type Kind string

const (
	KindAlarm    Kind = "alarm"
	KindReminder Kind = "reminder"
)

// Repeat policies.
type Repeat string

const (
	RepeatOnce     Repeat = "once"
	RepeatDaily    Repeat = "daily"
	RepeatWeekdays Repeat = "weekdays"
	RepeatWeekends Repeat = "weekends"
	RepeatWeekly   Repeat = "weekly"
	RepeatCustom   Repeat = "custom"
)

// Status values an item moves through.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusStopped   Status = "stopped"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// DaySet is a set of weekdays, serialized as lowercase 3-letter names.
type DaySet []time.Weekday

var dayNames = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

var dayShort = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// ParseDays converts lowercase 3-letter day names ("mon".."sun") to a DaySet.
func ParseDays(names []string) (DaySet, error) {
	var ds DaySet
	for _, n := range names {
		wd, ok := dayNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("%w: invalid day %q (use mon, tue, wed, thu, fri, sat, sun)", ErrInvalidInput, n)
		}
		if !ds.Contains(wd) {
			ds = append(ds, wd)
		}
	}
	return ds, nil
}

// Contains reports whether wd is in the set.
func (ds DaySet) Contains(wd time.Weekday) bool {
	for _, d := range ds {
		if d == wd {
			return true
		}
	}
	return false
}

// Names returns the lowercase 3-letter names of the set.
func (ds DaySet) Names() []string {
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, dayShort[d])
	}
	return names
}

func (ds DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ds.Names())
}

func (ds *DaySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseDays(names)
	if err != nil {
		return err
	}
	*ds = parsed
	return nil
}

// Item is one alarm or reminder. The id is immutable after creation and
// unique across both kinds.
type Item struct {
	ID            string     `json:"id"`
	Kind          Kind       `json:"kind"`
	DisplayName   string     `json:"display_name"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Repeat        Repeat     `json:"repeat"`
	RepeatDays    DaySet     `json:"repeat_days,omitempty"`
	Message       string     `json:"message,omitempty"`
	Target        string     `json:"target,omitempty"`
	SoundRef      string     `json:"sound_ref,omitempty"`
	Enabled       bool       `json:"enabled"`
	Status        Status     `json:"status"`
	NotifyTarget  string     `json:"notify_target,omitempty"`
	LastStoppedAt *time.Time `json:"last_stopped_at,omitempty"`

	// LastRescheduledFrom records the previous stop time when a snooze
	// moved the item. Advisory only.
	LastRescheduledFrom *time.Time `json:"last_rescheduled_from,omitempty"`
}

// IsAlarm reports whether the item is an alarm.
func (it Item) IsAlarm() bool { return it.Kind == KindAlarm }

// Validate checks the structural invariants that must hold at creation time.
func (it Item) Validate() error {
	switch it.Kind {
	case KindAlarm, KindReminder:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, it.Kind)
	}
	if it.Kind == KindReminder && strings.TrimSpace(it.DisplayName) == "" {
		return fmt.Errorf("%w: reminders require a name", ErrInvalidInput)
	}
	switch it.Repeat {
	case RepeatOnce, RepeatDaily, RepeatWeekdays, RepeatWeekends, RepeatCustom:
	case RepeatWeekly:
		if len(it.RepeatDays) == 0 {
			return fmt.Errorf("%w: weekly repeat requires at least one day", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown repeat policy %q", ErrInvalidInput, it.Repeat)
	}
	if it.ScheduledTime.IsZero() {
		return fmt.Errorf("%w: scheduled time is required", ErrInvalidInput)
	}
	return nil
}

// NameToID normalizes a display name into a storage id.
func NameToID(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}
