package item

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseWhen turns a user-supplied moment into an instant in now's location.
// It accepts machine formats (RFC 3339, "2006-01-02 15:04"), relative
// expressions ("in 20 minutes"), day words ("tomorrow at 7"), weekday names
// ("monday at 8am", "next friday 18:00") and plain clock times ("15:04",
// "3:04pm", "7").
//
// dateExplicit reports whether the input pinned a date. Time-only inputs in
// the past are left as-is; the caller decides whether to push them to the
// next day.
func ParseWhen(input string, now time.Time) (t time.Time, dateExplicit bool, err error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return time.Time{}, false, fmt.Errorf("%w: empty time", ErrInvalidInput)
	}
	loc := now.Location()

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	} {
		if parsed, perr := time.ParseInLocation(layout, raw, loc); perr == nil {
			return parsed.In(loc), true, nil
		}
	}

	s := strings.ToLower(raw)

	if rest, ok := strings.CutPrefix(s, "in "); ok {
		return parseRelative(rest, now)
	}

	date, matched, remainder := extractDate(s, now)
	hour, minute, terr := extractClock(remainder)
	if terr != nil {
		return time.Time{}, false, terr
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc), matched, nil
}

func parseRelative(s string, now time.Time) (time.Time, bool, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return time.Time{}, false, fmt.Errorf("%w: invalid relative time %q", ErrInvalidInput, s)
	}
	amount, err := strconv.Atoi(fields[0])
	if err != nil || amount <= 0 {
		return time.Time{}, false, fmt.Errorf("%w: invalid duration amount %q", ErrInvalidInput, fields[0])
	}
	switch strings.TrimSuffix(fields[1], "s") {
	case "minute", "min":
		return now.Add(time.Duration(amount) * time.Minute), true, nil
	case "hour", "hr":
		return now.Add(time.Duration(amount) * time.Hour), true, nil
	case "day":
		return now.AddDate(0, 0, amount), true, nil
	case "week":
		return now.AddDate(0, 0, amount*7), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("%w: unsupported time unit %q", ErrInvalidInput, fields[1])
	}
}

var relativeDays = []struct {
	word   string
	offset int
}{
	// Longest first so "after tomorrow" wins over "tomorrow".
	{"day after tomorrow", 2},
	{"after tomorrow", 2},
	{"tomorrow", 1},
	{"today", 0},
}

var weekdayWords = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// extractDate finds a date word in s and returns the target date, whether a
// date was found, and s with the date words removed.
func extractDate(s string, now time.Time) (time.Time, bool, string) {
	for _, rd := range relativeDays {
		if strings.Contains(s, rd.word) {
			rest := strings.Replace(s, rd.word, "", 1)
			return now.AddDate(0, 0, rd.offset), true, rest
		}
	}

	nextWeek := strings.Contains(s, "next ")
	for word, wd := range weekdayWords {
		if !strings.Contains(s, word) {
			continue
		}
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		if nextWeek {
			ahead += 7
		}
		rest := strings.Replace(s, word, "", 1)
		rest = strings.Replace(rest, "next ", "", 1)
		return now.AddDate(0, 0, ahead), true, rest
	}

	return now, false, s
}

var clockRe = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)

// extractClock pulls an hour/minute out of the remaining text and converts
// to 24-hour form. Bare ambiguous hours follow the original heuristic:
// below 7 is taken as PM, 7 and up as AM.
func extractClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(strings.Replace(s, " at ", " ", 1))
	s = strings.TrimPrefix(s, "at ")

	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: no time found in %q", ErrInvalidInput, s)
	}

	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: time out of range in %q", ErrInvalidInput, s)
	}

	switch m[3] {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: time out of range in %q", ErrInvalidInput, s)
		}
	default:
		if hour >= 1 && hour < 7 {
			hour += 12
		}
	}

	return hour, minute, nil
}
