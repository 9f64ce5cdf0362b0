package item

import "time"

// NextTrigger computes the next trigger instant for an item, using a single
// now snapshot. The second return is false when no trigger exists (a weekly
// item with an empty day set, which should have been rejected at creation).
//
// Custom items keep their stored time untouched: an external updater supplies
// the next occurrence through an edit.
func NextTrigger(it Item, now time.Time) (time.Time, bool) {
	loc := now.Location()
	tod := it.ScheduledTime.In(loc)

	switch it.Repeat {
	case RepeatOnce, RepeatDaily:
		cand := atTimeOfDay(now, tod, 0)
		if cand.After(now) {
			return cand, true
		}
		return atTimeOfDay(now, tod, 1), true

	case RepeatWeekdays:
		return scanDays(now, tod, func(wd time.Weekday) bool {
			return wd >= time.Monday && wd <= time.Friday
		})

	case RepeatWeekends:
		return scanDays(now, tod, func(wd time.Weekday) bool {
			return wd == time.Saturday || wd == time.Sunday
		})

	case RepeatWeekly:
		if len(it.RepeatDays) == 0 {
			return time.Time{}, false
		}
		return scanDays(now, tod, it.RepeatDays.Contains)

	case RepeatCustom:
		return it.ScheduledTime, true
	}

	return time.Time{}, false
}

// scanDays walks forward up to 7 days, today included only while its
// time-of-day is still ahead, and returns the first qualifying instant.
func scanDays(now, tod time.Time, match func(time.Weekday) bool) (time.Time, bool) {
	for offset := 0; offset <= 7; offset++ {
		cand := atTimeOfDay(now, tod, offset)
		if !match(cand.Weekday()) {
			continue
		}
		if cand.After(now) {
			return cand, true
		}
	}
	return time.Time{}, false
}

// atTimeOfDay builds the instant offset days from now's date with tod's
// hour/minute/second, in now's location.
func atTimeOfDay(now, tod time.Time, offset int) time.Time {
	base := now.AddDate(0, 0, offset)
	return time.Date(
		base.Year(), base.Month(), base.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0,
		now.Location(),
	)
}
