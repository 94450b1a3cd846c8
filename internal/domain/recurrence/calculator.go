// Package recurrence computes the next due date for recurring tasks.
// The calculation is a pure function of the base date and the rule, so
// the same inputs always produce the same output.
package recurrence

import (
	"sort"
	"time"

	"github.com/glideclouds/taskboard-api/internal/domain"
)

// NextDueDate computes the next due date after base for the given rule.
// Dates are treated as civil calendar dates; time-of-day and location of
// base are preserved in the result. The second return value is false
// when the rule is nil/invalid or the recurrence is exhausted (computed
// date after the rule's end date).
func NextDueDate(base time.Time, rule *domain.RecurrenceRule) (time.Time, bool) {
	if rule == nil || rule.Frequency == "" {
		return time.Time{}, false
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	var candidate time.Time
	switch rule.Frequency {
	case domain.RecurrenceDaily:
		candidate = base.AddDate(0, 0, interval)
	case domain.RecurrenceWeekly:
		candidate = nextWeekly(base, interval, rule.DaysOfWeek)
	case domain.RecurrenceMonthly:
		candidate = nextMonthly(base, interval, rule.NthBusinessDayOfMonth)
	default:
		candidate = base.AddDate(0, 0, interval)
	}

	if rule.WeekdaysOnly {
		candidate = bumpToWeekday(candidate)
	}

	if rule.EndDate != nil && candidate.After(*rule.EndDate) {
		return time.Time{}, false
	}

	return candidate, true
}

// nextWeekly scans forward day-by-day for the first allowed ISO weekday,
// searching up to interval weeks plus one. Without an explicit weekday
// set it simply advances whole weeks.
func nextWeekly(base time.Time, interval int, daysOfWeek []int) time.Time {
	days := make([]int, 0, len(daysOfWeek))
	seen := make(map[int]struct{}, len(daysOfWeek))
	for _, d := range daysOfWeek {
		if d < 1 || d > 7 {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Ints(days)

	if len(days) == 0 {
		return base.AddDate(0, 0, interval*7)
	}

	maxDaysToSearch := interval*7 + 7
	for i := 1; i <= maxDaysToSearch; i++ {
		d := base.AddDate(0, 0, i)
		if _, ok := seen[isoWeekday(d)]; ok {
			return d
		}
	}

	// Unreachable with a non-empty valid weekday set; kept as a guard.
	return base.AddDate(0, 0, interval*7)
}

// nextMonthly advances the base month by interval. With an Nth-business-
// day target it lands on that business day; otherwise it keeps the day
// of month, clamped to the target month's length (Jan 31 -> Feb 28).
func nextMonthly(base time.Time, interval int, nthBusinessDay *int) time.Time {
	year, month, _ := base.Date()
	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, base.Location()).AddDate(0, interval, 0)

	if nthBusinessDay != nil && *nthBusinessDay > 0 {
		d := nthBusinessDayOfMonth(firstOfTarget, *nthBusinessDay)
		return withClock(d, base)
	}

	day := base.Day()
	if last := daysInMonth(firstOfTarget); day > last {
		day = last
	}
	return withClock(firstOfTarget.AddDate(0, 0, day-1), base)
}

// nthBusinessDayOfMonth returns the Nth Mon-Fri day of the month that
// firstOfMonth starts. When the month has fewer than N business days it
// returns the month's last business day.
func nthBusinessDayOfMonth(firstOfMonth time.Time, nth int) time.Time {
	last := daysInMonth(firstOfMonth)
	count := 0
	var lastBusiness time.Time
	for day := 0; day < last; day++ {
		d := firstOfMonth.AddDate(0, 0, day)
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
		}
		lastBusiness = d
		count++
		if count == nth {
			return d
		}
	}
	if lastBusiness.IsZero() {
		return firstOfMonth
	}
	return lastBusiness
}

// bumpToWeekday moves Saturday forward two days and Sunday forward one,
// so the result is always a Monday.
func bumpToWeekday(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

// isoWeekday maps time.Weekday to ISO numbering (1=Mon .. 7=Sun).
func isoWeekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func daysInMonth(d time.Time) int {
	year, month, _ := d.Date()
	return time.Date(year, month+1, 0, 0, 0, 0, 0, d.Location()).Day()
}

// withClock stamps base's time-of-day onto the civil date of d.
func withClock(d, base time.Time) time.Time {
	h, m, s := base.Clock()
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, s, base.Nanosecond(), base.Location())
}
