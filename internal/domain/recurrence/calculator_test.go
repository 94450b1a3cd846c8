package recurrence

import (
	"testing"
	"time"

	"github.com/glideclouds/taskboard-api/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func TestNextDueDateDaily(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		base     time.Time
		rule     domain.RecurrenceRule
		expected time.Time
	}{
		{
			name:     "default interval advances one day",
			base:     date(2026, time.January, 16),
			rule:     domain.RecurrenceRule{Frequency: domain.RecurrenceDaily},
			expected: date(2026, time.January, 17),
		},
		{
			name:     "interval of three advances three days",
			base:     date(2026, time.January, 16),
			rule:     domain.RecurrenceRule{Frequency: domain.RecurrenceDaily, Interval: 3},
			expected: date(2026, time.January, 19),
		},
		{
			name:     "zero interval treated as one",
			base:     date(2026, time.January, 16),
			rule:     domain.RecurrenceRule{Frequency: domain.RecurrenceDaily, Interval: 0},
			expected: date(2026, time.January, 17),
		},
		{
			name: "weekdays only bumps saturday to monday",
			// 2026-01-16 is a Friday, so +1 day lands on Saturday.
			base:     date(2026, time.January, 16),
			rule:     domain.RecurrenceRule{Frequency: domain.RecurrenceDaily, Interval: 1, WeekdaysOnly: true},
			expected: date(2026, time.January, 19),
		},
		{
			name:     "weekdays only bumps sunday to monday",
			base:     date(2026, time.January, 17),
			rule:     domain.RecurrenceRule{Frequency: domain.RecurrenceDaily, Interval: 1, WeekdaysOnly: true},
			expected: date(2026, time.January, 19),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextDueDate(tc.base, &tc.rule)
			if !ok {
				t.Fatalf("expected a next due date, got none")
			}
			if !got.Equal(tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestNextDueDateWeekly(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		base     time.Time
		rule     domain.RecurrenceRule
		expected time.Time
	}{
		{
			name: "explicit days pick the first allowed weekday",
			// 2026-01-16 is a Friday; next Monday is 2026-01-19.
			base: date(2026, time.January, 16),
			rule: domain.RecurrenceRule{
				Frequency:  domain.RecurrenceWeekly,
				Interval:   1,
				DaysOfWeek: []int{1, 3}, // Mon, Wed
			},
			expected: date(2026, time.January, 19),
		},
		{
			name: "same weekday as base advances a full week",
			base: date(2026, time.January, 19), // Monday
			rule: domain.RecurrenceRule{
				Frequency:  domain.RecurrenceWeekly,
				Interval:   1,
				DaysOfWeek: []int{1},
			},
			expected: date(2026, time.January, 26),
		},
		{
			name:     "no explicit days advances whole weeks",
			base:     date(2026, time.January, 16),
			rule:     domain.RecurrenceRule{Frequency: domain.RecurrenceWeekly, Interval: 2},
			expected: date(2026, time.January, 30),
		},
		{
			name: "out of range days are ignored",
			base: date(2026, time.January, 16),
			rule: domain.RecurrenceRule{
				Frequency:  domain.RecurrenceWeekly,
				Interval:   1,
				DaysOfWeek: []int{0, 8, 3}, // only Wednesday is valid
			},
			expected: date(2026, time.January, 21),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextDueDate(tc.base, &tc.rule)
			if !ok {
				t.Fatalf("expected a next due date, got none")
			}
			if !got.Equal(tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestNextDueDateMonthly(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		base     time.Time
		rule     domain.RecurrenceRule
		expected time.Time
	}{
		{
			name:     "keeps day of month",
			base:     date(2026, time.March, 15),
			rule:     domain.RecurrenceRule{Frequency: domain.RecurrenceMonthly, Interval: 1},
			expected: date(2026, time.April, 15),
		},
		{
			name:     "clamps to shorter month",
			base:     date(2026, time.January, 31),
			rule:     domain.RecurrenceRule{Frequency: domain.RecurrenceMonthly, Interval: 1},
			expected: date(2026, time.February, 28),
		},
		{
			name: "first business day of february 2026 is monday the 2nd",
			// Feb 1, 2026 is a Sunday.
			base: date(2026, time.January, 16),
			rule: domain.RecurrenceRule{
				Frequency:             domain.RecurrenceMonthly,
				Interval:              1,
				NthBusinessDayOfMonth: intPtr(1),
			},
			expected: date(2026, time.February, 2),
		},
		{
			name: "nth beyond month length falls back to last business day",
			base: date(2026, time.January, 16),
			rule: domain.RecurrenceRule{
				Frequency:             domain.RecurrenceMonthly,
				Interval:              1,
				NthBusinessDayOfMonth: intPtr(99),
			},
			// Last weekday of February 2026 is Friday the 27th.
			expected: date(2026, time.February, 27),
		},
		{
			name: "third business day skips the leading weekend",
			base: date(2026, time.July, 10),
			rule: domain.RecurrenceRule{
				Frequency:             domain.RecurrenceMonthly,
				Interval:              1,
				NthBusinessDayOfMonth: intPtr(3),
			},
			// August 2026 starts on a Saturday; business days are 3,4,5...
			expected: date(2026, time.August, 5),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextDueDate(tc.base, &tc.rule)
			if !ok {
				t.Fatalf("expected a next due date, got none")
			}
			if !got.Equal(tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestNextDueDateEndConditions(t *testing.T) {
	t.Parallel()

	end := date(2026, time.January, 20)

	t.Run("candidate before end date is returned", func(t *testing.T) {
		rule := domain.RecurrenceRule{Frequency: domain.RecurrenceDaily, Interval: 1, EndDate: &end}
		got, ok := NextDueDate(date(2026, time.January, 18), &rule)
		if !ok {
			t.Fatalf("expected a next due date, got none")
		}
		if !got.Equal(date(2026, time.January, 19)) {
			t.Errorf("expected 2026-01-19, got %v", got)
		}
	})

	t.Run("candidate after end date exhausts the rule", func(t *testing.T) {
		rule := domain.RecurrenceRule{Frequency: domain.RecurrenceDaily, Interval: 5, EndDate: &end}
		if _, ok := NextDueDate(date(2026, time.January, 18), &rule); ok {
			t.Errorf("expected the recurrence to be exhausted")
		}
	})

	t.Run("nil rule yields none", func(t *testing.T) {
		if _, ok := NextDueDate(date(2026, time.January, 18), nil); ok {
			t.Errorf("expected no date for a nil rule")
		}
	})

	t.Run("missing frequency yields none", func(t *testing.T) {
		if _, ok := NextDueDate(date(2026, time.January, 18), &domain.RecurrenceRule{}); ok {
			t.Errorf("expected no date for a rule without frequency")
		}
	})
}

func TestNextDueDateIsDeterministic(t *testing.T) {
	t.Parallel()

	rule := domain.RecurrenceRule{
		Frequency:  domain.RecurrenceWeekly,
		Interval:   1,
		DaysOfWeek: []int{1, 3},
	}
	base := date(2026, time.January, 16)

	first, ok := NextDueDate(base, &rule)
	if !ok {
		t.Fatalf("expected a next due date, got none")
	}
	for i := 0; i < 10; i++ {
		again, ok := NextDueDate(base, &rule)
		if !ok || !again.Equal(first) {
			t.Fatalf("expected stable result %v, got %v (ok=%v)", first, again, ok)
		}
	}
}
