package domain

import "time"

// RecurrenceFrequency is the base unit a recurrence repeats on.
type RecurrenceFrequency string

// Possible frequency values.
const (
	RecurrenceDaily   RecurrenceFrequency = "DAILY"
	RecurrenceWeekly  RecurrenceFrequency = "WEEKLY"
	RecurrenceMonthly RecurrenceFrequency = "MONTHLY"
)

// RecurrenceRule describes how a completed task spawns its next
// instance. The zero rule is invalid; Frequency is required.
type RecurrenceRule struct {
	Frequency RecurrenceFrequency `json:"frequency"`

	// Interval repeats every N units (days/weeks/months). Values below 1
	// are treated as 1.
	Interval int `json:"interval"`

	// WeekdaysOnly bumps a computed date falling on a weekend forward to
	// the following Monday.
	WeekdaysOnly bool `json:"weekdays_only"`

	// DaysOfWeek restricts WEEKLY recurrences to the given ISO weekdays
	// (1=Mon .. 7=Sun). Empty means "every Interval weeks".
	DaysOfWeek []int `json:"days_of_week,omitempty"`

	// NthBusinessDayOfMonth, when >= 1, schedules MONTHLY recurrences on
	// the Nth Mon-Fri day of the target month.
	NthBusinessDayOfMonth *int `json:"nth_business_day_of_month,omitempty"`

	// EndDate, when set, exhausts the recurrence once a computed date
	// falls after it.
	EndDate *time.Time `json:"end_date,omitempty"`
}
