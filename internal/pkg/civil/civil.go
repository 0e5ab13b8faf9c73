// Package civil holds calendar-day and time-of-day helpers pinned to a
// configured timezone, so "today" never depends on the server's zone.
package civil

import (
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	YearMonthLayout = "2006-01"
	TimeLayout      = "15:04:05"
)

// Clock supplies the current instant and civil date in one timezone.
type Clock interface {
	Now() time.Time
	Today() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// NewClock returns a Clock reading the system time in loc.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time            { return time.Now().In(c.loc) }
func (c systemClock) Today() time.Time          { return DateOf(c.Now()) }
func (c systemClock) Location() *time.Location { return c.loc }

// FixedClock always reports the same instant. Used by tests and by the
// manual accrual trigger when an explicit date is supplied.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time            { return c.At }
func (c FixedClock) Today() time.Time          { return DateOf(c.At) }
func (c FixedClock) Location() *time.Location { return c.At.Location() }

// DateOf truncates t to midnight of its own calendar day, keeping its location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Date builds a UTC midnight date. Dates read from DATE columns use UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day maps t to UTC midnight of its own calendar day, so dates taken from
// different locations compare by calendar day.
func Day(t time.Time) time.Time {
	return Date(t.Date())
}

// SameDay compares calendar days irrespective of location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses YYYY-MM-DD as a UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths adds calendar months, clamping to the last day of the target
// month instead of overflowing (Aug 31 + 6 months is Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// AnniversaryIn returns the anniversary of onboard in the given year.
// A Feb 29 onboard date falls on Feb 28 in non-leap years.
func AnniversaryIn(onboard time.Time, year int) time.Time {
	_, m, d := onboard.Date()
	if last := daysIn(year, m); d > last {
		d = last
	}
	return time.Date(year, m, d, 0, 0, 0, 0, onboard.Location())
}

// IsAnniversary reports whether target is an anniversary of onboard under
// the leap-day policy of AnniversaryIn.
func IsAnniversary(onboard, target time.Time) bool {
	return SameDay(AnniversaryIn(onboard, target.Year()), target)
}

// WholeYears counts completed service years between onboard and target.
func WholeYears(onboard, target time.Time) int {
	years := target.Year() - onboard.Year()
	if years <= 0 {
		return 0
	}
	ann := AnniversaryIn(onboard, target.Year())
	if dayNumber(target) < dayNumber(ann) {
		years--
	}
	return years
}

// ElapsedMonths counts whole calendar months of service; used for display.
func ElapsedMonths(onboard, target time.Time) int {
	months := (target.Year()-onboard.Year())*12 + int(target.Month()-onboard.Month())
	if dayNumber(AddMonths(onboard, months)) > dayNumber(target) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// YearMonth identifies a payroll period.
type YearMonth struct {
	Year  int
	Month time.Month
}

func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(YearMonthLayout, s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: expected YYYY-MM", s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// FirstDay is the first calendar day of the month in UTC.
func (ym YearMonth) FirstDay() time.Time {
	return Date(ym.Year, ym.Month, 1)
}

// LastDay is the last calendar day of the month in UTC.
func (ym YearMonth) LastDay() time.Time {
	return Date(ym.Year, ym.Month, daysIn(ym.Year, ym.Month))
}

// OverlapDays counts the inclusive days shared by [start, end] and the month.
func (ym YearMonth) OverlapDays(start, end time.Time) int {
	from, to := Date(start.Date()), Date(end.Date())
	first, last := ym.FirstDay(), ym.LastDay()
	if from.Before(first) {
		from = first
	}
	if to.After(last) {
		to = last
	}
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}
