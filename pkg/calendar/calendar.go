// Package calendar implements the calendar systems used by climate model
// output: the real-world Gregorian calendars plus the fixed-year-length
// variants (no-leap, all-leap, 360-day) that models run on. It provides
// day-of-year arithmetic, date-identity conversion between calendars, the
// days-since encoding used for cross-calendar comparisons, and the
// resampling-period machinery built on frequency offset strings.
package calendar

import (
	"errors"
	"fmt"
)

// Calendar identifies the calendar system attached to a time axis.
type Calendar int

const (
	// Standard is the real-world mixed Julian/Gregorian calendar. For the
	// date ranges climate data covers we treat it with the Gregorian leap
	// rule, same as ProlepticGregorian.
	Standard Calendar = iota
	ProlepticGregorian
	// NoLeap has 365 days every year.
	NoLeap
	// AllLeap has 366 days every year.
	AllLeap
	// Day360 has twelve 30-day months.
	Day360
)

// ErrUnknownCalendar is returned when a calendar name cannot be parsed.
var ErrUnknownCalendar = errors.New("calendar: unknown calendar name")

// FromString parses a calendar name. The aliases follow the CF conventions.
func FromString(name string) (Calendar, error) {
	switch name {
	case "standard", "gregorian", "default":
		return Standard, nil
	case "proleptic_gregorian":
		return ProlepticGregorian, nil
	case "noleap", "no_leap", "365_day":
		return NoLeap, nil
	case "all_leap", "allleap", "366_day":
		return AllLeap, nil
	case "360_day":
		return Day360, nil
	}
	return Standard, fmt.Errorf("%w: %q", ErrUnknownCalendar, name)
}

func (c Calendar) String() string {
	switch c {
	case Standard:
		return "standard"
	case ProlepticGregorian:
		return "proleptic_gregorian"
	case NoLeap:
		return "noleap"
	case AllLeap:
		return "all_leap"
	case Day360:
		return "360_day"
	}
	return "unknown"
}

// IsUniform reports whether every year of the calendar has the same length.
// Day-of-year arithmetic on uniform calendars is year-independent.
func (c Calendar) IsUniform() bool {
	switch c {
	case NoLeap, AllLeap, Day360:
		return true
	}
	return false
}

// IsLeapYear reports whether year contains a February 29th.
func (c Calendar) IsLeapYear(year int) bool {
	switch c {
	case AllLeap:
		return true
	case NoLeap, Day360:
		return false
	}
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns the number of days in the given year.
func (c Calendar) DaysInYear(year int) int {
	switch c {
	case Day360:
		return 360
	case NoLeap:
		return 365
	case AllLeap:
		return 366
	}
	if c.IsLeapYear(year) {
		return 366
	}
	return 365
}

// MaxDoy returns the largest valid day-of-year value for the calendar.
func (c Calendar) MaxDoy() int {
	switch c {
	case Day360:
		return 360
	case NoLeap:
		return 365
	}
	return 366
}

var monthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in the given month of the given year.
func (c Calendar) DaysInMonth(year, month int) int {
	if c == Day360 {
		return 30
	}
	if month == 2 && c.IsLeapYear(year) {
		return 29
	}
	return monthDays[month]
}

// Date is a calendar date. Its validity depends on the calendar it is
// interpreted against: 1999-02-29 exists in all_leap but not in noleap.
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsValid reports whether the date exists in calendar c.
func (d Date) IsValid(c Calendar) bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= c.DaysInMonth(d.Year, d.Month)
}

// Compare returns -1, 0 or 1 comparing d to other chronologically.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		if d.Year < other.Year {
			return -1
		}
		return 1
	case d.Month != other.Month:
		if d.Month < other.Month {
			return -1
		}
		return 1
	case d.Day != other.Day:
		if d.Day < other.Day {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether d is chronologically before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is chronologically after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Season returns the meteorological season (DJF, MAM, JJA, SON) of the date.
func (d Date) Season() string {
	switch d.Month {
	case 12, 1, 2:
		return "DJF"
	case 3, 4, 5:
		return "MAM"
	case 6, 7, 8:
		return "JJA"
	}
	return "SON"
}

// DayOfYear returns the 1-based position of the date within its year.
func (c Calendar) DayOfYear(d Date) int {
	doy := d.Day
	for m := 1; m < d.Month; m++ {
		doy += c.DaysInMonth(d.Year, m)
	}
	return doy
}

// FromDayOfYear builds the date at the given day-of-year of the given year.
func (c Calendar) FromDayOfYear(year, doy int) (Date, error) {
	if doy < 1 || doy > c.DaysInYear(year) {
		return Date{}, fmt.Errorf("calendar: day-of-year %d out of range for year %d of %s calendar", doy, year, c)
	}
	month := 1
	for doy > c.DaysInMonth(year, month) {
		doy -= c.DaysInMonth(year, month)
		month++
	}
	return Date{Year: year, Month: month, Day: doy}, nil
}

// AddDays advances the date by n days (n may be negative).
func (c Calendar) AddDays(d Date, n int) Date {
	doy := c.DayOfYear(d) + n
	year := d.Year
	for doy < 1 {
		year--
		doy += c.DaysInYear(year)
	}
	for doy > c.DaysInYear(year) {
		doy -= c.DaysInYear(year)
		year++
	}
	out, _ := c.FromDayOfYear(year, doy)
	return out
}

// DaysBetween returns the number of days from a to b (negative when b is
// before a).
func (c Calendar) DaysBetween(a, b Date) int {
	sign := 1
	if b.Before(a) {
		a, b = b, a
		sign = -1
	}
	days := 0
	for y := a.Year; y < b.Year; y++ {
		days += c.DaysInYear(y)
	}
	days += c.DayOfYear(b) - c.DayOfYear(a)
	return sign * days
}

// Convert re-expresses dates in the target calendar by date identity: a
// timestamp keeps its (year, month, day) label. Dates that do not exist in
// the target calendar are dropped. The returned index slice maps each output
// date back to its position in the input; converting to all_leap never drops
// anything since every month-day combination is valid there.
func Convert(dates []Date, target Calendar) ([]Date, []int) {
	out := make([]Date, 0, len(dates))
	kept := make([]int, 0, len(dates))
	for i, d := range dates {
		if d.IsValid(target) {
			out = append(out, d)
			kept = append(kept, i)
		}
	}
	return out, kept
}

// ParseMonthDay parses a "MM-DD" day-of-year string.
func ParseMonthDay(s string) (month, day int, err error) {
	if _, err = fmt.Sscanf(s, "%d-%d", &month, &day); err != nil {
		return 0, 0, fmt.Errorf("calendar: invalid month-day string %q: %w", s, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("calendar: invalid month-day string %q", s)
	}
	return month, day, nil
}

// DailyRange returns every date from start to end inclusive.
func (c Calendar) DailyRange(start, end Date) []Date {
	var out []Date
	for d := start; !d.After(end); d = c.AddDays(d, 1) {
		out = append(out, d)
	}
	return out
}
