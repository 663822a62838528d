package indices

import (
	"errors"
	"fmt"

	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

// ErrAmbiguousSelection is returned when zero or several selection modes
// are active at once.
var ErrAmbiguousSelection = errors.New("indices: exactly one time-selection mode must be set")

// TimeSelection picks a sub-period of a series. Exactly one of Seasons,
// Months, DoyBounds and DateBounds must be set.
type TimeSelection struct {
	// Seasons selects by membership in meteorological seasons
	// ("DJF", "MAM", "JJA", "SON").
	Seasons []string
	// Months selects by calendar month numbers (1-12).
	Months []int
	// DoyBounds selects the inclusive day-of-year range [start, end],
	// wrapping around year end when start > end.
	DoyBounds *[2]int
	// DateBounds selects the inclusive month-day range, e.g.
	// {"12-01", "02-28"}. Calendar-aware, unlike DoyBounds.
	DateBounds *[2]string
	// Drop shrinks the time axis to the selection instead of masking
	// values outside it.
	Drop bool
}

func (sel TimeSelection) activeModes() int {
	n := 0
	if len(sel.Seasons) > 0 {
		n++
	}
	if len(sel.Months) > 0 {
		n++
	}
	if sel.DoyBounds != nil {
		n++
	}
	if sel.DateBounds != nil {
		n++
	}
	return n
}

// IsZero reports whether no selection mode is set.
func (sel TimeSelection) IsZero() bool { return sel.activeModes() == 0 }

func doyInRange(doy, start, end int) bool {
	if start <= end {
		return doy >= start && doy <= end
	}
	return doy >= start || doy <= end
}

// SelectTime masks (or drops, per sel.Drop) the samples outside the
// selected period. For date bounds on a non-uniform calendar the day-of-year
// arithmetic is done in the all-leap calendar: re-expressing a
// standard-calendar axis there only ever adds valid dates (Feb 29), never
// removes data, which makes the bounds calendar-independent.
func SelectTime(s *series.Series, sel TimeSelection) (*series.Series, error) {
	if n := sel.activeModes(); n != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrAmbiguousSelection, n)
	}

	cal := s.Meta.Calendar
	mask := make([]bool, s.Len())

	switch {
	case len(sel.Seasons) > 0:
		want := map[string]bool{}
		for _, ssn := range sel.Seasons {
			want[ssn] = true
		}
		for i, t := range s.Times {
			mask[i] = want[t.Season()]
		}

	case len(sel.Months) > 0:
		want := map[int]bool{}
		for _, m := range sel.Months {
			want[m] = true
		}
		for i, t := range s.Times {
			mask[i] = want[t.Month]
		}

	case sel.DoyBounds != nil:
		start, end := sel.DoyBounds[0], sel.DoyBounds[1]
		for i, t := range s.Times {
			mask[i] = doyInRange(cal.DayOfYear(t), start, end)
		}

	case sel.DateBounds != nil:
		effCal := cal
		if !cal.IsUniform() {
			effCal = calendar.AllLeap
		}
		sm, sd, err := calendar.ParseMonthDay(sel.DateBounds[0])
		if err != nil {
			return nil, err
		}
		em, ed, err := calendar.ParseMonthDay(sel.DateBounds[1])
		if err != nil {
			return nil, err
		}
		// Any year works: effCal is uniform.
		start := effCal.DayOfYear(calendar.Date{Year: 2000, Month: sm, Day: sd})
		end := effCal.DayOfYear(calendar.Date{Year: 2000, Month: em, Day: ed})
		for i, t := range s.Times {
			mask[i] = doyInRange(effCal.DayOfYear(calendar.Date{Year: 2000, Month: t.Month, Day: t.Day}), start, end)
		}
	}

	if sel.Drop {
		return s.DropWhere(mask), nil
	}
	return s.MaskWhere(mask), nil
}

// DefaultFreq infers an annual anchor frequency from a selection so that
// year boundaries line up with the selected period: selecting DJF anchors
// years in December.
func DefaultFreq(sel TimeSelection) string {
	switch {
	case len(sel.Seasons) > 0:
		return "YS-DEC"
	case len(sel.Months) > 0:
		return "YS-" + calendar.MonthAbbr(sel.Months[0])
	case sel.DoyBounds != nil:
		// Resolve the starting day-of-year in a leap reference year.
		d, err := calendar.Standard.FromDayOfYear(2004, sel.DoyBounds[0])
		if err != nil {
			return "YS-JAN"
		}
		return "YS-" + calendar.MonthAbbr(d.Month)
	case sel.DateBounds != nil:
		m, _, err := calendar.ParseMonthDay(sel.DateBounds[0])
		if err != nil {
			return "YS-JAN"
		}
		return "YS-" + calendar.MonthAbbr(m)
	}
	return "YS-JAN"
}
