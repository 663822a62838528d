// Package runlength computes statistics over contiguous runs of a boolean
// condition along a time axis.
package runlength

import (
	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

// Lengths returns the length of every contiguous run of true values, in
// order of appearance.
func Lengths(cond []bool) []int {
	var runs []int
	cur := 0
	for _, c := range cond {
		if c {
			cur++
			continue
		}
		if cur > 0 {
			runs = append(runs, cur)
			cur = 0
		}
	}
	if cur > 0 {
		runs = append(runs, cur)
	}
	return runs
}

// Statistics reduces the run lengths with the given operation. A series
// without any run reduces to 0, not missing: "no spell" is a length of
// zero.
func Statistics(cond []bool, op series.ReduceOp) float64 {
	runs := Lengths(cond)
	if len(runs) == 0 {
		return 0
	}
	vals := make([]float64, len(runs))
	for i, r := range runs {
		vals[i] = float64(r)
	}
	return op.Reduce(vals)
}

// FirstRun returns the index where the condition first holds for at least
// window consecutive samples, -1 when it never does.
func FirstRun(cond []bool, window int) int {
	cur := 0
	for i, c := range cond {
		if !c {
			cur = 0
			continue
		}
		cur++
		if cur >= window {
			return i - window + 1
		}
	}
	return -1
}

// LastRun returns the start index of the last run of at least window
// consecutive samples, -1 when there is none. The index points at the end
// of the run, matching "last time the condition held".
func LastRun(cond []bool, window int) int {
	cur := 0
	last := -1
	for i, c := range cond {
		if !c {
			cur = 0
			continue
		}
		cur++
		if cur >= window {
			last = i
		}
	}
	return last
}

// IndexOfDate returns the first index whose date matches the given
// month-day, -1 when absent.
func IndexOfDate(times []calendar.Date, month, day int) int {
	for i, t := range times {
		if t.Month == month && t.Day == day {
			return i
		}
	}
	return -1
}
