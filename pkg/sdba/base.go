// Package sdba implements the statistical pre- and post-processing used in
// bias adjustment: frequency adaptation, jittering, normalization,
// rank reordering, energy-distance scoring, additive-space transforms,
// moving yearly windows and multivariate stacking. Operations are grouped
// by a Grouper, which partitions the time axis into the statistical groups
// the corrections are computed over.
package sdba

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

// Group enumerates the supported time partitions.
type Group int

const (
	// GroupTime is the ungrouped degenerate case: one group covering the
	// whole series.
	GroupTime Group = iota
	// GroupMonth partitions by calendar month.
	GroupMonth
	// GroupSeason partitions by meteorological season.
	GroupSeason
	// GroupDoy partitions by day of year, optionally widened by a window.
	GroupDoy
)

// ErrUnknownGroup is returned for grouping names outside the closed set.
var ErrUnknownGroup = errors.New("sdba: unknown grouping")

// Grouper defines how a series is partitioned into statistical groups. It
// is read-only once constructed.
type Grouper struct {
	Group Group
	// Window widens day-of-year groups to the +/- Window/2 days around
	// each day, so daily statistics are estimated from more samples.
	Window int
}

// ParseGroup parses a grouping name: "time", "time.month", "time.season" or
// "time.dayofyear".
func ParseGroup(name string) (Grouper, error) {
	switch name {
	case "time":
		return Grouper{Group: GroupTime}, nil
	case "time.month":
		return Grouper{Group: GroupMonth}, nil
	case "time.season":
		return Grouper{Group: GroupSeason}, nil
	case "time.dayofyear":
		return Grouper{Group: GroupDoy, Window: 1}, nil
	}
	return Grouper{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
}

func (g Grouper) String() string {
	switch g.Group {
	case GroupTime:
		return "time"
	case GroupMonth:
		return "time.month"
	case GroupSeason:
		return "time.season"
	case GroupDoy:
		if g.Window > 1 {
			return fmt.Sprintf("time.dayofyear(window=%d)", g.Window)
		}
		return "time.dayofyear"
	}
	return "unknown"
}

func seasonKey(d calendar.Date) int {
	switch d.Season() {
	case "DJF":
		return 0
	case "MAM":
		return 1
	case "JJA":
		return 2
	}
	return 3
}

// GroupIndex is the partition of one time axis. Members may overlap between
// keys when a day-of-year window is in effect; Central never overlaps and
// is the set results are written back to.
type GroupIndex struct {
	Keys    []int
	Members map[int][]int
	Central map[int][]int
}

func (g Grouper) key(d calendar.Date, cal calendar.Calendar) int {
	switch g.Group {
	case GroupTime:
		return 0
	case GroupMonth:
		return d.Month
	case GroupSeason:
		return seasonKey(d)
	case GroupDoy:
		return cal.DayOfYear(d)
	}
	return 0
}

// Indexes partitions a time axis into groups.
func (g Grouper) Indexes(times []calendar.Date, cal calendar.Calendar) *GroupIndex {
	idx := &GroupIndex{
		Members: map[int][]int{},
		Central: map[int][]int{},
	}
	for i, t := range times {
		k := g.key(t, cal)
		if _, seen := idx.Central[k]; !seen {
			idx.Keys = append(idx.Keys, k)
			idx.Central[k] = nil
		}
		idx.Central[k] = append(idx.Central[k], i)
	}
	sort.Ints(idx.Keys)

	if g.Group != GroupDoy || g.Window <= 1 {
		idx.Members = idx.Central
		return idx
	}

	// Widen each day-of-year group with its circular neighborhood.
	maxDoy := cal.MaxDoy()
	half := g.Window / 2
	for _, k := range idx.Keys {
		members := append([]int(nil), idx.Central[k]...)
		for off := 1; off <= half; off++ {
			for _, nk := range []int{wrapDoy(k-off, maxDoy), wrapDoy(k+off, maxDoy)} {
				members = append(members, idx.Central[nk]...)
			}
		}
		sort.Ints(members)
		idx.Members[k] = members
	}
	return idx
}

func wrapDoy(doy, maxDoy int) int {
	for doy < 1 {
		doy += maxDoy
	}
	for doy > maxDoy {
		doy -= maxDoy
	}
	return doy
}

// GroupValues holds one value per group, keyed by the grouper's group keys
// (month number, season index, day of year, or 0 for the ungrouped case).
type GroupValues struct {
	Grouper Grouper
	Keys    []int
	Values  []float64
}

// Get returns the value for a group key.
func (gv *GroupValues) Get(key int) (float64, bool) {
	for i, k := range gv.Keys {
		if k == key {
			return gv.Values[i], true
		}
	}
	return 0, false
}

// groupReduce reduces every group of the series with fn over the group
// member values.
func groupReduce(s *series.Series, g Grouper, fn func(vals []float64) float64) *GroupValues {
	idx := g.Indexes(s.Times, s.Meta.Calendar)
	gv := &GroupValues{Grouper: g, Keys: idx.Keys, Values: make([]float64, len(idx.Keys))}
	for i, k := range idx.Keys {
		vals := make([]float64, 0, len(idx.Members[k]))
		for _, j := range idx.Members[k] {
			vals = append(vals, s.Values[j])
		}
		gv.Values[i] = fn(vals)
	}
	return gv
}
