package indices

import (
	"errors"
	"fmt"
	"math"

	"github.com/cfortin/climstats/internal/runlength"
	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
	"github.com/cfortin/climstats/pkg/units"
)

// ErrBadBound is returned for a DateBound with zero or two sources set.
var ErrBadBound = errors.New("indices: a date bound needs exactly one of MonthDay or Doy")

// DateBound is one end of a date-bounded aggregation: either a fixed
// month-day string applied to every period, or a series of per-period
// day-of-year values (e.g. a growing-season start computed per year).
type DateBound struct {
	MonthDay string
	Doy      *series.Series
}

func (b DateBound) validate() error {
	if (b.MonthDay == "") == (b.Doy == nil) {
		return ErrBadBound
	}
	return nil
}

// days returns the bound as a day offset from the period base, or
// ok == false when the bound is undefined for this period. Undefined bounds
// are a data condition, not an error: the period's result becomes missing.
func (b DateBound) days(p calendar.Period, times []calendar.Date, cal calendar.Calendar) (float64, bool) {
	if b.MonthDay != "" {
		m, d, err := calendar.ParseMonthDay(b.MonthDay)
		if err != nil {
			return math.NaN(), false
		}
		sub := make([]calendar.Date, len(p.Indices))
		for i, j := range p.Indices {
			sub[i] = times[j]
		}
		k := runlength.IndexOfDate(sub, m, d)
		if k < 0 {
			return math.NaN(), false
		}
		return float64(cal.DaysBetween(p.Start, sub[k])), true
	}

	for j, t := range b.Doy.Times {
		if t == p.Start {
			v := b.Doy.Values[j]
			if math.IsNaN(v) {
				return math.NaN(), false
			}
			ds := cal.DoyToDaysSince([]float64{v}, []int{p.Start.Year}, p.Start)
			return ds[0], true
		}
	}
	return math.NaN(), false
}

// AggregateBetweenDates reduces the data within [start, end) of each
// resample period, where the bounds are given as dates. A period whose
// bounds are undefined, or whose start is not before its end, yields a
// missing value for that period only: an absent season is data, not an
// error. When freq is empty it is inferred from the bound series and must
// be uniquely determined.
func AggregateBetweenDates(data *series.Series, start, end DateBound, op series.ReduceOp, freq string) (*series.Series, error) {
	if err := start.validate(); err != nil {
		return nil, err
	}
	if err := end.validate(); err != nil {
		return nil, err
	}

	cal := data.Meta.Calendar
	if freq == "" {
		inferred := map[string]bool{}
		for _, b := range []DateBound{start, end} {
			if b.Doy == nil {
				continue
			}
			f, err := b.Doy.Meta.Calendar.InferFreq(b.Doy.Times)
			if err != nil {
				continue
			}
			inferred[f] = true
		}
		if len(inferred) != 1 {
			return nil, fmt.Errorf("%w: got %d candidate frequencies from the bound series, please provide freq explicitly",
				calendar.ErrAmbiguousFreq, len(inferred))
		}
		for f := range inferred {
			freq = f
		}
	}

	periods, err := cal.Periods(data.Times, freq)
	if err != nil {
		return nil, err
	}

	times := make([]calendar.Date, len(periods))
	values := make([]float64, len(periods))
	for i, p := range periods {
		times[i] = p.Start
		values[i] = math.NaN()

		startD, okS := start.days(p, data.Times, cal)
		endD, okE := end.days(p, data.Times, cal)
		if !okS || !okE || startD >= endD {
			continue
		}

		var vals []float64
		for _, j := range p.Indices {
			d := float64(cal.DaysBetween(p.Start, data.Times[j]))
			if d >= startD && d <= endD-1 {
				vals = append(vals, data.Values[j])
			}
		}
		values[i] = op.Reduce(vals)
	}

	out := series.New(times, values, cloneMeta(data))
	if err := units.ToAggUnits(out, data, units.AggSum); err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("aggregate_between_dates(op=%s, freq=%s)", op, freq)
	return out, nil
}
