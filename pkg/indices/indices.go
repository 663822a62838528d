package indices

import (
	"fmt"
	"math"

	"github.com/cfortin/climstats/internal/runlength"
	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
	"github.com/cfortin/climstats/pkg/units"
)

// cloneMeta copies a series' metadata without sharing the history slice.
func cloneMeta(s *series.Series) series.Meta {
	m := s.Meta
	m.History = append([]string(nil), s.Meta.History...)
	if s.Meta.Transform != nil {
		t := *s.Meta.Transform
		m.Transform = &t
	}
	return m
}

// resampleReduce partitions the series into periods of freq and reduces each
// with fn, which receives the sample indices of the period. The result has
// one sample per period, labeled by the period start.
func resampleReduce(s *series.Series, freq string, fn func(idx []int) float64) (*series.Series, error) {
	periods, err := s.Meta.Calendar.Periods(s.Times, freq)
	if err != nil {
		return nil, err
	}
	times := make([]calendar.Date, len(periods))
	values := make([]float64, len(periods))
	for i, p := range periods {
		times[i] = p.Start
		values[i] = fn(p.Indices)
	}
	return series.New(times, values, cloneMeta(s)), nil
}

func gather(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

// convertThresh expresses a threshold quantity in the series' units.
func convertThresh(thresh units.Quantity, s *series.Series) (float64, error) {
	target, err := units.Parse(s.Meta.Units)
	if err != nil {
		return math.NaN(), err
	}
	q, err := thresh.ConvertTo(target)
	if err != nil {
		return math.NaN(), err
	}
	return q.Value, nil
}

// ThresholdCount counts, per resample period, the samples satisfying the
// comparison against a threshold already in the series' units.
func ThresholdCount(s *series.Series, op Op, thresh float64, freq string) (*series.Series, error) {
	cond := Compare(s, op, thresh)
	out, err := resampleReduce(s, freq, func(idx []int) float64 {
		n := 0
		for _, j := range idx {
			if cond[j] {
				n++
			}
		}
		return float64(n)
	})
	if err != nil {
		return nil, err
	}
	if err := units.ToAggUnits(out, s, units.AggCount); err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("threshold_count(op=%s, thresh=%v, freq=%s)", op, thresh, freq)
	return out, nil
}

// DomainCount counts, per resample period, the samples in the half-open
// interval (low, high]: low excluded, high included.
func DomainCount(s *series.Series, low, high float64, freq string) (*series.Series, error) {
	inLow := Compare(s, Gt, low)
	inHigh := Compare(s, Le, high)
	out, err := resampleReduce(s, freq, func(idx []int) float64 {
		n := 0
		for _, j := range idx {
			if inLow[j] && inHigh[j] {
				n++
			}
		}
		return float64(n)
	})
	if err != nil {
		return nil, err
	}
	if err := units.ToAggUnits(out, s, units.AggCount); err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("domain_count(low=%v, high=%v, freq=%s)", low, high, freq)
	return out, nil
}

// CountOccurrences counts, per resample period, the samples satisfying the
// comparison after converting the threshold into the series' units.
func CountOccurrences(s *series.Series, thresh units.Quantity, op Op, freq string) (*series.Series, error) {
	t, err := convertThresh(thresh, s)
	if err != nil {
		return nil, err
	}
	out, err := ThresholdCount(s, op, t, freq)
	if err != nil {
		return nil, err
	}
	out.Meta.History = out.Meta.History[:len(out.Meta.History)-1]
	out.Meta.AppendHistory("count_occurrences(thresh=%s, op=%s, freq=%s)", thresh, op, freq)
	return out, nil
}

// DailyEvents marks each sample with 1 where the comparison against the
// threshold holds and 0 where it does not. Missing samples stay missing,
// which a plain boolean mask cannot express. The result is dimensionless.
func DailyEvents(s *series.Series, thresh units.Quantity, op Op) (*series.Series, error) {
	t, err := convertThresh(thresh, s)
	if err != nil {
		return nil, err
	}
	values := make([]float64, s.Len())
	for i, v := range s.Values {
		switch {
		case math.IsNaN(v):
			values[i] = math.NaN()
		case op.Apply(v, t):
			values[i] = 1
		default:
			values[i] = 0
		}
	}
	out := series.New(append([]calendar.Date(nil), s.Times...), values, cloneMeta(s))
	out.Meta.Units = ""
	out.Meta.AppendHistory("daily_events(thresh=%s, op=%s)", thresh, op)
	return out, nil
}

// CountLevelCrossings counts, per resample period, the samples where the
// low series is strictly below the threshold while the high series is
// at-or-above it. Units are harmonized into the low series' units first.
func CountLevelCrossings(low, high *series.Series, thresh units.Quantity, freq string) (*series.Series, error) {
	lowUnit, err := units.Parse(low.Meta.Units)
	if err != nil {
		return nil, err
	}
	high, err = units.ConvertSeries(high, lowUnit)
	if err != nil {
		return nil, err
	}
	tq, err := thresh.ConvertTo(lowUnit)
	if err != nil {
		return nil, err
	}
	if low.Len() != high.Len() {
		return nil, fmt.Errorf("indices: low and high series have different lengths (%d vs %d)", low.Len(), high.Len())
	}

	below := Compare(low, Lt, tq.Value)
	above := Compare(high, Ge, tq.Value)
	out, err := resampleReduce(low, freq, func(idx []int) float64 {
		n := 0
		for _, j := range idx {
			if below[j] && above[j] {
				n++
			}
		}
		return float64(n)
	})
	if err != nil {
		return nil, err
	}
	if err := units.ToAggUnits(out, low, units.AggCount); err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("count_level_crossings(thresh=%s, freq=%s)", thresh, freq)
	return out, nil
}

// occurrence locates, per resample period, the first or last index where the
// condition holds, recorded as a day-of-year position.
func occurrence(s *series.Series, thresh units.Quantity, op Op, freq string, last bool) (*series.Series, error) {
	t, err := convertThresh(thresh, s)
	if err != nil {
		return nil, err
	}
	cond := Compare(s, op, t)
	cal := s.Meta.Calendar
	out, err := resampleReduce(s, freq, func(idx []int) float64 {
		sub := make([]bool, len(idx))
		for i, j := range idx {
			sub[i] = cond[j]
		}
		var k int
		if last {
			k = runlength.LastRun(sub, 1)
		} else {
			k = runlength.FirstRun(sub, 1)
		}
		if k < 0 {
			return math.NaN()
		}
		return float64(cal.DayOfYear(s.Times[idx[k]]))
	})
	if err != nil {
		return nil, err
	}
	if err := units.ToAggUnits(out, s, units.AggDoy); err != nil {
		return nil, err
	}
	return out, nil
}

// FirstOccurrence returns, per resample period, the day-of-year of the
// first sample satisfying the condition, missing when none does.
func FirstOccurrence(s *series.Series, thresh units.Quantity, op Op, freq string) (*series.Series, error) {
	out, err := occurrence(s, thresh, op, freq, false)
	if err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("first_occurrence(thresh=%s, op=%s, freq=%s)", thresh, op, freq)
	return out, nil
}

// LastOccurrence returns, per resample period, the day-of-year of the last
// sample satisfying the condition, missing when none does.
func LastOccurrence(s *series.Series, thresh units.Quantity, op Op, freq string) (*series.Series, error) {
	out, err := occurrence(s, thresh, op, freq, true)
	if err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("last_occurrence(thresh=%s, op=%s, freq=%s)", thresh, op, freq)
	return out, nil
}

// DoyMax returns, per resample period, the day-of-year of the maximum value.
func DoyMax(s *series.Series, freq string) (*series.Series, error) {
	return doyExtreme(s, freq, series.Op(series.ArgMax), "doymax")
}

// DoyMin returns, per resample period, the day-of-year of the minimum value.
func DoyMin(s *series.Series, freq string) (*series.Series, error) {
	return doyExtreme(s, freq, series.Op(series.ArgMin), "doymin")
}

func doyExtreme(s *series.Series, freq string, op series.ReduceOp, name string) (*series.Series, error) {
	cal := s.Meta.Calendar
	out, err := resampleReduce(s, freq, func(idx []int) float64 {
		k := op.Reduce(gather(s.Values, idx))
		if k < 0 || math.IsNaN(k) {
			return math.NaN()
		}
		return float64(cal.DayOfYear(s.Times[idx[int(k)]]))
	})
	if err != nil {
		return nil, err
	}
	if err := units.ToAggUnits(out, s, units.AggDoy); err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("%s(freq=%s)", name, freq)
	return out, nil
}

// SpellLength reduces, per resample period, the lengths of contiguous runs
// where the condition holds.
func SpellLength(s *series.Series, thresh units.Quantity, op Op, reducer series.ReduceOp, freq string) (*series.Series, error) {
	t, err := convertThresh(thresh, s)
	if err != nil {
		return nil, err
	}
	cond := Compare(s, op, t)
	out, err := resampleReduce(s, freq, func(idx []int) float64 {
		sub := make([]bool, len(idx))
		for i, j := range idx {
			sub[i] = cond[j]
		}
		return runlength.Statistics(sub, reducer)
	})
	if err != nil {
		return nil, err
	}
	if err := units.ToAggUnits(out, s, units.AggCount); err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("spell_length(thresh=%s, op=%s, reducer=%s, freq=%s)", thresh, op, reducer, freq)
	return out, nil
}

// Statistics reduces the series per resample period. Units are unchanged.
func Statistics(s *series.Series, reducer series.ReduceOp, freq string) (*series.Series, error) {
	out, err := resampleReduce(s, freq, func(idx []int) float64 {
		return reducer.Reduce(gather(s.Values, idx))
	})
	if err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("statistics(reducer=%s, freq=%s)", reducer, freq)
	return out, nil
}

// ThresholdedStatistics reduces, per resample period, only the samples
// satisfying the condition. Units are unchanged.
func ThresholdedStatistics(s *series.Series, thresh units.Quantity, op Op, reducer series.ReduceOp, freq string) (*series.Series, error) {
	t, err := convertThresh(thresh, s)
	if err != nil {
		return nil, err
	}
	cond := Compare(s, op, t)
	masked := s.MaskWhere(cond)
	out, err := resampleReduce(masked, freq, func(idx []int) float64 {
		return reducer.Reduce(gather(masked.Values, idx))
	})
	if err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("thresholded_statistics(thresh=%s, op=%s, reducer=%s, freq=%s)", thresh, op, reducer, freq)
	return out, nil
}

// SelectResampleOp reduces the series per resample period, optionally
// restricted to a time selection first. An empty freq is inferred from the
// selection via DefaultFreq.
func SelectResampleOp(s *series.Series, reducer series.ReduceOp, freq string, sel *TimeSelection) (*series.Series, error) {
	if sel != nil && !sel.IsZero() {
		masked, err := SelectTime(s, TimeSelection{
			Seasons: sel.Seasons, Months: sel.Months,
			DoyBounds: sel.DoyBounds, DateBounds: sel.DateBounds,
		})
		if err != nil {
			return nil, err
		}
		s = masked
		if freq == "" {
			freq = DefaultFreq(*sel)
		}
	}
	if freq == "" {
		freq = "YS-JAN"
	}
	return Statistics(s, reducer, freq)
}

// TemperatureSum accumulates, per resample period, the difference between
// the values and the threshold over the samples satisfying the condition.
// The sign is flipped for below-threshold conditions so cold sums come out
// positive, and the result carries a degree-time unit.
func TemperatureSum(s *series.Series, thresh units.Quantity, op Op, freq string) (*series.Series, error) {
	t, err := convertThresh(thresh, s)
	if err != nil {
		return nil, err
	}
	cond := Compare(s, op, t)
	direction := 1.0
	if op.IsBelow() {
		direction = -1.0
	}
	out, err := resampleReduce(s, freq, func(idx []int) float64 {
		sum := 0.0
		any := false
		for _, j := range idx {
			v := s.Values[j]
			if cond[j] && !math.IsNaN(v) {
				sum += v - t
				any = true
			}
		}
		if !any {
			return 0
		}
		return direction * sum
	})
	if err != nil {
		return nil, err
	}
	if err := units.ToAggUnits(out, s, units.AggDeltaProd); err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("temperature_sum(thresh=%s, op=%s, freq=%s)", thresh, op, freq)
	return out, nil
}

// DegreeDays returns the per-sample accumulation of temperature beyond the
// threshold, clipped at zero: (v - thresh) for above conditions,
// (thresh - v) for below. Only strict comparisons are meaningful here.
func DegreeDays(s *series.Series, thresh units.Quantity, op Op) (*series.Series, error) {
	if op != Lt && op != Gt {
		return nil, fmt.Errorf("%w: degree days need < or >, got %s", ErrUnknownOperator, op)
	}
	t, err := convertThresh(thresh, s)
	if err != nil {
		return nil, err
	}
	out := s.Copy()
	for i, v := range out.Values {
		if math.IsNaN(v) {
			continue
		}
		d := v - t
		if op == Lt {
			d = -d
		}
		out.Values[i] = math.Max(d, 0)
	}
	if err := units.ToAggUnits(out, s, units.AggDeltaProd); err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("degree_days(thresh=%s, op=%s)", thresh, op)
	return out, nil
}

// dtr returns high - low after harmonizing units into low's.
func dtr(low, high *series.Series) (*series.Series, error) {
	lowUnit, err := units.Parse(low.Meta.Units)
	if err != nil {
		return nil, err
	}
	high, err = units.ConvertSeries(high, lowUnit)
	if err != nil {
		return nil, err
	}
	if low.Len() != high.Len() {
		return nil, fmt.Errorf("indices: low and high series have different lengths (%d vs %d)", low.Len(), high.Len())
	}
	out := low.Copy()
	for i := range out.Values {
		out.Values[i] = high.Values[i] - low.Values[i]
	}
	out.Meta.Units = lowUnit.Delta().String()
	return out, nil
}

// DiurnalTemperatureRange reduces the daily temperature range (high - low)
// per resample period.
func DiurnalTemperatureRange(low, high *series.Series, reducer series.ReduceOp, freq string) (*series.Series, error) {
	rng, err := dtr(low, high)
	if err != nil {
		return nil, err
	}
	out, err := resampleReduce(rng, freq, func(idx []int) float64 {
		return reducer.Reduce(gather(rng.Values, idx))
	})
	if err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("diurnal_temperature_range(reducer=%s, freq=%s)", reducer, freq)
	return out, nil
}

// InterdayDiurnalTemperatureRange reduces, per resample period, the mean
// absolute day-to-day change of the diurnal temperature range.
func InterdayDiurnalTemperatureRange(low, high *series.Series, freq string) (*series.Series, error) {
	rng, err := dtr(low, high)
	if err != nil {
		return nil, err
	}
	if rng.Len() < 2 {
		return nil, fmt.Errorf("indices: need at least two samples for an interday range")
	}
	diff := rng.Slice(1, rng.Len())
	for i := range diff.Values {
		diff.Values[i] = math.Abs(rng.Values[i+1] - rng.Values[i])
	}
	out, err := resampleReduce(diff, freq, func(idx []int) float64 {
		return series.Op(series.Mean).Reduce(gather(diff.Values, idx))
	})
	if err != nil {
		return nil, err
	}
	out.Meta.AppendHistory("interday_diurnal_temperature_range(freq=%s)", freq)
	return out, nil
}

// ExtremeTemperatureRange computes, per resample period, the highest high
// minus the lowest low.
func ExtremeTemperatureRange(low, high *series.Series, freq string) (*series.Series, error) {
	lowUnit, err := units.Parse(low.Meta.Units)
	if err != nil {
		return nil, err
	}
	high, err = units.ConvertSeries(high, lowUnit)
	if err != nil {
		return nil, err
	}
	if low.Len() != high.Len() {
		return nil, fmt.Errorf("indices: low and high series have different lengths (%d vs %d)", low.Len(), high.Len())
	}
	maxHigh, err := resampleReduce(high, freq, func(idx []int) float64 {
		return series.Op(series.Max).Reduce(gather(high.Values, idx))
	})
	if err != nil {
		return nil, err
	}
	minLow, err := resampleReduce(low, freq, func(idx []int) float64 {
		return series.Op(series.Min).Reduce(gather(low.Values, idx))
	})
	if err != nil {
		return nil, err
	}
	out := maxHigh
	for i := range out.Values {
		out.Values[i] -= minLow.Values[i]
	}
	out.Meta.Units = lowUnit.Delta().String()
	out.Meta.AppendHistory("extreme_temperature_range(freq=%s)", freq)
	return out, nil
}
