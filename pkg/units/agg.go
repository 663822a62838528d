package units

import (
	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

// AggKind names the aggregation whose output unit is being derived.
type AggKind int

const (
	// AggCount counts samples; the result carries the sampling time unit
	// (a count of daily samples is a number of days).
	AggCount AggKind = iota
	// AggSum sums values; the unit is unchanged.
	AggSum
	// AggDeltaProd sums differences over time; the result is the delta
	// unit times the sampling time unit (degree-days).
	AggDeltaProd
	// AggDoy marks day-of-year positions, dimensionless.
	AggDoy
)

// sampleTimeUnit returns the unit of one sampling step of the original
// series. Daily and n-daily data count in days, month starts in weeks would
// be wrong, so monthly data falls back to days as well: counts are always
// expressible as a number of samples times the base step.
func sampleTimeUnit(orig *series.Series) Unit {
	freq, err := orig.Meta.Calendar.InferFreq(orig.Times)
	if err != nil {
		return MustParse("d")
	}
	o, err := calendar.ParseOffset(freq)
	if err != nil || o.Base == 'D' {
		return MustParse("d")
	}
	if o.Base == 'H' {
		return MustParse("h")
	}
	return MustParse("d")
}

// ToAggUnits sets the units of an aggregated result from the original
// series and the kind of aggregation performed, instead of assuming
// dimensionless output.
func ToAggUnits(out, orig *series.Series, op AggKind) error {
	switch op {
	case AggCount:
		out.Meta.Units = sampleTimeUnit(orig).String()
	case AggSum:
		out.Meta.Units = orig.Meta.Units
	case AggDeltaProd:
		u, err := Parse(orig.Meta.Units)
		if err != nil {
			return err
		}
		out.Meta.Units = u.Delta().Mul(sampleTimeUnit(orig)).String()
	case AggDoy:
		out.Meta.Units = ""
		out.Meta.IsDayOfYear = true
	}
	return nil
}

// ConvertSeries converts a series into the target unit in place on a copy.
func ConvertSeries(s *series.Series, target Unit) (*series.Series, error) {
	from, err := Parse(s.Meta.Units)
	if err != nil {
		return nil, err
	}
	out := s.Copy()
	if from == target {
		return out, nil
	}
	for i, v := range out.Values {
		c, err := Convert(v, from, target)
		if err != nil {
			return nil, err
		}
		out.Values[i] = c
	}
	out.Meta.Units = target.String()
	return out, nil
}
