package sdba

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cfortin/climstats/pkg/series"
	"github.com/cfortin/climstats/pkg/units"
)

// Kind selects the arithmetic a correction operates in.
type Kind int

const (
	// Additive corrections subtract.
	Additive Kind = iota
	// Multiplicative corrections divide.
	Multiplicative
)

// ErrUnknownKind is returned for kind names outside {"+", "*"}.
var ErrUnknownKind = errors.New("sdba: unknown correction kind")

// ParseKind parses "+" or "*".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "+", "additive":
		return Additive, nil
	case "*", "multiplicative":
		return Multiplicative, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	if k == Multiplicative {
		return "*"
	}
	return "+"
}

// uniformIn draws from the open-below interval (low, high). distuv.Uniform
// samples [Min, Max), so a draw landing exactly on low is rejected and
// redrawn to keep the lower endpoint out.
func uniformIn(low, high float64, src rand.Source) float64 {
	u := distuv.Uniform{Min: low, Max: high, Src: src}
	v := u.Rand()
	for v == low {
		v = u.Rand()
	}
	return v
}

// AdaptFreq adjusts the frequency of values at-or-below thresh in sim to
// match ref, group-wise. When sim is drier than ref in a group, a
// proportion dP0 = (P0sim - P0ref)/P0sim of the sub-threshold simulated
// values — the largest ones, those most plausibly dried out — is replaced
// by uniform random draws in (thresh, Pth], where Pth is the reference
// inverse CDF taken at the simulated CDF of thresh.
//
// It returns the adjusted series (in ref's units), the per-group Pth
// (missing where no adaptation was needed) and the per-group corrected
// fraction dP0, clamped to [0, 1].
func AdaptFreq(ref, sim *series.Series, g Grouper, thresh units.Quantity, src rand.Source) (*series.Series, *GroupValues, *GroupValues, error) {
	refUnit, err := units.Parse(ref.Meta.Units)
	if err != nil {
		return nil, nil, nil, err
	}
	sim, err = units.ConvertSeries(sim, refUnit)
	if err != nil {
		return nil, nil, nil, err
	}
	tq, err := thresh.ConvertTo(refUnit)
	if err != nil {
		return nil, nil, nil, err
	}
	t := tq.Value

	refIdx := g.Indexes(ref.Times, ref.Meta.Calendar)
	simIdx := g.Indexes(sim.Times, sim.Meta.Calendar)

	out := sim.Copy()
	pth := &GroupValues{Grouper: g, Keys: simIdx.Keys, Values: make([]float64, len(simIdx.Keys))}
	dp0 := &GroupValues{Grouper: g, Keys: simIdx.Keys, Values: make([]float64, len(simIdx.Keys))}

	for i, k := range simIdx.Keys {
		pth.Values[i] = math.NaN()
		dp0.Values[i] = math.NaN()

		refVals := cleanGather(ref.Values, refIdx.Members[k])
		simVals := cleanGather(sim.Values, simIdx.Members[k])
		if len(refVals) == 0 || len(simVals) == 0 {
			continue
		}

		p0ref := fracAtOrBelow(refVals, t)
		p0sim := fracAtOrBelow(simVals, t)
		if p0sim == 0 {
			dp0.Values[i] = 0
			continue
		}

		d := (p0sim - p0ref) / p0sim
		// Clamped to [0, 1]: negative means sim is already wet enough,
		// above one can only come from degenerate fractions.
		d = math.Max(0, math.Min(1, d))
		dp0.Values[i] = d
		if d == 0 {
			continue
		}

		sort.Float64s(refVals)
		p := stat.Quantile(p0sim, stat.Empirical, refVals, nil)
		pth.Values[i] = p
		if p <= t {
			// The reference is at least as dry at this quantile; there is
			// no room to draw replacement values from.
			continue
		}

		// Candidates: sub-threshold simulated values, largest first.
		var cands []int
		for _, j := range simIdx.Central[k] {
			if v := out.Values[j]; !math.IsNaN(v) && v <= t {
				cands = append(cands, j)
			}
		}
		sort.SliceStable(cands, func(a, b int) bool {
			return out.Values[cands[a]] > out.Values[cands[b]]
		})
		nRep := int(math.Round(d * float64(len(cands))))
		for _, j := range cands[:min(nRep, len(cands))] {
			out.Values[j] = uniformIn(t, p, src)
		}
	}

	out.Meta.AppendHistory("adapt_freq(group=%s, thresh=%s)", g, thresh)
	return out, pth, dp0, nil
}

func cleanGather(values []float64, idx []int) []float64 {
	out := make([]float64, 0, len(idx))
	for _, j := range idx {
		if !math.IsNaN(values[j]) {
			out = append(out, values[j])
		}
	}
	return out
}

func fracAtOrBelow(vals []float64, thresh float64) float64 {
	n := 0
	for _, v := range vals {
		if v <= thresh {
			n++
		}
	}
	return float64(n) / float64(len(vals))
}

// JitterUnderThresh replaces values strictly under thresh with uniform
// random noise in the open interval (eps, thresh). Missing values are left
// untouched. This replaces values, it does not add noise to them.
func JitterUnderThresh(x *series.Series, thresh units.Quantity, src rand.Source) (*series.Series, error) {
	xUnit, err := units.Parse(x.Meta.Units)
	if err != nil {
		return nil, err
	}
	tq, err := thresh.ConvertTo(xUnit)
	if err != nil {
		return nil, err
	}
	out := x.Copy()
	for i, v := range out.Values {
		if !math.IsNaN(v) && v < tq.Value {
			out.Values[i] = uniformIn(math.SmallestNonzeroFloat64, tq.Value, src)
		}
	}
	out.Meta.AppendHistory("jitter_under_thresh(thresh=%s)", thresh)
	return out, nil
}

// JitterOverThresh replaces values strictly over thresh with uniform random
// noise in (thresh, upperBnd). Missing values are left untouched.
func JitterOverThresh(x *series.Series, thresh, upperBnd units.Quantity, src rand.Source) (*series.Series, error) {
	xUnit, err := units.Parse(x.Meta.Units)
	if err != nil {
		return nil, err
	}
	tq, err := thresh.ConvertTo(xUnit)
	if err != nil {
		return nil, err
	}
	uq, err := upperBnd.ConvertTo(xUnit)
	if err != nil {
		return nil, err
	}
	out := x.Copy()
	for i, v := range out.Values {
		if !math.IsNaN(v) && v > tq.Value {
			out.Values[i] = uniformIn(tq.Value, uq.Value, src)
		}
	}
	out.Meta.AppendHistory("jitter_over_thresh(thresh=%s, upper_bnd=%s)", thresh, upperBnd)
	return out, nil
}

// UniformNoiseLike returns a series shaped like x filled with uniform noise
// in [low, high). An alternative to JitterUnderThresh for avoiding zeroes.
func UniformNoiseLike(x *series.Series, low, high float64, src rand.Source) *series.Series {
	out := x.Copy()
	for i := range out.Values {
		out.Values[i] = uniformIn(low, high, src)
	}
	return out
}

// Normalize removes (kind Additive) or divides out (kind Multiplicative)
// the group-wise mean of the series. When norm is non-nil it is used
// instead of computing the means. It returns the normalized series and the
// group means actually used.
func Normalize(data *series.Series, norm *GroupValues, g Grouper, kind Kind) (*series.Series, *GroupValues, error) {
	if norm == nil {
		norm = groupReduce(data, g, series.NaNMean)
	}
	idx := g.Indexes(data.Times, data.Meta.Calendar)
	out := data.Copy()
	for _, k := range idx.Keys {
		m, ok := norm.Get(k)
		if !ok {
			return nil, nil, fmt.Errorf("sdba: norm has no value for group %d", k)
		}
		for _, j := range idx.Central[k] {
			if kind == Multiplicative {
				out.Values[j] /= m
			} else {
				out.Values[j] -= m
			}
		}
	}
	out.Meta.AppendHistory("normalize(group=%s, kind=%s)", g, kind)
	return out, norm, nil
}

// Standardize centers the series on its mean and scales it by its standard
// deviation. Either statistic may be supplied to override computation. It
// returns the standardized series and the mean and deviation used, so
// Unstandardize can reconstruct the input exactly.
func Standardize(da *series.Series, mean, std *float64) (*series.Series, float64, float64) {
	m := series.NaNMean(da.Values)
	if mean != nil {
		m = *mean
	}
	sd := series.NaNStd(da.Values)
	if std != nil {
		sd = *std
	}
	out := da.Copy()
	for i, v := range out.Values {
		out.Values[i] = (v - m) / sd
	}
	out.Meta.AppendHistory("standardize()")
	return out, m, sd
}

// Unstandardize is the inverse of Standardize given the same mean and
// standard deviation.
func Unstandardize(da *series.Series, mean, std float64) *series.Series {
	out := da.Copy()
	for i, v := range out.Values {
		out.Values[i] = std*v + mean
	}
	out.Meta.AppendHistory("unstandardize(mean=%v, std=%v)", mean, std)
	return out
}

// stableArgsort returns the permutation that sorts vals ascending, with
// ties (and NaNs, which sort last) kept in original order.
func stableArgsort(vals []float64) []int {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := vals[idx[a]], vals[idx[b]]
		if math.IsNaN(va) {
			return false
		}
		if math.IsNaN(vb) {
			return true
		}
		return va < vb
	})
	return idx
}

// Reordering permutes sim's values so their rank order along time matches
// ref's, optionally group-wise. Ties keep the stable order of their
// original positions. Group sizes of ref and sim must match.
func Reordering(ref, sim *series.Series, g Grouper) (*series.Series, error) {
	refIdx := g.Indexes(ref.Times, ref.Meta.Calendar)
	simIdx := g.Indexes(sim.Times, sim.Meta.Calendar)

	out := sim.Copy()
	for _, k := range refIdx.Keys {
		rm := refIdx.Central[k]
		sm := simIdx.Central[k]
		if len(rm) != len(sm) {
			return nil, fmt.Errorf("sdba: group %d has %d reference samples but %d simulated ones", k, len(rm), len(sm))
		}

		refVals := make([]float64, len(rm))
		for i, j := range rm {
			refVals[i] = ref.Values[j]
		}
		simVals := make([]float64, len(sm))
		for i, j := range sm {
			simVals[i] = sim.Values[j]
		}

		refOrder := stableArgsort(refVals)
		simOrder := stableArgsort(simVals)
		simSorted := make([]float64, len(simVals))
		for r, pos := range simOrder {
			simSorted[r] = simVals[pos]
		}

		// The r-th smallest simulated value goes where ref's r-th
		// smallest value sits.
		for r, pos := range refOrder {
			out.Values[sm[pos]] = simSorted[r]
		}
	}
	out.Meta.AppendHistory("reordering(group=%s)", g)
	return out, nil
}
