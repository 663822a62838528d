package series

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Reducer enumerates the recognized named reducers. Unrecognized names are
// rejected at the boundary by ParseReducer.
type Reducer int

const (
	Min Reducer = iota
	Max
	Mean
	Sum
	Std
	Var
	Count
	ArgMin
	ArgMax
	custom
)

// ErrUnknownReducer is returned for reducer names outside the closed set.
var ErrUnknownReducer = errors.New("series: unknown reducer")

// ParseReducer maps a reducer name to its Reducer value.
func ParseReducer(name string) (Reducer, error) {
	switch name {
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "mean":
		return Mean, nil
	case "sum":
		return Sum, nil
	case "std":
		return Std, nil
	case "var":
		return Var, nil
	case "count":
		return Count, nil
	case "argmin":
		return ArgMin, nil
	case "argmax":
		return ArgMax, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownReducer, name)
}

func (r Reducer) String() string {
	switch r {
	case Min:
		return "min"
	case Max:
		return "max"
	case Mean:
		return "mean"
	case Sum:
		return "sum"
	case Std:
		return "std"
	case Var:
		return "var"
	case Count:
		return "count"
	case ArgMin:
		return "argmin"
	case ArgMax:
		return "argmax"
	case custom:
		return "custom"
	}
	return "unknown"
}

// ReduceOp is either a named reducer or an explicit custom function. The
// custom variant exists so callers never have to smuggle functions through
// string dispatch.
type ReduceOp struct {
	Kind Reducer
	Fn   func([]float64) float64
}

// Op wraps a named reducer.
func Op(r Reducer) ReduceOp { return ReduceOp{Kind: r} }

// CustomOp wraps an arbitrary reduction function.
func CustomOp(fn func([]float64) float64) ReduceOp { return ReduceOp{Kind: custom, Fn: fn} }

func (op ReduceOp) String() string { return op.Kind.String() }

// dropNaN filters the missing values out of vals.
func dropNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Reduce applies the operation to vals, ignoring missing values. Reducing an
// all-missing slice yields NaN (0 for Count).
func (op ReduceOp) Reduce(vals []float64) float64 {
	if op.Kind == custom {
		return op.Fn(vals)
	}
	// The arg-extremes index the unfiltered slice so positions stay
	// meaningful, and report -1 rather than NaN when everything is missing.
	switch op.Kind {
	case ArgMin:
		return float64(argExtreme(vals, func(a, b float64) bool { return a < b }))
	case ArgMax:
		return float64(argExtreme(vals, func(a, b float64) bool { return a > b }))
	}
	clean := dropNaN(vals)
	if op.Kind == Count {
		return float64(len(clean))
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	switch op.Kind {
	case Min:
		m := clean[0]
		for _, v := range clean[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case Max:
		m := clean[0]
		for _, v := range clean[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case Mean:
		return stat.Mean(clean, nil)
	case Sum:
		s := 0.0
		for _, v := range clean {
			s += v
		}
		return s
	case Std:
		return stat.PopStdDev(clean, nil)
	case Var:
		return stat.PopVariance(clean, nil)
	}
	return math.NaN()
}

// argExtreme returns the index of the extreme non-missing value, -1 if all
// values are missing. It works on the unfiltered slice so indices stay
// meaningful.
func argExtreme(vals []float64, better func(a, b float64) bool) int {
	best := -1
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || better(v, vals[best]) {
			best = i
		}
	}
	return best
}

// NaNMean is a NaN-aware mean, exported for use as a building block.
func NaNMean(vals []float64) float64 { return Op(Mean).Reduce(vals) }

// NaNStd is a NaN-aware population standard deviation.
func NaNStd(vals []float64) float64 { return Op(Std).Reduce(vals) }
