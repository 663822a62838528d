// Package indices implements the generic climate-indicator engine: time
// selection, threshold comparison, counting, run-length statistics,
// accumulated degree quantities and date-bounded aggregation. Operations
// take labeled series in, return labeled series out, and derive output
// units through the units layer.
package indices

import (
	"errors"
	"fmt"
	"math"

	"github.com/cfortin/climstats/pkg/series"
)

// Op is a comparison operator from the closed set the engine recognizes.
type Op int

const (
	Gt Op = iota
	Lt
	Ge
	Le
	Eq
	Ne
)

// ErrUnknownOperator is returned by ParseOp for operators outside the
// closed set.
var ErrUnknownOperator = errors.New("indices: unknown comparison operator")

// ParseOp parses an operator in either symbol (">") or mnemonic ("gt")
// spelling.
func ParseOp(s string) (Op, error) {
	switch s {
	case ">", "gt":
		return Gt, nil
	case "<", "lt":
		return Lt, nil
	case ">=", "ge":
		return Ge, nil
	case "<=", "le":
		return Le, nil
	case "==", "eq":
		return Eq, nil
	case "!=", "ne":
		return Ne, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

func (op Op) String() string {
	switch op {
	case Gt:
		return ">"
	case Lt:
		return "<"
	case Ge:
		return ">="
	case Le:
		return "<="
	case Eq:
		return "=="
	case Ne:
		return "!="
	}
	return "?"
}

// IsBelow reports whether the operator selects values under the threshold.
func (op Op) IsBelow() bool { return op == Lt || op == Le }

// Apply evaluates the comparison. Missing values never satisfy it.
func (op Op) Apply(v, thresh float64) bool {
	if math.IsNaN(v) {
		return false
	}
	switch op {
	case Gt:
		return v > thresh
	case Lt:
		return v < thresh
	case Ge:
		return v >= thresh
	case Le:
		return v <= thresh
	case Eq:
		return v == thresh
	case Ne:
		return v != thresh
	}
	return false
}

// Compare applies the comparison to every sample of the series.
func Compare(s *series.Series, op Op, thresh float64) []bool {
	out := make([]bool, s.Len())
	for i, v := range s.Values {
		out[i] = op.Apply(v, thresh)
	}
	return out
}
