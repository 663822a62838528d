// Package series holds the labeled time-series values the rest of the
// library computes on. A Series is a time axis, a value slice with NaN as
// the missing value, and an explicit metadata record carrying units,
// calendar identity and provenance history. Stacked is the two-dimensional
// variant used for multivariate work.
package series

import (
	"fmt"
	"math"
	"time"

	"github.com/cfortin/climstats/pkg/calendar"
)

// TransformMeta records how a series was moved into additive space so the
// inverse transform can recover its defaults.
type TransformMeta struct {
	Method    string // "log" or "logit"
	Lower     float64
	Upper     float64 // NaN for single-bounded transforms
	OrigUnits string
}

// Meta is the metadata record attached to every series. It replaces the
// free-floating attribute dictionaries of array frameworks with a closed,
// explicitly threaded type.
type Meta struct {
	Units        string
	LongName     string
	StandardName string
	Calendar     calendar.Calendar
	// IsDayOfYear marks dimensionless outputs whose values are day-of-year
	// positions.
	IsDayOfYear bool
	History     []string
	Transform   *TransformMeta
}

// AppendHistory appends a timestamped provenance record of a call.
func (m *Meta) AppendHistory(format string, args ...interface{}) {
	entry := time.Now().UTC().Format(time.RFC3339) + " " + fmt.Sprintf(format, args...)
	m.History = append(m.History, entry)
}

// Series is a one-dimensional labeled time series. Times and Values are
// parallel slices; NaN marks missing values.
type Series struct {
	Times  []calendar.Date
	Values []float64
	Meta   Meta
}

// New builds a series, panicking on mismatched axis lengths since that is
// always a programming error, never a data condition.
func New(times []calendar.Date, values []float64, meta Meta) *Series {
	if len(times) != len(values) {
		panic(fmt.Sprintf("series: time axis length %d does not match values length %d", len(times), len(values)))
	}
	return &Series{Times: times, Values: values, Meta: meta}
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.Values) }

// Copy returns a deep copy.
func (s *Series) Copy() *Series {
	out := &Series{
		Times:  append([]calendar.Date(nil), s.Times...),
		Values: append([]float64(nil), s.Values...),
		Meta:   s.Meta,
	}
	out.Meta.History = append([]string(nil), s.Meta.History...)
	if s.Meta.Transform != nil {
		t := *s.Meta.Transform
		out.Meta.Transform = &t
	}
	return out
}

// Slice returns a copy restricted to the half-open index range [i, j).
func (s *Series) Slice(i, j int) *Series {
	out := s.Copy()
	out.Times = out.Times[i:j]
	out.Values = out.Values[i:j]
	return out
}

// MaskWhere returns a copy with values masked to NaN wherever keep is false.
func (s *Series) MaskWhere(keep []bool) *Series {
	out := s.Copy()
	for i, k := range keep {
		if !k {
			out.Values[i] = math.NaN()
		}
	}
	return out
}

// DropWhere returns a copy restricted to the samples where keep is true;
// the time axis shrinks.
func (s *Series) DropWhere(keep []bool) *Series {
	out := &Series{Meta: s.Copy().Meta}
	for i, k := range keep {
		if k {
			out.Times = append(out.Times, s.Times[i])
			out.Values = append(out.Values, s.Values[i])
		}
	}
	return out
}

// Years returns the year of every sample.
func (s *Series) Years() []int {
	years := make([]int, len(s.Times))
	for i, t := range s.Times {
		years[i] = t.Year
	}
	return years
}

// Stacked is a collection of named variables sharing one time axis, stacked
// along a leading variable axis. VarMeta is position-aligned with Names and
// preserves each variable's own metadata through a stack/unstack round-trip.
type Stacked struct {
	Names   []string
	Times   []calendar.Date
	Data    [][]float64 // [variable][time]
	VarMeta []Meta
	Meta    Meta
}

// NVars returns the number of stacked variables.
func (st *Stacked) NVars() int { return len(st.Data) }

// NSamples returns the length of the shared time axis.
func (st *Stacked) NSamples() int {
	if len(st.Data) == 0 {
		return 0
	}
	return len(st.Data[0])
}

// Column returns the values of every variable at time index j.
func (st *Stacked) Column(j int) []float64 {
	col := make([]float64, len(st.Data))
	for v := range st.Data {
		col[v] = st.Data[v][j]
	}
	return col
}
