package sdba

import (
	"errors"
	"fmt"

	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

// ErrMisalignedVariables is returned when variables to be stacked do not
// share one time axis.
var ErrMisalignedVariables = errors.New("sdba: variables must share the same time axis to be stacked")

// StackVariables stacks named variables into one array along a new variable
// axis. Each variable's metadata is preserved position-aligned with the
// names, so UnstackVariables can restore it; the stacked array itself is
// unitless since the variables need not share a unit.
func StackVariables(names []string, vars []*series.Series) (*series.Stacked, error) {
	if len(names) != len(vars) || len(vars) == 0 {
		return nil, fmt.Errorf("sdba: got %d names for %d variables", len(names), len(vars))
	}
	first := vars[0]
	for _, v := range vars[1:] {
		if v.Len() != first.Len() {
			return nil, ErrMisalignedVariables
		}
		for i, t := range v.Times {
			if t != first.Times[i] {
				return nil, ErrMisalignedVariables
			}
		}
	}

	st := &series.Stacked{
		Names: append([]string(nil), names...),
		Times: append([]calendar.Date(nil), first.Times...),
		Meta: series.Meta{
			Units:    "",
			Calendar: first.Meta.Calendar,
		},
	}
	for _, v := range vars {
		st.Data = append(st.Data, append([]float64(nil), v.Values...))
		st.VarMeta = append(st.VarMeta, v.Copy().Meta)
	}
	st.Meta.AppendHistory("stack_variables(%v)", names)
	return st, nil
}

// UnstackVariables restores the individual variables of a stacked array,
// each with its original metadata.
func UnstackVariables(st *series.Stacked) ([]*series.Series, error) {
	if len(st.VarMeta) != len(st.Data) {
		return nil, fmt.Errorf("sdba: stacked array has %d variables but %d metadata records, were attributes removed?",
			len(st.Data), len(st.VarMeta))
	}
	out := make([]*series.Series, len(st.Data))
	for i := range st.Data {
		meta := st.VarMeta[i]
		meta.History = append(append([]string(nil), meta.History...), st.Meta.History...)
		out[i] = series.New(
			append([]calendar.Date(nil), st.Times...),
			append([]float64(nil), st.Data[i]...),
			meta,
		)
		out[i].Meta.AppendHistory("unstack_variables(%s)", st.Names[i])
	}
	return out, nil
}
