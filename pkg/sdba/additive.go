package sdba

import (
	"errors"
	"fmt"
	"math"

	"github.com/cfortin/climstats/pkg/series"
	"github.com/cfortin/climstats/pkg/units"
)

// Transform names the additive-space transforms.
type Transform int

const (
	// Log maps a single-bounded variable: y = ln(x - lower).
	Log Transform = iota
	// Logit maps a double-bounded variable: y = ln(x'/(1-x')) with
	// x' = (x-lower)/(upper-lower).
	Logit
)

// ErrUnknownTransform is returned for transform names outside the closed
// set, or when FromAdditiveSpace has neither arguments nor stored metadata
// to work from.
var ErrUnknownTransform = errors.New("sdba: unknown additive-space transform")

// ParseTransform parses "log" or "logit".
func ParseTransform(name string) (Transform, error) {
	switch name {
	case "log":
		return Log, nil
	case "logit":
		return Logit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTransform, name)
}

func (t Transform) String() string {
	if t == Logit {
		return "logit"
	}
	return "log"
}

// ToAdditiveSpace maps a bounded variable into an unbounded representation
// where additive bias-adjustment is statistically valid. upper is ignored
// for the log transform. Values exactly at a bound map to infinities;
// callers are expected to jitter away from bounds beforehand. The transform
// parameters are recorded in the output metadata so FromAdditiveSpace can
// recover them.
func ToAdditiveSpace(data *series.Series, trans Transform, lower units.Quantity, upper *units.Quantity) (*series.Series, error) {
	dataUnit, err := units.Parse(data.Meta.Units)
	if err != nil {
		return nil, err
	}
	lq, err := lower.ConvertTo(dataUnit)
	if err != nil {
		return nil, err
	}
	lo := lq.Value

	hi := math.NaN()
	if trans == Logit {
		if upper == nil {
			return nil, fmt.Errorf("%w: logit needs an upper bound", ErrUnknownTransform)
		}
		uq, err := upper.ConvertTo(dataUnit)
		if err != nil {
			return nil, err
		}
		hi = uq.Value
	}

	out := data.Copy()
	for i, v := range out.Values {
		switch trans {
		case Log:
			out.Values[i] = math.Log(v - lo)
		case Logit:
			x := (v - lo) / (hi - lo)
			out.Values[i] = math.Log(x / (1 - x))
		}
	}
	out.Meta.Transform = &series.TransformMeta{
		Method:    trans.String(),
		Lower:     lo,
		Upper:     hi,
		OrigUnits: data.Meta.Units,
	}
	out.Meta.Units = ""
	out.Meta.AppendHistory("to_additive_space(trans=%s, lower=%s)", trans, lower)
	return out, nil
}

// FromParams overrides the transform parameters stored in the series'
// metadata when inverting an additive-space transform.
type FromParams struct {
	Trans     Transform
	Lower     float64
	Upper     float64 // ignored by Log
	OrigUnits string
}

// FromAdditiveSpace exactly inverts ToAdditiveSpace. Parameters default to
// the metadata recorded by the forward transform; supplying params
// overrides them, and a series with neither is a configuration error.
func FromAdditiveSpace(data *series.Series, params *FromParams) (*series.Series, error) {
	var p FromParams
	switch {
	case params != nil:
		p = *params
	case data.Meta.Transform != nil:
		tm := data.Meta.Transform
		trans, err := ParseTransform(tm.Method)
		if err != nil {
			return nil, err
		}
		p = FromParams{Trans: trans, Lower: tm.Lower, Upper: tm.Upper, OrigUnits: tm.OrigUnits}
	default:
		return nil, fmt.Errorf("%w: no transform parameters given and none stored in the metadata", ErrUnknownTransform)
	}

	out := data.Copy()
	for i, v := range out.Values {
		switch p.Trans {
		case Log:
			out.Values[i] = math.Exp(v) + p.Lower
		case Logit:
			x := 1 / (1 + math.Exp(-v))
			out.Values[i] = x*(p.Upper-p.Lower) + p.Lower
		}
	}
	out.Meta.Transform = nil
	out.Meta.Units = p.OrigUnits
	out.Meta.AppendHistory("from_additive_space(trans=%s)", p.Trans)
	return out, nil
}
