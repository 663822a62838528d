package sdba

import (
	"errors"
	"math"
	"testing"

	"github.com/cfortin/climstats/pkg/units"
)

func TestLogRoundTrip(t *testing.T) {
	vals := []float64{0.5, 1, 2, 5, 40}
	s := noleapDaily(1991, 5, "mm d-1", func(i int) float64 { return vals[i] })

	add, err := ToAdditiveSpace(s, Log, units.MustParseQuantity("0 mm d-1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if add.Meta.Units != "" {
		t.Errorf("additive-space units %q, want none", add.Meta.Units)
	}
	if add.Meta.Transform == nil || add.Meta.Transform.Method != "log" {
		t.Fatalf("transform metadata missing: %+v", add.Meta.Transform)
	}
	if math.Abs(add.Values[1]) > 1e-12 {
		t.Errorf("log(1) = %v", add.Values[1])
	}

	back, err := FromAdditiveSpace(add, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range back.Values {
		if math.Abs(v-vals[i]) > 1e-12*math.Abs(vals[i]) {
			t.Errorf("value %d: %v, want %v", i, v, vals[i])
		}
	}
	if back.Meta.Units != "mm d-1" {
		t.Errorf("restored units %q, want mm d-1", back.Meta.Units)
	}
	if back.Meta.Transform != nil {
		t.Error("transform metadata survived the inverse")
	}
}

func TestLogitRoundTrip(t *testing.T) {
	vals := []float64{0.01, 0.1, 0.5, 0.9, 0.99}
	s := noleapDaily(1991, 5, "", func(i int) float64 { return vals[i] })

	upper := units.MustParseQuantity("1")
	add, err := ToAdditiveSpace(s, Logit, units.MustParseQuantity("0"), &upper)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(add.Values[2]) > 1e-12 {
		t.Errorf("logit(0.5) = %v", add.Values[2])
	}

	back, err := FromAdditiveSpace(add, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range back.Values {
		if math.Abs(v-vals[i]) > 1e-9 {
			t.Errorf("value %d: %v, want %v", i, v, vals[i])
		}
	}
}

func TestLogitNeedsUpperBound(t *testing.T) {
	s := noleapDaily(1991, 2, "", func(i int) float64 { return 0.5 })
	if _, err := ToAdditiveSpace(s, Logit, units.MustParseQuantity("0"), nil); err == nil {
		t.Error("expected an error for logit without an upper bound")
	}
}

func TestBoundsConvertIntoDataUnits(t *testing.T) {
	// A freezing-point lower bound given in kelvin against degC data.
	s := noleapDaily(1991, 1, "degC", func(int) float64 { return 10 })
	add, err := ToAdditiveSpace(s, Log, units.MustParseQuantity("273.15 K"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(add.Values[0]-math.Log(10)) > 1e-12 {
		t.Errorf("log(10 - 0 degC) = %v, want %v", add.Values[0], math.Log(10))
	}
}

func TestFromAdditiveSpaceExplicitParams(t *testing.T) {
	s := noleapDaily(1991, 2, "", func(i int) float64 { return float64(i) })
	back, err := FromAdditiveSpace(s, &FromParams{Trans: Log, Lower: 0, OrigUnits: "mm d-1"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back.Values[1]-math.E) > 1e-12 {
		t.Errorf("exp(1) = %v", back.Values[1])
	}
	if back.Meta.Units != "mm d-1" {
		t.Errorf("units %q", back.Meta.Units)
	}

	// Neither parameters nor stored metadata is an error.
	if _, err := FromAdditiveSpace(s, nil); !errors.Is(err, ErrUnknownTransform) {
		t.Errorf("expected ErrUnknownTransform, got %v", err)
	}
}

func TestParseTransform(t *testing.T) {
	if tr, err := ParseTransform("log"); err != nil || tr != Log {
		t.Errorf("log: %v, %v", tr, err)
	}
	if tr, err := ParseTransform("logit"); err != nil || tr != Logit {
		t.Errorf("logit: %v, %v", tr, err)
	}
	if _, err := ParseTransform("probit"); !errors.Is(err, ErrUnknownTransform) {
		t.Errorf("expected ErrUnknownTransform, got %v", err)
	}
}
