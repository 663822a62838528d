package indices

import (
	"errors"
	"math"
	"testing"

	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
	"github.com/cfortin/climstats/pkg/units"
)

const eps = 1e-9

// noleapDaily builds a daily series starting January 1st of year, with
// values produced by fn from the sample index.
func noleapDaily(year, nDays int, unitStr string, fn func(i int) float64) *series.Series {
	times := make([]calendar.Date, nDays)
	values := make([]float64, nDays)
	d := calendar.Date{Year: year, Month: 1, Day: 1}
	for i := 0; i < nDays; i++ {
		times[i] = d
		values[i] = fn(i)
		d = calendar.NoLeap.AddDays(d, 1)
	}
	return series.New(times, values, series.Meta{Units: unitStr, Calendar: calendar.NoLeap})
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		in   string
		want Op
	}{
		{">", Gt}, {"gt", Gt},
		{"<", Lt}, {"lt", Lt},
		{">=", Ge}, {"ge", Ge},
		{"<=", Le}, {"le", Le},
		{"==", Eq}, {"!=", Ne},
	}
	for _, tt := range tests {
		got, err := ParseOp(tt.in)
		if err != nil {
			t.Fatalf("ParseOp(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseOp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseOp("=>"); !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestOpApplyMissing(t *testing.T) {
	nan := math.NaN()
	for _, op := range []Op{Gt, Lt, Ge, Le, Eq, Ne} {
		if op.Apply(nan, 0) {
			t.Errorf("%s: missing values must never satisfy a comparison", op)
		}
	}
}

func TestThresholdCount(t *testing.T) {
	s := noleapDaily(1991, 365, "degC", func(i int) float64 {
		if i < 10 {
			return 25
		}
		if i < 12 {
			return math.NaN()
		}
		return 5
	})
	out, err := ThresholdCount(s, Gt, 20, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 || out.Values[0] != 10 {
		t.Fatalf("count = %v, want [10]", out.Values)
	}
	if out.Meta.Units != "d" {
		t.Errorf("count of daily samples has units %q, want d", out.Meta.Units)
	}
	if out.Times[0] != (calendar.Date{Year: 1991, Month: 1, Day: 1}) {
		t.Errorf("period label %v", out.Times[0])
	}
}

func TestDomainCountBoundaries(t *testing.T) {
	// (low, high]: low excluded, high included.
	low, high := 10.0, 20.0
	d := 0.001
	s := noleapDaily(1991, 4, "degC", func(i int) float64 {
		return []float64{low, low + d, high, high + d}[i]
	})
	out, err := DomainCount(s, low, high, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if out.Values[0] != 2 {
		t.Errorf("domain count = %v, want 2", out.Values[0])
	}
}

func TestCountOccurrencesConvertsThreshold(t *testing.T) {
	s := noleapDaily(1991, 5, "degC", func(i int) float64 {
		return []float64{-3, 5, 7, -1, 6}[i]
	})
	// 278.15 K is 5 degC.
	out, err := CountOccurrences(s, units.MustParseQuantity("278.15 K"), Ge, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if out.Values[0] != 3 {
		t.Errorf("count = %v, want 3", out.Values[0])
	}
}

func TestDailyEvents(t *testing.T) {
	nan := math.NaN()
	s := noleapDaily(1991, 5, "degC", func(i int) float64 {
		return []float64{-3, 5, nan, 7, 2}[i]
	})
	// 278.15 K is 5 degC.
	out, err := DailyEvents(s, units.MustParseQuantity("278.15 K"), Ge)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, nan, 1, 0}
	for i, w := range want {
		got := out.Values[i]
		if math.IsNaN(w) {
			if !math.IsNaN(got) {
				t.Errorf("out[%d] = %v, want missing", i, got)
			}
			continue
		}
		if got != w {
			t.Errorf("out[%d] = %v, want %v", i, got, w)
		}
	}
	if out.Meta.Units != "" {
		t.Errorf("units = %q, want dimensionless", out.Meta.Units)
	}
}

func TestCountLevelCrossings(t *testing.T) {
	low := noleapDaily(1991, 4, "degC", func(i int) float64 {
		return []float64{-2, 1, -5, -1}[i]
	})
	high := noleapDaily(1991, 4, "degC", func(i int) float64 {
		return []float64{3, 4, -1, 2}[i]
	})
	// Days where the low is under freezing while the high is at or above it.
	out, err := CountLevelCrossings(low, high, units.MustParseQuantity("273.15 K"), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if out.Values[0] != 2 {
		t.Errorf("crossings = %v, want 2", out.Values[0])
	}
}

func TestFirstAndLastOccurrence(t *testing.T) {
	// True only on days-of-year 60 through 70 of the first year, never in
	// the second.
	s := noleapDaily(1991, 730, "", func(i int) float64 {
		if i >= 59 && i <= 69 {
			return 10
		}
		return 0
	})

	first, err := FirstOccurrence(s, units.MustParseQuantity("5"), Gt, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if first.Values[0] != 60 {
		t.Errorf("first occurrence doy = %v, want 60", first.Values[0])
	}
	if !math.IsNaN(first.Values[1]) {
		t.Errorf("year without occurrence = %v, want NaN", first.Values[1])
	}
	if !first.Meta.IsDayOfYear || first.Meta.Units != "" {
		t.Errorf("doy output: units %q, IsDayOfYear %v", first.Meta.Units, first.Meta.IsDayOfYear)
	}

	last, err := LastOccurrence(s, units.MustParseQuantity("5"), Gt, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if last.Values[0] != 70 {
		t.Errorf("last occurrence doy = %v, want 70", last.Values[0])
	}
}

func TestDoyExtremes(t *testing.T) {
	s := noleapDaily(1991, 365, "degC", func(i int) float64 {
		switch i {
		case 200:
			return 35
		case 20:
			return -30
		}
		return 10
	})
	mx, err := DoyMax(s, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if mx.Values[0] != 201 {
		t.Errorf("doymax = %v, want 201", mx.Values[0])
	}
	mn, err := DoyMin(s, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if mn.Values[0] != 21 {
		t.Errorf("doymin = %v, want 21", mn.Values[0])
	}
}

func TestSpellLength(t *testing.T) {
	// Two wet spells: 3 days and 5 days.
	s := noleapDaily(1991, 365, "mm d-1", func(i int) float64 {
		if (i >= 10 && i < 13) || (i >= 100 && i < 105) {
			return 7
		}
		return 0
	})
	thresh := units.MustParseQuantity("1 mm d-1")

	longest, err := SpellLength(s, thresh, Ge, series.Op(series.Max), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if longest.Values[0] != 5 {
		t.Errorf("longest spell = %v, want 5", longest.Values[0])
	}
	if longest.Meta.Units != "d" {
		t.Errorf("spell length units %q, want d", longest.Meta.Units)
	}

	total, err := SpellLength(s, thresh, Ge, series.Op(series.Sum), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if total.Values[0] != 8 {
		t.Errorf("total spell days = %v, want 8", total.Values[0])
	}

	// A year without any spell reports zero, not missing.
	dry := noleapDaily(1991, 365, "mm d-1", func(int) float64 { return 0 })
	none, err := SpellLength(dry, thresh, Ge, series.Op(series.Max), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if none.Values[0] != 0 {
		t.Errorf("spell length with no spell = %v, want 0", none.Values[0])
	}
}

func TestStatisticsMonthly(t *testing.T) {
	// January all 2, February all 4.
	s := noleapDaily(1991, 59, "degC", func(i int) float64 {
		if i < 31 {
			return 2
		}
		return 4
	})
	out, err := Statistics(s, series.Op(series.Mean), "MS")
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 || out.Values[0] != 2 || out.Values[1] != 4 {
		t.Errorf("monthly means = %v, want [2 4]", out.Values)
	}
	if out.Meta.Units != "degC" {
		t.Errorf("statistics changed units to %q", out.Meta.Units)
	}
}

func TestThresholdedStatistics(t *testing.T) {
	s := noleapDaily(1991, 5, "mm d-1", func(i int) float64 {
		return []float64{0, 2, 8, 0, 6}[i]
	})
	out, err := ThresholdedStatistics(s, units.MustParseQuantity("1 mm d-1"), Ge, series.Op(series.Mean), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	want := (2.0 + 8 + 6) / 3
	if math.Abs(out.Values[0]-want) > eps {
		t.Errorf("wet-day mean = %v, want %v", out.Values[0], want)
	}
}

func TestTemperatureSum(t *testing.T) {
	s := noleapDaily(1991, 3, "degC", func(i int) float64 {
		return []float64{8, 9, 12}[i]
	})
	thresh := units.MustParseQuantity("10 degC")

	// Below-threshold sums come out positive.
	below, err := TemperatureSum(s, thresh, Lt, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(below.Values[0]-3) > eps {
		t.Errorf("cold sum = %v, want 3", below.Values[0])
	}
	if below.Meta.Units != "K d" {
		t.Errorf("temperature sum units %q, want K d", below.Meta.Units)
	}

	above, err := TemperatureSum(s, thresh, Gt, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(above.Values[0]-2) > eps {
		t.Errorf("warm sum = %v, want 2", above.Values[0])
	}

	// No matching samples is a sum of zero.
	none, err := TemperatureSum(s, units.MustParseQuantity("50 degC"), Gt, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if none.Values[0] != 0 {
		t.Errorf("empty sum = %v, want 0", none.Values[0])
	}
}

func TestDegreeDays(t *testing.T) {
	s := noleapDaily(1991, 3, "degC", func(i int) float64 {
		return []float64{8, 9, 12}[i]
	})
	thresh := units.MustParseQuantity("10 degC")

	heating, err := DegreeDays(s, thresh, Lt)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 1, 0}
	for i, v := range heating.Values {
		if math.Abs(v-want[i]) > eps {
			t.Errorf("heating degree days[%d] = %v, want %v", i, v, want[i])
		}
	}
	if heating.Meta.Units != "K d" {
		t.Errorf("degree days units %q, want K d", heating.Meta.Units)
	}

	cooling, err := DegreeDays(s, thresh, Gt)
	if err != nil {
		t.Fatal(err)
	}
	if cooling.Values[2] != 2 || cooling.Values[0] != 0 {
		t.Errorf("cooling degree days = %v", cooling.Values)
	}

	if _, err := DegreeDays(s, thresh, Le); !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("expected an error for a non-strict operator, got %v", err)
	}
}

func TestDiurnalTemperatureRange(t *testing.T) {
	low := noleapDaily(1991, 2, "degC", func(i int) float64 {
		return []float64{10, 12}[i]
	})
	// 20 and 26 degC, given in kelvin to exercise harmonization.
	high := noleapDaily(1991, 2, "K", func(i int) float64 {
		return []float64{293.15, 299.15}[i]
	})
	out, err := DiurnalTemperatureRange(low, high, series.Op(series.Mean), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out.Values[0]-12) > eps {
		t.Errorf("mean DTR = %v, want 12", out.Values[0])
	}
	if out.Meta.Units != "K" {
		t.Errorf("DTR units %q, want K", out.Meta.Units)
	}
}

func TestInterdayDiurnalTemperatureRange(t *testing.T) {
	low := noleapDaily(1991, 3, "degC", func(i int) float64 { return 0 })
	high := noleapDaily(1991, 3, "degC", func(i int) float64 {
		return []float64{10, 14, 13}[i]
	})
	out, err := InterdayDiurnalTemperatureRange(low, high, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	// |14-10| and |13-14| average to 2.5.
	if math.Abs(out.Values[0]-2.5) > eps {
		t.Errorf("interday DTR = %v, want 2.5", out.Values[0])
	}
}

func TestExtremeTemperatureRange(t *testing.T) {
	low := noleapDaily(1991, 3, "degC", func(i int) float64 {
		return []float64{10, 5, 8}[i]
	})
	high := noleapDaily(1991, 3, "degC", func(i int) float64 {
		return []float64{20, 22, 19}[i]
	})
	out, err := ExtremeTemperatureRange(low, high, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out.Values[0]-17) > eps {
		t.Errorf("extreme range = %v, want 17", out.Values[0])
	}
}

func TestSelectResampleOp(t *testing.T) {
	// Warm July, cold everything else.
	s := noleapDaily(1991, 365, "degC", func(i int) float64 { return 0 })
	for i, d := range s.Times {
		if d.Month == 7 {
			s.Values[i] = 25
		}
	}
	out, err := SelectResampleOp(s, series.Op(series.Mean), "", &TimeSelection{Months: []int{7}})
	if err != nil {
		t.Fatal(err)
	}
	// Selecting July anchors the resampling years in July: the first half
	// of 1991 lands in an anchored year with no July data.
	if out.Len() != 2 {
		t.Fatalf("anchored years = %v", out.Times)
	}
	if !math.IsNaN(out.Values[0]) || math.Abs(out.Values[1]-25) > eps {
		t.Errorf("July means = %v, want [NaN 25]", out.Values)
	}

	// Without a selection the default is calendar years.
	out, err = SelectResampleOp(s, series.Op(series.Max), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 || out.Values[0] != 25 {
		t.Errorf("annual max = %v", out.Values)
	}
}
