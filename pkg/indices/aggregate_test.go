package indices

import (
	"errors"
	"math"
	"testing"

	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

func TestAggregateBetweenFixedDates(t *testing.T) {
	// Two years of daily ones; summing between April 1st (inclusive) and
	// October 1st (exclusive) counts the 183 days of the growing season.
	s := noleapDaily(1990, 730, "mm", func(int) float64 { return 1 })
	out, err := AggregateBetweenDates(s,
		DateBound{MonthDay: "04-01"}, DateBound{MonthDay: "10-01"},
		series.Op(series.Sum), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("got %d periods, want 2", out.Len())
	}
	for i, v := range out.Values {
		if v != 183 {
			t.Errorf("year %d: sum = %v, want 183", 1990+i, v)
		}
	}
	if out.Meta.Units != "mm" {
		t.Errorf("sum units %q, want mm", out.Meta.Units)
	}
}

func TestAggregateBetweenDoyBound(t *testing.T) {
	s := noleapDaily(1990, 730, "mm", func(int) float64 { return 1 })

	// A per-year start bound: defined the first year, missing the second.
	starts := series.New(
		[]calendar.Date{{Year: 1990, Month: 1, Day: 1}, {Year: 1991, Month: 1, Day: 1}},
		[]float64{91, math.NaN()}, // doy 91 is April 1st on noleap
		series.Meta{Calendar: calendar.NoLeap, IsDayOfYear: true},
	)

	// The frequency is inferred from the bound series.
	out, err := AggregateBetweenDates(s,
		DateBound{Doy: starts}, DateBound{MonthDay: "10-01"},
		series.Op(series.Sum), "")
	if err != nil {
		t.Fatal(err)
	}
	if out.Values[0] != 183 {
		t.Errorf("first year sum = %v, want 183", out.Values[0])
	}
	// A missing bound makes the period missing, not the whole result.
	if !math.IsNaN(out.Values[1]) {
		t.Errorf("second year sum = %v, want NaN", out.Values[1])
	}
}

func TestAggregateBetweenDatesAmbiguousFreq(t *testing.T) {
	s := noleapDaily(1990, 365, "mm", func(int) float64 { return 1 })
	_, err := AggregateBetweenDates(s,
		DateBound{MonthDay: "04-01"}, DateBound{MonthDay: "10-01"},
		series.Op(series.Sum), "")
	if !errors.Is(err, calendar.ErrAmbiguousFreq) {
		t.Errorf("expected ErrAmbiguousFreq without a bound series, got %v", err)
	}
}

func TestAggregateBetweenDatesDegenerateBounds(t *testing.T) {
	s := noleapDaily(1990, 365, "mm", func(int) float64 { return 1 })

	// Inverted bounds are a data condition: the period comes out missing.
	out, err := AggregateBetweenDates(s,
		DateBound{MonthDay: "10-01"}, DateBound{MonthDay: "04-01"},
		series.Op(series.Sum), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(out.Values[0]) {
		t.Errorf("inverted bounds = %v, want NaN", out.Values[0])
	}

	// A bound date absent from the period is missing too.
	short := noleapDaily(1990, 60, "mm", func(int) float64 { return 1 })
	out, err = AggregateBetweenDates(short,
		DateBound{MonthDay: "04-01"}, DateBound{MonthDay: "10-01"},
		series.Op(series.Sum), "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(out.Values[0]) {
		t.Errorf("absent bound date = %v, want NaN", out.Values[0])
	}
}

func TestDateBoundValidation(t *testing.T) {
	s := noleapDaily(1990, 365, "mm", func(int) float64 { return 1 })
	both := DateBound{MonthDay: "04-01", Doy: s}
	if _, err := AggregateBetweenDates(s, both, DateBound{MonthDay: "10-01"},
		series.Op(series.Sum), "YS-JAN"); !errors.Is(err, ErrBadBound) {
		t.Errorf("both sources: got %v", err)
	}
	if _, err := AggregateBetweenDates(s, DateBound{}, DateBound{MonthDay: "10-01"},
		series.Op(series.Sum), "YS-JAN"); !errors.Is(err, ErrBadBound) {
		t.Errorf("no source: got %v", err)
	}
}

func TestDayLengths(t *testing.T) {
	times := calendar.NoLeap.DailyRange(
		calendar.Date{Year: 1991, Month: 1, Day: 1},
		calendar.Date{Year: 1991, Month: 12, Day: 31},
	)

	// At the equator every day is twelve hours.
	eq, err := DayLengths(times, calendar.NoLeap, 0, DefaultDayLengthParams())
	if err != nil {
		t.Fatal(err)
	}
	if eq.Meta.Units != "h" {
		t.Errorf("day length units %q, want h", eq.Meta.Units)
	}
	for i, v := range eq.Values {
		if math.Abs(v-12) > 1e-9 {
			t.Fatalf("equator day %d: %v hours, want 12", i, v)
		}
	}

	// Mid-latitudes: long days at the June solstice, short at the December
	// one.
	ml, err := DayLengths(times, calendar.NoLeap, 60, DefaultDayLengthParams())
	if err != nil {
		t.Fatal(err)
	}
	jun := ml.Values[calendar.NoLeap.DayOfYear(calendar.Date{Year: 1991, Month: 6, Day: 21})-1]
	dec := ml.Values[calendar.NoLeap.DayOfYear(calendar.Date{Year: 1991, Month: 12, Day: 21})-1]
	if jun < 16 || jun > 24 {
		t.Errorf("June solstice at 60N: %v hours", jun)
	}
	if dec > 8 || dec < 0 {
		t.Errorf("December solstice at 60N: %v hours", dec)
	}

	// Polar day falls outside the arccos domain and is missing.
	polar, err := DayLengths(times, calendar.NoLeap, 80, DefaultDayLengthParams())
	if err != nil {
		t.Fatal(err)
	}
	midsummer := polar.Values[calendar.NoLeap.DayOfYear(calendar.Date{Year: 1991, Month: 6, Day: 21})-1]
	if !math.IsNaN(midsummer) {
		t.Errorf("polar midsummer = %v, want NaN", midsummer)
	}
}

func TestDayLengthsBetween(t *testing.T) {
	times := calendar.NoLeap.DailyRange(
		calendar.Date{Year: 1991, Month: 1, Day: 1},
		calendar.Date{Year: 1991, Month: 12, Day: 31},
	)
	out, err := DayLengthsBetween(times, calendar.NoLeap, 0, DefaultDayLengthParams(),
		DateBound{MonthDay: "04-01"}, DateBound{MonthDay: "10-01"}, "YS-JAN")
	if err != nil {
		t.Fatal(err)
	}
	// 183 twelve-hour days.
	if math.Abs(out.Values[0]-183*12) > 1e-6 {
		t.Errorf("summed day lengths = %v, want %v", out.Values[0], 183*12)
	}
}
