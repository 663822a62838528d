package indices

import (
	"math"

	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

// DayLengthParams tunes the astronomical day-length approximation.
type DayLengthParams struct {
	// Obliquity of the ecliptic, in radians.
	Obliquity float64
	// SummerSolstice is the date of the northern-hemisphere summer
	// solstice, as a "MM-DD" string; it anchors the solar julian day.
	SummerSolstice string
}

// DefaultDayLengthParams returns the standard obliquity and solstice date.
func DefaultDayLengthParams() DayLengthParams {
	return DayLengthParams{Obliquity: -0.4091, SummerSolstice: "06-21"}
}

// DayLengths approximates the day length in hours for every date, from the
// latitude (degrees), the obliquity and the julian day counted from the
// summer solstice:
//
//	hours = arccos(1 - m) / pi * 24
//	m     = 1 - tan(lat) * tan(obliquity * cos(2*pi*jday/yearLength))
//
// Polar day and night fall outside the arccos domain and come out missing.
func DayLengths(times []calendar.Date, cal calendar.Calendar, lat float64, p DayLengthParams) (*series.Series, error) {
	sm, sd, err := calendar.ParseMonthDay(p.SummerSolstice)
	if err != nil {
		return nil, err
	}

	doys := make([]float64, len(times))
	years := make([]int, len(times))
	for i, t := range times {
		doys[i] = float64(cal.DayOfYear(t))
		years[i] = t.Year
	}
	jdays := cal.DoyToDaysSince(doys, years, calendar.Date{Year: times[0].Year, Month: sm, Day: sd})

	latRad := lat * math.Pi / 180
	values := make([]float64, len(times))
	for i := range times {
		yearLen := float64(cal.DaysInYear(years[i]))
		m := 1 - math.Tan(latRad)*math.Tan(p.Obliquity*math.Cos(2*math.Pi*jdays[i]/yearLen))
		values[i] = math.Acos(1-m) / math.Pi * 24
	}

	out := series.New(times, values, series.Meta{
		Units:    "h",
		LongName: "Day length",
		Calendar: cal,
	})
	out.Meta.AppendHistory("day_lengths(lat=%v, obliquity=%v, summer_solstice=%s)", lat, p.Obliquity, p.SummerSolstice)
	return out, nil
}

// DayLengthsBetween sums the day lengths between two (possibly per-period)
// dates at the given resampling frequency.
func DayLengthsBetween(times []calendar.Date, cal calendar.Calendar, lat float64, p DayLengthParams, start, end DateBound, freq string) (*series.Series, error) {
	dl, err := DayLengths(times, cal, lat, p)
	if err != nil {
		return nil, err
	}
	return AggregateBetweenDates(dl, start, end, series.Op(series.Sum), freq)
}
