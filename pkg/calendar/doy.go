package calendar

import "math"

// DoyToDaysSince re-expresses day-of-year values as day offsets from a
// reference month-day within the same year. A day-of-year falling before the
// reference is taken to belong to the following cycle, so the result is
// always in [0, daysInYear). years must be aligned with doys and carries the
// year of each sample, which only matters on non-uniform calendars. NaN
// values pass through.
func (c Calendar) DoyToDaysSince(doys []float64, years []int, start Date) []float64 {
	out := make([]float64, len(doys))
	for i, doy := range doys {
		if math.IsNaN(doy) {
			out[i] = math.NaN()
			continue
		}
		year := start.Year
		if years != nil {
			year = years[i]
		}
		startDoy := c.DayOfYear(Date{Year: year, Month: start.Month, Day: start.Day})
		ds := doy - float64(startDoy)
		if ds < 0 {
			ds += float64(c.DaysInYear(year))
		}
		out[i] = ds
	}
	return out
}

// DaysSinceToDoy inverts DoyToDaysSince with the same reference. On uniform
// calendars the round-trip is exact.
func (c Calendar) DaysSinceToDoy(days []float64, years []int, start Date) []float64 {
	out := make([]float64, len(days))
	for i, ds := range days {
		if math.IsNaN(ds) {
			out[i] = math.NaN()
			continue
		}
		year := start.Year
		if years != nil {
			year = years[i]
		}
		startDoy := c.DayOfYear(Date{Year: year, Month: start.Month, Day: start.Day})
		doy := ds + float64(startDoy)
		if diy := float64(c.DaysInYear(year)); doy > diy {
			doy -= diy
		}
		out[i] = doy
	}
	return out
}
