package sdba

import (
	"errors"
	"fmt"

	"github.com/cfortin/climstats/internal/log"
	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

// ErrNonUniformCalendar is returned when an operation that slices whole
// years needs a fixed year length and the series does not have one.
var ErrNonUniformCalendar = errors.New("sdba: a uniform calendar (360_day, noleap or all_leap) is required")

// ErrUnequalWindowSpacing is returned when the spacing between moving
// windows is not constant, which breaks reconstruction.
var ErrUnequalWindowSpacing = errors.New("sdba: the spacing between the windows is not equal")

// elementsPerYear infers the number of samples per year from the sampling
// frequency. The calendar must be uniform and the frequency must evenly
// divide a year.
func elementsPerYear(times []calendar.Date, cal calendar.Calendar) (int, error) {
	if !cal.IsUniform() {
		return 0, fmt.Errorf("%w: got %s", ErrNonUniformCalendar, cal)
	}
	freq, err := cal.InferFreq(times)
	if err != nil {
		return 0, err
	}
	o, err := calendar.ParseOffset(freq)
	if err != nil {
		return 0, err
	}

	diy := cal.DaysInYear(times[0].Year)
	var perYear, mult int
	switch o.Base {
	case 'D':
		perYear, mult = diy, o.Mult
	case 'M':
		perYear, mult = 12, o.Mult
	case 'Q':
		perYear, mult = 4, o.Mult
	default:
		return 0, fmt.Errorf("%w: frequency %s cannot slice whole years", calendar.ErrUnknownFreq, freq)
	}
	if perYear%mult != 0 {
		return 0, fmt.Errorf("%w: sampling frequency %s does not evenly divide a year", calendar.ErrUnknownFreq, freq)
	}
	return perYear / mult, nil
}

// Windowed is a series sliced into fixed-length moving windows of whole
// years, stacked along a window axis. Times is the shared within-window
// time axis, re-based to the first window; Starts labels each window with
// its true start date.
type Windowed struct {
	Starts []calendar.Date
	Times  []calendar.Date
	Data   [][]float64 // [window][time]
	Meta   series.Meta
}

// ConstructMovingYearlyWindow slices the series into windows of `window`
// full years, advancing by `step` years between window starts. Windows
// start at the first sample; a trailing partial window is discarded, never
// padded, so every window has identical sample length.
func ConstructMovingYearlyWindow(s *series.Series, window, step int) (*Windowed, error) {
	if window < 1 || step < 1 {
		return nil, fmt.Errorf("sdba: window and step must be positive, got %d and %d", window, step)
	}
	perYear, err := elementsPerYear(s.Times, s.Meta.Calendar)
	if err != nil {
		return nil, err
	}

	n := window * perYear
	if n > s.Len() {
		return nil, fmt.Errorf("sdba: series of %d samples is shorter than one %d-year window", s.Len(), window)
	}

	w := &Windowed{
		Times: append([]calendar.Date(nil), s.Times[:n]...),
		Meta:  s.Copy().Meta,
	}
	for start := 0; start+n <= s.Len(); start += perYear * step {
		w.Starts = append(w.Starts, s.Times[start])
		w.Data = append(w.Data, append([]float64(nil), s.Values[start:start+n]...))
	}
	w.Meta.AppendHistory("construct_moving_yearly_window(window=%d, step=%d)", window, step)
	return w, nil
}

// UnpackMovingYearlyWindow reconstructs a continuous series from a moving
// window, keeping only the central step-years slice of each window. Window
// length and step are inferred from the coordinates; unequal window spacing
// is fatal, a window span that is not a whole number of years is only
// warned about and floored.
func UnpackMovingYearlyWindow(w *Windowed) (*series.Series, error) {
	cal := w.Meta.Calendar
	perYear, err := elementsPerYear(w.Times, cal)
	if err != nil {
		return nil, err
	}

	window := len(w.Times) / perYear
	if len(w.Times)%perYear != 0 {
		log.Warnf("incomplete moving window: %d samples do not cover a whole number of %d-sample years", len(w.Times), perYear)
	}

	diy := cal.DaysInYear(w.Starts[0].Year)
	step := window
	for i := 1; i < len(w.Starts); i++ {
		d := cal.DaysBetween(w.Starts[i-1], w.Starts[i])
		if d%diy != 0 {
			return nil, fmt.Errorf("%w: %d days between windows %d and %d", ErrUnequalWindowSpacing, d, i-1, i)
		}
		s := d / diy
		if i == 1 {
			step = s
		} else if s != step {
			return nil, ErrUnequalWindowSpacing
		}
	}

	left := (window - step) / 2
	lo := left * perYear
	hi := (left + step) * perYear
	if hi > len(w.Times) {
		hi = len(w.Times)
	}

	out := &series.Series{Meta: w.Meta}
	out.Meta.History = append([]string(nil), w.Meta.History...)
	for k := range w.Data {
		offset := cal.DaysBetween(w.Starts[0], w.Starts[k])
		for j := lo; j < hi; j++ {
			out.Times = append(out.Times, cal.AddDays(w.Times[j], offset))
			out.Values = append(out.Values, w.Data[k][j])
		}
	}
	out.Meta.AppendHistory("unpack_moving_yearly_window()")
	return out, nil
}
