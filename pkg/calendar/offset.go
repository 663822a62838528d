package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownFreq is returned for frequency strings that cannot be parsed.
var ErrUnknownFreq = errors.New("calendar: unknown frequency string")

// ErrAmbiguousFreq is returned when a sampling frequency cannot be uniquely
// inferred from a time axis.
var ErrAmbiguousFreq = errors.New("calendar: cannot infer a unique frequency")

var monthAbbrs = [13]string{"", "JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// MonthAbbr returns the three-letter abbreviation for a month number.
func MonthAbbr(month int) string { return monthAbbrs[month] }

func monthFromAbbr(s string) (int, bool) {
	for m := 1; m <= 12; m++ {
		if monthAbbrs[m] == s {
			return m, true
		}
	}
	return 0, false
}

// Offset is the decomposition of a frequency string such as "YS-DEC", "MS",
// "QS-DEC", "D" or "7D" into multiplier, base unit, start-anchoring and
// anchor month.
type Offset struct {
	Mult   int
	Base   byte // 'Y', 'Q', 'M', 'D' or 'H'
	Start  bool // period labels anchored at period start ("YS" vs "Y")
	Anchor int  // anchor month for Y and Q bases
}

// String reassembles the canonical frequency string.
func (o Offset) String() string {
	var b strings.Builder
	if o.Mult > 1 {
		fmt.Fprintf(&b, "%d", o.Mult)
	}
	b.WriteByte(o.Base)
	if o.Start {
		b.WriteByte('S')
	}
	if (o.Base == 'Y' || o.Base == 'Q') && o.Anchor > 0 {
		b.WriteByte('-')
		b.WriteString(monthAbbrs[o.Anchor])
	}
	return b.String()
}

// ParseOffset decomposes a frequency string. "AS" and "A" are accepted as
// aliases for "YS" and "Y". Annual and quarterly offsets default to a
// January anchor ("YS" == "YS-JAN"), except "QS" which anchors in December
// so that quarters line up with meteorological seasons.
func ParseOffset(freq string) (Offset, error) {
	if freq == "" {
		return Offset{}, fmt.Errorf("%w: empty string", ErrUnknownFreq)
	}
	o := Offset{Mult: 1}

	i := 0
	for i < len(freq) && freq[i] >= '0' && freq[i] <= '9' {
		i++
	}
	if i > 0 {
		m, err := strconv.Atoi(freq[:i])
		if err != nil || m < 1 {
			return Offset{}, fmt.Errorf("%w: %q", ErrUnknownFreq, freq)
		}
		o.Mult = m
	}

	rest := freq[i:]
	base := rest
	if j := strings.IndexByte(rest, '-'); j >= 0 {
		base = rest[:j]
		anchor, ok := monthFromAbbr(rest[j+1:])
		if !ok {
			return Offset{}, fmt.Errorf("%w: bad anchor in %q", ErrUnknownFreq, freq)
		}
		o.Anchor = anchor
	}

	switch base {
	case "Y", "A":
		o.Base = 'Y'
	case "YS", "AS":
		o.Base, o.Start = 'Y', true
	case "Q":
		o.Base = 'Q'
	case "QS":
		o.Base, o.Start = 'Q', true
	case "M":
		o.Base = 'M'
	case "MS":
		o.Base, o.Start = 'M', true
	case "D":
		o.Base, o.Start = 'D', true
	case "H":
		o.Base, o.Start = 'H', true
	default:
		return Offset{}, fmt.Errorf("%w: %q", ErrUnknownFreq, freq)
	}

	if o.Anchor == 0 {
		switch o.Base {
		case 'Y':
			o.Anchor = 1
		case 'Q':
			o.Anchor = 12
		}
	}
	return o, nil
}

// Period is one resampling period: its base (start) date and the indices of
// the time-axis samples that fall inside it. Indices keep the original
// sample order.
type Period struct {
	Start   Date
	Indices []int
}

// Periods partitions a sorted time axis into resampling periods following
// freq. Supported bases are annual (with anchor), quarterly (with anchor),
// monthly and daily; multipliers other than 1 are rejected since anchored
// multi-period resampling is not well defined.
func (c Calendar) Periods(times []Date, freq string) ([]Period, error) {
	o, err := ParseOffset(freq)
	if err != nil {
		return nil, err
	}
	if o.Mult != 1 {
		return nil, fmt.Errorf("%w: multiplier %d not supported for resampling", ErrUnknownFreq, o.Mult)
	}

	base := func(d Date) Date {
		switch o.Base {
		case 'Y':
			y := d.Year
			if d.Month < o.Anchor {
				y--
			}
			return Date{Year: y, Month: o.Anchor, Day: 1}
		case 'Q':
			// Quarter index relative to the anchor month.
			q := ((d.Month - o.Anchor + 12) % 12) / 3
			m := (o.Anchor-1+3*q)%12 + 1
			y := d.Year
			if m > d.Month {
				y--
			}
			return Date{Year: y, Month: m, Day: 1}
		case 'M':
			return Date{Year: d.Year, Month: d.Month, Day: 1}
		case 'D':
			return d
		}
		return d
	}

	var periods []Period
	var cur *Period
	for i, t := range times {
		b := base(t)
		if cur == nil || cur.Start != b {
			periods = append(periods, Period{Start: b})
			cur = &periods[len(periods)-1]
		}
		cur.Indices = append(cur.Indices, i)
	}
	return periods, nil
}

// InferFreq deduces the sampling frequency of a sorted time axis. It
// recognizes fixed day spacings ("D", "7D"), month starts ("MS"), quarter
// starts ("QS-<MON>") and anchored years ("YS-<MON>"). An axis that fits
// none of these, or has fewer than two samples, yields ErrAmbiguousFreq.
func (c Calendar) InferFreq(times []Date) (string, error) {
	if len(times) < 2 {
		return "", fmt.Errorf("%w: need at least two timestamps", ErrAmbiguousFreq)
	}

	// Same month-day every sample: annual, quarterly or monthly.
	sameDay := true
	for _, t := range times[1:] {
		if t.Day != times[0].Day {
			sameDay = false
			break
		}
	}
	if sameDay && times[0].Day == 1 {
		monthStep := func(step int) bool {
			for i := 1; i < len(times); i++ {
				m := times[i-1].Year*12 + times[i-1].Month - 1
				n := times[i].Year*12 + times[i].Month - 1
				if n-m != step {
					return false
				}
			}
			return true
		}
		switch {
		case monthStep(12):
			return "YS-" + monthAbbrs[times[0].Month], nil
		case monthStep(3):
			return "QS-" + monthAbbrs[times[0].Month], nil
		case monthStep(1):
			return "MS", nil
		}
	}

	step := c.DaysBetween(times[0], times[1])
	if step < 1 {
		return "", fmt.Errorf("%w: non-increasing time axis", ErrAmbiguousFreq)
	}
	for i := 2; i < len(times); i++ {
		if c.DaysBetween(times[i-1], times[i]) != step {
			return "", fmt.Errorf("%w: irregular spacing", ErrAmbiguousFreq)
		}
	}
	if step == 1 {
		return "D", nil
	}
	return fmt.Sprintf("%dD", step), nil
}
