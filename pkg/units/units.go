// Package units parses quantity strings, converts between compatible
// physical units and derives the units of aggregated results. The dimension
// system is a closed vector (length, time, temperature) which covers every
// quantity the indicator and bias-adjustment code handles; arithmetic
// between quantities of different dimension is rejected, never coerced.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrIncompatibleUnits is returned when a conversion is requested
	// between units of different physical dimension.
	ErrIncompatibleUnits = errors.New("units: incompatible units")
	// ErrUnknownUnit is returned when a unit string cannot be parsed.
	ErrUnknownUnit = errors.New("units: unknown unit")
)

// dims is the exponent vector of a unit.
type dims struct {
	Length int
	Time   int
	Temp   int
}

// Unit is a parsed physical unit: a dimension vector, a multiplicative
// scale to base units (metre, second, kelvin) and, for absolute temperature
// units only, an affine offset.
type Unit struct {
	d      dims
	scale  float64
	offset float64
	name   string
}

// Dimensionless is the empty unit.
var Dimensionless = Unit{scale: 1, name: ""}

type symbol struct {
	d      dims
	scale  float64
	offset float64
	name   string // canonical spelling
}

var symbols = map[string]symbol{
	// length
	"m":  {d: dims{Length: 1}, scale: 1, name: "m"},
	"mm": {d: dims{Length: 1}, scale: 1e-3, name: "mm"},
	"cm": {d: dims{Length: 1}, scale: 1e-2, name: "cm"},
	"km": {d: dims{Length: 1}, scale: 1e3, name: "km"},
	"in": {d: dims{Length: 1}, scale: 0.0254, name: "in"},
	// time
	"s":    {d: dims{Time: 1}, scale: 1, name: "s"},
	"min":  {d: dims{Time: 1}, scale: 60, name: "min"},
	"h":    {d: dims{Time: 1}, scale: 3600, name: "h"},
	"hr":   {d: dims{Time: 1}, scale: 3600, name: "h"},
	"d":    {d: dims{Time: 1}, scale: 86400, name: "d"},
	"day":  {d: dims{Time: 1}, scale: 86400, name: "d"},
	"days": {d: dims{Time: 1}, scale: 86400, name: "d"},
	"week": {d: dims{Time: 1}, scale: 604800, name: "week"},
	// temperature
	"K":          {d: dims{Temp: 1}, scale: 1, name: "K"},
	"degK":       {d: dims{Temp: 1}, scale: 1, name: "K"},
	"degC":       {d: dims{Temp: 1}, scale: 1, offset: 273.15, name: "degC"},
	"°C":         {d: dims{Temp: 1}, scale: 1, offset: 273.15, name: "degC"},
	"celsius":    {d: dims{Temp: 1}, scale: 1, offset: 273.15, name: "degC"},
	"degF":       {d: dims{Temp: 1}, scale: 5.0 / 9.0, offset: 255.372222222222, name: "degF"},
	"°F":         {d: dims{Temp: 1}, scale: 5.0 / 9.0, offset: 255.372222222222, name: "degF"},
	"fahrenheit": {d: dims{Temp: 1}, scale: 5.0 / 9.0, offset: 255.372222222222, name: "degF"},
	// dimensionless
	"1":             {scale: 1, name: ""},
	"dimensionless": {scale: 1, name: ""},
	"count":         {scale: 1, name: ""},
	"%":             {scale: 0.01, name: "%"},
	"percent":       {scale: 0.01, name: "%"},
}

// Parse parses a unit string such as "K", "degC", "mm d-1", "mm/d" or
// "K d". An empty string is the dimensionless unit.
func Parse(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dimensionless, nil
	}

	u := Unit{scale: 1}
	var parts []string

	// A '/' flips the exponent sign of everything that follows.
	sign := 1
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '*' || r == '.'
	})
	for _, f := range fields {
		for _, piece := range strings.Split(f, "/") {
			if piece != "" {
				if err := u.applyToken(piece, sign, &parts); err != nil {
					return Unit{}, err
				}
			}
			if strings.Contains(f, "/") {
				sign = -1
			}
		}
	}

	u.name = strings.Join(parts, " ")
	// An affine offset only survives on a bare absolute-temperature unit.
	if u.d != (dims{Temp: 1}) || len(parts) != 1 {
		u.offset = 0
	}
	return u, nil
}

// MustParse is Parse that panics, for statically known unit strings.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u *Unit) applyToken(tok string, sign int, parts *[]string) error {
	tok = strings.TrimSuffix(tok, "^")
	// Longest symbol prefix; the remainder must be an exponent.
	var sym symbol
	var expStr string
	found := false
	for l := len(tok); l > 0; l-- {
		if s, ok := symbols[tok[:l]]; ok {
			rest := strings.TrimPrefix(tok[l:], "^")
			if rest != "" {
				if _, err := strconv.Atoi(rest); err != nil {
					continue
				}
			}
			sym, expStr, found = s, rest, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, tok)
	}

	exp := 1
	if expStr != "" {
		exp, _ = strconv.Atoi(expStr)
	}
	exp *= sign

	u.d.Length += sym.d.Length * exp
	u.d.Time += sym.d.Time * exp
	u.d.Temp += sym.d.Temp * exp
	u.scale *= math.Pow(sym.scale, float64(exp))
	if sym.offset != 0 {
		u.offset = sym.offset
	}

	if sym.name != "" {
		if exp == 1 {
			*parts = append(*parts, sym.name)
		} else {
			*parts = append(*parts, fmt.Sprintf("%s%d", sym.name, exp))
		}
	}
	return nil
}

// String formats the unit CF-style ("mm d-1", "K d", "degC").
func (u Unit) String() string { return u.name }

// IsDimensionless reports whether the unit carries no physical dimension.
func (u Unit) IsDimensionless() bool { return u.d == dims{} }

// Compatible reports whether two units share a physical dimension.
func (u Unit) Compatible(other Unit) bool { return u.d == other.d }

// Delta returns the unit of differences of u. Differences of absolute
// temperatures are kelvin; every other unit is its own delta.
func (u Unit) Delta() Unit {
	if u.d == (dims{Temp: 1}) {
		return Unit{d: u.d, scale: 1, name: "K"}
	}
	out := u
	out.offset = 0
	return out
}

// Mul returns the product unit, named by concatenation.
func (u Unit) Mul(other Unit) Unit {
	out := Unit{
		d: dims{
			Length: u.d.Length + other.d.Length,
			Time:   u.d.Time + other.d.Time,
			Temp:   u.d.Temp + other.d.Temp,
		},
		scale: u.scale * other.scale,
	}
	switch {
	case u.name == "":
		out.name = other.name
	case other.name == "":
		out.name = u.name
	default:
		out.name = u.name + " " + other.name
	}
	return out
}

// Convert converts a value from one unit to another, failing on dimension
// mismatch.
func Convert(v float64, from, to Unit) (float64, error) {
	if !from.Compatible(to) {
		return math.NaN(), fmt.Errorf("%w: cannot convert %q to %q", ErrIncompatibleUnits, from, to)
	}
	base := v*from.scale + from.offset
	return (base - to.offset) / to.scale, nil
}

// Quantity is a value paired with its unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// ParseQuantity parses a quantity string such as "0 mm d-1", "25 degC" or
// "4". A bare number is dimensionless.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] == '-' || s[i] == '+' || s[i] == '.' || s[i] == 'e' || s[i] == 'E' ||
		(s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("units: invalid quantity %q: %w", s, err)
	}
	u, err := Parse(s[i:])
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: v, Unit: u}, nil
}

// MustParseQuantity is ParseQuantity that panics.
func MustParseQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) String() string {
	if q.Unit.name == "" {
		return strconv.FormatFloat(q.Value, 'g', -1, 64)
	}
	return strconv.FormatFloat(q.Value, 'g', -1, 64) + " " + q.Unit.name
}

// ConvertTo converts the quantity into the target unit.
func (q Quantity) ConvertTo(target Unit) (Quantity, error) {
	v, err := Convert(q.Value, q.Unit, target)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: v, Unit: target}, nil
}
