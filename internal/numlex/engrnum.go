package numlex

import (
	"fmt"
	"math"
	"strconv"
)

// ValueKind distinguishes an ordinary finite scalar from the special
// IEEE values a malformed or overflowing literal can collapse to.
type ValueKind int

const (
	Ordinary ValueKind = iota
	PositiveInfinity
	NegativeInfinity
	NaN
)

// UnitCategory distinguishes a ratio unit (whose presence changes how
// X() reconstructs the scalar) from an ordinary labeled unit.
type UnitCategory int

const (
	UnitNone UnitCategory = iota
	UnitRatio
	UnitGeneric
)

// EngrNum is a normalized engineering-notation number: a mantissa with
// |mantissa| < 1000, an exponent that is a multiple of 3, a residual
// tens exponent, a sign, and an optional unit. The mantissa is carried
// as a float64 (accepting the tiny round-trip drift that implies)
// rather than a decimal text buffer.
type EngrNum struct {
	Sign         int
	Mantissa     float64
	EngrExp      int // multiple of 3
	TensExp      int
	Kind         ValueKind
	Unit         string
	UnitCategory UnitCategory
}

// ToEngrNum converts the literal text of s[t.Start:t.End] (as already
// scanned by LexAt) into a normalized EngrNum.
func ToEngrNum(s string, t LexiNumberTraits) (EngrNum, error) {
	if !t.CouldBeANumber {
		return EngrNum{}, fmt.Errorf("numlex: not a number")
	}

	numericEnd := t.End
	if t.RatioUnitStart >= 0 {
		numericEnd = t.RatioUnitStart
	} else if t.MetricPrefixChar >= 0 {
		numericEnd = t.MetricPrefixChar
	} else if t.GenericUnitStart >= 0 {
		numericEnd = t.GenericUnitStart
	}

	raw, err := strconv.ParseFloat(s[t.Start:numericEnd], 64)
	if err != nil {
		return EngrNum{}, fmt.Errorf("numlex: malformed numeric literal %q: %w", s[t.Start:numericEnd], err)
	}

	e := EngrNum{Sign: 1}
	switch {
	case math.IsNaN(raw):
		e.Kind = NaN
		return e, nil
	case math.IsInf(raw, 1):
		e.Kind = PositiveInfinity
		return e, nil
	case math.IsInf(raw, -1):
		e.Kind = NegativeInfinity
		return e, nil
	}

	if raw < 0 {
		e.Sign = -1
		raw = -raw
	}

	if raw == 0 {
		e.Mantissa = 0
		e.EngrExp = 0
	} else {
		exp := int(math.Floor(math.Log10(raw)))
		engrExp := 3 * int(math.Floor(float64(exp)/3.0))
		mantissa := raw / math.Pow(10, float64(engrExp))
		// guard against log10 rounding putting mantissa just outside [1,1000)
		for mantissa >= 1000 {
			mantissa /= 1000
			engrExp += 3
		}
		for mantissa < 1 {
			mantissa *= 1000
			engrExp -= 3
		}
		e.Mantissa = mantissa
		e.EngrExp = engrExp
	}

	switch {
	case t.RatioUnitStart >= 0:
		e.Unit = s[t.RatioUnitStart:t.End]
		e.UnitCategory = UnitRatio
	case t.MetricPrefixChar >= 0:
		e.Unit = s[t.GenericUnitStart:t.End]
		e.UnitCategory = UnitGeneric
	case t.GenericUnitStart >= 0:
		e.Unit = s[t.GenericUnitStart:t.End]
		e.UnitCategory = UnitGeneric
	}

	return e, nil
}

// ParseAt is the combined lex-and-convert entry point Font Lexer calls
// when it encounters the start of a numeric literal at byte offset pos.
func ParseAt(s string, pos int) (EngrNum, int, error) {
	t, ok := LexAt(s, pos)
	if !ok {
		return EngrNum{}, pos, fmt.Errorf("numlex: no number at offset %d", pos)
	}
	e, err := ToEngrNum(s, t)
	if err != nil {
		return EngrNum{}, t.End, err
	}
	return e, t.End, nil
}

// X reconstructs the scalar value, applying ratio-unit conversion
// (dB -> amplitude, % -> fraction, X -> identity) when the unit is a
// ratio category.
func (e EngrNum) X() float64 {
	switch e.Kind {
	case PositiveInfinity:
		return math.Inf(1)
	case NegativeInfinity:
		return math.Inf(-1)
	case NaN:
		return math.NaN()
	}

	v := float64(e.Sign) * e.Mantissa * math.Pow(10, float64(e.EngrExp+e.TensExp))

	if e.UnitCategory != UnitRatio {
		return v
	}
	switch e.Unit {
	case "dB":
		return math.Pow(10, v/20.0)
	case "%":
		return v / 100.0
	case "X":
		return v
	default:
		return v
	}
}
