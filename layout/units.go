package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u Unit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

// ToMM converts to millimeters. Unit-less values are returned as-is.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// ToPT converts to points. Unit-less values are returned as-is.
func (l Length) ToPT() float64 {
	switch l.Unit {
	case UnitMM, UnitCM, UnitIN:
		return l.ToMM() * MmToPt
	default:
		return l.Value
	}
}

var unitSuffixes = []struct {
	s string
	u Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}}

// ParseLength parses a template length such as "20mm" or "11pt". A bare
// number takes the fallback unit.
func ParseLength(value string, fallback Unit) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := fallback
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec is either a factor of the font's vertical extent (1.2x) or
// an absolute length (18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// Points resolves the line height in pt given the font's descent-ascent
// extent. A zero factor means LineHeightMultiplier.
func (s LineHeightSpec) Points(extent float64) float64 {
	if s.Kind == LineHeightAbsolute {
		return s.Len.ToPT()
	}
	factor := s.Factor
	if factor <= 0 {
		factor = LineHeightMultiplier
	}
	return extent * factor
}

// ParseLineHeight accepts "1.5x" or a length; anything else yields the
// default factor.
func ParseLineHeight(v string) LineHeightSpec {
	v = strings.TrimSpace(v)
	if f, ok := strings.CutSuffix(v, "x"); ok {
		if factor, err := strconv.ParseFloat(f, 64); err == nil && factor > 0 {
			return LineHeightSpec{Kind: LineHeightFactor, Factor: factor}
		}
	} else if v != "" {
		if l, err := ParseLength(v, UnitNone); err == nil && l.Unit != UnitNone && l.Value > 0 {
			return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}
		}
	}
	return LineHeightSpec{Kind: LineHeightFactor, Factor: LineHeightMultiplier}
}
