package dynamo

import "math"

// DefaultPrecision is the number of decimal digits kept by DefaultTolerance.
const DefaultPrecision = 6

// Tolerance rounds values to a fixed number of decimal digits so that
// comparisons are insensitive to accumulation order.
type Tolerance struct {
	digits int
	scale  float64
}

// NewTolerance returns a tolerance keeping the given number of decimal digits.
// Negative values are treated as zero.
func NewTolerance(digits int) Tolerance {
	if digits < 0 {
		digits = 0
	}
	return Tolerance{digits: digits, scale: math.Pow(10, float64(digits))}
}

// DefaultTolerance keeps DefaultPrecision digits.
func DefaultTolerance() Tolerance { return NewTolerance(DefaultPrecision) }

func (t Tolerance) Digits() int { return t.digits }

// Epsilon is the smallest difference the tolerance distinguishes.
func (t Tolerance) Epsilon() float64 {
	if t.scale == 0 {
		return 1
	}
	return 1 / t.scale
}

// Round rounds x to the configured number of digits.
func (t Tolerance) Round(x float64) float64 {
	if t.scale == 0 {
		return math.Round(x)
	}
	return math.Round(x*t.scale) / t.scale
}

// RoundVec rounds every component of v.
func (t Tolerance) RoundVec(v Vec) Vec {
	return Vec{t.Round(v[0]), t.Round(v[1]), t.Round(v[2])}
}

// Equal reports whether a and b are equal once rounded.
func (t Tolerance) Equal(a, b float64) bool {
	return math.Abs(t.Round(a)-t.Round(b)) < t.Epsilon()/2
}

// Less reports whether a is strictly smaller than b once rounded.
func (t Tolerance) Less(a, b float64) bool {
	return !t.Equal(a, b) && t.Round(a) < t.Round(b)
}
