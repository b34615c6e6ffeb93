package deepzoom

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// fastPathBits is the precision at or below which BigFloat keeps its value
// in a plain float64 instead of a math/big.Float, so operations run in
// hardware whenever both operands fit within it. FromString keeps a
// big.Float even at this precision for a nonzero value outside float64's
// range.
const fastPathBits = 64

// BigFloat is an arbitrary-precision real. Its zero value is not
// meaningful; always construct with Zero, One, WithPrecision or
// FromString.
type BigFloat struct {
	// bits is the stored precision. Invariant: bits >= 64.
	bits uint
	// f64 holds the value when big == nil (the fast path, bits <= 64).
	f64 float64
	// big holds the value when precision exceeds the fast path, or when
	// FromString parses a nonzero value outside float64's range. Its own
	// big.Float precision is always == bits.
	big *big.Float
}

func clampBits(bits uint) uint {
	if bits < fastPathBits {
		return fastPathBits
	}
	return bits
}

// Zero returns 0 at the given precision.
func Zero(bits uint) BigFloat {
	bits = clampBits(bits)
	if bits <= fastPathBits {
		return BigFloat{bits: bits, f64: 0}
	}
	return BigFloat{bits: bits, big: new(big.Float).SetPrec(bits).SetInt64(0)}
}

// One returns 1 at the given precision.
func One(bits uint) BigFloat {
	bits = clampBits(bits)
	if bits <= fastPathBits {
		return BigFloat{bits: bits, f64: 1}
	}
	return BigFloat{bits: bits, big: new(big.Float).SetPrec(bits).SetInt64(1)}
}

// WithPrecision constructs a BigFloat from a float64 at the given precision.
func WithPrecision(v float64, bits uint) BigFloat {
	bits = clampBits(bits)
	if bits <= fastPathBits {
		return BigFloat{bits: bits, f64: v}
	}
	return BigFloat{bits: bits, big: new(big.Float).SetPrec(bits).SetFloat64(v)}
}

// FromString parses a decimal string at the given precision. Returns a
// *Error of KindParseError on malformed input; callers in the
// reference-orbit/viewport path are expected to surface this
// synchronously to the loader rather than let it reach the render loop.
func FromString(s string, bits uint) (BigFloat, error) {
	bits = clampBits(bits)
	s = strings.TrimSpace(s)
	if s == "" {
		return BigFloat{}, newError(KindParseError, nil, "empty numeric string")
	}
	bf := new(big.Float).SetPrec(bits)
	parsed, _, err := bf.Parse(s, 10)
	if err != nil {
		return BigFloat{}, newError(KindParseError, errors.Wrap(err, "parse"), "malformed decimal string %q", s)
	}
	if bits <= fastPathBits {
		// A nonzero value that float64 would flush to 0 or +-Inf keeps
		// its big.Float instead.
		if f, _ := parsed.Float64(); parsed.Sign() == 0 || (f != 0 && !math.IsInf(f, 0)) {
			return BigFloat{bits: bits, f64: f}, nil
		}
	}
	return BigFloat{bits: bits, big: parsed}, nil
}

// Bits returns the stored precision in mantissa bits.
func (b BigFloat) Bits() uint { return b.bits }

func (b BigFloat) isFast() bool { return b.big == nil }

func (b BigFloat) asBig() *big.Float {
	if b.big != nil {
		return b.big
	}
	return new(big.Float).SetPrec(clampBits(b.bits)).SetFloat64(b.f64)
}

// maxPrec returns max(lhs, rhs) precision: every binary operation
// preserves the higher of its two operands' precision.
func maxPrec(a, b BigFloat) uint {
	if a.bits > b.bits {
		return a.bits
	}
	return b.bits
}

func bothFast(a, b BigFloat) bool {
	return a.isFast() && b.isFast() && maxPrec(a, b) <= fastPathBits
}

// Add returns a+b at precision max(a.bits, b.bits).
func (a BigFloat) Add(b BigFloat) BigFloat {
	bits := maxPrec(a, b)
	if bothFast(a, b) {
		return BigFloat{bits: bits, f64: a.f64 + b.f64}
	}
	r := new(big.Float).SetPrec(bits)
	r.Add(a.asBig(), b.asBig())
	return BigFloat{bits: bits, big: r}
}

// Sub returns a-b at precision max(a.bits, b.bits).
func (a BigFloat) Sub(b BigFloat) BigFloat {
	bits := maxPrec(a, b)
	if bothFast(a, b) {
		return BigFloat{bits: bits, f64: a.f64 - b.f64}
	}
	r := new(big.Float).SetPrec(bits)
	r.Sub(a.asBig(), b.asBig())
	return BigFloat{bits: bits, big: r}
}

// Mul returns a*b at precision max(a.bits, b.bits).
func (a BigFloat) Mul(b BigFloat) BigFloat {
	bits := maxPrec(a, b)
	if bothFast(a, b) {
		return BigFloat{bits: bits, f64: a.f64 * b.f64}
	}
	r := new(big.Float).SetPrec(bits)
	r.Mul(a.asBig(), b.asBig())
	return BigFloat{bits: bits, big: r}
}

// Div returns a/b at precision max(a.bits, b.bits). Division by zero
// produces a signed-infinity sentinel rather than panicking: numeric
// operations never panic.
func (a BigFloat) Div(b BigFloat) BigFloat {
	bits := maxPrec(a, b)
	if bothFast(a, b) {
		return BigFloat{bits: bits, f64: a.f64 / b.f64}
	}
	if b.asBig().Sign() == 0 {
		signBit := a.asBig().Sign() < 0
		inf := new(big.Float).SetPrec(bits).SetInf(signBit)
		f, _ := inf.Float64()
		return BigFloat{bits: bits, f64: f, big: inf}
	}
	r := new(big.Float).SetPrec(bits)
	r.Quo(a.asBig(), b.asBig())
	return BigFloat{bits: bits, big: r}
}

// Sqrt returns sqrt(a). Negative inputs return a zero-valued BigFloat
// rather than panicking.
func (a BigFloat) Sqrt() BigFloat {
	bits := clampBits(a.bits)
	if a.isFast() && bits <= fastPathBits {
		if a.f64 < 0 {
			return BigFloat{bits: bits, f64: 0}
		}
		return BigFloat{bits: bits, f64: math.Sqrt(a.f64)}
	}
	ab := a.asBig()
	if ab.Sign() < 0 {
		return Zero(bits)
	}
	r := new(big.Float).SetPrec(bits)
	r.Sqrt(ab)
	return BigFloat{bits: bits, big: r}
}

// Neg returns -a.
func (a BigFloat) Neg() BigFloat {
	if a.isFast() {
		return BigFloat{bits: a.bits, f64: -a.f64}
	}
	r := new(big.Float).SetPrec(clampBits(a.bits))
	r.Neg(a.asBig())
	return BigFloat{bits: a.bits, big: r}
}

// ToF64 converts to float64, losing precision beyond ~53 bits.
func (a BigFloat) ToF64() float64 {
	if a.isFast() {
		return a.f64
	}
	f, _ := a.big.Float64()
	return f
}

// Sign returns -1, 0 or 1.
func (a BigFloat) Sign() int {
	if a.isFast() {
		switch {
		case a.f64 < 0:
			return -1
		case a.f64 > 0:
			return 1
		default:
			return 0
		}
	}
	return a.big.Sign()
}

// Log2Approx returns an approximate base-2 logarithm of |a| as a float64,
// finite for any nonzero value; the sign of a is ignored. For zero it
// returns math.Inf(-1) rather than NaN, since every caller treats
// "no magnitude" as vanishingly small rather than undefined.
func (a BigFloat) Log2Approx() float64 {
	if a.Sign() == 0 {
		return math.Inf(-1)
	}
	if a.isFast() {
		return math.Log2(math.Abs(a.f64))
	}
	mantissa := new(big.Float).SetPrec(64)
	exp := a.big.MantExp(mantissa)
	m, _ := mantissa.Float64()
	return math.Log2(math.Abs(m)) + float64(exp)
}

// Cmp compares the numeric value of two BigFloats irrespective of their
// internal representation (fast-path float64 vs big.Float).
func (a BigFloat) Cmp(b BigFloat) int {
	if a.isFast() && b.isFast() {
		switch {
		case a.f64 < b.f64:
			return -1
		case a.f64 > b.f64:
			return 1
		default:
			return 0
		}
	}
	return a.asBig().Cmp(b.asBig())
}

// Equal reports whether a and b have the same numeric value.
func (a BigFloat) Equal(b BigFloat) bool { return a.Cmp(b) == 0 }

// BigFloatWire is the JSON wire representation of a BigFloat:
// "BigFloats are transported as {value: decimal string, precision_bits}."
type BigFloatWire struct {
	Value         string `json:"value"`
	PrecisionBits uint   `json:"precision_bits"`
}

// MarshalWire serializes a BigFloat to its wire form.
func (a BigFloat) MarshalWire() BigFloatWire {
	var s string
	if a.isFast() {
		s = fmt.Sprintf("%.17g", a.f64)
	} else {
		s = a.big.Text('g', int(a.bits)/3+10)
	}
	return BigFloatWire{Value: s, PrecisionBits: a.bits}
}

// UnmarshalWire parses a wire-form BigFloat back into a BigFloat.
func UnmarshalWire(w BigFloatWire) (BigFloat, error) {
	return FromString(w.Value, w.PrecisionBits)
}

// Complex is a pair of BigFloats at the same precision: the BigFloat
// complex form used by the viewport and the BigFloat perturbation flavor.
type Complex struct {
	Re, Im BigFloat
}

func ComplexZero(bits uint) Complex { return Complex{Zero(bits), Zero(bits)} }

func (c Complex) Add(o Complex) Complex { return Complex{c.Re.Add(o.Re), c.Im.Add(o.Im)} }
func (c Complex) Sub(o Complex) Complex { return Complex{c.Re.Sub(o.Re), c.Im.Sub(o.Im)} }

// Mul implements standard complex multiplication in BigFloat arithmetic.
func (c Complex) Mul(o Complex) Complex {
	re := c.Re.Mul(o.Re).Sub(c.Im.Mul(o.Im))
	im := c.Re.Mul(o.Im).Add(c.Im.Mul(o.Re))
	return Complex{re, im}
}

// Square returns c*c using the re^2-im^2, 2*re*im identity.
func (c Complex) Square() Complex {
	re := c.Re.Mul(c.Re).Sub(c.Im.Mul(c.Im))
	two := WithPrecision(2, c.Re.Bits())
	im := c.Re.Mul(c.Im).Mul(two)
	return Complex{re, im}
}

// NormSq returns re^2+im^2.
func (c Complex) NormSq() BigFloat {
	return c.Re.Mul(c.Re).Add(c.Im.Mul(c.Im))
}
