package deepzoom

import "math"

// HDRFloat is a double-single mantissa with an explicit binary exponent:
// value = (head+tail) * 2^exp, with |head| in [0.5, 1) after normalize().
// head/tail give roughly 48 bits of mantissa while exp gives a dynamic
// range unreachable by a plain float64.
type HDRFloat struct {
	Head float32
	Tail float32
	Exp  int32
}

const (
	expMax = math.MaxInt32
	expMin = math.MinInt32
)

// HDRZero is the zero value; Head == 0 is the zero test.
var HDRZero = HDRFloat{}

func saturatingAdd32(a, b int32) int32 {
	sum := int64(a) + int64(b)
	if sum > expMax {
		return expMax
	}
	if sum < expMin {
		return expMin
	}
	return int32(sum)
}

func saturatingSub32(a, b int32) int32 {
	return saturatingAdd32(a, -b)
}

// normalize restores |head| in [0.5, 1), or leaves the value at zero.
func (h HDRFloat) normalize() HDRFloat {
	if h.Head == 0 {
		if h.Tail == 0 {
			return HDRFloat{}
		}
		// Zero head, nonzero tail: promote the tail to head.
		h.Head, h.Tail = h.Tail, 0
	}
	frac, exp2 := math.Frexp(float64(h.Head))
	scale := math.Ldexp(1, -exp2)
	h.Head = float32(frac)
	h.Tail = float32(float64(h.Tail) * scale)
	h.Exp = saturatingAdd32(h.Exp, int32(exp2))
	return h
}

// FromF32 builds a normalized HDRFloat from a float32.
func FromF32(v float32) HDRFloat {
	if v == 0 {
		return HDRZero
	}
	frac, exp2 := math.Frexp(float64(v))
	return HDRFloat{Head: float32(frac), Tail: 0, Exp: int32(exp2)}
}

// FromF64 builds a normalized HDRFloat from a float64, keeping the low bits
// that don't fit in float32 as the tail term.
func FromF64(v float64) HDRFloat {
	if v == 0 {
		return HDRZero
	}
	frac, exp2 := math.Frexp(v)
	head := float32(frac)
	tail := float32(frac - float64(head))
	return HDRFloat{Head: head, Tail: tail, Exp: int32(exp2)}
}

// FromBigFloat converts a BigFloat to HDRFloat. For any nonzero x this
// must produce a nonzero HDR with the correct sign. At extreme exponents
// (|exp| >= 1000) the fast Float64()-based path underflows/overflows to 0
// or +-Inf, so the slow path instead uses Log2Approx + Exp2 together with
// the sign of the source value.
func FromBigFloat(x BigFloat) HDRFloat {
	sign := x.Sign()
	if sign == 0 {
		return HDRZero
	}
	if x.isFast() {
		return FromF64(x.f64)
	}
	// Cheap path: if the value round-trips through float64 without
	// under/overflow, use it directly.
	if f, _ := x.big.Float64(); f != 0 && !math.IsInf(f, 0) {
		return FromF64(f)
	}
	log2 := x.Log2Approx()
	if math.IsInf(log2, -1) {
		return HDRZero
	}
	exp := int32(math.Floor(log2))
	frac := math.Exp2(log2 - float64(exp))
	// frac is in [1,2); renormalize into [0.5,1) by bumping the exponent.
	frac /= 2
	exp++
	if sign < 0 {
		frac = -frac
	}
	head := float32(frac)
	tail := float32(frac - float64(head))
	return HDRFloat{Head: head, Tail: tail, Exp: exp}
}

// ToF32 converts to float32, saturating to +-Inf on overflow and to 0 on
// underflow rather than panicking.
func (h HDRFloat) ToF32() float32 {
	if h.Head == 0 {
		return 0
	}
	v := math.Ldexp(float64(h.Head)+float64(h.Tail), int(h.Exp))
	return float32(v)
}

// ToF64 converts to float64, saturating the same way as ToF32.
func (h HDRFloat) ToF64() float64 {
	if h.Head == 0 {
		return 0
	}
	return math.Ldexp(float64(h.Head)+float64(h.Tail), int(h.Exp))
}

// twoSum performs Knuth's two-sum, returning s=a+b and the rounding error e
// such that a+b == s+e exactly (in float64 arithmetic, which has more than
// enough headroom for float32 operands).
func twoSum(a, b float64) (s, e float64) {
	s = a + b
	bb := s - a
	e = (a - (s - bb)) + (b - bb)
	return
}

// twoProdFMA extracts the error term of a*b using fused multiply-add.
func twoProdFMA(a, b float64) (p, e float64) {
	p = a * b
	e = math.FMA(a, b, -p)
	return
}

// Add returns h+o. If the exponents differ by more than 48, the smaller
// operand is discarded entirely.
func (h HDRFloat) Add(o HDRFloat) HDRFloat {
	if h.Head == 0 {
		return o
	}
	if o.Head == 0 {
		return h
	}
	diff := int64(h.Exp) - int64(o.Exp)
	if diff > 48 {
		return h
	}
	if diff < -48 {
		return o
	}
	// Align o to h's exponent, then combine with Knuth two-sum, folding
	// the rounding error, both tails and the bits of the sum that a float32
	// head cannot hold into the result's tail.
	scale := math.Ldexp(1, int(o.Exp-h.Exp))
	oh := float64(o.Head) * scale
	ot := float64(o.Tail) * scale

	headSum, headErr := twoSum(float64(h.Head), oh)
	head := float32(headSum)
	tailSum := float64(h.Tail) + ot + headErr + (headSum - float64(head))
	result := HDRFloat{Head: head, Tail: float32(tailSum), Exp: h.Exp}
	return result.normalize()
}

// Sub returns h-o.
func (h HDRFloat) Sub(o HDRFloat) HDRFloat {
	return h.Add(o.Neg())
}

// Neg returns -h.
func (h HDRFloat) Neg() HDRFloat {
	return HDRFloat{Head: -h.Head, Tail: -h.Tail, Exp: h.Exp}
}

// Mul returns h*o.
func (h HDRFloat) Mul(o HDRFloat) HDRFloat {
	if h.Head == 0 || o.Head == 0 {
		return HDRZero
	}
	p, e := twoProdFMA(float64(h.Head), float64(o.Head))
	e += float64(h.Head)*float64(o.Tail) + float64(h.Tail)*float64(o.Head)
	head := float32(p)
	e += p - float64(head)
	result := HDRFloat{
		Head: head,
		Tail: float32(e),
		Exp:  saturatingAdd32(h.Exp, o.Exp),
	}
	return result.normalize()
}

// Square returns h*h.
func (h HDRFloat) Square() HDRFloat { return h.Mul(h) }

// MulF64 multiplies by a plain float64 scalar.
func (h HDRFloat) MulF64(s float64) HDRFloat {
	return h.Mul(FromF64(s))
}

// Div returns h/o. Division by zero yields a signed-infinity sentinel
// (saturated exponent), never a panic.
func (h HDRFloat) Div(o HDRFloat) HDRFloat {
	if o.Head == 0 {
		if h.Head == 0 {
			return HDRZero
		}
		sign := float32(1)
		if (h.Head < 0) != (o.Head < 0) {
			sign = -1
		}
		return HDRFloat{Head: sign, Tail: 0, Exp: expMax}
	}
	headQuot := float64(h.Head) / float64(o.Head)
	result := HDRFloat{
		Head: float32(headQuot),
		Tail: 0,
		Exp:  saturatingSub32(h.Exp, o.Exp),
	}
	// Recompute the quotient in float64 from both operands' head+tail
	// sums (about 53 bits, enough for this type's ~48-bit mantissa) and
	// split it into head and tail.
	recip := 1.0 / (float64(o.Head) + float64(o.Tail))
	refined := (float64(h.Head) + float64(h.Tail)) * recip
	result.Head = float32(refined)
	result.Tail = float32(refined - float64(result.Head))
	return result.normalize()
}

// DivF64 divides by a plain float64 scalar.
func (h HDRFloat) DivF64(s float64) HDRFloat {
	return h.Div(FromF64(s))
}

// Sqrt returns the square root of h. Negative inputs return zero rather
// than panicking or producing NaN.
func (h HDRFloat) Sqrt() HDRFloat {
	if h.Head <= 0 {
		return HDRZero
	}
	v := float64(h.Head) + float64(h.Tail)
	var exp2 int32
	if h.Exp%2 != 0 {
		v *= 2
		exp2 = (h.Exp - 1) / 2
	} else {
		exp2 = h.Exp / 2
	}
	root := math.Sqrt(v)
	head := float32(root)
	result := HDRFloat{Head: head, Tail: float32(root - float64(head)), Exp: exp2}
	return result.normalize()
}

// Log2 returns an approximate base-2 logarithm as a float64.
func (h HDRFloat) Log2() float64 {
	if h.Head <= 0 {
		return math.Inf(-1)
	}
	return math.Log2(float64(h.Head)+float64(h.Tail)) + float64(h.Exp)
}

// IsZero reports whether h represents zero.
func (h HDRFloat) IsZero() bool { return h.Head == 0 }

// IsNegative reports whether h is strictly negative.
func (h HDRFloat) IsNegative() bool { return h.Head < 0 }

// LessThan reports whether h < o.
func (h HDRFloat) LessThan(o HDRFloat) bool {
	return h.Sub(o).IsNegative()
}

// Min returns the smaller of h, o.
func Min(h, o HDRFloat) HDRFloat {
	if h.LessThan(o) {
		return h
	}
	return o
}

// Max returns the larger of h, o.
func Max(h, o HDRFloat) HDRFloat {
	if o.LessThan(h) {
		return h
	}
	return o
}

// HDRComplex is the complex form of HDRFloat.
type HDRComplex struct {
	Re, Im HDRFloat
}

var HDRComplexZero = HDRComplex{}

func (c HDRComplex) Add(o HDRComplex) HDRComplex {
	return HDRComplex{c.Re.Add(o.Re), c.Im.Add(o.Im)}
}

func (c HDRComplex) Sub(o HDRComplex) HDRComplex {
	return HDRComplex{c.Re.Sub(o.Re), c.Im.Sub(o.Im)}
}

func (c HDRComplex) Neg() HDRComplex {
	return HDRComplex{c.Re.Neg(), c.Im.Neg()}
}

// Mul performs standard complex multiplication: component-wise for
// add/sub, but the full cross-product for mul.
func (c HDRComplex) Mul(o HDRComplex) HDRComplex {
	re := c.Re.Mul(o.Re).Sub(c.Im.Mul(o.Im))
	im := c.Re.Mul(o.Im).Add(c.Im.Mul(o.Re))
	return HDRComplex{re, im}
}

// Square uses re^2-im^2, 2*re*im with HDR Square.
func (c HDRComplex) Square() HDRComplex {
	re := c.Re.Square().Sub(c.Im.Square())
	im := c.Re.Mul(c.Im).MulF64(2)
	return HDRComplex{re, im}
}

func (c HDRComplex) MulF64(s float64) HDRComplex {
	return HDRComplex{c.Re.MulF64(s), c.Im.MulF64(s)}
}

// NormSq returns re^2+im^2 in HDR arithmetic.
func (c HDRComplex) NormSq() HDRFloat {
	return c.Re.Square().Add(c.Im.Square())
}

// FromComplexF64 builds an HDRComplex from a float64 pair.
func FromComplexF64(re, im float64) HDRComplex {
	return HDRComplex{FromF64(re), FromF64(im)}
}
