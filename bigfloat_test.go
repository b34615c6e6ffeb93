package deepzoom

import (
	"math"
	"testing"
)

func TestBigFloatFastPathArithmetic(t *testing.T) {
	a := WithPrecision(3.5, 53)
	b := WithPrecision(1.25, 53)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"add", a.Add(b).ToF64(), 4.75},
		{"sub", a.Sub(b).ToF64(), 2.25},
		{"mul", a.Mul(b).ToF64(), 4.375},
		{"div", a.Div(b).ToF64(), 2.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestBigFloatHighPrecisionArithmetic(t *testing.T) {
	bits := uint(256)
	a, err := FromString("1.0000000000000000000001", bits)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	one := One(bits)
	diff := a.Sub(one)
	if diff.Sign() <= 0 {
		t.Errorf("expected a > 1 to survive at 256 bits, got diff sign %d", diff.Sign())
	}
}

func TestBigFloatFromStringMalformed(t *testing.T) {
	_, err := FromString("not-a-number", 128)
	if err == nil {
		t.Fatal("expected an error for malformed input")
	}
	if !Is(err, KindParseError) {
		t.Errorf("expected KindParseError, got %v", err)
	}
}

func TestBigFloatFromStringEmpty(t *testing.T) {
	_, err := FromString("   ", 128)
	if !Is(err, KindParseError) {
		t.Errorf("expected KindParseError for empty string, got %v", err)
	}
}

func TestBigFloatDivByZeroSignedInfinity(t *testing.T) {
	bits := uint(128)
	pos := One(bits).Div(Zero(bits))
	if pos.Sign() <= 0 {
		t.Errorf("1/0 at high precision should be +inf-like, sign=%d", pos.Sign())
	}
	neg := One(bits).Neg().Div(Zero(bits))
	if neg.Sign() >= 0 {
		t.Errorf("-1/0 at high precision should be -inf-like, sign=%d", neg.Sign())
	}
}

func TestBigFloatSqrtNegativeIsZero(t *testing.T) {
	a := WithPrecision(-4, 53)
	if a.Sqrt().Sign() != 0 {
		t.Error("Sqrt of a negative fast-path value should be zero")
	}
	b := WithPrecision(-4, 256)
	if b.Sqrt().Sign() != 0 {
		t.Error("Sqrt of a negative high-precision value should be zero")
	}
}

func TestBigFloatLog2ApproxFiniteForNonzero(t *testing.T) {
	tests := []uint{53, 256}
	for _, bits := range tests {
		v, err := FromString("1e-500", bits)
		if err != nil {
			t.Fatalf("FromString: %v", err)
		}
		l := v.Log2Approx()
		if math.IsInf(l, 0) || math.IsNaN(l) {
			t.Errorf("Log2Approx(1e-500) at %d bits = %v, want finite", bits, l)
		}
	}
}

func TestBigFloatLog2ApproxZeroIsNegInf(t *testing.T) {
	if l := Zero(128).Log2Approx(); !math.IsInf(l, -1) {
		t.Errorf("Log2Approx(0) = %v, want -Inf", l)
	}
}

func TestBigFloatEqualIgnoresRepresentation(t *testing.T) {
	fast := WithPrecision(2, 53)
	slow := WithPrecision(2, 256)
	if !fast.Equal(slow) {
		t.Error("values with the same magnitude but different precision should compare equal")
	}
}

func TestBigFloatWireRoundTrip(t *testing.T) {
	bits := uint(200)
	a, err := FromString("3.14159265358979323846", bits)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	wire := a.MarshalWire()
	back, err := UnmarshalWire(wire)
	if err != nil {
		t.Fatalf("UnmarshalWire: %v", err)
	}
	if !a.Equal(back) {
		t.Errorf("round trip lost precision: %v != %v", a.ToF64(), back.ToF64())
	}
}

func TestComplexSquareMatchesMul(t *testing.T) {
	bits := uint(128)
	c := Complex{Re: WithPrecision(1.5, bits), Im: WithPrecision(-2.5, bits)}
	viaMul := c.Mul(c)
	viaSquare := c.Square()
	if !viaMul.Re.Equal(viaSquare.Re) || !viaMul.Im.Equal(viaSquare.Im) {
		t.Errorf("Square() disagrees with Mul(self): %v+%vi vs %v+%vi",
			viaMul.Re.ToF64(), viaMul.Im.ToF64(), viaSquare.Re.ToF64(), viaSquare.Im.ToF64())
	}
}
