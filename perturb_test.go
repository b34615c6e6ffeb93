package deepzoom

import (
	"math"
	"testing"
)

func TestChooseFlavorThresholds(t *testing.T) {
	if f := ChooseFlavor(HDRZero); f != FlavorBigFloat {
		t.Errorf("ChooseFlavor(0) = %v, want FlavorBigFloat", f)
	}
	if f := ChooseFlavor(FromF64(1)); f != FlavorF64 {
		t.Errorf("ChooseFlavor(1) = %v, want FlavorF64", f)
	}
	if f := ChooseFlavor(HDRFloat{Head: 0.5, Exp: -2000}); f != FlavorHDR {
		t.Errorf("ChooseFlavor(2^-2000) = %v, want FlavorHDR", f)
	}
	if f := ChooseFlavor(HDRFloat{Head: 0.5, Exp: -20000}); f != FlavorBigFloat {
		t.Errorf("ChooseFlavor(2^-20000) = %v, want FlavorBigFloat", f)
	}
}

func TestIteratePixelF64EmptyOrbitReturnsGlitched(t *testing.T) {
	got := IteratePixelF64(&ReferenceOrbit{}, &BlaTable{}, F64Pair{}, 100, DefaultTauSq)
	if !got.Glitched || got.Iterations != 0 {
		t.Errorf("empty orbit result = %+v, want glitched with Iterations=0", got)
	}
}

func TestIteratePixelF64OriginNeverEscapes(t *testing.T) {
	cRef := Complex{Re: WithPrecision(0, 128), Im: WithPrecision(0, 128)}
	orbit := ComputeReferenceOrbit(cRef, 200)
	bla := BuildBlaTable(orbit, FromF64(0))

	got := IteratePixelF64(orbit, bla, F64Pair{}, 200, DefaultTauSq)
	if got.Escaped {
		t.Errorf("delta_c=0 at c_ref=0 should never escape, got %+v", got)
	}
	if got.Iterations != 200 {
		t.Errorf("Iterations = %d, want 200", got.Iterations)
	}
}

func TestIteratePixelF64FarPointEscapes(t *testing.T) {
	cRef := Complex{Re: WithPrecision(0, 128), Im: WithPrecision(0, 128)}
	orbit := ComputeReferenceOrbit(cRef, 200)
	bla := BuildBlaTable(orbit, FromF64(10))

	got := IteratePixelF64(orbit, bla, F64Pair{Re: 10, Im: 0}, 200, DefaultTauSq)
	if !got.Escaped {
		t.Errorf("delta_c=10 should escape, got %+v", got)
	}
}

// TestF64AndHDRAgreeOnASimplePoint checks the f64 and HDR kernel flavors
// produce the same escape iteration count for a point well within f64's
// comfortable range, where both flavors should behave identically.
func TestF64AndHDRAgreeOnASimplePoint(t *testing.T) {
	cRef := Complex{Re: WithPrecision(-0.5, 128), Im: WithPrecision(0, 128)}
	orbit := ComputeReferenceOrbit(cRef, 1000)
	bla := BuildBlaTable(orbit, FromF64(0.3))

	deltaF64 := F64Pair{Re: 0.3, Im: 0.2}
	deltaHDR := HDRComplex{Re: FromF64(0.3), Im: FromF64(0.2)}

	rF64 := IteratePixelF64(orbit, bla, deltaF64, 1000, DefaultTauSq)
	rHDR := IteratePixelHDR(orbit, bla, deltaHDR, 1000, DefaultTauSq)

	if rF64.Escaped != rHDR.Escaped {
		t.Fatalf("f64 Escaped=%v, HDR Escaped=%v", rF64.Escaped, rHDR.Escaped)
	}
	if rF64.Iterations != rHDR.Iterations {
		t.Errorf("f64 Iterations=%d, HDR Iterations=%d", rF64.Iterations, rHDR.Iterations)
	}
}

// TestHDRAndBigFloatAgreeOnASimplePoint cross-checks the HDR and BigFloat
// flavors the same way, since both state machines are meant to be
// numerically equivalent modulo storage precision.
func TestHDRAndBigFloatAgreeOnASimplePoint(t *testing.T) {
	bits := uint(128)
	cRef := Complex{Re: WithPrecision(-0.5, bits), Im: WithPrecision(0, bits)}
	orbit := ComputeReferenceOrbit(cRef, 500)
	bla := BuildBlaTable(orbit, FromF64(0.3))

	deltaHDR := HDRComplex{Re: FromF64(0.3), Im: FromF64(0.2)}
	deltaBig := Complex{Re: WithPrecision(0.3, bits), Im: WithPrecision(0.2, bits)}

	rHDR := IteratePixelHDR(orbit, bla, deltaHDR, 500, DefaultTauSq)
	rBig := IteratePixelBigFloat(orbit, bla, deltaBig, 500, DefaultTauSq)

	if rHDR.Escaped != rBig.Escaped {
		t.Fatalf("HDR Escaped=%v, BigFloat Escaped=%v", rHDR.Escaped, rBig.Escaped)
	}
	if rHDR.Iterations != rBig.Iterations {
		t.Errorf("HDR Iterations=%d, BigFloat Iterations=%d", rHDR.Iterations, rBig.Iterations)
	}
}

func TestIteratePixelBigFloatEmptyOrbitReturnsGlitched(t *testing.T) {
	got := IteratePixelBigFloat(&ReferenceOrbit{}, &BlaTable{}, Complex{Re: WithPrecision(0, 128), Im: WithPrecision(0, 128)}, 50, DefaultTauSq)
	if !got.Glitched || got.Iterations != 0 {
		t.Errorf("empty orbit result = %+v, want glitched with Iterations=0", got)
	}
}

func TestSurfaceNormalDirectionZeroRho(t *testing.T) {
	re, im := surfaceNormalDirection(1, 1, 0, 0)
	if re != 0 || im != 0 {
		t.Errorf("surfaceNormalDirection with rho=0 = (%v,%v), want (0,0)", re, im)
	}
}

func TestSurfaceNormalDirectionIsUnitLength(t *testing.T) {
	re, im := surfaceNormalDirection(3, 4, 1, 2)
	mag := math.Sqrt(float64(re)*float64(re) + float64(im)*float64(im))
	if math.Abs(mag-1) > 1e-5 {
		t.Errorf("surface normal magnitude = %v, want 1", mag)
	}
}
