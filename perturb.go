package deepzoom

import "math"

// DefaultTauSq is the Pauldelbrot glitch-detection threshold tau^2 used
// when a caller does not override it via the worker protocol's tau_sq
// field.
const DefaultTauSq = 1e-6

// glitchRefNormSqFloor is the |Z_m|^2 floor below which the glitch test is
// skipped, since the ratio test is meaningless this close to the orbit's
// own zero crossing.
const glitchRefNormSqFloor = 1e-20

// PixelResult is the outcome of iterating one pixel. Smooth coloring is
// left to a downstream colorization stage and is not computed here.
type PixelResult struct {
	Iterations      uint32
	MaxIterations   uint32
	Escaped         bool
	Glitched        bool
	FinalZNormSq    float32
	SurfaceNormalRe float32
	SurfaceNormalIm float32
}

// zeroOrbitResult is returned by every flavor when the reference orbit has
// no samples: there is nothing to iterate against, so the pixel is marked
// glitched for a later resolution round.
func zeroOrbitResult(maxIterations uint32) PixelResult {
	return PixelResult{Iterations: 0, MaxIterations: maxIterations, Escaped: false, Glitched: true}
}

// surfaceNormalDirection returns the unit direction of z/rho, used as the
// escape-time surface normal. rho == 0 returns a zero vector rather than
// dividing by zero.
func surfaceNormalDirection(zRe, zIm, rhoRe, rhoIm float64) (float32, float32) {
	denom := rhoRe*rhoRe + rhoIm*rhoIm
	if denom == 0 {
		return 0, 0
	}
	// z / rho via standard complex division.
	nre := (zRe*rhoRe + zIm*rhoIm) / denom
	nim := (zIm*rhoRe - zRe*rhoIm) / denom
	mag := math.Sqrt(nre*nre + nim*nim)
	if mag == 0 {
		return 0, 0
	}
	return float32(nre / mag), float32(nim / mag)
}

// complexMulF64 is the plain f64 complex multiply used by the f64 kernel
// flavor and its BLA mirror table.
func complexMulF64(a, b F64Pair) F64Pair {
	return F64Pair{
		Re: a.Re*b.Re - a.Im*b.Im,
		Im: a.Re*b.Im + a.Im*b.Re,
	}
}

// Flavor identifies which perturbation kernel variant a tile should run,
// chosen once per tile by ChooseFlavor from the tile's dc_max alone rather
// than re-evaluated per pixel; the viewport precision is not consulted.
type Flavor int

const (
	FlavorF64 Flavor = iota
	FlavorHDR
	FlavorBigFloat
)

func (f Flavor) String() string {
	switch f {
	case FlavorF64:
		return "f64"
	case FlavorHDR:
		return "hdr"
	case FlavorBigFloat:
		return "bigfloat"
	default:
		return "unknown"
	}
}

// f64UnderflowExp2 is roughly the smallest magnitude an f64 delta can hold
// before it underflows (~2^-990, about 10^-298). hdrUnderflowExp2 is the
// HDR exponent past which even HDR would underflow (beyond roughly
// 10^-3000 scales).
const (
	f64UnderflowExp2 = -990
	hdrUnderflowExp2 = -9965
)

// ChooseFlavor selects the kernel flavor for a tile from its dc_max,
// expressed as an HDR exponent (base-2).
func ChooseFlavor(dcMax HDRFloat) Flavor {
	if dcMax.IsZero() {
		return FlavorBigFloat
	}
	switch {
	case dcMax.Exp > f64UnderflowExp2:
		return FlavorF64
	case dcMax.Exp > hdrUnderflowExp2:
		return FlavorHDR
	default:
		return FlavorBigFloat
	}
}
