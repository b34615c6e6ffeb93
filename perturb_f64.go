package deepzoom

import "math"

// blaEntryF64 is the f64 mirror of a BlaEntry used by the fast f64 kernel
// flavor, kept as a plain float64 mirror table so the hot loop never
// touches HDRFloat arithmetic. Entries that don't fit in f64 range are
// simply never returned as valid (findValidF64 skips them), so the kernel
// falls back to the standard step instead of producing garbage.
type blaEntryF64 struct {
	A, B F64Pair
	L    uint32
	RSq  float64
	ok   bool
}

// blaTableF64 mirrors a BlaTable's entries in plain float64; IteratePixelF64
// builds it on each call.
type blaTableF64 struct {
	entries      []blaEntryF64
	levelOffsets []int
	numLevels    int
	maxBDcExp    int32
}

func newBlaTableF64(t *BlaTable) *blaTableF64 {
	mirror := &blaTableF64{
		levelOffsets: t.LevelOffsets,
		numLevels:    t.NumLevels,
		maxBDcExp:    t.MaxBDcExp,
		entries:      make([]blaEntryF64, len(t.Entries)),
	}
	for i, e := range t.Entries {
		a := F64Pair{Re: e.A.Re.ToF64(), Im: e.A.Im.ToF64()}
		b := F64Pair{Re: e.B.Re.ToF64(), Im: e.B.Im.ToF64()}
		rsq := e.RSq.ToF64()
		ok := isFiniteFloat(a.Re) && isFiniteFloat(a.Im) && isFiniteFloat(b.Re) && isFiniteFloat(b.Im) && isFiniteFloat(rsq)
		mirror.entries[i] = blaEntryF64{A: a, B: b, L: e.L, RSq: rsq, ok: ok}
	}
	return mirror
}

func (t *blaTableF64) levelLen(level int) int {
	if level+1 < len(t.levelOffsets) {
		return t.levelOffsets[level+1] - t.levelOffsets[level]
	}
	return len(t.entries) - t.levelOffsets[level]
}

// findValidF64 mirrors BlaTable.FindValid using plain float64 arithmetic.
func (t *blaTableF64) findValidF64(m int, deltaZNormSq, dcMax float64) (blaEntryF64, bool) {
	for level := t.numLevels - 1; level >= 0; level-- {
		idx := m >> uint(level)
		if idx >= t.levelLen(level) {
			continue
		}
		entry := t.entries[t.levelOffsets[level]+idx]
		if !entry.ok || !(deltaZNormSq < entry.RSq) {
			continue
		}
		bMag := math.Sqrt(entry.B.Re*entry.B.Re + entry.B.Im*entry.B.Im)
		bDc := bMag * dcMax
		if bDc <= 0 {
			return entry, true
		}
		exp := int32(math.Floor(math.Log2(bDc))) + 1
		if exp <= t.maxBDcExp {
			return entry, true
		}
	}
	return blaEntryF64{}, false
}

// IteratePixelF64 runs the f64 flavor of the perturbation pixel kernel:
// the fastest path, used while the tile's dc_max is large enough that
// plain float64 deltas don't underflow.
func IteratePixelF64(orbit *ReferenceOrbit, bla *BlaTable, deltaC F64Pair, maxIterations uint32, tauSq float64) PixelResult {
	orbitLen := orbit.Len()
	if orbitLen == 0 {
		return zeroOrbitResult(maxIterations)
	}

	mirror := newBlaTableF64(bla)
	// The BLA safety check uses the table's render-wide dc_max, not this
	// pixel's |delta_c|.
	dcMax := bla.DcMax.ToF64()

	var dz, drho F64Pair
	m := 0
	glitched := false
	referenceEscaped := orbit.EscapedAt != nil

	for n := uint32(0); n < maxIterations; {
		if referenceEscaped && m >= orbitLen {
			glitched = true
		}

		zM := orbit.At(m)
		derM := orbit.DerivAt(m)

		z := F64Pair{Re: zM.Re + dz.Re, Im: zM.Im + dz.Im}
		rho := F64Pair{Re: derM.Re + drho.Re, Im: derM.Im + drho.Im}

		zMagSq := z.Re*z.Re + z.Im*z.Im
		zMMagSq := zM.Re*zM.Re + zM.Im*zM.Im
		dzMagSq := dz.Re*dz.Re + dz.Im*dz.Im

		// 1. Escape check.
		if zMagSq > pixelEscapeRadiusSq {
			snRe, snIm := surfaceNormalDirection(z.Re, z.Im, rho.Re, rho.Im)
			return PixelResult{
				Iterations: n, MaxIterations: maxIterations, Escaped: true, Glitched: glitched,
				FinalZNormSq: float32(zMagSq), SurfaceNormalRe: snRe, SurfaceNormalIm: snIm,
			}
		}

		// 2. Pauldelbrot glitch detection.
		if zMMagSq > glitchRefNormSqFloor && zMagSq < tauSq*zMMagSq {
			glitched = true
		}

		// 3. Rebase check: |z|^2 < |dz|^2.
		if zMagSq < dzMagSq {
			dz = z
			drho = rho
			m = 0
			continue
		}

		// 4. Try BLA acceleration.
		if entry, ok := mirror.findValidF64(m, dzMagSq, dcMax); ok {
			aDz := complexMulF64(entry.A, dz)
			bDc := complexMulF64(entry.B, deltaC)
			dz = F64Pair{Re: aDz.Re + bDc.Re, Im: aDz.Im + bDc.Im}
			n += entry.L
			m += int(entry.L)
			continue
		}

		// 5. Standard delta iteration.
		oldDz := dz
		newDzRe := 2*(zM.Re*dz.Re-zM.Im*dz.Im) + (dz.Re*dz.Re - dz.Im*dz.Im) + deltaC.Re
		newDzIm := 2*(zM.Re*dz.Im+zM.Im*dz.Re) + 2*dz.Re*dz.Im + deltaC.Im
		dz = F64Pair{Re: newDzRe, Im: newDzIm}

		twoZDrhoRe := 2 * (zM.Re*drho.Re - zM.Im*drho.Im)
		twoZDrhoIm := 2 * (zM.Re*drho.Im + zM.Im*drho.Re)
		twoDzDerRe := 2 * (oldDz.Re*derM.Re - oldDz.Im*derM.Im)
		twoDzDerIm := 2 * (oldDz.Re*derM.Im + oldDz.Im*derM.Re)
		twoDzDrhoRe := 2 * (oldDz.Re*drho.Re - oldDz.Im*drho.Im)
		twoDzDrhoIm := 2 * (oldDz.Re*drho.Im + oldDz.Im*drho.Re)
		drho = F64Pair{
			Re: twoZDrhoRe + twoDzDerRe + twoDzDrhoRe,
			Im: twoZDrhoIm + twoDzDerIm + twoDzDrhoIm,
		}

		m++
		n++
	}

	return PixelResult{Iterations: maxIterations, MaxIterations: maxIterations, Escaped: false, Glitched: glitched}
}
