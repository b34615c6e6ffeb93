package deepzoom

// IteratePixelHDR runs the HDR flavor of the perturbation pixel kernel:
// used at deep zoom once f64 deltas would underflow. Same state machine
// as the f64 flavor, but every delta/derivative quantity and comparison
// is carried in HDRFloat to survive magnitudes far below float64's range.
func IteratePixelHDR(orbit *ReferenceOrbit, bla *BlaTable, deltaC HDRComplex, maxIterations uint32, tauSq float64) PixelResult {
	orbitLen := orbit.Len()
	if orbitLen == 0 {
		return zeroOrbitResult(maxIterations)
	}

	// The BLA safety check is evaluated against the table's own
	// render-wide dc_max (the bound its r_sq/merge margins were built
	// against), not this pixel's own |delta_c| -- a per-pixel value is
	// typically far smaller than the render-wide bound and would make
	// FindValid's |b|*dc_max <= 1 check far more permissive than intended.
	dcMax := bla.DcMax

	var dz, drho HDRComplex
	m := 0
	glitched := false
	referenceEscaped := orbit.EscapedAt != nil

	for n := uint32(0); n < maxIterations; {
		if referenceEscaped && m >= orbitLen {
			glitched = true
		}

		zMf := orbit.At(m)
		derMf := orbit.DerivAt(m)
		zM := FromComplexF64(zMf.Re, zMf.Im)
		derM := FromComplexF64(derMf.Re, derMf.Im)

		z := zM.Add(dz)
		rho := derM.Add(drho)

		zNormSqHDR := z.NormSq()
		zMagSq := zNormSqHDR.ToF64()
		zMNormSq := zM.NormSq()
		zMMagSq := zMNormSq.ToF64()
		dzNormSqHDR := dz.NormSq()

		// 1. Escape check.
		if zMagSq > pixelEscapeRadiusSq {
			snRe, snIm := surfaceNormalDirection(z.Re.ToF64(), z.Im.ToF64(), rho.Re.ToF64(), rho.Im.ToF64())
			return PixelResult{
				Iterations: n, MaxIterations: maxIterations, Escaped: true, Glitched: glitched,
				FinalZNormSq: float32(zMagSq), SurfaceNormalRe: snRe, SurfaceNormalIm: snIm,
			}
		}

		// 2. Pauldelbrot glitch detection.
		if zMMagSq > glitchRefNormSqFloor && zMagSq < tauSq*zMMagSq {
			glitched = true
		}

		// 3. Rebase check: |z|^2 < |dz|^2, compared in HDR to survive
		// underflow at deep zoom.
		if zNormSqHDR.Sub(dzNormSqHDR).IsNegative() {
			dz = HDRComplex{Re: z.Re, Im: z.Im}
			drho = HDRComplex{Re: rho.Re, Im: rho.Im}
			m = 0
			continue
		}

		// 4. Try BLA acceleration.
		if entry, ok := bla.FindValid(m, dzNormSqHDR, dcMax); ok {
			aDz := entry.A.Mul(dz)
			bDc := entry.B.Mul(deltaC)
			dz = aDz.Add(bDc)
			n += entry.L
			m += int(entry.L)
			continue
		}

		// 5. Standard delta iteration.
		oldDz := dz
		twoZDzRe := dz.Re.MulF64(2).Mul(zM.Re).Sub(dz.Im.MulF64(2).Mul(zM.Im))
		twoZDzIm := dz.Re.MulF64(2).Mul(zM.Im).Add(dz.Im.MulF64(2).Mul(zM.Re))
		dzSq := dz.Square()
		dz = HDRComplex{
			Re: twoZDzRe.Add(dzSq.Re).Add(deltaC.Re),
			Im: twoZDzIm.Add(dzSq.Im).Add(deltaC.Im),
		}

		twoZDrhoRe := drho.Re.MulF64(2).Mul(zM.Re).Sub(drho.Im.MulF64(2).Mul(zM.Im))
		twoZDrhoIm := drho.Re.MulF64(2).Mul(zM.Im).Add(drho.Im.MulF64(2).Mul(zM.Re))
		twoDzDerRe := oldDz.Re.MulF64(2).Mul(derM.Re).Sub(oldDz.Im.MulF64(2).Mul(derM.Im))
		twoDzDerIm := oldDz.Re.MulF64(2).Mul(derM.Im).Add(oldDz.Im.MulF64(2).Mul(derM.Re))
		twoDzDrhoRe := oldDz.Re.Mul(drho.Re).Sub(oldDz.Im.Mul(drho.Im)).MulF64(2)
		twoDzDrhoIm := oldDz.Re.Mul(drho.Im).Add(oldDz.Im.Mul(drho.Re)).MulF64(2)
		drho = HDRComplex{
			Re: twoZDrhoRe.Add(twoDzDerRe).Add(twoDzDrhoRe),
			Im: twoZDrhoIm.Add(twoDzDerIm).Add(twoDzDrhoIm),
		}

		m++
		n++
	}

	return PixelResult{Iterations: maxIterations, MaxIterations: maxIterations, Escaped: false, Glitched: glitched}
}
