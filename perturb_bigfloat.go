package deepzoom

// hdrComplexToBigFloat converts an HDRComplex BLA coefficient to a
// Complex at the given precision. BLA coefficients (A, B) stay in HDR/f64
// range even when the pixel's own delta values underflow past what HDR
// can represent, which is exactly why the BLA table is built once in HDR
// and mirrored/converted per flavor rather than rebuilt per flavor.
func hdrComplexToBigFloat(c HDRComplex, bits uint) Complex {
	return Complex{
		Re: WithPrecision(c.Re.ToF64(), bits),
		Im: WithPrecision(c.Im.ToF64(), bits),
	}
}

// IteratePixelBigFloat runs the BigFloat flavor of the perturbation pixel
// kernel: used only when even HDRFloat would underflow the
// delta values, roughly beyond 10^-3000 scales. The state machine is
// identical to the other two flavors; only the delta storage and
// arithmetic precision differ. The BLA validity test is evaluated in HDR
// (cheap, and the table is already HDR-valued) while the coefficients
// are converted to BigFloat only when an entry is actually applied.
func IteratePixelBigFloat(orbit *ReferenceOrbit, bla *BlaTable, deltaC Complex, maxIterations uint32, tauSq float64) PixelResult {
	orbitLen := orbit.Len()
	if orbitLen == 0 {
		return zeroOrbitResult(maxIterations)
	}

	bits := deltaC.Re.Bits()
	// The BLA safety check uses the table's render-wide dc_max, not this
	// pixel's |delta_c|.
	dcMaxHDR := bla.DcMax

	dz := ComplexZero(bits)
	drho := ComplexZero(bits)
	m := 0
	glitched := false
	referenceEscaped := orbit.EscapedAt != nil

	two := WithPrecision(2, bits)

	for n := uint32(0); n < maxIterations; {
		if referenceEscaped && m >= orbitLen {
			glitched = true
		}

		zMf := orbit.At(m)
		derMf := orbit.DerivAt(m)
		zM := Complex{Re: WithPrecision(zMf.Re, bits), Im: WithPrecision(zMf.Im, bits)}
		derM := Complex{Re: WithPrecision(derMf.Re, bits), Im: WithPrecision(derMf.Im, bits)}

		z := Complex{Re: zM.Re.Add(dz.Re), Im: zM.Im.Add(dz.Im)}
		rho := Complex{Re: derM.Re.Add(drho.Re), Im: derM.Im.Add(drho.Im)}

		zNormSq := z.NormSq()
		zMagSq := zNormSq.ToF64()
		zMMagSq := zM.NormSq().ToF64()
		dzNormSq := dz.NormSq()

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

		// 3. Rebase check: |z|^2 < |dz|^2.
		if zNormSq.Cmp(dzNormSq) < 0 {
			dz = z
			drho = rho
			m = 0
			continue
		}

		// 4. Try BLA acceleration, validity tested in HDR.
		dzNormSqHDR := FromBigFloat(dzNormSq)
		if entry, ok := bla.FindValid(m, dzNormSqHDR, dcMaxHDR); ok {
			a := hdrComplexToBigFloat(entry.A, bits)
			b := hdrComplexToBigFloat(entry.B, bits)
			aDz := a.Mul(dz)
			bDc := b.Mul(deltaC)
			dz = Complex{Re: aDz.Re.Add(bDc.Re), Im: aDz.Im.Add(bDc.Im)}
			n += entry.L
			m += int(entry.L)
			continue
		}

		// 5. Standard delta iteration.
		oldDz := dz
		twoZ := Complex{Re: zM.Re.Mul(two), Im: zM.Im.Mul(two)}
		dzSq := dz.Square()
		newDzRe := twoZ.Re.Mul(dz.Re).Sub(twoZ.Im.Mul(dz.Im)).Add(dzSq.Re).Add(deltaC.Re)
		newDzIm := twoZ.Re.Mul(dz.Im).Add(twoZ.Im.Mul(dz.Re)).Add(dzSq.Im).Add(deltaC.Im)
		dz = Complex{Re: newDzRe, Im: newDzIm}

		twoZDrhoRe := twoZ.Re.Mul(drho.Re).Sub(twoZ.Im.Mul(drho.Im))
		twoZDrhoIm := twoZ.Re.Mul(drho.Im).Add(twoZ.Im.Mul(drho.Re))
		twoDzDerRe := two.Mul(oldDz.Re.Mul(derM.Re).Sub(oldDz.Im.Mul(derM.Im)))
		twoDzDerIm := two.Mul(oldDz.Re.Mul(derM.Im).Add(oldDz.Im.Mul(derM.Re)))
		twoDzDrhoRe := two.Mul(oldDz.Re.Mul(drho.Re).Sub(oldDz.Im.Mul(drho.Im)))
		twoDzDrhoIm := two.Mul(oldDz.Re.Mul(drho.Im).Add(oldDz.Im.Mul(drho.Re)))
		drho = Complex{
			Re: twoZDrhoRe.Add(twoDzDerRe).Add(twoDzDrhoRe),
			Im: twoZDrhoIm.Add(twoDzDerIm).Add(twoDzDrhoIm),
		}

		m++
		n++
	}

	return PixelResult{Iterations: maxIterations, MaxIterations: maxIterations, Escaped: false, Glitched: glitched}
}
