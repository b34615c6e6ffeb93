package deepzoom

// refEscapeRadiusSq is the escape threshold for the high-precision
// reference orbit itself, distinct from the pixel kernels' own threshold.
const refEscapeRadiusSq = 4.0

// pixelEscapeRadiusSq is the escape threshold used by the perturbation
// pixel kernels, well beyond refEscapeRadiusSq to keep smooth coloring
// stable near the boundary.
const pixelEscapeRadiusSq = 65536.0

// F64Pair is an (re, im) pair stored as plain float64. orbit[n] is Zn;
// the reference orbit stops once |Zn|^2 exceeds refEscapeRadiusSq, so its
// stored values stay small and f64 suffices for the orbit itself even at
// extreme c_ref, despite deltas needing much higher precision.
type F64Pair struct {
	Re, Im float64
}

// ReferenceOrbit is the high-precision orbit computed at a single
// reference point c_ref.
type ReferenceOrbit struct {
	CRef       F64Pair
	Orbit      []F64Pair
	Derivative []F64Pair
	EscapedAt  *uint32
}

// Len returns the usable orbit length: escaped_at+1 if the orbit escaped
// (the escaping Z is stored too), otherwise the full max_iterations span
// it was computed for.
func (r *ReferenceOrbit) Len() int { return len(r.Orbit) }

// ComputeReferenceOrbit iterates Z_{n+1} = Z_n^2 + c_ref and dZ/dc_{n+1} =
// 2*Z_n*(dZ/dc)_n + 1 at full BigFloat precision, storing both streams as
// float64 pairs. The loop is bounded by maxIterations so it
// always terminates; there is no failure mode.
func ComputeReferenceOrbit(cRef Complex, maxIterations uint32) *ReferenceOrbit {
	bits := cRef.Re.Bits()
	z := ComplexZero(bits)
	dz := ComplexZero(bits)

	orbit := make([]F64Pair, 0, maxIterations)
	deriv := make([]F64Pair, 0, maxIterations)

	result := &ReferenceOrbit{
		CRef: F64Pair{Re: cRef.Re.ToF64(), Im: cRef.Im.ToF64()},
	}

	for n := uint32(0); n < maxIterations; n++ {
		orbit = append(orbit, F64Pair{Re: z.Re.ToF64(), Im: z.Im.ToF64()})
		deriv = append(deriv, F64Pair{Re: dz.Re.ToF64(), Im: dz.Im.ToF64()})

		normSq := z.NormSq().ToF64()
		if normSq > refEscapeRadiusSq {
			escaped := n
			result.EscapedAt = &escaped
			break
		}

		// dZ/dc = 2*Z*(dZ/dc) + 1
		two := WithPrecision(2, bits)
		dzNew := z.Mul(dz).Mul(Complex{two, Zero(bits)}).Add(Complex{One(bits), Zero(bits)})
		// Z = Z^2 + c_ref
		zNew := z.Square().Add(cRef)

		z, dz = zNew, dzNew
	}

	result.Orbit = orbit
	result.Derivative = deriv
	return result
}

// At returns the orbit value at index n, wrapping modulo the orbit's
// length so continuation after reference escape never indexes out of
// bounds.
func (r *ReferenceOrbit) At(n int) F64Pair {
	l := len(r.Orbit)
	if l == 0 {
		return F64Pair{}
	}
	return r.Orbit[n%l]
}

// DerivAt returns the derivative value at index n, with the same wrap
// behavior as At.
func (r *ReferenceOrbit) DerivAt(n int) F64Pair {
	l := len(r.Derivative)
	if l == 0 {
		return F64Pair{}
	}
	return r.Derivative[n%l]
}
