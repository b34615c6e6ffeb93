package deepzoom

import "math"

// log2OfSumFromLogs computes log2(x+y) for non-negative x, y using an
// accurate log-of-sum identity rather than naively computing log2(x+y),
// which underflows once x, y are far below float64's range:
// log2(x+y) = max + log2(1 + 2^-|delta|), with -inf for zero operands.
// x and y are given already as base-2 logarithms.
func log2OfSumFromLogs(logX, logY float64) float64 {
	if math.IsInf(logX, -1) && math.IsInf(logY, -1) {
		return math.Inf(-1)
	}
	hi, lo := logX, logY
	if lo > hi {
		hi, lo = lo, hi
	}
	if math.IsInf(lo, -1) {
		return hi
	}
	delta := hi - lo
	return hi + math.Log2(1+math.Exp2(-delta))
}

// CeilLog2 returns ceil(log2(n)) for n >= 1, computed via integer bit
// operations rather than through float64, which would lose precision for
// large n. CeilLog2(1) == 0.
func CeilLog2(n uint64) uint {
	if n <= 1 {
		return 0
	}
	n--
	bits := uint(0)
	for n > 0 {
		bits++
		n >>= 1
	}
	return bits
}

// precisionCapBits is the hard ceiling on required mantissa bits, well
// beyond any magnification a render would realistically request.
const precisionCapBits = 1 << 20

// RequiredPrecisionBits computes the minimum mantissa bits needed to
// render v without losing precision, given a canvas size and iteration
// bound. The function never panics for any finite viewport.
func RequiredPrecisionBits(v Viewport, canvasW, canvasH uint32, maxIterations uint32) uint {
	widthLog2 := v.Width.Log2Approx()
	heightLog2 := v.Height.Log2Approx()

	pxLog2 := math.Inf(-1)
	if canvasW > 0 {
		pxLog2 = math.Log2(float64(canvasW))
	}
	pyLog2 := math.Inf(-1)
	if canvasH > 0 {
		pyLog2 = math.Log2(float64(canvasH))
	}

	minDeltaLog2X := widthLog2 - pxLog2
	minDeltaLog2Y := heightLog2 - pyLog2
	minDeltaLog2 := math.Min(minDeltaLog2X, minDeltaLog2Y)

	absCx := v.Center.Re
	if absCx.Sign() < 0 {
		absCx = absCx.Neg()
	}
	absCy := v.Center.Im
	if absCy.Sign() < 0 {
		absCy = absCy.Neg()
	}
	halfWidthLog2 := widthLog2 - 1 // log2(width/2)
	halfHeightLog2 := heightLog2 - 1

	mxLog2 := log2OfSumFromLogs(absCx.Log2Approx(), halfWidthLog2)
	myLog2 := log2OfSumFromLogs(absCy.Log2Approx(), halfHeightLog2)
	mLog2 := math.Max(mxLog2, myLog2)

	var bitsFromRatio int64
	if math.IsInf(minDeltaLog2, -1) || math.IsInf(mLog2, -1) {
		bitsFromRatio = fastPathBits
	} else {
		ratioLog2 := mLog2 - minDeltaLog2
		bitsFromRatio = int64(math.Ceil(ratioLog2))
	}

	// Floor at -log2(min_delta) to cover panning back toward unit scale,
	// matching fractalwonder-core/src/precision.rs's guard against
	// under-provisioning when panning a deep view back toward the origin.
	if !math.IsInf(minDeltaLog2, 0) {
		floor := int64(math.Ceil(-minDeltaLog2))
		if bitsFromRatio < floor {
			bitsFromRatio = floor
		}
	}

	iterBits := int64(CeilLog2(uint64(maxIterations)))

	var safety int64 = 16
	if bitsFromRatio > 64 {
		safety = 16 + bitsFromRatio/10
	}

	total := bitsFromRatio + iterBits + safety
	if total < fastPathBits {
		total = fastPathBits
	}
	if total > precisionCapBits {
		total = precisionCapBits
	}
	return uint(total)
}
