package deepzoom

// epsilon53 is 2^-53, the f64 machine epsilon used in the single-iteration
// BLA entry's validity radius.
const epsilon53 = 1.0 / (1 << 53)

// BlaEntry is a bivariate linear approximation covering L iterations:
// delta_z_new ~= a*delta_z + b*delta_c, valid while |delta_z|^2 < r_sq.
type BlaEntry struct {
	A, B HDRComplex
	L    uint32
	RSq  HDRFloat
}

// blaFromOrbitPoint builds the level-0, single-iteration entry for orbit
// point Z: a=2Z, b=1, l=1, r_sq=(eps*|Z|)^2.
func blaFromOrbitPoint(z F64Pair) BlaEntry {
	zc := FromComplexF64(z.Re, z.Im)
	a := zc.MulF64(2)
	b := HDRComplex{Re: FromF64(1), Im: HDRZero}
	absZ := zc.NormSq().Sqrt()
	r := absZ.MulF64(epsilon53)
	return BlaEntry{A: a, B: b, L: 1, RSq: r.Square()}
}

// absHDRComplex returns |c| as an HDRFloat.
func absHDRComplex(c HDRComplex) HDRFloat {
	return c.NormSq().Sqrt()
}

// mergeBla merges entries x (applied first) then y (applied second) into
// a single entry advancing l_x+l_y iterations:
//
//	a_z = a_y * a_x
//	b_z = a_y * b_x + b_y
//	r_z = min(r_x, max(0, (r_y - |b_x|*dc_max) / |a_x|))
func mergeBla(x, y BlaEntry, dcMax HDRFloat) BlaEntry {
	az := y.A.Mul(x.A)
	bz := y.A.Mul(x.B).Add(y.B)

	absBx := absHDRComplex(x.B)
	absAx := absHDRComplex(x.A)

	candidate := y.RSq.Sub(absBx.Mul(dcMax))
	if candidate.IsNegative() {
		candidate = HDRZero
	}
	if !absAx.IsZero() {
		candidate = candidate.Div(absAx)
	}
	rz := Min(x.RSq, candidate)

	return BlaEntry{A: az, B: bz, L: x.L + y.L, RSq: rz}
}

// BlaTable is a level-indexed binary tree of BLA entries over a reference
// orbit. Level 0 holds one entry per orbit step; level k holds ceil(m/2^k)
// entries, pair-merging the level below it.
type BlaTable struct {
	Entries      []BlaEntry
	LevelOffsets []int
	NumLevels    int
	DcMax        HDRFloat
	// MaxBDcExp is the safety threshold exponent for |b|*dc_max in the
	// lookup rule; left configurable in case a tighter threshold turns
	// out to be needed for extreme orbits. Default 0, meaning
	// |b|*dc_max must be <= 1.
	MaxBDcExp int32
}

// BuildBlaTable builds the full level tree from a reference orbit. The
// orbit itself is not retained by the table; only derived BlaEntry values
// are.
func BuildBlaTable(orbit *ReferenceOrbit, dcMax HDRFloat) *BlaTable {
	t := &BlaTable{DcMax: dcMax, MaxBDcExp: 0}

	level0 := make([]BlaEntry, len(orbit.Orbit))
	for i, z := range orbit.Orbit {
		level0[i] = blaFromOrbitPoint(z)
	}

	levels := [][]BlaEntry{level0}
	for {
		prev := levels[len(levels)-1]
		if len(prev) <= 1 {
			break
		}
		next := make([]BlaEntry, (len(prev)+1)/2)
		for i := range next {
			xi := 2 * i
			yi := 2*i + 1
			x := prev[xi]
			var y BlaEntry
			if yi < len(prev) {
				y = prev[yi]
			} else {
				// Tail-odd copies the last entry.
				y = prev[xi]
			}
			next[i] = mergeBla(x, y, dcMax)
		}
		levels = append(levels, next)
	}

	t.NumLevels = len(levels)
	t.LevelOffsets = make([]int, len(levels))
	total := 0
	for i, lvl := range levels {
		t.LevelOffsets[i] = total
		total += len(lvl)
	}
	t.Entries = make([]BlaEntry, 0, total)
	for _, lvl := range levels {
		t.Entries = append(t.Entries, lvl...)
	}
	return t
}

func (t *BlaTable) levelLen(level int) int {
	if level+1 < len(t.LevelOffsets) {
		return t.LevelOffsets[level+1] - t.LevelOffsets[level]
	}
	return len(t.Entries) - t.LevelOffsets[level]
}

// FindValid finds the highest-level entry covering index m whose validity
// radius exceeds |delta_z|^2 and
// whose |b|*dc_max does not exceed the safety threshold. Returns (entry,
// true) or (zero, false) if no entry qualifies -- in particular always
// false at m == 0, since Z0 == 0 makes r_sq == 0 for every entry covering
// it.
func (t *BlaTable) FindValid(m int, deltaZNormSq HDRFloat, dcMax HDRFloat) (BlaEntry, bool) {
	for level := t.NumLevels - 1; level >= 0; level-- {
		idx := m >> uint(level)
		if idx >= t.levelLen(level) {
			continue
		}
		entry := t.Entries[t.LevelOffsets[level]+idx]
		if !deltaZNormSq.LessThan(entry.RSq) {
			continue
		}
		bDcExp := absHDRComplex(entry.B).Mul(dcMax).Exp
		if bDcExp > t.MaxBDcExp {
			continue
		}
		return entry, true
	}
	return BlaEntry{}, false
}
