package deepzoom

import "math"

// Viewport describes the fractal-space rectangle being rendered.
// Invariant: Center, Width and Height all share the same precision in
// bits. Constructed per render request, immutable during the render.
type Viewport struct {
	Center Complex
	Width  BigFloat
	Height BigFloat
}

// NewViewport validates and constructs a Viewport, matching nes/cartridge.go's
// loadRom pattern of validating inputs up front and returning a sentinel
// error rather than a partially-built value.
func NewViewport(centerRe, centerIm, width, height float64, bits uint) (Viewport, error) {
	if !isFiniteFloat(width) || !isFiniteFloat(height) || width <= 0 || height <= 0 {
		return Viewport{}, newError(KindInvalidViewport, nil, "width=%v height=%v must be finite and positive", width, height)
	}
	if !isFiniteFloat(centerRe) || !isFiniteFloat(centerIm) {
		return Viewport{}, newError(KindInvalidViewport, nil, "center=(%v,%v) must be finite", centerRe, centerIm)
	}
	return Viewport{
		Center: Complex{Re: WithPrecision(centerRe, bits), Im: WithPrecision(centerIm, bits)},
		Width:  WithPrecision(width, bits),
		Height: WithPrecision(height, bits),
	}, nil
}

func isFiniteFloat(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// NewViewportFromStrings is NewViewport's arbitrary-precision counterpart:
// it parses center/width/height from decimal strings via BigFloat.FromString
// instead of narrowing through a float64, so a center with more significant
// digits than float64 carries (e.g. a 30-digit deep-zoom coordinate) survives
// intact. width/height must be finite and positive once parsed.
func NewViewportFromStrings(centerRe, centerIm, width, height string, bits uint) (Viewport, error) {
	cre, err := FromString(centerRe, bits)
	if err != nil {
		return Viewport{}, err
	}
	cim, err := FromString(centerIm, bits)
	if err != nil {
		return Viewport{}, err
	}
	w, err := FromString(width, bits)
	if err != nil {
		return Viewport{}, err
	}
	h, err := FromString(height, bits)
	if err != nil {
		return Viewport{}, err
	}
	if !isFiniteFloat(w.ToF64()) || !isFiniteFloat(h.ToF64()) || w.Sign() <= 0 || h.Sign() <= 0 {
		return Viewport{}, newError(KindInvalidViewport, nil, "width=%v height=%v must be finite and positive", width, height)
	}
	if !isFiniteFloat(cre.ToF64()) || !isFiniteFloat(cim.ToF64()) {
		return Viewport{}, newError(KindInvalidViewport, nil, "center=(%v,%v) must be finite", centerRe, centerIm)
	}
	return Viewport{
		Center: Complex{Re: cre, Im: cim},
		Width:  w,
		Height: h,
	}, nil
}

// Bits returns the shared precision of the viewport's components.
func (v Viewport) Bits() uint {
	bits := v.Width.Bits()
	if h := v.Height.Bits(); h > bits {
		bits = h
	}
	if c := v.Center.Re.Bits(); c > bits {
		bits = c
	}
	return bits
}

// PixelDelta returns the fractal-space distance spanned by one pixel on
// each axis, used to map a pixel's canvas coordinates to a delta_c.
func (v Viewport) PixelDelta(canvasW, canvasH uint32) (dx, dy BigFloat) {
	bits := v.Bits()
	wDen := WithPrecision(float64(canvasW), bits)
	hDen := WithPrecision(float64(canvasH), bits)
	return v.Width.Div(wDen), v.Height.Div(hDen)
}

// PixelToC maps a pixel coordinate (px, py) on a canvas of the given size
// to a complex fractal coordinate c, with (0,0) at the top-left and the
// viewport centered on v.Center.
func (v Viewport) PixelToC(px, py int, canvasW, canvasH uint32) Complex {
	bits := v.Bits()
	dx, dy := v.PixelDelta(canvasW, canvasH)
	halfW := WithPrecision(float64(canvasW)/2, bits)
	halfH := WithPrecision(float64(canvasH)/2, bits)

	offX := WithPrecision(float64(px), bits).Sub(halfW).Mul(dx)
	offY := WithPrecision(float64(py), bits).Sub(halfH).Mul(dy)
	return Complex{
		Re: v.Center.Re.Add(offX),
		Im: v.Center.Im.Add(offY),
	}
}
