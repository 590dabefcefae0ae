package enhance

import "math"

// SharpenMode selects the final sharpening step.
type SharpenMode int

const (
	// SharpenKernel convolves with a 3x3 high-pass kernel and blends the
	// result with the unsharpened image.
	SharpenKernel SharpenMode = iota
	// SharpenUnsharp subtracts a Gaussian blurred copy (unsharp masking).
	SharpenUnsharp
)

// Params are the tunable constants of one enhancement mode.
type Params struct {
	// Non-local means denoising strength for luminance and chroma, and the
	// patch and search window sizes in pixels (odd).
	DenoiseH       float64
	DenoiseHColor  float64
	TemplateWindow int
	SearchWindow   int

	// Scale is the upscale factor. When MinHeight is positive and the input
	// is shorter than MinHeight, the factor becomes MinHeight/height instead.
	Scale     float64
	MinHeight int

	// CLAHE on the Lab L channel.
	ClipLimit float64
	TileGrid  int

	Sharpen SharpenMode
	// SharpenBlend is the weight of the kernel-sharpened image; the
	// unsharpened image gets 1-SharpenBlend.
	SharpenBlend float64
	// UnsharpAmount and UnsharpSigma give out = amount*img + (1-amount)*blur.
	UnsharpAmount float64
	UnsharpSigma  float64
}

// DefaultParams returns the standard full-frame enhancement.
func DefaultParams() Params {
	return Params{
		DenoiseH:       10,
		DenoiseHColor:  10,
		TemplateWindow: 7,
		SearchWindow:   21,
		Scale:          2,
		ClipLimit:      2.0,
		TileGrid:       8,
		Sharpen:        SharpenKernel,
		SharpenBlend:   0.3,
	}
}

// AggressiveParams returns the stronger enhancement used on plate crops.
func AggressiveParams() Params {
	return Params{
		DenoiseH:       15,
		DenoiseHColor:  15,
		TemplateWindow: 7,
		SearchWindow:   21,
		Scale:          2,
		MinHeight:      150,
		ClipLimit:      3.0,
		TileGrid:       4,
		Sharpen:        SharpenUnsharp,
		UnsharpAmount:  1.5,
		UnsharpSigma:   3,
	}
}

// scaledSize returns the output size for an input of w x h.
func (p Params) scaledSize(w, h int) (int, int) {
	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}
	if p.MinHeight > 0 && h < p.MinHeight {
		scale = float64(p.MinHeight) / float64(h)
		return int(math.Round(float64(w) * scale)), p.MinHeight
	}
	return int(float64(w) * scale), int(float64(h) * scale)
}
