package enhance

import (
	"image"

	"github.com/disintegration/imaging"

	pimaging "github.com/ironsheep/plate-reader/internal/imaging"
)

// Enhancer improves image legibility before detection.
//
// Both methods return a new image and never modify their input. A nil input
// yields nil; a zero-size input is returned unchanged.
type Enhancer interface {
	// Enhance is the standard mode used on full frames.
	Enhance(img image.Image) image.Image
	// EnhanceAggressive is the stronger mode used on small plate crops.
	EnhanceAggressive(img image.Image) image.Image
}

// Native is the pure Go Enhancer.
//
// Its non-local means denoise is slow on full frames (seconds for 640x480 on
// one core). Builds that enhance whole camera frames should use the opencv
// build tag and NewOpenCV.
type Native struct {
	Standard   Params
	Aggressive Params
}

// New returns a Native enhancer with the default parameter sets.
func New() *Native {
	return &Native{
		Standard:   DefaultParams(),
		Aggressive: AggressiveParams(),
	}
}

// Enhance runs denoise, 2x upscale, CLAHE and kernel sharpening.
func (n *Native) Enhance(img image.Image) image.Image {
	return n.Apply(img, n.Standard)
}

// EnhanceAggressive runs the aggressive parameter set.
func (n *Native) EnhanceAggressive(img image.Image) image.Image {
	return n.Apply(img, n.Aggressive)
}

// Apply runs the enhancement pipeline with explicit parameters.
func (n *Native) Apply(img image.Image, p Params) image.Image {
	if img == nil {
		return nil
	}
	if pimaging.IsEmpty(img) {
		return img
	}

	denoised := denoiseColored(img, p.DenoiseH, p.DenoiseHColor, p.TemplateWindow, p.SearchWindow)

	b := denoised.Bounds()
	w, h := p.scaledSize(b.Dx(), b.Dy())
	upscaled := imaging.Resize(denoised, w, h, imaging.CatmullRom)

	contrasted := equalizeLuminance(upscaled, p.ClipLimit, p.TileGrid)

	switch p.Sharpen {
	case SharpenUnsharp:
		return unsharpMask(contrasted, p.UnsharpAmount, p.UnsharpSigma)
	default:
		return sharpenKernel(contrasted, p.SharpenBlend)
	}
}

// equalizeLuminance applies CLAHE to the Lab L channel only.
func equalizeLuminance(img image.Image, clipLimit float64, grid int) *image.NRGBA {
	lab := pimaging.ToLab(img)
	lab.C[0] = clahe(lab.C[0], lab.Width, lab.Height, clipLimit, grid)
	return pimaging.FromLab(lab)
}
