package enhance

import (
	"image"
	"math"
	"sync"

	"github.com/ironsheep/plate-reader/internal/imaging"
)

// Variant names, in generation order.
const (
	VariantStandard     = "standard"
	VariantHighContrast = "high-contrast"
	VariantBrightened   = "brightened"
	VariantDarkened     = "darkened"
)

// DefaultBrightnessOffset is added to or subtracted from the HSV value channel.
const DefaultBrightnessOffset = 30

// Variant is one enhanced view of a plate crop.
type Variant struct {
	Name  string
	Image image.Image
}

// Variants produces the four views fed to the character detector.
type Variants struct {
	Enhancer Enhancer
	// Aggressive bases the views on EnhanceAggressive instead of Enhance.
	Aggressive bool
	// Offset is the brightness shift in value units out of 255.
	Offset float64
}

// NewVariants returns a generator using e with the default brightness offset.
func NewVariants(e Enhancer) *Variants {
	return &Variants{Enhancer: e, Offset: DefaultBrightnessOffset}
}

// Generate returns exactly four variants in the order standard,
// high-contrast, brightened, darkened. A nil or empty input returns nil.
//
// The three derived views are computed concurrently from the shared base
// image, which none of them modifies.
func (v *Variants) Generate(img image.Image) []Variant {
	if imaging.IsEmpty(img) {
		return nil
	}

	var base image.Image
	if v.Aggressive {
		base = v.Enhancer.EnhanceAggressive(img)
	} else {
		base = v.Enhancer.Enhance(img)
	}
	if imaging.IsEmpty(base) {
		return nil
	}

	out := []Variant{
		{Name: VariantStandard, Image: base},
		{Name: VariantHighContrast},
		{Name: VariantBrightened},
		{Name: VariantDarkened},
	}

	var wg sync.WaitGroup
	derive := func(i int, fn func(image.Image) image.Image) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i].Image = fn(base)
		}()
	}
	derive(1, HighContrast)
	derive(2, func(src image.Image) image.Image { return ShiftBrightness(src, v.Offset) })
	derive(3, func(src image.Image) image.Image { return ShiftBrightness(src, -v.Offset) })
	wg.Wait()

	return out
}

// HighContrast stretches the Lab L channel to the full [0,255] range.
// A flat L channel is returned unchanged.
func HighContrast(img image.Image) image.Image {
	lab := imaging.ToLab(img)
	if lab == nil {
		return img
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range lab.C[0] {
		lo = math.Min(lo, l)
		hi = math.Max(hi, l)
	}
	if hi-lo > 1e-9 {
		k := 255 / (hi - lo)
		for i, l := range lab.C[0] {
			lab.C[0][i] = (l - lo) * k
		}
	}
	return imaging.FromLab(lab)
}

// ShiftBrightness adds offset to the HSV value channel, clipping to [0,255].
func ShiftBrightness(img image.Image, offset float64) image.Image {
	hsv := imaging.ToHSV(img)
	if hsv == nil {
		return img
	}
	for i, val := range hsv.C[2] {
		hsv.C[2][i] = imaging.Clamp255(val + offset)
	}
	return imaging.FromHSV(hsv)
}
