package recognition

import (
	"context"
	"image"

	"github.com/ironsheep/plate-reader/internal/detection"
	"github.com/ironsheep/plate-reader/internal/imaging"
)

// Localizer defaults.
const (
	DefaultRegionThreshold = 0.5
	DefaultRegionPadding   = 50
)

// Region is a candidate plate area cropped out of the located image.
type Region struct {
	// Bounds is the padded box in the located image's coordinates, starting
	// at (0,0) whatever the image's own origin.
	Bounds     image.Rectangle
	Confidence float64
	Label      string
	Image      image.Image
}

// Localizer finds plate regions with a Detector and crops them with padding.
type Localizer struct {
	Detector detection.Detector
	// Threshold is exclusive: a detection must score strictly above it.
	Threshold float64
	Padding   int
	// PlateLabels restricts which labels count as plates. Empty accepts all.
	PlateLabels []string
}

// NewLocalizer returns a Localizer with the default threshold and padding.
func NewLocalizer(d detection.Detector) *Localizer {
	return &Localizer{
		Detector:  d,
		Threshold: DefaultRegionThreshold,
		Padding:   DefaultRegionPadding,
	}
}

// Locate returns every accepted region in detector order.
//
// A nil or empty image yields no regions without consulting the detector.
func (l *Localizer) Locate(ctx context.Context, img image.Image) ([]Region, error) {
	if imaging.IsEmpty(img) {
		return nil, nil
	}

	dets, err := l.Detector.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	frame := image.Rect(0, 0, b.Dx(), b.Dy())

	var regions []Region
	for _, d := range dets {
		if d.Confidence <= l.Threshold || !l.isPlate(d.Label) {
			continue
		}
		r := imaging.PadClamp(d.Rect(), l.Padding, frame)
		if r.Empty() {
			continue
		}
		crop := imaging.CropRect(img, r.Add(b.Min))
		if crop == nil {
			continue
		}
		regions = append(regions, Region{
			Bounds:     r,
			Confidence: d.Confidence,
			Label:      d.Label,
			Image:      crop,
		})
	}
	return regions, nil
}

func (l *Localizer) isPlate(label string) bool {
	if len(l.PlateLabels) == 0 {
		return true
	}
	for _, p := range l.PlateLabels {
		if p == label {
			return true
		}
	}
	return false
}

// Best returns the most confident region, the earliest one on ties.
func Best(regions []Region) (Region, bool) {
	idx := bestIndex(regions)
	if idx < 0 {
		return Region{}, false
	}
	return regions[idx], true
}

func bestIndex(regions []Region) int {
	best := -1
	for i, r := range regions {
		if best < 0 || r.Confidence > regions[best].Confidence {
			best = i
		}
	}
	return best
}
