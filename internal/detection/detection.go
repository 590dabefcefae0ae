package detection

import (
	"context"
	"image"
	"math"
)

// Detection is one labelled box reported by a Detector.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	// X and Y are the box centre.
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the corner form of the box, truncating towards zero.
func (d Detection) Rect() image.Rectangle {
	return image.Rect(
		int(d.X-d.Width/2),
		int(d.Y-d.Height/2),
		int(d.X+d.Width/2),
		int(d.Y+d.Height/2),
	)
}

// FromRect builds a Detection from corner coordinates.
func FromRect(label string, confidence float64, r image.Rectangle) Detection {
	r = r.Canon()
	return Detection{
		Label:      label,
		Confidence: confidence,
		X:          float64(r.Min.X+r.Max.X) / 2,
		Y:          float64(r.Min.Y+r.Max.Y) / 2,
		Width:      float64(r.Dx()),
		Height:     float64(r.Dy()),
	}
}

// Detector finds labelled boxes in an image.
//
// Implementations must not modify img and must return detections in a
// deterministic order for identical input. Coordinates are relative to
// img.Bounds().Min, so a sub-image's top-left corner is (0,0).
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// Func adapts an ordinary function to the Detector interface.
type Func func(ctx context.Context, img image.Image) ([]Detection, error)

// Detect calls f(ctx, img).
func (f Func) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	return f(ctx, img)
}

// IoU returns the intersection over union of two detections' boxes.
func IoU(a, b Detection) float64 {
	ax1, ay1 := a.X-a.Width/2, a.Y-a.Height/2
	ax2, ay2 := a.X+a.Width/2, a.Y+a.Height/2
	bx1, by1 := b.X-b.Width/2, b.Y-b.Height/2
	bx2, by2 := b.X+b.Width/2, b.Y+b.Height/2

	iw := math.Min(ax2, bx2) - math.Max(ax1, bx1)
	ih := math.Min(ay2, by2) - math.Max(ay1, by1)
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := a.Width*a.Height + b.Width*b.Height - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
