package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage carries a PNG encoded image for JSON transports.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// PadClamp grows r by pad pixels on every side and clamps the result to bounds.
//
// The returned rectangle may be empty when r lies entirely outside bounds.
func PadClamp(r image.Rectangle, pad int, bounds image.Rectangle) image.Rectangle {
	if pad > 0 {
		r = r.Inset(-pad)
	}
	return r.Canon().Intersect(bounds)
}

// CropRect copies the pixels of r out of img into a new image anchored at (0,0).
//
// r is clamped to the image bounds first. A nil image or an empty intersection
// yields nil.
func CropRect(img image.Image, r image.Rectangle) *image.NRGBA {
	if IsEmpty(img) {
		return nil
	}
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}
	return imaging.Crop(img, r)
}

// Crop extracts the rectangle (x1,y1)-(x2,y2) from img, optionally rescaling it.
//
// Unlike CropRect, out of range coordinates are an error rather than clamped,
// because they come straight from tool arguments.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*EncodedImage, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return EncodePNG(cropped)
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	if IsEmpty(img) {
		return nil, fmt.Errorf("failed to encode image: %w", ErrEmptyImage)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SaveJPEG writes img to path as JPEG, creating or truncating the file.
func SaveJPEG(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
