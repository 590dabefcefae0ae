// Package tesseract adapts the Tesseract OCR engine to detection.Detector.
//
// Every recognised symbol becomes one Detection labelled with its text, so
// the character assembler can treat Tesseract like a glyph detector. Plate
// regions can be found by configuring a Plate label, which reports each text
// line as a box with that label instead.
//
// # Prerequisites
//
// Tesseract and the language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-ara libtesseract-dev
//   - macOS: brew install tesseract tesseract-lang
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/plate-reader/internal/detection"
)

// Options configure a Detector.
type Options struct {
	// Language is a Tesseract language code such as "ara" or "ara+eng".
	Language string
	// TessdataPrefix overrides the tessdata directory.
	TessdataPrefix string
	// Whitelist restricts recognised characters when non-empty.
	Whitelist string
	// Plate switches to line-level boxes all labelled with this value.
	Plate string
}

// Detector runs Tesseract once per Detect call. A new client is created for
// every call, so a Detector is safe for concurrent use.
type Detector struct {
	opts Options
}

var _ detection.Detector = (*Detector)(nil)

// New returns a Detector. Language defaults to "ara".
func New(opts Options) *Detector {
	if opts.Language == "" {
		opts.Language = "ara"
	}
	return &Detector{opts: opts}
}

// Detect returns one detection per recognised symbol (or line in plate mode)
// with confidence rescaled to [0,1].
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]detection.Detection, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if d.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(d.opts.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(d.opts.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if d.opts.Whitelist != "" {
		if err := client.SetWhitelist(d.opts.Whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	level := gosseract.RIL_SYMBOL
	if d.opts.Plate != "" {
		level = gosseract.RIL_TEXTLINE
	}
	boxes, err := client.GetBoundingBoxes(level)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	return toDetections(boxes, d.opts.Plate), nil
}

// toDetections converts Tesseract boxes, which are relative to the encoded
// image's top-left corner, into detections. Blank words are dropped and a
// non-empty plate replaces every label.
func toDetections(boxes []gosseract.BoundingBox, plate string) []detection.Detection {
	dets := make([]detection.Detection, 0, len(boxes))
	for _, box := range boxes {
		label := strings.TrimSpace(box.Word)
		if label == "" {
			continue
		}
		if plate != "" {
			label = plate
		}
		dets = append(dets, detection.FromRect(label, box.Confidence/100.0, box.Box))
	}
	return dets
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
