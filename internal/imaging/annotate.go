package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultBoxColor is used when a box colour is empty or cannot be parsed.
const DefaultBoxColor = "#00FF00"

// Box is a labelled rectangle to draw on an image.
type Box struct {
	Rect  image.Rectangle
	Label string
	// Color is a hex colour such as "#FF0000". Empty selects DefaultBoxColor.
	Color string
}

// Annotate draws box outlines and their labels onto a copy of img.
//
// Labels are rendered with the 7x13 bitmap face above the box, or inside it
// when the box touches the top edge. Boxes are clamped to the image bounds.
func Annotate(img image.Image, boxes []Box, thickness int) *image.NRGBA {
	if IsEmpty(img) {
		return nil
	}
	if thickness < 1 {
		thickness = 1
	}

	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	for _, box := range boxes {
		r := box.Rect.Canon().Intersect(dst.Bounds())
		if r.Empty() {
			continue
		}
		c := parseBoxColor(box.Color)
		strokeRect(dst, r, thickness, c)
		if box.Label != "" {
			drawLabel(dst, r.Min.X, r.Min.Y, box.Label, c)
		}
	}
	return dst
}

func parseBoxColor(hex string) color.NRGBA {
	if hex == "" {
		hex = DefaultBoxColor
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(DefaultBoxColor)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func strokeRect(dst *image.NRGBA, r image.Rectangle, t int, c color.NRGBA) {
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), u, image.Point{}, draw.Src)
	}
}

// drawLabel renders text on a filled background whose colour is bg, with
// black or white glyphs depending on the background brightness.
func drawLabel(dst *image.NRGBA, x, y int, text string, bg color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	width := d.MeasureString(text).Ceil() + 4
	height := face.Height + 2

	top := y - height
	if top < dst.Bounds().Min.Y {
		top = y
	}
	label := image.Rect(x, top, x+width, top+height).Intersect(dst.Bounds())
	draw.Draw(dst, label, image.NewUniform(bg), image.Point{}, draw.Src)

	fg := image.Black
	if l, _, _ := toColorful(bg).Lab(); l < 0.5 {
		fg = image.White
	}
	d.Dst = dst
	d.Src = fg
	d.Dot = fixed.P(x+2, top+face.Ascent+1)
	d.DrawString(text)
}

// BoxLabel formats a detection label with its confidence.
func BoxLabel(label string, confidence float64) string {
	if label == "" {
		return fmt.Sprintf("%.2f", confidence)
	}
	return fmt.Sprintf("%s %.2f", label, confidence)
}
