package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/lucasb-eyer/go-colorful"
)

// Planes holds an image split into three float channels, row-major.
//
// The channel meaning depends on the constructor: ToLab stores L, a, b scaled
// to the 8-bit OpenCV convention (L in [0,255], a and b offset by 128), ToHSV
// stores hue in degrees, saturation in [0,1] and value in [0,255].
type Planes struct {
	Width  int
	Height int
	C      [3][]float64
}

func newPlanes(w, h int) *Planes {
	p := &Planes{Width: w, Height: h}
	for i := range p.C {
		p.C[i] = make([]float64, w*h)
	}
	return p
}

// Clone returns a deep copy of p.
func (p *Planes) Clone() *Planes {
	q := &Planes{Width: p.Width, Height: p.Height}
	for i := range p.C {
		q.C[i] = append([]float64(nil), p.C[i]...)
	}
	return q
}

// ToLab converts img to Lab planes. A nil or empty image returns nil.
func ToLab(img image.Image) *Planes {
	return split(img, func(c colorful.Color) (float64, float64, float64) {
		l, a, b := c.Lab()
		return l * 255, a*100 + 128, b*100 + 128
	})
}

// FromLab converts Lab planes produced by ToLab back to an opaque image.
func FromLab(p *Planes) *image.NRGBA {
	return join(p, func(l, a, b float64) colorful.Color {
		return colorful.Lab(l/255, (a-128)/100, (b-128)/100)
	})
}

// ToHSV converts img to HSV planes. A nil or empty image returns nil.
func ToHSV(img image.Image) *Planes {
	return split(img, func(c colorful.Color) (float64, float64, float64) {
		h, s, v := c.Hsv()
		return h, s, v * 255
	})
}

// FromHSV converts HSV planes produced by ToHSV back to an opaque image.
func FromHSV(p *Planes) *image.NRGBA {
	return join(p, func(h, s, v float64) colorful.Color {
		return colorful.Hsv(h, s, v/255)
	})
}

// ToGray returns the 8-bit luma plane of img.
func ToGray(img image.Image) []float64 {
	if IsEmpty(img) {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				out[y*w+x] = float64(g.Y)
			}
		}
	})
	return out
}

// Clamp255 bounds v to [0,255].
func Clamp255(v float64) float64 {
	return math.Max(0, math.Min(255, v))
}

func split(img image.Image, conv func(colorful.Color) (float64, float64, float64)) *Planes {
	if IsEmpty(img) {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	p := newPlanes(w, h)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				c0, c1, c2 := conv(toColorful(img.At(b.Min.X+x, b.Min.Y+y)))
				i := y*w + x
				p.C[0][i], p.C[1][i], p.C[2][i] = c0, c1, c2
			}
		}
	})
	return p
}

func join(p *Planes, conv func(float64, float64, float64) colorful.Color) *image.NRGBA {
	if p == nil || p.Width == 0 || p.Height == 0 {
		return nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))

	parallel.Line(p.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < p.Width; x++ {
				i := y*p.Width + x
				r, g, bl := conv(p.C[0][i], p.C[1][i], p.C[2][i]).Clamped().RGB255()
				o := dst.PixOffset(x, y)
				dst.Pix[o+0] = r
				dst.Pix[o+1] = g
				dst.Pix[o+2] = bl
				dst.Pix[o+3] = 0xff
			}
		}
	})
	return dst
}

// toColorful ignores alpha. colorful.MakeColor refuses fully transparent
// pixels, so the conversion goes through NRGBA instead.
func toColorful(c color.Color) colorful.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return colorful.Color{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
	}
}
