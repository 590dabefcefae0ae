package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.RGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestToLab_KnownColors(t *testing.T) {
	tests := []struct {
		name  string
		c     color.Color
		wantL float64
	}{
		{"black", color.RGBA{0, 0, 0, 255}, 0},
		{"white", color.RGBA{255, 255, 255, 255}, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ToLab(createInMemoryImage(2, 2, tt.c))
			if p == nil {
				t.Fatal("ToLab returned nil")
			}
			if math.Abs(p.C[0][0]-tt.wantL) > 1 {
				t.Errorf("L: got %.2f, want %.2f", p.C[0][0], tt.wantL)
			}
			// Neutral colours sit on the 128 offset for a and b.
			if math.Abs(p.C[1][0]-128) > 1 || math.Abs(p.C[2][0]-128) > 1 {
				t.Errorf("a,b: got %.2f,%.2f, want ~128", p.C[1][0], p.C[2][0])
			}
		})
	}
}

func TestLabRoundTrip(t *testing.T) {
	img := createPatternImage(10, 10)
	out := FromLab(ToLab(img))

	if out.Bounds().Dx() != 10 || out.Bounds().Dy() != 10 {
		t.Fatalf("dimensions: got %v", out.Bounds())
	}

	for _, pt := range []image.Point{{2, 2}, {7, 2}, {2, 7}, {7, 7}} {
		r0, g0, b0 := rgb8(img.At(pt.X, pt.Y))
		r1, g1, b1 := rgb8(out.At(pt.X, pt.Y))
		if absInt(int(r0)-int(r1)) > 2 || absInt(int(g0)-int(g1)) > 2 || absInt(int(b0)-int(b1)) > 2 {
			t.Errorf("at %v: got (%d,%d,%d), want (%d,%d,%d)", pt, r1, g1, b1, r0, g0, b0)
		}
	}
}

func TestHSVRoundTrip(t *testing.T) {
	img := createInMemoryImage(4, 4, color.RGBA{200, 120, 40, 255})
	p := ToHSV(img)

	if math.Abs(p.C[2][0]-200) > 0.5 {
		t.Errorf("V: got %.2f, want 200", p.C[2][0])
	}

	r, g, b := rgb8(FromHSV(p).At(1, 1))
	if absInt(int(r)-200) > 1 || absInt(int(g)-120) > 1 || absInt(int(b)-40) > 1 {
		t.Errorf("round trip: got (%d,%d,%d), want (200,120,40)", r, g, b)
	}
}

func TestToLab_DoesNotMutateInput(t *testing.T) {
	img := createPatternImage(6, 6)
	before := append([]uint8(nil), img.Pix...)

	p := ToLab(img)
	for i := range p.C[0] {
		p.C[0][i] = 0
	}
	_ = FromLab(p)

	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatal("input image was modified")
		}
	}
}

func TestPlanes_EmptyInput(t *testing.T) {
	if ToLab(nil) != nil {
		t.Error("ToLab(nil) should be nil")
	}
	if ToHSV(image.NewRGBA(image.Rect(0, 0, 0, 5))) != nil {
		t.Error("ToHSV of zero-width image should be nil")
	}
	if FromLab(nil) != nil {
		t.Error("FromLab(nil) should be nil")
	}
	if ToGray(nil) != nil {
		t.Error("ToGray(nil) should be nil")
	}
}

func TestPlanes_Clone(t *testing.T) {
	p := ToLab(createInMemoryImage(3, 3, color.RGBA{10, 20, 30, 255}))
	q := p.Clone()
	q.C[0][0] = -1
	if p.C[0][0] == -1 {
		t.Error("Clone shares storage with the original")
	}
}

func TestToGray(t *testing.T) {
	g := ToGray(createInMemoryImage(3, 2, color.RGBA{255, 255, 255, 255}))
	if len(g) != 6 {
		t.Fatalf("len: got %d, want 6", len(g))
	}
	if g[5] != 255 {
		t.Errorf("white luma: got %v, want 255", g[5])
	}
}

func TestClamp255(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-5, 0}, {0, 0}, {128.5, 128.5}, {300, 255},
	}
	for _, tt := range tests {
		if got := Clamp255(tt.in); got != tt.want {
			t.Errorf("Clamp255(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
