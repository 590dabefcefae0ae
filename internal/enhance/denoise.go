package enhance

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/plate-reader/internal/imaging"
)

// denoiseColored applies non-local means to img in Lab space. The L plane is
// filtered with strength h and the a/b planes with hColor.
func denoiseColored(img image.Image, h, hColor float64, template, search int) *image.NRGBA {
	lab := imaging.ToLab(img)
	if lab == nil {
		return nil
	}
	if h > 0 {
		lab.C[0] = nlMeans(lab.C[0], lab.Width, lab.Height, h, template, search)
	}
	if hColor > 0 {
		lab.C[1] = nlMeans(lab.C[1], lab.Width, lab.Height, hColor, template, search)
		lab.C[2] = nlMeans(lab.C[2], lab.Width, lab.Height, hColor, template, search)
	}
	return imaging.FromLab(lab)
}

// nlMeans denoises a single plane. For every offset in the search window the
// squared difference plane is box-summed over the template window with an
// integral image, so the cost per offset is linear in the pixel count.
func nlMeans(src []float64, w, h int, strength float64, template, search int) []float64 {
	tr := template / 2
	sr := search / 2
	n := w * h
	h2 := strength * strength

	acc := make([]float64, n)
	wsum := make([]float64, n)
	diff := make([]float64, n)
	integral := make([]float64, (w+1)*(h+1))

	for dy := -sr; dy <= sr; dy++ {
		for dx := -sr; dx <= sr; dx++ {
			parallel.Line(h, func(start, end int) {
				for y := start; y < end; y++ {
					ny := clampInt(y+dy, 0, h-1)
					for x := 0; x < w; x++ {
						nx := clampInt(x+dx, 0, w-1)
						d := src[y*w+x] - src[ny*w+nx]
						diff[y*w+x] = d * d
					}
				}
			})

			buildIntegral(diff, integral, w, h)

			parallel.Line(h, func(start, end int) {
				for y := start; y < end; y++ {
					y0, y1 := clampInt(y-tr, 0, h-1), clampInt(y+tr, 0, h-1)
					ny := clampInt(y+dy, 0, h-1)
					for x := 0; x < w; x++ {
						x0, x1 := clampInt(x-tr, 0, w-1), clampInt(x+tr, 0, w-1)
						area := float64((x1 - x0 + 1) * (y1 - y0 + 1))
						dist := boxSum(integral, w, x0, y0, x1, y1) / area
						wt := math.Exp(-dist / h2)

						nx := clampInt(x+dx, 0, w-1)
						i := y*w + x
						acc[i] += wt * src[ny*w+nx]
						wsum[i] += wt
					}
				}
			})
		}
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = acc[i] / wsum[i]
	}
	return out
}

// buildIntegral fills integral with the summed-area table of plane, using a
// (w+1)x(h+1) layout with a zero first row and column.
func buildIntegral(plane, integral []float64, w, h int) {
	stride := w + 1
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += plane[y*w+x]
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + row
		}
	}
}

// boxSum returns the sum over the inclusive rectangle (x0,y0)-(x1,y1).
func boxSum(integral []float64, w, x0, y0, x1, y1 int) float64 {
	stride := w + 1
	return integral[(y1+1)*stride+x1+1] -
		integral[y0*stride+x1+1] -
		integral[(y1+1)*stride+x0] +
		integral[y0*stride+x0]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
