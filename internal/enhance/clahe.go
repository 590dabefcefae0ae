package enhance

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

const histBins = 256

// clahe applies contrast limited adaptive histogram equalization to an 8-bit
// valued plane. The plane is split into grid x grid tiles; each tile gets a
// clipped-histogram lookup table and pixels are mapped by bilinear
// interpolation between the four nearest tile centres.
func clahe(src []float64, w, h int, clipLimit float64, grid int) []float64 {
	if w == 0 || h == 0 {
		return nil
	}
	gx, gy := minInt(grid, w), minInt(grid, h)
	if gx < 1 {
		gx = 1
	}
	if gy < 1 {
		gy = 1
	}
	tileW := (w + gx - 1) / gx
	tileH := (h + gy - 1) / gy
	// Rounding the tile size up can leave trailing tiles empty; drop them.
	gx = (w + tileW - 1) / tileW
	gy = (h + tileH - 1) / tileH

	luts := make([][histBins]float64, gx*gy)
	for ty := 0; ty < gy; ty++ {
		for tx := 0; tx < gx; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := minInt(x0+tileW, w), minInt(y0+tileH, h)
			luts[ty*gx+tx] = tileLUT(src, w, x0, y0, x1, y1, clipLimit)
		}
	}

	out := make([]float64, len(src))
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			fy := (float64(y)+0.5)/float64(tileH) - 0.5
			ty0 := clampInt(int(math.Floor(fy)), 0, gy-1)
			ty1 := clampInt(ty0+1, 0, gy-1)
			wy := clampFloat(fy-float64(ty0), 0, 1)

			for x := 0; x < w; x++ {
				fx := (float64(x)+0.5)/float64(tileW) - 0.5
				tx0 := clampInt(int(math.Floor(fx)), 0, gx-1)
				tx1 := clampInt(tx0+1, 0, gx-1)
				wx := clampFloat(fx-float64(tx0), 0, 1)

				bin := toBin(src[y*w+x])
				top := (1-wx)*luts[ty0*gx+tx0][bin] + wx*luts[ty0*gx+tx1][bin]
				bottom := (1-wx)*luts[ty1*gx+tx0][bin] + wx*luts[ty1*gx+tx1][bin]
				out[y*w+x] = (1-wy)*top + wy*bottom
			}
		}
	})
	return out
}

// tileLUT builds the equalization table for one tile. Histogram counts above
// the clip limit are cut and redistributed evenly over all bins.
func tileLUT(src []float64, w, x0, y0, x1, y1 int, clipLimit float64) [histBins]float64 {
	var hist [histBins]int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[toBin(src[y*w+x])]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	var lut [histBins]float64
	if area == 0 {
		for i := range lut {
			lut[i] = float64(i)
		}
		return lut
	}

	if clipLimit > 0 {
		limit := int(clipLimit * float64(area) / histBins)
		if limit < 1 {
			limit = 1
		}
		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		perBin, rem := excess/histBins, excess%histBins
		for i := range hist {
			hist[i] += perBin
			if i < rem {
				hist[i]++
			}
		}
	}

	scale := float64(histBins-1) / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = math.Min(255, float64(sum)*scale)
	}
	return lut
}

func toBin(v float64) int {
	return clampInt(int(math.Round(v)), 0, histBins-1)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
