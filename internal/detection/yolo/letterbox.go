package yolo

import (
	"image"
	"math"
	"strconv"

	"github.com/nfnt/resize"

	"github.com/ironsheep/plate-reader/internal/detection"
)

const padValue = 114.0 / 255.0

// letterbox describes how an image was fitted into the square model input.
type letterbox struct {
	scale      float64
	padX, padY int
	srcW, srcH int
}

// newLetterbox computes the fit of a w x h image into size x size.
func newLetterbox(w, h, size int) letterbox {
	r := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	newW := minInt(int(math.Round(float64(w)*r)), size)
	newH := minInt(int(math.Round(float64(h)*r)), size)
	return letterbox{
		scale: r,
		padX:  (size - newW) / 2,
		padY:  (size - newH) / 2,
		srcW:  w,
		srcH:  h,
	}
}

// tensor renders img into a CHW float32 buffer of size x size.
func (lb letterbox) tensor(img image.Image, size int) []float32 {
	newW := minInt(int(math.Round(float64(lb.srcW)*lb.scale)), size)
	newH := minInt(int(math.Round(float64(lb.srcH)*lb.scale)), size)
	resized := resize.Resize(uint(newW), uint(newH), img, resize.Bilinear)

	plane := size * size
	data := make([]float32, 3*plane)
	for i := range data {
		data[i] = padValue
	}

	b := resized.Bounds()
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			r, g, bl, _ := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			idx := (y+lb.padY)*size + x + lb.padX
			data[idx] = float32(r>>8) / 255
			data[plane+idx] = float32(g>>8) / 255
			data[2*plane+idx] = float32(bl>>8) / 255
		}
	}
	return data
}

// decode converts raw [4+C, N] output rows into detections in source image
// coordinates, keeping those whose best class score reaches minScore.
func (lb letterbox) decode(out []float32, classes, anchors int, names []string, minScore float64) []detection.Detection {
	var dets []detection.Detection
	for i := 0; i < anchors; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < classes; c++ {
			if s := out[(4+c)*anchors+i]; s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || float64(bestScore) < minScore {
			continue
		}

		cx := (float64(out[i]) - float64(lb.padX)) / lb.scale
		cy := (float64(out[anchors+i]) - float64(lb.padY)) / lb.scale
		w := float64(out[2*anchors+i]) / lb.scale
		h := float64(out[3*anchors+i]) / lb.scale

		dets = append(dets, lb.clip(detection.Detection{
			Label:      className(names, best),
			Confidence: float64(bestScore),
			X:          cx,
			Y:          cy,
			Width:      w,
			Height:     h,
		}))
	}
	return dets
}

// clip trims a box to the source image.
func (lb letterbox) clip(d detection.Detection) detection.Detection {
	x1 := math.Max(0, d.X-d.Width/2)
	y1 := math.Max(0, d.Y-d.Height/2)
	x2 := math.Min(float64(lb.srcW), d.X+d.Width/2)
	y2 := math.Min(float64(lb.srcH), d.Y+d.Height/2)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	d.X, d.Y = (x1+x2)/2, (y1+y2)/2
	d.Width, d.Height = x2-x1, y2-y1
	return d
}

func className(names []string, idx int) string {
	if idx >= 0 && idx < len(names) {
		return names[idx]
	}
	return "class_" + strconv.Itoa(idx)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
