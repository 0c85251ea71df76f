package face

import (
	"image"
	"math"
)

// LBP descriptor layout: the crop is divided into a gridX x gridY grid and
// each cell contributes a normalized 256-bin histogram of 8-neighbor local
// binary patterns. Distances between descriptors use the chi-square
// statistic, which is the standard comparison for LBP histograms.
const (
	gridX = 8
	gridY = 8
	bins  = 256
)

// Describe computes the LBP histogram descriptor of a normalized crop.
func Describe(img *image.Gray) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	desc := make([]float32, gridX*gridY*bins)
	if w < 3 || h < 3 {
		return desc
	}

	cellW := w / gridX
	cellH := h / gridY
	counts := make([]int, gridX*gridY)

	// Border pixels have no full 8-neighborhood and are skipped.
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			code := lbpCode(img, b.Min.X+x, b.Min.Y+y)

			cx := min(x/cellW, gridX-1)
			cy := min(y/cellH, gridY-1)
			cell := cy*gridX + cx
			desc[cell*bins+int(code)]++
			counts[cell]++
		}
	}

	// Normalize each cell histogram so crops of any size compare equally.
	for cell, n := range counts {
		if n == 0 {
			continue
		}
		inv := float32(1) / float32(n)
		for i := cell * bins; i < (cell+1)*bins; i++ {
			desc[i] *= inv
		}
	}
	return desc
}

// lbpCode computes the 8-neighbor local binary pattern at (x, y),
// clockwise from the top-left neighbor.
func lbpCode(img *image.Gray, x, y int) uint8 {
	c := img.GrayAt(x, y).Y
	var code uint8
	if img.GrayAt(x-1, y-1).Y >= c {
		code |= 1 << 7
	}
	if img.GrayAt(x, y-1).Y >= c {
		code |= 1 << 6
	}
	if img.GrayAt(x+1, y-1).Y >= c {
		code |= 1 << 5
	}
	if img.GrayAt(x+1, y).Y >= c {
		code |= 1 << 4
	}
	if img.GrayAt(x+1, y+1).Y >= c {
		code |= 1 << 3
	}
	if img.GrayAt(x, y+1).Y >= c {
		code |= 1 << 2
	}
	if img.GrayAt(x-1, y+1).Y >= c {
		code |= 1 << 1
	}
	if img.GrayAt(x-1, y).Y >= c {
		code |= 1
	}
	return code
}

// chiSquare computes the chi-square distance between two descriptors.
// Identical descriptors score 0; descriptors with disjoint pattern
// distributions score up to 2 per grid cell.
func chiSquare(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		s := float64(a[i]) + float64(b[i])
		if s <= 0 {
			continue
		}
		d := float64(a[i]) - float64(b[i])
		sum += d * d / s
	}
	return sum
}
