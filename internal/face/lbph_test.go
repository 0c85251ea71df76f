package face

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// rampImage has strictly increasing intensity along x (with a wrap every
// ~85 columns), so almost every pixel produces the same non-flat LBP
// code. Its descriptor shares essentially no bins with a flat image.
func rampImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x * 3) % 251)})
		}
	}
	return img
}

// flatImage is a uniform gray image; every interior pixel yields LBP
// code 255 (all neighbors equal the center).
func flatImage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// noiseImage fills pixels from a deterministic LCG so tests are stable.
func noiseImage(w, h int, seed uint32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	state := seed
	for i := range img.Pix {
		state = state*1664525 + 1013904223
		img.Pix[i] = uint8(state >> 24)
	}
	return img
}

func TestDescribeDeterministic(t *testing.T) {
	img := rampImage(Size, Size)
	a := Describe(img)
	b := Describe(img)

	if len(a) != gridX*gridY*bins {
		t.Fatalf("descriptor length = %d, want %d", len(a), gridX*gridY*bins)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("descriptor not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestDescribeNormalized(t *testing.T) {
	desc := Describe(noiseImage(Size, Size, 42))

	// Each cell histogram sums to ~1.
	for cell := 0; cell < gridX*gridY; cell++ {
		var sum float64
		for i := cell * bins; i < (cell+1)*bins; i++ {
			sum += float64(desc[i])
		}
		if math.Abs(sum-1) > 0.01 {
			t.Fatalf("cell %d histogram sums to %v, want 1", cell, sum)
		}
	}
}

func TestChiSquare(t *testing.T) {
	ramp := Describe(rampImage(Size, Size))
	flat := Describe(flatImage(Size, Size, 128))

	if d := chiSquare(ramp, ramp); d != 0 {
		t.Errorf("chiSquare(x, x) = %v, want 0", d)
	}

	// Disjoint pattern distributions score ~2 per grid cell.
	if d := chiSquare(ramp, flat); d < 100 {
		t.Errorf("chiSquare(ramp, flat) = %v, want >= 100", d)
	}

	if d := chiSquare(ramp, nil); !math.IsInf(d, 1) {
		t.Errorf("chiSquare with mismatched lengths = %v, want +Inf", d)
	}
}

func TestNormalizeShape(t *testing.T) {
	frame := noiseImage(640, 480, 7)

	tests := []struct {
		name   string
		region image.Rectangle
	}{
		{"centered box", image.Rect(100, 100, 300, 300)},
		{"off-frame box", image.Rect(-50, -50, 150, 150)},
		{"tiny box", image.Rect(10, 10, 13, 13)},
		{"fully outside", image.Rect(1000, 1000, 1100, 1100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crop := Normalize(frame, tt.region)
			b := crop.Bounds()
			if b.Dx() != Size || b.Dy() != Size {
				t.Errorf("Normalize produced %dx%d, want %dx%d", b.Dx(), b.Dy(), Size, Size)
			}
		})
	}
}

func TestEqualizeHistFlat(t *testing.T) {
	img := flatImage(16, 16, 77)
	equalizeHist(img)
	for i, v := range img.Pix {
		if v != 77 {
			t.Fatalf("flat image changed at %d: %d", i, v)
		}
	}
}
