package face

import (
	"image"

	"golang.org/x/image/draw"
)

// Size is the canonical edge length of a normalized face crop.
const Size = 200

// Normalize cuts the given region out of a frame and converts it into the
// canonical classifier input: a Size x Size grayscale crop with its
// histogram equalized. Equalization flattens lighting differences between
// capture sessions, which matters more than raw resolution for LBP features.
func Normalize(frame *image.Gray, region image.Rectangle) *image.Gray {
	region = region.Intersect(frame.Bounds())
	if region.Empty() {
		return image.NewGray(image.Rect(0, 0, Size, Size))
	}

	crop := frame.SubImage(region)
	dst := image.NewGray(image.Rect(0, 0, Size, Size))
	draw.BiLinear.Scale(dst, dst.Bounds(), crop, region, draw.Src, nil)
	equalizeHist(dst)
	return dst
}

// equalizeHist performs in-place histogram equalization on a grayscale image.
func equalizeHist(img *image.Gray) {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}

	// Build the lookup table from the cumulative distribution, anchored at
	// the first non-empty bin so the darkest present value maps to 0.
	var lut [256]uint8
	cdf := 0
	cdfMin := -1
	for v := 0; v < 256; v++ {
		cdf += hist[v]
		if cdfMin < 0 && hist[v] > 0 {
			cdfMin = cdf
		}
		if cdfMin < 0 || total == cdfMin {
			lut[v] = uint8(v)
			continue
		}
		lut[v] = uint8((cdf - cdfMin) * 255 / (total - cdfMin))
	}

	for i, v := range img.Pix {
		img.Pix[i] = lut[v]
	}
}
