// Package detect finds face bounding boxes in grayscale frames.
package detect

import "image"

// Detection is one detected face.
type Detection struct {
	Rect  image.Rectangle
	Score float32
}

// Detector finds faces in a frame. Implementations must be safe to call
// once per frame from a single goroutine; no concurrency guarantees are
// required beyond that.
type Detector interface {
	Detect(frame *image.Gray) []Detection
}

// Largest returns the detection with the biggest bounding box area, the
// usual proxy for the closest face. ok is false for an empty slice.
func Largest(dets []Detection) (Detection, bool) {
	if len(dets) == 0 {
		return Detection{}, false
	}
	best := dets[0]
	for _, d := range dets[1:] {
		if area(d.Rect) > area(best.Rect) {
			best = d
		}
	}
	return best, true
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// IoU computes intersection over union of two boxes, used to decide
// whether two detections describe the same face.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	union := area(a) + area(b) - area(inter)
	if union <= 0 {
		return 0
	}
	return float64(area(inter)) / float64(union)
}
