package detect

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/mhrabal/rollmark/internal/config"
)

// PigoDetector runs the pigo cascade classifier over full frames.
type PigoDetector struct {
	classifier *pigo.Pigo
	profile    config.DetectionProfile
}

// NewPigoDetector loads a facefinder cascade from disk and applies the
// given tuning profile.
func NewPigoDetector(cascadePath string, profile config.DetectionProfile) (*PigoDetector, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	return &PigoDetector{classifier: classifier, profile: profile}, nil
}

func (d *PigoDetector) Detect(frame *image.Gray) []Detection {
	bounds := frame.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	params := pigo.CascadeParams{
		MinSize:     d.profile.MinFaceSize,
		MaxSize:     d.profile.MaxFaceSize,
		ShiftFactor: d.profile.ShiftFactor,
		ScaleFactor: d.profile.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: frame.Pix,
			Rows:   rows,
			Cols:   cols,
			Dim:    frame.Stride,
		},
	}

	raw := d.classifier.RunCascade(params, 0.0)
	raw = d.classifier.ClusterDetections(raw, d.profile.IoUThreshold)

	dets := make([]Detection, 0, len(raw))
	for _, det := range raw {
		if float64(det.Q) < d.profile.QualityThreshold {
			continue
		}
		half := det.Scale / 2
		rect := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half)
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}
		dets = append(dets, Detection{Rect: rect, Score: det.Q})
	}
	return dets
}
