// Package capture wraps the video and audio hardware behind small
// interfaces so the enrollment and recognition state machines can be
// exercised without devices attached.
package capture

import (
	"context"
	"image"
	"time"
)

// Camera delivers grayscale frames one at a time. ReadFrame blocks until a
// frame is available or the device errors; a single failed read should be
// treated as transient by callers.
type Camera interface {
	ReadFrame() (*image.Gray, error)
	Close() error
}

// Recorder captures a fixed-duration mono clip at the canonical 16 kHz
// rate. The call blocks for the full duration; the recognition loop
// deliberately does not service frames while a clip is being recorded.
type Recorder interface {
	Record(ctx context.Context, duration time.Duration) ([]float32, error)
}
