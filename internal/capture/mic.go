package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/mhrabal/rollmark/internal/voice"
)

// Microphone records from the default capture device via miniaudio.
type Microphone struct{}

func NewMicrophone() *Microphone {
	return &Microphone{}
}

// Available reports whether a capture context can be initialized at all.
// Used to decide up front whether enrollment should skip the voice step.
func (m *Microphone) Available() bool {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return false
	}
	_ = mctx.Uninit()
	mctx.Free()
	return true
}

// Record captures a mono 16 kHz clip of the given duration. The call
// blocks until the duration elapses or ctx is cancelled; cancellation
// returns the samples collected so far along with ctx.Err().
func (m *Microphone) Record(ctx context.Context, duration time.Duration) ([]float32, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(voice.CanonicalRate)
	cfg.Alsa.NoMMap = 1

	var mu sync.Mutex
	var pcm []byte
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, in []byte, _ uint32) {
			mu.Lock()
			pcm = append(pcm, in...)
			mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to init capture device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	var ctxErr error
	select {
	case <-time.After(duration):
	case <-ctx.Done():
		ctxErr = ctx.Err()
	}
	_ = device.Stop()

	mu.Lock()
	defer mu.Unlock()
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		samples[i] = float32(s) / 32768.0
	}
	return samples, ctxErr
}
