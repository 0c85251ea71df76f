// Package enroll captures labeled face and voice samples for a new
// identity and retrains the classifier. Enrollment is an administrator
// supervised, one-at-a-time operation: capture, voice recording and
// training run sequentially on the calling goroutine.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/mhrabal/rollmark/internal/capture"
	"github.com/mhrabal/rollmark/internal/detect"
	"github.com/mhrabal/rollmark/internal/face"
	"github.com/mhrabal/rollmark/internal/store"
	"github.com/mhrabal/rollmark/internal/voice"
)

// ErrNoFaceDetected means the capture window elapsed without a single
// usable frame. Fatal to this enrollment attempt; the whole session can
// simply be retried.
var ErrNoFaceDetected = errors.New("no face detected within capture window")

// State is the enrollment session phase.
type State int

const (
	StateWarmup State = iota
	StateCapturing
	StateVoiceRecord
	StateTraining
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateWarmup:
		return "warmup"
	case StateCapturing:
		return "capturing"
	case StateVoiceRecord:
		return "voice-record"
	case StateTraining:
		return "training"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Roster registers a new identity with its display name.
type Roster interface {
	RegisterStudent(ctx context.Context, studentID int, name string) error
}

// Options tunes the capture phase.
type Options struct {
	TargetSamples int           // face images to capture
	MinInterval   time.Duration // minimum gap between two saved samples
	Timeout       time.Duration // wall-clock limit for capture
	WarmupFrames  int           // frames discarded before capture starts
	ClipDuration  time.Duration // length of the voice clip
}

// Session drives one enrollment through warmup, capture, voice recording
// and training.
type Session struct {
	id         uuid.UUID
	store      *store.Store
	classifier *face.Classifier
	detector   detect.Detector
	camera     capture.Camera
	recorder   capture.Recorder // nil when no audio hardware is available
	roster     Roster
	opts       Options
	state      State
}

func NewSession(
	st *store.Store,
	classifier *face.Classifier,
	detector detect.Detector,
	camera capture.Camera,
	recorder capture.Recorder,
	roster Roster,
	opts Options,
) *Session {
	return &Session{
		id:         uuid.New(),
		store:      st,
		classifier: classifier,
		detector:   detector,
		camera:     camera,
		recorder:   recorder,
		roster:     roster,
		opts:       opts,
		state:      StateWarmup,
	}
}

// State returns the current session phase.
func (s *Session) State() State { return s.state }

// Run executes the full enrollment for one identity. On failure the
// session ends in StateFailed and the returned error says why; a session
// is single-use and a retry means a fresh session.
func (s *Session) Run(ctx context.Context, identityID int, displayName string) error {
	fmt.Printf("Enrollment %s: identity %d (%s)\n", s.id, identityID, displayName)

	if s.roster != nil {
		if err := s.roster.RegisterStudent(ctx, identityID, displayName); err != nil {
			return s.fail(err)
		}
	}

	if err := s.warmup(ctx); err != nil {
		return s.fail(err)
	}

	saved, err := s.captureFaces(ctx, identityID)
	if err != nil {
		return s.fail(err)
	}
	if saved == 0 {
		return s.fail(ErrNoFaceDetected)
	}
	fmt.Printf("Captured %d/%d face samples\n", saved, s.opts.TargetSamples)

	s.recordVoice(ctx, identityID)

	s.state = StateTraining
	n, err := s.classifier.Train()
	if err != nil {
		return s.fail(fmt.Errorf("training failed: %w", err))
	}
	fmt.Printf("Model trained on %d samples\n", n)

	s.state = StateDone
	return nil
}

func (s *Session) fail(err error) error {
	s.state = StateFailed
	return err
}

// warmup discards initial frames so camera auto-exposure can settle.
// Read errors here are harmless; the frame budget just runs out.
func (s *Session) warmup(ctx context.Context) error {
	for i := 0; i < s.opts.WarmupFrames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, _ = s.camera.ReadFrame()
	}
	return nil
}

func (s *Session) captureFaces(ctx context.Context, identityID int) (int, error) {
	s.state = StateCapturing

	bar := progressbar.NewOptions(s.opts.TargetSamples,
		progressbar.OptionSetDescription("Capturing faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("samples"),
	)

	deadline := time.Now().Add(s.opts.Timeout)
	var lastSaved time.Time
	saved := 0

	for saved < s.opts.TargetSamples && time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		frame, err := s.camera.ReadFrame()
		if err != nil {
			// Single-frame failures are transient; keep polling.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		dets := s.detector.Detect(frame)
		largest, ok := detect.Largest(dets)
		if !ok {
			continue
		}
		if time.Since(lastSaved) < s.opts.MinInterval {
			continue
		}

		crop := face.Normalize(frame, largest.Rect)
		if err := s.store.AddFaceSample(identityID, crop); err != nil {
			return saved, err
		}
		saved++
		lastSaved = time.Now()
		_ = bar.Add(1)
	}

	fmt.Println()
	return saved, nil
}

// recordVoice captures the enrollment voice clip. Any failure here is
// logged and skipped: the identity stays usable in degraded (face-only)
// mode, so a broken microphone must not abort the enrollment.
func (s *Session) recordVoice(ctx context.Context, identityID int) {
	if s.recorder == nil {
		fmt.Println("No audio hardware, skipping voice sample")
		return
	}

	s.state = StateVoiceRecord
	fmt.Printf("Recording voice sample (%.0fs), please speak...\n", s.opts.ClipDuration.Seconds())

	samples, err := s.recorder.Record(ctx, s.opts.ClipDuration)
	if err != nil {
		fmt.Printf("Warning: voice recording failed, skipping: %v\n", err)
		return
	}

	wavData, err := voice.EncodePCM(samples, voice.CanonicalRate)
	if err != nil {
		fmt.Printf("Warning: voice encoding failed, skipping: %v\n", err)
		return
	}
	if err := s.store.SetVoiceSample(identityID, wavData); err != nil {
		fmt.Printf("Warning: could not store voice sample: %v\n", err)
	}
}
