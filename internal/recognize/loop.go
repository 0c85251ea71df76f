// Package recognize runs the live attendance loop: detect faces per
// frame, classify them, gate new identities on a voice challenge, and
// commit idempotent attendance marks.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/mhrabal/rollmark/internal/capture"
	"github.com/mhrabal/rollmark/internal/detect"
	"github.com/mhrabal/rollmark/internal/face"
	"github.com/mhrabal/rollmark/internal/ledger"
	"github.com/mhrabal/rollmark/internal/speech"
	"github.com/mhrabal/rollmark/internal/store"
	"github.com/mhrabal/rollmark/internal/voice"
)

// Ledger commits attendance marks. MarkPresent must be idempotent per
// (identity, date); a repeat reports ledger.AlreadyMarked.
type Ledger interface {
	MarkPresent(ctx context.Context, identityID int, date string) (ledger.MarkResult, error)
}

// Roster resolves display names for spoken feedback. Implementations must
// fall back to "Unknown" rather than failing.
type Roster interface {
	ResolveDisplayName(ctx context.Context, identityID int) string
}

// IdentityState is the per-identity sub-state within one run.
type IdentityState int

const (
	// Unseen means the identity has not been confidently matched yet, or
	// failed a voice challenge and may retry.
	Unseen IdentityState = iota
	// AwaitingVoice means the identity passed the face threshold and a
	// voice challenge is pending. At most one identity is ever in this
	// state; the loop is single-threaded and must not overlap two
	// blocking voice prompts.
	AwaitingVoice
	// Marked is terminal for the run: attendance committed (or already
	// present), never re-prompted.
	Marked
)

// Options carries the decision thresholds and timing knobs.
type Options struct {
	DistanceThreshold float64       // face match cutoff, lower distance = match
	VoiceThreshold    float64       // minimum similarity to accept a challenge
	ClipDuration      time.Duration // fresh challenge clip length
	ChallengeDelay    time.Duration // pause between prompt and recording
}

type challenge struct {
	identityID int
	readyAt    time.Time
}

// Loop is the recognition state machine. Construct it with everything it
// needs up front; the classifier model is whatever was loaded at
// construction time and is only refreshed by an explicit reload (after an
// enrollment), never implicitly mid-run.
type Loop struct {
	classifier *face.Classifier
	matcher    *voice.Matcher
	detector   detect.Detector
	camera     capture.Camera
	recorder   capture.Recorder // nil means voice challenges degrade to direct marks
	store      *store.Store
	ledger     Ledger
	roster     Roster
	announcer  speech.Announcer
	opts       Options

	states  map[int]IdentityState
	pending *challenge
	today   func() string
}

func NewLoop(
	classifier *face.Classifier,
	matcher *voice.Matcher,
	detector detect.Detector,
	camera capture.Camera,
	recorder capture.Recorder,
	st *store.Store,
	ldg Ledger,
	roster Roster,
	announcer speech.Announcer,
	opts Options,
) *Loop {
	return &Loop{
		classifier: classifier,
		matcher:    matcher,
		detector:   detector,
		camera:     camera,
		recorder:   recorder,
		store:      st,
		ledger:     ldg,
		roster:     roster,
		announcer:  announcer,
		opts:       opts,
		states:     make(map[int]IdentityState),
		today:      func() string { return time.Now().Format("2006-01-02") },
	}
}

// StateOf returns the sub-state of an identity in the current run.
func (l *Loop) StateOf(identityID int) IdentityState {
	return l.states[identityID]
}

// Run polls the camera until ctx is cancelled. Each iteration fully
// completes, including any blocking voice capture, before the next frame
// is pulled. Returns nil on cooperative stop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.classifier.HasModel() {
		fmt.Println("No trained model yet, everyone will be reported as unknown")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := l.camera.ReadFrame()
		if err != nil {
			// A failed camera read is transient: skip the frame, keep going.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		l.HandleFrame(ctx, frame)
	}
}

// HandleFrame runs one loop iteration over an already captured frame:
// classification, challenge scheduling, and — when the scheduled delay has
// elapsed — the blocking voice challenge itself.
func (l *Loop) HandleFrame(ctx context.Context, frame *image.Gray) {
	for _, det := range l.detector.Detect(frame) {
		crop := face.Normalize(frame, det.Rect)
		label, distance, err := l.classifier.Predict(crop)
		if err != nil {
			// No model: run in all-unknown mode instead of crashing.
			if errors.Is(err, face.ErrModelNotFound) {
				continue
			}
			fmt.Printf("Warning: predict failed: %v\n", err)
			continue
		}
		if distance >= l.opts.DistanceThreshold {
			continue // unknown face, no action
		}
		l.observeMatch(ctx, label)
	}

	if l.pending != nil && !time.Now().Before(l.pending.readyAt) {
		l.runChallenge(ctx)
	}
}

// observeMatch handles a confident face match. A new identity starts a
// voice challenge, but only when no other challenge is in flight: one
// pending challenge globally, so blocking prompts never overlap.
func (l *Loop) observeMatch(ctx context.Context, identityID int) {
	if l.states[identityID] != Unseen || l.pending != nil {
		return
	}

	l.states[identityID] = AwaitingVoice
	l.pending = &challenge{
		identityID: identityID,
		readyAt:    time.Now().Add(l.opts.ChallengeDelay),
	}

	name := l.roster.ResolveDisplayName(ctx, identityID)
	l.announcer.Say(fmt.Sprintf("%s, please speak to mark your attendance", name))
}

// runChallenge resolves the pending voice challenge. With no stored clip
// (or no microphone) the identity is marked directly — degraded mode. A
// mismatch puts the identity back to Unseen so it can retry later in the
// same run; a failed voice check never locks anyone out.
func (l *Loop) runChallenge(ctx context.Context) {
	id := l.pending.identityID
	l.pending = nil

	name := l.roster.ResolveDisplayName(ctx, id)

	if !l.store.HasVoiceSample(id) || l.recorder == nil {
		l.mark(ctx, id, name)
		return
	}

	stored, err := l.store.VoiceSample(id)
	if err != nil {
		// Voice subsystem failure degrades gracefully, it never blocks
		// attendance.
		fmt.Printf("Warning: could not read stored voice clip: %v\n", err)
		l.mark(ctx, id, name)
		return
	}

	fresh, err := l.recorder.Record(ctx, l.opts.ClipDuration)
	if err != nil {
		if ctx.Err() != nil {
			l.states[id] = Unseen
			return
		}
		fmt.Printf("Warning: voice recording failed: %v\n", err)
		l.mark(ctx, id, name)
		return
	}

	similarity := l.similarity(stored, fresh)
	fmt.Printf("Voice similarity for identity %d: %.2f\n", id, similarity)
	if similarity < l.opts.VoiceThreshold {
		l.announcer.Say("Voice mismatch. Attendance not marked.")
		l.states[id] = Unseen
		return
	}

	l.mark(ctx, id, name)
}

func (l *Loop) similarity(storedWAV []byte, fresh []float32) float64 {
	storedPCM, err := voice.DecodePCM(storedWAV)
	if err != nil {
		fmt.Printf("Warning: stored voice clip unreadable: %v\n", err)
		return 0
	}
	return l.matcher.SimilarityPCM(storedPCM, fresh)
}

// mark commits the attendance record. AlreadyMarked is success: the
// identity moves to Marked either way and is not re-prompted this run.
// A ledger error leaves the identity Unseen so the commit can be retried
// on a later sighting.
func (l *Loop) mark(ctx context.Context, identityID int, name string) {
	result, err := l.ledger.MarkPresent(ctx, identityID, l.today())
	if err != nil {
		fmt.Printf("Warning: could not mark attendance for %d: %v\n", identityID, err)
		l.states[identityID] = Unseen
		return
	}

	l.states[identityID] = Marked
	switch result {
	case ledger.AlreadyMarked:
		l.announcer.Say(fmt.Sprintf("Attendance already marked today for roll number %d %s", identityID, name))
	default:
		l.announcer.Say(fmt.Sprintf("Attendance marked for roll number %d %s", identityID, name))
	}
}
