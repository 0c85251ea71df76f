// Package face implements the LBPH face classifier: training from the
// sample store, model persistence, and nearest-neighbor prediction.
package face

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mhrabal/rollmark/internal/store"
)

var (
	// ErrModelNotFound means no trained model exists yet. Callers must treat
	// this as "no identities known", not as a failure.
	ErrModelNotFound = errors.New("face model not found")

	// ErrInsufficientData means training was attempted on an empty sample set.
	ErrInsufficientData = errors.New("no face samples to train on")
)

// Model is the serialized classifier state: one LBP descriptor per training
// sample, labeled with its identity. It is a pure function of the sample
// store contents and is rebuilt wholesale on every training run.
type Model struct {
	Version int          `msgpack:"version"`
	GridX   int          `msgpack:"grid_x"`
	GridY   int          `msgpack:"grid_y"`
	Samples []Descriptor `msgpack:"samples"`
}

// Descriptor is one labeled training descriptor.
type Descriptor struct {
	Label int       `msgpack:"label"`
	Hist  []float32 `msgpack:"hist"`
}

const modelVersion = 1

// Classifier trains on the sample store and predicts identity labels for
// normalized face crops.
type Classifier struct {
	store *store.Store
	model *Model
}

func NewClassifier(st *store.Store) *Classifier {
	return &Classifier{store: st}
}

// Train rebuilds the model from every sample currently on disk and persists
// it. Returns the number of samples trained on. On an empty sample set it
// removes any previously persisted model (so a stale one can never be
// served) and returns ErrInsufficientData.
func (c *Classifier) Train() (int, error) {
	var samples []Descriptor
	for sample, err := range c.store.ListAll() {
		if err != nil {
			fmt.Printf("Warning: skipping unreadable sample: %v\n", err)
			continue
		}
		samples = append(samples, Descriptor{
			Label: sample.IdentityID,
			Hist:  Describe(sample.Image),
		})
	}

	if len(samples) == 0 {
		c.model = nil
		if err := os.Remove(c.store.ModelPath()); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("failed to remove stale model: %w", err)
		}
		return 0, ErrInsufficientData
	}

	model := &Model{
		Version: modelVersion,
		GridX:   gridX,
		GridY:   gridY,
		Samples: samples,
	}

	data, err := msgpack.Marshal(model)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize model: %w", err)
	}
	if err := os.WriteFile(c.store.ModelPath(), data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to persist model: %w", err)
	}

	c.model = model
	return len(samples), nil
}

// Load deserializes the persisted model. Returns ErrModelNotFound when no
// model file exists.
func (c *Classifier) Load() error {
	data, err := os.ReadFile(c.store.ModelPath())
	if err != nil {
		if os.IsNotExist(err) {
			return ErrModelNotFound
		}
		return fmt.Errorf("failed to read model: %w", err)
	}

	var model Model
	if err := msgpack.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("failed to parse model: %w", err)
	}
	if len(model.Samples) == 0 {
		// A model trained on zero samples is invalid and must not be served.
		return ErrModelNotFound
	}

	c.model = &model
	return nil
}

// HasModel reports whether a trained model is currently loaded.
func (c *Classifier) HasModel() bool {
	return c.model != nil
}

// Predict classifies a normalized crop and returns the best matching label
// together with its chi-square distance (lower = more confident). The
// distance is always finite for a loaded model; thresholding is left to the
// caller. Returns ErrModelNotFound when no model is loaded.
func (c *Classifier) Predict(img *image.Gray) (int, float64, error) {
	if c.model == nil {
		return 0, 0, ErrModelNotFound
	}

	desc := Describe(img)
	bestLabel := 0
	bestDist := -1.0
	for _, s := range c.model.Samples {
		d := chiSquare(desc, s.Hist)
		if bestDist < 0 || d < bestDist {
			bestLabel = s.Label
			bestDist = d
		}
	}
	return bestLabel, bestDist, nil
}
