// Package store keeps enrolled face samples and voice clips on disk.
//
// Layout under the root directory:
//
//	<root>/<identity-id>/001.png  face samples, append-only
//	<root>/<identity-id>/voice.wav  at most one clip per identity
//	<root>/face_model.bin  serialized classifier model
package store

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	modelFileName = "face_model.bin"
	voiceFileName = "voice.wav"
)

// StorageError wraps a filesystem failure underneath the sample store.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("sample store: %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// FaceSample is one labeled face image read back from disk.
type FaceSample struct {
	IdentityID int
	Image      *image.Gray
	CapturedAt time.Time
}

// Store is the on-disk sample collection. It holds no in-memory cache;
// every read goes back to the filesystem so samples added between two
// training runs are always picked up.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the sample store root directory.
func (s *Store) Root() string { return s.root }

// ModelPath returns the location of the serialized face model.
func (s *Store) ModelPath() string {
	return filepath.Join(s.root, modelFileName)
}

func (s *Store) identityDir(identityID int) string {
	return filepath.Join(s.root, strconv.Itoa(identityID))
}

// AddFaceSample appends one face image for the identity. Images are
// numbered sequentially and never overwritten.
func (s *Store) AddFaceSample(identityID int, img *image.Gray) error {
	dir := s.identityDir(identityID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Path: dir, Err: err}
	}

	n, err := s.countFaceSamples(dir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, fmt.Sprintf("%03d.png", n+1))
	f, err := os.Create(path)
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	return nil
}

func (s *Store) countFaceSamples(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, &StorageError{Path: dir, Err: err}
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			n++
		}
	}
	return n, nil
}

// SetVoiceSample stores the voice clip for the identity, replacing any
// previous one.
func (s *Store) SetVoiceSample(identityID int, wavData []byte) error {
	dir := s.identityDir(identityID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Path: dir, Err: err}
	}
	path := filepath.Join(dir, voiceFileName)
	if err := os.WriteFile(path, wavData, 0o644); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	return nil
}

// VoiceSample reads the stored voice clip for the identity.
func (s *Store) VoiceSample(identityID int) ([]byte, error) {
	path := filepath.Join(s.identityDir(identityID), voiceFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Err: err}
	}
	return data, nil
}

// HasVoiceSample reports whether a voice clip exists for the identity.
func (s *Store) HasVoiceSample(identityID int) bool {
	_, err := os.Stat(filepath.Join(s.identityDir(identityID), voiceFileName))
	return err == nil
}

// ListAll yields every stored face sample across all identities. The
// sequence re-reads the directory tree on each call, so it always reflects
// the current on-disk state. Unreadable or non-image files are yielded as
// errors and the caller decides whether to continue.
func (s *Store) ListAll() iter.Seq2[FaceSample, error] {
	return func(yield func(FaceSample, error) bool) {
		entries, err := os.ReadDir(s.root)
		if err != nil {
			if os.IsNotExist(err) {
				return // empty store, nothing to yield
			}
			yield(FaceSample{}, &StorageError{Path: s.root, Err: err})
			return
		}

		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			identityID, err := strconv.Atoi(e.Name())
			if err != nil {
				continue // not an identity directory
			}
			if !s.yieldIdentity(identityID, yield) {
				return
			}
		}
	}
}

func (s *Store) yieldIdentity(identityID int, yield func(FaceSample, error) bool) bool {
	dir := s.identityDir(identityID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return yield(FaceSample{}, &StorageError{Path: dir, Err: err})
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		sample, err := readSample(identityID, path)
		if err != nil {
			if !yield(FaceSample{}, err) {
				return false
			}
			continue
		}
		if !yield(sample, nil) {
			return false
		}
	}
	return true
}

func readSample(identityID int, path string) (FaceSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return FaceSample{}, &StorageError{Path: path, Err: err}
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return FaceSample{}, &StorageError{Path: path, Err: err}
	}

	capturedAt := time.Time{}
	if info, err := f.Stat(); err == nil {
		capturedAt = info.ModTime()
	}

	return FaceSample{
		IdentityID: identityID,
		Image:      toGray(img),
		CapturedAt: capturedAt,
	}, nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

// Wipe removes every sample and the trained model, leaving the store in
// fresh-install state. Irreversible.
func (s *Store) Wipe() error {
	if err := os.RemoveAll(s.root); err != nil {
		return &StorageError{Path: s.root, Err: err}
	}
	return nil
}
