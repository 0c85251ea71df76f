package store

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

func grayImage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestAddFaceSampleNumbering(t *testing.T) {
	s := New(t.TempDir())

	for i := 0; i < 3; i++ {
		if err := s.AddFaceSample(7, grayImage(4, 4, uint8(i*50))); err != nil {
			t.Fatalf("AddFaceSample failed: %v", err)
		}
	}

	for _, name := range []string{"001.png", "002.png", "003.png"} {
		path := filepath.Join(s.Root(), "7", name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected sample file %s: %v", path, err)
		}
	}
}

func TestListAll(t *testing.T) {
	s := New(t.TempDir())

	if err := s.AddFaceSample(1, grayImage(4, 4, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFaceSample(1, grayImage(4, 4, 20)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFaceSample(2, grayImage(4, 4, 30)); err != nil {
		t.Fatal(err)
	}

	counts := map[int]int{}
	for sample, err := range s.ListAll() {
		if err != nil {
			t.Fatalf("unexpected error from ListAll: %v", err)
		}
		counts[sample.IdentityID]++
		if sample.Image == nil {
			t.Fatal("sample image is nil")
		}
	}

	if counts[1] != 2 || counts[2] != 1 {
		t.Errorf("sample counts = %v, want map[1:2 2:1]", counts)
	}
}

func TestListAllRestartable(t *testing.T) {
	s := New(t.TempDir())
	if err := s.AddFaceSample(1, grayImage(4, 4, 10)); err != nil {
		t.Fatal(err)
	}

	seq := s.ListAll()
	first := countSamples(t, seq)

	// Samples added after the first pass show up on the next pass.
	if err := s.AddFaceSample(2, grayImage(4, 4, 20)); err != nil {
		t.Fatal(err)
	}
	second := countSamples(t, seq)

	if first != 1 || second != 2 {
		t.Errorf("pass counts = %d, %d; want 1, 2", first, second)
	}
}

func countSamples(t *testing.T, seq func(func(FaceSample, error) bool)) int {
	t.Helper()
	n := 0
	for _, err := range seq {
		if err != nil {
			t.Fatalf("unexpected error from ListAll: %v", err)
		}
		n++
	}
	return n
}

func TestListAllEmptyStore(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never-created"))
	for _, err := range s.ListAll() {
		t.Fatalf("empty store yielded something: %v", err)
	}
}

func TestListAllYieldsErrorForCorruptSample(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.Root(), "3")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "001.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	sawError := false
	for _, err := range s.ListAll() {
		if err != nil {
			sawError = true
			var storageErr *StorageError
			if !errors.As(err, &storageErr) {
				t.Errorf("error is %T, want *StorageError", err)
			}
		}
	}
	if !sawError {
		t.Error("corrupt sample was silently skipped, want yielded error")
	}
}

func TestVoiceSampleReplace(t *testing.T) {
	s := New(t.TempDir())

	if s.HasVoiceSample(5) {
		t.Error("HasVoiceSample true before any sample stored")
	}

	if err := s.SetVoiceSample(5, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetVoiceSample(5, []byte("second")); err != nil {
		t.Fatal(err)
	}

	if !s.HasVoiceSample(5) {
		t.Error("HasVoiceSample false after store")
	}
	data, err := s.VoiceSample(5)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("VoiceSample = %q, want %q", data, "second")
	}
}

func TestWipe(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "samples"))
	if err := s.AddFaceSample(1, grayImage(4, 4, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetVoiceSample(1, []byte("clip")); err != nil {
		t.Fatal(err)
	}

	if err := s.Wipe(); err != nil {
		t.Fatalf("Wipe failed: %v", err)
	}

	if _, err := os.Stat(s.Root()); !os.IsNotExist(err) {
		t.Errorf("store root still exists after Wipe")
	}
	for range s.ListAll() {
		t.Fatal("ListAll yielded samples after Wipe")
	}

	// Wiping twice is fine.
	if err := s.Wipe(); err != nil {
		t.Errorf("second Wipe failed: %v", err)
	}
}
