package voice

import (
	"errors"
	"math"
	"testing"
)

// sineWave generates n samples of a pure tone at the canonical rate.
func sineWave(freq float64, n int) []float32 {
	pcm := make([]float32, n)
	for i := range pcm {
		pcm[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/CanonicalRate))
	}
	return pcm
}

func TestFingerprint(t *testing.T) {
	e := NewExtractor(DefaultExtractorConfig())

	fp, err := e.Fingerprint(sineWave(440, CanonicalRate))
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if len(fp) != DefaultExtractorConfig().NumCoeffs {
		t.Errorf("fingerprint length = %d, want %d", len(fp), DefaultExtractorConfig().NumCoeffs)
	}
	for i, v := range fp {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("fingerprint[%d] = %v", i, v)
		}
	}

	again, err := e.Fingerprint(sineWave(440, CanonicalRate))
	if err != nil {
		t.Fatal(err)
	}
	for i := range fp {
		if fp[i] != again[i] {
			t.Fatalf("fingerprint not deterministic at coeff %d", i)
		}
	}
}

func TestFingerprintTooShort(t *testing.T) {
	e := NewExtractor(DefaultExtractorConfig())
	if _, err := e.Fingerprint(sineWave(440, 100)); !errors.Is(err, errClipTooShort) {
		t.Errorf("Fingerprint on 100 samples = %v, want errClipTooShort", err)
	}
}

func TestSimilarityPCM(t *testing.T) {
	m := NewMatcher()
	clip := sineWave(440, CanonicalRate)

	if sim := m.SimilarityPCM(clip, clip); math.Abs(sim-1) > 1e-9 {
		t.Errorf("self similarity = %v, want 1", sim)
	}

	// Too-short input soft-fails to a neutral score.
	if sim := m.SimilarityPCM(sineWave(440, 10), clip); sim != 0 {
		t.Errorf("similarity with short clip = %v, want 0", sim)
	}
}

func TestSimilarityWAV(t *testing.T) {
	m := NewMatcher()

	clip, err := EncodePCM(sineWave(440, CanonicalRate), CanonicalRate)
	if err != nil {
		t.Fatalf("EncodePCM failed: %v", err)
	}

	if sim := m.Similarity(clip, clip); sim < 0.999 {
		t.Errorf("self similarity = %v, want ~1", sim)
	}

	// Garbage bytes must score 0, never error out.
	if sim := m.Similarity([]byte("not a wav file"), clip); sim != 0 {
		t.Errorf("similarity with invalid wav = %v, want 0", sim)
	}
	if sim := m.Similarity(nil, clip); sim != 0 {
		t.Errorf("similarity with empty clip = %v, want 0", sim)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sineWave(300, CanonicalRate/2)

	data, err := EncodePCM(original, CanonicalRate)
	if err != nil {
		t.Fatalf("EncodePCM failed: %v", err)
	}

	decoded, err := DecodePCM(data)
	if err != nil {
		t.Fatalf("DecodePCM failed: %v", err)
	}
	if len(decoded) != len(original) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(original))
	}

	// 16-bit quantization bounds the round-trip error.
	for i := range original {
		if diff := math.Abs(float64(decoded[i] - original[i])); diff > 1e-3 {
			t.Fatalf("sample %d differs by %v after round trip", i, diff)
		}
	}
}

func TestEncodePCMClampsOverdrive(t *testing.T) {
	data, err := EncodePCM([]float32{2.0, -2.0, 0}, CanonicalRate)
	if err != nil {
		t.Fatalf("EncodePCM failed: %v", err)
	}
	decoded, err := DecodePCM(data)
	if err != nil {
		t.Fatalf("DecodePCM failed: %v", err)
	}
	for i, s := range decoded {
		if s > 1 || s < -1 {
			t.Errorf("decoded[%d] = %v, want within [-1, 1]", i, s)
		}
	}
}

func TestResampleIdentity(t *testing.T) {
	in := sineWave(440, 1000)
	out, err := Resample(in, CanonicalRate, CanonicalRate)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Errorf("identity resample changed length: %d != %d", len(out), len(in))
	}
}
