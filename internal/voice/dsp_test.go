package voice

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 2}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMelScaleRoundTrip(t *testing.T) {
	for _, hz := range []float64{20, 300, 1000, 4000, 8000} {
		back := melToHz(hzToMel(hz))
		if math.Abs(back-hz) > 1e-6 {
			t.Errorf("melToHz(hzToMel(%v)) = %v", hz, back)
		}
	}
	if hzToMel(1000) <= hzToMel(100) {
		t.Error("mel scale is not monotonic")
	}
}

func TestMelFilterBankShape(t *testing.T) {
	cfg := DefaultExtractorConfig()
	bank := melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)

	if len(bank) != cfg.NumMels {
		t.Fatalf("bank has %d filters, want %d", len(bank), cfg.NumMels)
	}
	for m, filter := range bank {
		if len(filter) != cfg.FFTSize/2+1 {
			t.Fatalf("filter %d has %d bins, want %d", m, len(filter), cfg.FFTSize/2+1)
		}
		var peak float64
		for _, w := range filter {
			if w < 0 {
				t.Fatalf("filter %d has negative weight", m)
			}
			if w > peak {
				peak = w
			}
		}
		if peak == 0 {
			t.Errorf("filter %d is all zero", m)
		}
	}
}

func TestFFTImpulse(t *testing.T) {
	// An impulse transforms to a flat spectrum of ones.
	n := 16
	re := make([]float64, n)
	im := make([]float64, n)
	re[0] = 1

	fft(re, im)

	for i := 0; i < n; i++ {
		if math.Abs(re[i]-1) > 1e-9 || math.Abs(im[i]) > 1e-9 {
			t.Fatalf("bin %d = (%v, %v), want (1, 0)", i, re[i], im[i])
		}
	}
}

func TestFFTDC(t *testing.T) {
	// Constant input concentrates all energy in bin 0.
	n := 8
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = 1
	}

	fft(re, im)

	if math.Abs(re[0]-float64(n)) > 1e-9 {
		t.Errorf("bin 0 = %v, want %d", re[0], n)
	}
	for i := 1; i < n; i++ {
		if math.Abs(re[i]) > 1e-9 || math.Abs(im[i]) > 1e-9 {
			t.Errorf("bin %d = (%v, %v), want (0, 0)", i, re[i], im[i])
		}
	}
}

func TestHammingWindow(t *testing.T) {
	w := hammingWindow(400)
	if len(w) != 400 {
		t.Fatalf("window length = %d, want 400", len(w))
	}
	// Symmetric, tapered at the edges, peaked in the middle.
	if math.Abs(w[0]-w[len(w)-1]) > 1e-9 {
		t.Error("window is not symmetric")
	}
	if w[0] > 0.1 || w[len(w)/2] < 0.9 {
		t.Errorf("window shape off: edge %v, center %v", w[0], w[len(w)/2])
	}
}

func TestDCTII(t *testing.T) {
	in := []float64{1, 1, 1, 1}
	out := dctII(in, 4)
	if len(out) != 4 {
		t.Fatalf("dctII returned %d coeffs, want 4", len(out))
	}
	// Constant input has only a DC term.
	if math.Abs(out[0]-4) > 1e-9 {
		t.Errorf("coeff 0 = %v, want 4", out[0])
	}
	for k := 1; k < 4; k++ {
		if math.Abs(out[k]) > 1e-9 {
			t.Errorf("coeff %d = %v, want 0", k, out[k])
		}
	}
}
