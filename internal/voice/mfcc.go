// Package voice extracts spectral fingerprints from short speech clips and
// scores the similarity between two clips. It is the secondary gate behind
// face recognition, so every failure path degrades to a neutral score
// instead of propagating an error.
package voice

import (
	"errors"
	"math"
)

// CanonicalRate is the sample rate all clips are normalized to before
// feature extraction.
const CanonicalRate = 16000

// errClipTooShort means the clip holds fewer samples than one analysis
// window. Soft-failed by Matcher, never surfaced.
var errClipTooShort = errors.New("voice clip shorter than one analysis window")

// ExtractorConfig controls MFCC extraction parameters.
type ExtractorConfig struct {
	SampleRate  int     // audio sample rate in Hz
	WindowSize  int     // window length in samples (25 ms)
	HopSize     int     // hop length in samples (10 ms)
	FFTSize     int     // FFT size, power of 2
	NumMels     int     // mel filterbank size
	NumCoeffs   int     // cepstral coefficients kept per frame
	LowFreq     float64 // lowest filterbank frequency
	HighFreq    float64 // highest filterbank frequency
	PreEmphasis float64 // pre-emphasis coefficient
}

// DefaultExtractorConfig mirrors the common Kaldi/librosa front-end
// convention at the canonical 16 kHz rate.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		SampleRate:  CanonicalRate,
		WindowSize:  400,
		HopSize:     160,
		FFTSize:     512,
		NumMels:     26,
		NumCoeffs:   20,
		LowFreq:     20,
		HighFreq:    8000,
		PreEmphasis: 0.97,
	}
}

// Extractor computes fixed-length cepstral fingerprints from PCM samples.
type Extractor struct {
	cfg     ExtractorConfig
	window  []float64
	melBank [][]float64
}

func NewExtractor(cfg ExtractorConfig) *Extractor {
	return &Extractor{
		cfg:     cfg,
		window:  hammingWindow(cfg.WindowSize),
		melBank: melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq),
	}
}

// Fingerprint reduces a clip to a NumCoeffs-dimensional vector: per-frame
// MFCCs averaged over time. Averaging removes the length dependence, so
// clips of different durations remain comparable.
func (e *Extractor) Fingerprint(pcm []float32) ([]float64, error) {
	cfg := e.cfg
	if len(pcm) < cfg.WindowSize {
		return nil, errClipTooShort
	}

	numFrames := (len(pcm)-cfg.WindowSize)/cfg.HopSize + 1
	halfFFT := cfg.FFTSize/2 + 1

	mean := make([]float64, cfg.NumCoeffs)
	frame := make([]float64, cfg.FFTSize)
	re := make([]float64, cfg.FFTSize)
	im := make([]float64, cfg.FFTSize)
	power := make([]float64, halfFFT)
	logMel := make([]float64, cfg.NumMels)

	for t := 0; t < numFrames; t++ {
		start := t * cfg.HopSize

		// Pre-emphasis and windowing
		for i := 0; i < cfg.WindowSize; i++ {
			s := float64(pcm[start+i])
			if i > 0 {
				s -= cfg.PreEmphasis * float64(pcm[start+i-1])
			}
			frame[i] = s * e.window[i]
		}
		for i := cfg.WindowSize; i < cfg.FFTSize; i++ {
			frame[i] = 0
		}

		copy(re, frame)
		for i := range im {
			im[i] = 0
		}
		fft(re, im)

		for i := 0; i < halfFFT; i++ {
			power[i] = re[i]*re[i] + im[i]*im[i]
		}

		for m := 0; m < cfg.NumMels; m++ {
			sum := 0.0
			for k, w := range e.melBank[m] {
				sum += w * power[k]
			}
			if sum < 1e-10 {
				sum = 1e-10 // floor to avoid -inf
			}
			logMel[m] = math.Log(sum)
		}

		for k, c := range dctII(logMel, cfg.NumCoeffs) {
			mean[k] += c
		}
	}

	for k := range mean {
		mean[k] /= float64(numFrames)
	}
	return mean, nil
}
