package voice

import "fmt"

// Matcher scores the similarity of two voice clips.
type Matcher struct {
	extractor *Extractor
}

func NewMatcher() *Matcher {
	return &Matcher{extractor: NewExtractor(DefaultExtractorConfig())}
}

// Similarity returns 1 - cosine distance between the fingerprints of two
// WAV clips, in [-1, 1]. Higher means more similar; identical clips score 1.
//
// Decode and extraction failures return 0 instead of an error: the voice
// check is a secondary gate and must never take down the recognition loop.
func (m *Matcher) Similarity(clipA, clipB []byte) float64 {
	fpA, err := m.fingerprintClip(clipA)
	if err != nil {
		fmt.Printf("Warning: voice compare failed: %v\n", err)
		return 0
	}
	fpB, err := m.fingerprintClip(clipB)
	if err != nil {
		fmt.Printf("Warning: voice compare failed: %v\n", err)
		return 0
	}
	return cosineSimilarity(fpA, fpB)
}

// SimilarityPCM scores two raw sample buffers already at the canonical rate.
func (m *Matcher) SimilarityPCM(a, b []float32) float64 {
	fpA, err := m.extractor.Fingerprint(a)
	if err != nil {
		return 0
	}
	fpB, err := m.extractor.Fingerprint(b)
	if err != nil {
		return 0
	}
	return cosineSimilarity(fpA, fpB)
}

func (m *Matcher) fingerprintClip(clip []byte) ([]float64, error) {
	pcm, err := DecodePCM(clip)
	if err != nil {
		return nil, err
	}
	return m.extractor.Fingerprint(pcm)
}
