package voice

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampling"
)

// DecodePCM decodes a WAV clip into mono float32 samples at the canonical
// rate. Stereo input is downmixed; other sample rates are resampled.
func DecodePCM(wavData []byte) ([]float32, error) {
	d := wav.NewDecoder(bytes.NewReader(wavData))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("wav clip holds no samples")
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float32(channels)
	}

	if buf.Format.SampleRate != CanonicalRate {
		samples, err = Resample(samples, buf.Format.SampleRate, CanonicalRate)
		if err != nil {
			return nil, err
		}
	}
	return samples, nil
}

// EncodePCM encodes mono float32 samples as a 16-bit WAV clip.
func EncodePCM(samples []float32, sampleRate int) ([]byte, error) {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * 32767)
	}

	var ws memWriteSeeker
	e := wav.NewEncoder(&ws, sampleRate, 16, 1, 1)
	if err := e.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := e.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	return ws.data, nil
}

// Resample converts mono samples between sample rates.
func Resample(samples []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return samples, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s)
	}
	out, err := rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("failed to resample: %w", err)
	}

	res := make([]float32, len(out))
	for i, s := range out {
		res[i] = float32(s)
	}
	return res, nil
}

// memWriteSeeker is an in-memory io.WriteSeeker. The wav encoder needs to
// seek back to patch chunk sizes, which rules out a plain bytes.Buffer.
type memWriteSeeker struct {
	data []byte
	pos  int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.data) {
		grown := make([]byte, need)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(m.pos) + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("negative seek position")
	}
	m.pos = int(pos)
	return pos, nil
}
