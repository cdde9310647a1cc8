// Package audiotest builds small deterministic audio fixtures for tests.
package audiotest

import (
	"math"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// Sine returns n samples of a sine wave with the given amplitude on the
// [-1, 1] scale.
func Sine(freq float64, sampleRate int, amplitude float64, n int) []float64 {
	out := make([]float64, n)
	w := 2 * math.Pi * freq / float64(sampleRate)
	for i := range out {
		out[i] = amplitude * math.Sin(w*float64(i))
	}
	return out
}

// Interleave duplicates a mono signal into interleaved dual-mono stereo.
func Interleave(mono []float64) []float64 {
	out := make([]float64, len(mono)*2)
	for i, v := range mono {
		out[2*i] = v
		out[2*i+1] = v
	}
	return out
}

// WriteWAV encodes interleaved samples on the [-1, 1] scale as a 16-bit PCM
// WAV file. The encoder quantizes the normalized floats itself.
func WriteWAV(path string, samples []float64, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	defer enc.Close()

	data := make([]float32, len(samples))
	for i, v := range samples {
		data[i] = float32(v)
	}
	buf := &audio.Float32Buffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// WriteAIFF encodes interleaved samples on the [-1, 1] scale as a 16-bit PCM
// AIFF file. go-audio/aiff takes raw integer amplitudes, so the conversion
// happens here.
func WriteAIFF(path string, samples []float64, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := aiff.NewEncoder(f, sampleRate, 16, channels)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, v := range samples {
		s := int(math.Round(v * 32767))
		if s > 32767 {
			s = 32767
		}
		if s < -32768 {
			s = -32768
		}
		buf.Data[i] = s
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
