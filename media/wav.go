package media

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

var ErrNotWAV = errors.New("not a WAV file")

type wavSource struct {
	dec    *wav.Decoder
	frames int64
	buf    *audio.Float32Buffer
}

func newWAVSource(r io.ReadSeeker) (*wavSource, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading wav chunks: %w", err)
	}
	if dec.NumChans == 0 || dec.BitDepth < 8 {
		return nil, ErrNotWAV
	}
	// PCMLen is the byte length of the data chunk.
	bytesPerSample := int64(dec.BitDepth) / 8
	return &wavSource{
		dec:    dec,
		frames: dec.PCMLen() / bytesPerSample / int64(dec.NumChans),
	}, nil
}

func (s *wavSource) SampleRate() int { return int(s.dec.SampleRate) }
func (s *wavSource) Channels() int   { return int(s.dec.NumChans) }
func (s *wavSource) Frames() int64   { return s.frames }
func (s *wavSource) Close() error    { return nil }

func (s *wavSource) ReadFrames(dst []float64) (int, error) {
	channels := int(s.dec.NumChans)
	want := len(dst) / channels * channels
	if want == 0 {
		return 0, nil
	}
	if s.buf == nil || cap(s.buf.Data) < want {
		s.buf = &audio.Float32Buffer{
			Format:         s.dec.Format(),
			Data:           make([]float32, want),
			SourceBitDepth: int(s.dec.BitDepth),
		}
	}
	s.buf.Data = s.buf.Data[:want]

	// The decoder delivers samples already normalized to [-1, 1].
	n, err := s.dec.PCMBuffer(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = float64(s.buf.Data[i])
	}
	if n < want && err == nil {
		err = io.EOF
	}
	return n / channels, err
}
