package media

import (
	"errors"
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

var ErrNotAIFF = errors.New("not an AIFF file")

type aiffSource struct {
	dec    *aiff.Decoder
	frames int64
	scale  float64
	buf    *audio.IntBuffer
}

func newAIFFSource(r io.ReadSeeker) (*aiffSource, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAIFF
	}
	dec.ReadInfo()
	if dec.NumChans == 0 || dec.BitDepth < 8 {
		return nil, ErrNotAIFF
	}
	return &aiffSource{
		dec:    dec,
		frames: int64(dec.NumSampleFrames),
		scale:  1 / float64(int64(1)<<(dec.BitDepth-1)),
	}, nil
}

func (s *aiffSource) SampleRate() int { return s.dec.SampleRate }
func (s *aiffSource) Channels() int   { return int(s.dec.NumChans) }
func (s *aiffSource) Frames() int64   { return s.frames }
func (s *aiffSource) Close() error    { return nil }

func (s *aiffSource) ReadFrames(dst []float64) (int, error) {
	channels := int(s.dec.NumChans)
	want := len(dst) / channels * channels
	if want == 0 {
		return 0, nil
	}
	if s.buf == nil || cap(s.buf.Data) < want {
		s.buf = &audio.IntBuffer{
			Format:         s.dec.Format(),
			Data:           make([]int, want),
			SourceBitDepth: int(s.dec.BitDepth),
		}
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = float64(s.buf.Data[i]) * s.scale
	}
	if n < want && err == nil {
		err = io.EOF
	}
	return n / channels, err
}
