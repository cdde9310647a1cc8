package media

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

type vorbisSource struct {
	dec *oggvorbis.Reader
	buf []float32
}

func newVorbisSource(r io.Reader) (*vorbisSource, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding ogg vorbis: %w", err)
	}
	// Length comes from the last page's granule position and needs a
	// seekable stream.
	if dec.Length() == 0 {
		return nil, ErrUnknownLength
	}
	return &vorbisSource{dec: dec}, nil
}

func (s *vorbisSource) SampleRate() int { return s.dec.SampleRate() }
func (s *vorbisSource) Channels() int   { return s.dec.Channels() }
func (s *vorbisSource) Frames() int64   { return s.dec.Length() }
func (s *vorbisSource) Close() error    { return nil }

func (s *vorbisSource) ReadFrames(dst []float64) (int, error) {
	channels := s.dec.Channels()
	want := len(dst) / channels * channels
	if want == 0 {
		return 0, nil
	}
	if cap(s.buf) < want {
		s.buf = make([]float32, want)
	}

	// Read counts individual samples, not frames.
	n, err := s.dec.Read(s.buf[:want])
	for i := 0; i < n; i++ {
		dst[i] = float64(s.buf[i])
	}
	if n == 0 && err == nil {
		err = io.EOF
	}
	return n / channels, err
}
