package media

import (
	"encoding/binary"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to 16-bit little-endian stereo.
const mp3BytesPerFrame = 4

type mp3Source struct {
	dec    *mp3.Decoder
	frames int64
	buf    []byte
}

func newMP3Source(r io.Reader) (*mp3Source, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}
	if dec.Length() < 0 {
		return nil, ErrUnknownLength
	}
	return &mp3Source{
		dec:    dec,
		frames: dec.Length() / mp3BytesPerFrame,
	}, nil
}

func (s *mp3Source) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Source) Channels() int   { return 2 }
func (s *mp3Source) Frames() int64   { return s.frames }
func (s *mp3Source) Close() error    { return nil }

func (s *mp3Source) ReadFrames(dst []float64) (int, error) {
	frames := len(dst) / 2
	need := frames * mp3BytesPerFrame
	if need == 0 {
		return 0, nil
	}
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	b := s.buf[:need]

	n, err := io.ReadFull(s.dec, b)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	got := n / mp3BytesPerFrame
	for i := 0; i < got*2; i++ {
		v := int16(binary.LittleEndian.Uint16(b[2*i:]))
		dst[i] = float64(v) / 32768
	}
	if got == 0 && err == nil {
		err = io.EOF
	}
	return got, err
}
