// Package media decodes audio files into normalized interleaved PCM streams.
//
// Decoding is delegated to format libraries (cwbudde/wav, go-audio/aiff,
// hajimehoshi/go-mp3, jfreymuth/oggvorbis); this package only adapts them to
// a common Source interface with float64 samples in [-1, 1).
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnknownFormat = errors.New("unknown audio format")
	ErrUnknownLength = errors.New("stream length unknown")
)

// Source is a decoded PCM stream with known geometry.
type Source interface {
	// SampleRate of the stream in Hz.
	SampleRate() int
	// Channels count (1 = mono, 2 = stereo).
	Channels() int
	// Frames is the total number of PCM frames in the stream.
	Frames() int64
	// ReadFrames fills dst with interleaved samples in [-1, 1) and returns
	// the number of complete frames written. io.EOF signals the end of the
	// stream.
	ReadFrames(dst []float64) (int, error)
	// Close releases any resources.
	Close() error
}

// Open opens path with a decoder picked by file extension.
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var src Source
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		src, err = newWAVSource(f)
	case ".aif", ".aiff", ".aifc":
		src, err = newAIFFSource(f)
	case ".mp3":
		src, err = newMP3Source(f)
	case ".ogg", ".oga":
		src, err = newVorbisSource(f)
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &fileSource{Source: src, f: f}, nil
}

// fileSource ties the lifetime of the backing file to the Source.
type fileSource struct {
	Source
	f *os.File
}

func (s *fileSource) Close() error {
	return s.f.Close()
}

// ReadFull fills dst with complete frames from src, looping over short
// reads, and reports io.EOF with whatever arrived before the stream ended.
func ReadFull(src Source, dst []float64) (int, error) {
	channels := src.Channels()
	want := len(dst) / channels
	frames := 0
	for frames < want {
		n, err := src.ReadFrames(dst[frames*channels:])
		frames += n
		if err != nil {
			return frames, err
		}
		if n == 0 {
			return frames, io.EOF
		}
	}
	return frames, nil
}
