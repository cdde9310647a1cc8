package mixramp

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dlk3/mixramp/media"
	"github.com/dlk3/mixramp/replaygain"
)

// ErrUnsupportedChannels is returned for anything but mono or stereo input.
var ErrUnsupportedChannels = errors.New("only mono and stereo input is supported")

// The ReplayGain analyzer wants samples on the signed 16-bit scale; sources
// deliver them normalized to ±1.
const sampleScale = 1 << 15

// Analysis is the computed ramp pair for one track.
type Analysis struct {
	Start Ramp
	End   Ramp
}

// Scan partitions the track into fixed-duration chunks, measures each
// chunk's loudness with a freshly reset ReplayGain statistic, and extracts
// the threshold-crossing ramps. A trailing chunk shorter than the chunk
// duration is dropped rather than analyzed: it holds too few RMS windows for
// a reliable statistic.
//
// Any failure (unsupported layout or sample rate, a chunk with too few
// samples, a read error) aborts the scan; no partial result is returned.
func Scan(src media.Source) (*Analysis, error) {
	channels := src.Channels()
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, channels)
	}

	rate := src.SampleRate()
	analyzer, err := replaygain.NewAnalyzer(rate)
	if err != nil {
		return nil, err
	}

	chunkFrames := int(math.Round(ChunkSeconds * float64(rate)))
	length := float64(src.Frames())/float64(rate) + ChunkSeconds
	extractor := NewExtractor(length)

	// One set of buffers for the whole track.
	interleaved := make([]float64, chunkFrames*channels)
	left := make([]float64, chunkFrames)
	var right []float64
	if channels == 2 {
		right = make([]float64, chunkFrames)
	}

	for chunk := 0; ; chunk++ {
		n, err := media.ReadFull(src, interleaved)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading audio: %w", err)
		}
		if n < chunkFrames {
			break
		}

		if channels == 1 {
			for i := 0; i < chunkFrames; i++ {
				left[i] = sampleScale * interleaved[i]
			}
		} else {
			for i := 0; i < chunkFrames; i++ {
				left[i] = sampleScale * interleaved[2*i]
				right[i] = sampleScale * interleaved[2*i+1]
			}
		}

		if err := analyzer.Analyze(left, right, channels); err != nil {
			return nil, err
		}
		gain, err := analyzer.TitleGain()
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk, err)
		}

		chunkTime := float64(chunk*chunkFrames) / float64(rate)
		// The chunk loudness is the negative of the chunk's replay gain.
		extractor.Observe(chunkTime, -gain)
	}

	start, end := extractor.Ramps()
	return &Analysis{Start: start, End: end}, nil
}

// WriteTo emits the tag lines understood by MPD and friends:
//
//	MIXRAMP_REF=89.00
//	MIXRAMP_START=<db> <time>;...;
//	MIXRAMP_END=<db> <time>;...;
func (a *Analysis) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "MIXRAMP_REF=%.2f\nMIXRAMP_START=%s\nMIXRAMP_END=%s\n",
		ReferenceLoudness, a.Start, a.End)
	return int64(n), err
}
