// Package replaygain measures the perceived loudness of PCM audio using the
// ReplayGain reference algorithm: an equal-loudness Yulewalk pre-filter and a
// Butterworth RMS-shaping filter per channel, mean-square energy over 50 ms
// windows, and a 95th-percentile statistic over a 0.01 dB histogram relative
// to the 64.82 dB pink-noise reference.
package replaygain

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnsupportedSampleRate = errors.New("unsupported sample rate")
	ErrNotEnoughSamples      = errors.New("not enough samples to compute gain")
	ErrAnalysis              = errors.New("analysis failed")
)

const (
	maxOrder = 10 // Yulewalk order, the longest history either filter needs

	windowSeconds = 0.050
	rmsPercentile = 0.95

	stepsPerDB    = 100
	maxDB         = 120
	histogramSize = stepsPerDB * maxDB

	// Loudness of the pink-noise reference signal at 89 dB SPL.
	pinkRef = 64.82
)

// channelState carries one channel's filter history across Analyze calls.
// step and out keep maxOrder samples of history in front of the live window
// so the filters always see valid x[n-k] and y[n-k] terms.
type channelState struct {
	prebuf [2 * maxOrder]float64
	step   []float64
	out    []float64
}

func (c *channelState) reset() {
	for i := 0; i < maxOrder; i++ {
		c.prebuf[i] = 0
		c.step[i] = 0
		c.out[i] = 0
	}
}

// saveHistory keeps the tail of the block just analyzed as filter input
// history for the next call.
func (c *channelState) saveHistory(src []float64) {
	n := len(src)
	if n < maxOrder {
		copy(c.prebuf[:], c.prebuf[n:maxOrder])
		copy(c.prebuf[maxOrder-n:maxOrder], src)
	} else {
		copy(c.prebuf[:maxOrder], src[n-maxOrder:])
	}
}

// slide moves the last window's filtered tail to the front of the history
// region once a full RMS window has been consumed.
func (c *channelState) slide(n int) {
	copy(c.step[:maxOrder], c.step[n:n+maxOrder])
	copy(c.out[:maxOrder], c.out[n:n+maxOrder])
}

// Analyzer accumulates a loudness statistic over successive blocks of PCM.
// All state is owned by the value; nothing is shared or global. It is not
// safe for concurrent use.
type Analyzer struct {
	sampleRate int
	window     int // samples per RMS window
	yule       kernel
	butter     kernel

	left  channelState
	right channelState

	windowFill int // samples accumulated into the current window
	lsum, rsum float64

	track [histogramSize]uint32
	album [histogramSize]uint32
}

// NewAnalyzer returns an analyzer for the given sample rate. The filter
// kernels are only published for a fixed family of broadcast and consumer
// rates; anything else fails with ErrUnsupportedSampleRate.
func NewAnalyzer(sampleRate int) (*Analyzer, error) {
	yule, ok := yuleKernels[sampleRate]
	if !ok {
		return nil, fmt.Errorf("%w: %d Hz", ErrUnsupportedSampleRate, sampleRate)
	}
	a := &Analyzer{
		sampleRate: sampleRate,
		window:     int(math.Ceil(float64(sampleRate) * windowSeconds)),
		yule:       yule,
		butter:     butterKernels[sampleRate],
	}
	a.left.step = make([]float64, a.window+maxOrder)
	a.left.out = make([]float64, a.window+maxOrder)
	a.right.step = make([]float64, a.window+maxOrder)
	a.right.out = make([]float64, a.window+maxOrder)
	return a, nil
}

// SampleRate returns the rate the analyzer was built for.
func (a *Analyzer) SampleRate() int {
	return a.sampleRate
}

// Analyze feeds one block of samples through the filter pipeline and
// accumulates windowed energy into the loudness histogram. Samples are on the
// signed 16-bit scale (full-scale input is ±32768) regardless of the source
// bit depth. For mono input pass channels=1 and a nil right slice; for stereo
// both slices must have equal length.
func (a *Analyzer) Analyze(left, right []float64, channels int) error {
	n := len(left)
	if n == 0 {
		return nil
	}
	switch channels {
	case 1:
		right = left
	case 2:
		if len(right) != n {
			return fmt.Errorf("%w: left %d and right %d samples", ErrAnalysis, n, len(right))
		}
	default:
		return fmt.Errorf("%w: %d channels", ErrAnalysis, channels)
	}

	// Stage the head of the block behind the saved history so the filters
	// can reach back across the call boundary.
	head := n
	if head > maxOrder {
		head = maxOrder
	}
	copy(a.left.prebuf[maxOrder:], left[:head])
	copy(a.right.prebuf[maxOrder:], right[:head])

	pos := 0
	for pos < n {
		cur := n - pos
		if room := a.window - a.windowFill; cur > room {
			cur = room
		}

		var lsrc, rsrc []float64
		var srcOff int
		if pos < maxOrder {
			if cur > maxOrder-pos {
				cur = maxOrder - pos
			}
			lsrc, rsrc = a.left.prebuf[:], a.right.prebuf[:]
			srcOff = maxOrder + pos
		} else {
			lsrc, rsrc = left, right
			srcOff = pos
		}

		dstOff := maxOrder + a.windowFill
		a.yule.filter(lsrc, srcOff, a.left.step, dstOff, cur, 1e-10)
		a.yule.filter(rsrc, srcOff, a.right.step, dstOff, cur, 1e-10)
		a.butter.filter(a.left.step, dstOff, a.left.out, dstOff, cur, 0)
		a.butter.filter(a.right.step, dstOff, a.right.out, dstOff, cur, 0)

		for i := dstOff; i < dstOff+cur; i++ {
			l := a.left.out[i]
			r := a.right.out[i]
			a.lsum += l * l
			a.rsum += r * r
		}

		pos += cur
		a.windowFill += cur
		if a.windowFill == a.window {
			a.flushWindow()
		}
	}

	a.left.saveHistory(left)
	a.right.saveHistory(right)
	return nil
}

// flushWindow folds one full RMS window into the histogram and starts the
// next window, carrying the filter tails over.
func (a *Analyzer) flushWindow() {
	meanSquare := (a.lsum + a.rsum) / float64(a.windowFill) * 0.5
	val := stepsPerDB * 10 * math.Log10(meanSquare+1e-37)
	bin := int(val)
	if bin < 0 {
		bin = 0
	}
	if bin >= histogramSize {
		bin = histogramSize - 1
	}
	a.track[bin]++

	a.lsum, a.rsum = 0, 0
	a.left.slide(a.windowFill)
	a.right.slide(a.windowFill)
	a.windowFill = 0
}

// TitleGain returns the recommended gain in dB for the audio analyzed since
// the last call, folds that audio into the album statistic, and resets all
// per-title state so the next call starts fresh. A trailing partial RMS
// window is discarded. Fails with ErrNotEnoughSamples when not even one full
// window was accumulated.
func (a *Analyzer) TitleGain() (float64, error) {
	gain, err := histogramGain(a.track[:])

	for i, v := range a.track {
		a.album[i] += v
		a.track[i] = 0
	}
	a.left.reset()
	a.right.reset()
	a.windowFill = 0
	a.lsum, a.rsum = 0, 0

	return gain, err
}

// AlbumGain returns the recommended gain in dB over every title folded in so
// far. The album statistic is left intact.
func (a *Analyzer) AlbumGain() (float64, error) {
	return histogramGain(a.album[:])
}

// histogramGain locates the energy bin at the loud-end percentile of the
// accumulated window mass and converts it to a gain relative to the pink
// noise reference.
func histogramGain(h []uint32) (float64, error) {
	var total uint64
	for _, v := range h {
		total += uint64(v)
	}
	if total == 0 {
		return 0, ErrNotEnoughSamples
	}

	upper := int64(math.Ceil(float64(total) * (1 - rmsPercentile)))
	i := len(h)
	for i > 0 {
		i--
		upper -= int64(h[i])
		if upper <= 0 {
			break
		}
	}
	return pinkRef - float64(i)/stepsPerDB, nil
}
