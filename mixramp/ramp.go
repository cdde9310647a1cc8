// Package mixramp computes MIXRAMP crossfade tags for an audio track: two
// compressed lists of (loudness, time) points describing how the track's
// perceived loudness rises at the start and falls at the end. A playback
// engine interpolates between the points to pick the overlap for a smooth
// crossfade into the next track.
package mixramp

import (
	"fmt"
	"math"
	"strings"
)

// Thresholds is the fixed ladder of dB levels at which the loudness curve is
// sampled. Strictly increasing; never mutated.
var Thresholds = [15]float64{-90, -60, -40, -30, -24, -21, -18, -15, -12, -9, -6, -3, 0, 3, 6}

const (
	// ChunkSeconds is the duration of one analysis chunk. 20 ms is the
	// recommended ReplayGain minimum but leaves too few samples per RMS
	// window, so chunks are 100 ms.
	ChunkSeconds = 0.10

	// ReferenceLoudness is the fixed level, in dB, that every ramp value
	// is expressed against. Emitted as MIXRAMP_REF.
	ReferenceLoudness = 89.0
)

// Point is one breakpoint of a loudness ramp. Time is seconds from the start
// of the track for start ramps and seconds remaining for end ramps.
type Point struct {
	DB   float64
	Time float64
}

// Ramp is an ordered list of breakpoints, one threshold crossing each after
// compression.
type Ramp []Point

// String renders the ramp in tag form: "db time;" pairs, two decimals each,
// semicolon-terminated. An empty ramp renders as the empty string.
func (r Ramp) String() string {
	var b strings.Builder
	for _, p := range r {
		fmt.Fprintf(&b, "%.2f %.2f;", p.DB, p.Time)
	}
	return b.String()
}

// thresholdState tracks the crossings of a single ladder entry. Times start
// out NaN, meaning never observed.
type thresholdState struct {
	startDB   float64
	startTime float64
	endDB     float64
	endTime   float64
}

// Extractor consumes a chronological stream of per-chunk loudness values and
// keeps, per threshold, the first and the most recent crossing.
type Extractor struct {
	length float64
	states [len(Thresholds)]thresholdState
}

// NewExtractor returns an extractor for a track of the given length in
// seconds. The length carries one extra chunk duration: end times are
// recorded from the start of the chunk that crossed the threshold, and the
// offset compensates for that.
func NewExtractor(length float64) *Extractor {
	e := &Extractor{length: length}
	for i := range e.states {
		e.states[i] = thresholdState{
			startDB:   Thresholds[i],
			startTime: math.NaN(),
			endDB:     Thresholds[i],
			endTime:   math.NaN(),
		}
	}
	return e
}

// Observe records one chunk. chunkTime is the elapsed time at the start of
// the chunk; chunks must arrive in increasing time order. The first time the
// loudness reaches a threshold fixes that threshold's start point for good;
// the end point is rewritten on every crossing so it always holds the most
// recent one, as time remaining.
func (e *Extractor) Observe(chunkTime, loudness float64) {
	for i := range e.states {
		s := &e.states[i]
		if math.IsNaN(s.startTime) && loudness >= Thresholds[i] {
			s.startDB = loudness
			s.startTime = chunkTime
		}
		if loudness >= Thresholds[i] {
			s.endDB = loudness
			s.endTime = e.length - chunkTime
		}
	}
}

// Ramps renders the start and end ramps. Thresholds that were never reached
// are skipped, and a point identical to the previously emitted one is
// collapsed away, leaving a minimal breakpoint list.
func (e *Extractor) Ramps() (start, end Ramp) {
	lastDB, lastTime := 0.0, math.NaN()
	for i := range e.states {
		s := e.states[i]
		if math.IsNaN(s.startTime) || (s.startTime == lastTime && s.startDB == lastDB) {
			continue
		}
		lastDB, lastTime = s.startDB, s.startTime
		start = append(start, Point{DB: s.startDB, Time: s.startTime})
	}

	lastDB, lastTime = 0.0, math.NaN()
	for i := range e.states {
		s := e.states[i]
		if math.IsNaN(s.endTime) || (s.endTime == lastTime && s.endDB == lastDB) {
			continue
		}
		lastDB, lastTime = s.endDB, s.endTime
		end = append(end, Point{DB: s.endDB, Time: s.endTime})
	}
	return start, end
}
