package media

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dlk3/mixramp/internal/audiotest"
)

func TestOpenUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.flac")
	if err := audiotest.WriteWAV(path, audiotest.Sine(440, 44100, 0.5, 4410), 44100, 1); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Open(.flac) = %v, want ErrUnknownFormat", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("Open on missing file succeeded")
	}
}

func TestOpenRejectsGarbageWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.wav")
	if err := writeBytes(path, []byte("definitely not riff data, not even close")); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("Open on garbage WAV succeeded")
	}
}

func TestWAVRoundTripMono(t *testing.T) {
	const (
		rate   = 44100
		frames = 22050
	)
	sig := audiotest.Sine(440, rate, 0.5, frames)
	path := filepath.Join(t.TempDir(), "mono.wav")
	if err := audiotest.WriteWAV(path, sig, rate, 1); err != nil {
		t.Fatal(err)
	}

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.SampleRate() != rate {
		t.Fatalf("SampleRate() = %d, want %d", src.SampleRate(), rate)
	}
	if src.Channels() != 1 {
		t.Fatalf("Channels() = %d, want 1", src.Channels())
	}
	if src.Frames() != frames {
		t.Fatalf("Frames() = %d, want %d", src.Frames(), frames)
	}

	got := readAll(t, src, 1)
	if len(got) != frames {
		t.Fatalf("read %d frames, want %d", len(got), frames)
	}
	// 16-bit quantization bounds the round-trip error; anything beyond it
	// means the decode path rescaled the samples.
	for i, v := range got {
		if math.Abs(v-sig[i]) > 1e-4 {
			t.Fatalf("sample %d = %f, want ~%f", i, v, sig[i])
		}
	}
}

func TestWAVRoundTripStereo(t *testing.T) {
	const (
		rate   = 48000
		frames = 4800
	)
	mono := audiotest.Sine(1000, rate, 0.25, frames)
	path := filepath.Join(t.TempDir(), "stereo.wav")
	if err := audiotest.WriteWAV(path, audiotest.Interleave(mono), rate, 2); err != nil {
		t.Fatal(err)
	}

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", src.Channels())
	}
	if src.Frames() != frames {
		t.Fatalf("Frames() = %d, want %d", src.Frames(), frames)
	}

	got := readAll(t, src, 2)
	if len(got) != frames*2 {
		t.Fatalf("read %d samples, want %d", len(got), frames*2)
	}
	for i := 0; i < len(got); i += 2 {
		if got[i] != got[i+1] {
			t.Fatalf("frame %d: channels differ in dual-mono file: %f vs %f", i/2, got[i], got[i+1])
		}
	}
}

func TestAIFFRoundTripMono(t *testing.T) {
	const (
		rate   = 44100
		frames = 8820
	)
	sig := audiotest.Sine(440, rate, 0.5, frames)
	path := filepath.Join(t.TempDir(), "mono.aiff")
	if err := audiotest.WriteAIFF(path, sig, rate, 1); err != nil {
		t.Fatal(err)
	}

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.SampleRate() != rate {
		t.Fatalf("SampleRate() = %d, want %d", src.SampleRate(), rate)
	}
	if src.Channels() != 1 {
		t.Fatalf("Channels() = %d, want 1", src.Channels())
	}
	if src.Frames() != frames {
		t.Fatalf("Frames() = %d, want %d", src.Frames(), frames)
	}

	got := readAll(t, src, 1)
	if len(got) != frames {
		t.Fatalf("read %d frames, want %d", len(got), frames)
	}
	for i, v := range got {
		if math.Abs(v-sig[i]) > 1e-4 {
			t.Fatalf("sample %d = %f, want ~%f", i, v, sig[i])
		}
	}
}

func TestAIFFRoundTripStereoGeometry(t *testing.T) {
	const (
		rate   = 48000
		frames = 2400
	)
	mono := audiotest.Sine(1000, rate, 0.25, frames)
	path := filepath.Join(t.TempDir(), "stereo.aif")
	if err := audiotest.WriteAIFF(path, audiotest.Interleave(mono), rate, 2); err != nil {
		t.Fatal(err)
	}

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", src.Channels())
	}
	if src.Frames() != frames {
		t.Fatalf("Frames() = %d, want %d", src.Frames(), frames)
	}

	got := readAll(t, src, 2)
	if len(got) != frames*2 {
		t.Fatalf("read %d samples, want %d", len(got), frames*2)
	}
	for i := 0; i < len(got); i += 2 {
		if got[i] != got[i+1] {
			t.Fatalf("frame %d: channels differ in dual-mono file: %f vs %f", i/2, got[i], got[i+1])
		}
	}
}

func TestOpenRejectsGarbagePerFormat(t *testing.T) {
	dir := t.TempDir()
	garbage := []byte("definitely not audio data, nothing to sync on here at all")
	for _, name := range []string{"junk.aiff", "junk.mp3", "junk.ogg"} {
		path := filepath.Join(dir, name)
		if err := writeBytes(path, garbage); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); err == nil {
			t.Fatalf("Open(%s) on garbage succeeded", name)
		}
	}
}

func TestReadFullReportsShortStream(t *testing.T) {
	const (
		rate   = 44100
		frames = 1000
	)
	path := filepath.Join(t.TempDir(), "short.wav")
	if err := audiotest.WriteWAV(path, audiotest.Sine(440, rate, 0.5, frames), rate, 1); err != nil {
		t.Fatal(err)
	}
	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	dst := make([]float64, 4410)
	n, err := ReadFull(src, dst)
	if err != io.EOF {
		t.Fatalf("ReadFull on short stream err = %v, want io.EOF", err)
	}
	if n != frames {
		t.Fatalf("ReadFull read %d frames, want %d", n, frames)
	}
}

// readAll drains src in odd-sized reads, returning interleaved samples.
func readAll(t *testing.T, src Source, channels int) []float64 {
	t.Helper()
	var out []float64
	buf := make([]float64, 301*channels)
	for {
		n, err := src.ReadFrames(buf)
		out = append(out, buf[:n*channels]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 {
			return out
		}
	}
}

func writeBytes(path string, b []byte) error {
	return os.WriteFile(path, b, 0o644)
}
