// SPDX-License-Identifier: MIT
/*
Package spectral converts a stream of interleaved PCM bytes into periodic
FFT spectra and extracts frequency/magnitude results from them.

The Analyzer accumulates one channel of the incoming stream into a
fixed-length sample window. Every time the window fills, it runs the
configured transform Driver, stamps the result time and invokes the
registered callback. Results are read back through Dominant, TopResults
and Frequency.

The analyzer is strictly single-threaded: Write is the only mutating
entry point and must be called from one goroutine at a time. The result
callback runs on Write's call stack and must not call Write or Begin on
the same analyzer.
*/
package spectral

import (
	"encoding/binary"
	"fmt"
	"time"

	"audiofft/pkg/bitint"

	applog "audiofft/internal/log"
)

// Config holds the stream format and callback for an Analyzer. All fields
// are applied by Begin; SetFormat re-applies the format fields later
// without resizing the window.
type Config struct {
	Channels      int             // Interleaved channels in the input stream (1=mono, 2=stereo).
	BitsPerSample int             // Sample width in bits: 16, 24 or 32.
	SampleRate    int             // Stream sample rate in Hz.
	ChannelUsed   int             // Which channel feeds the window. Must be < Channels.
	OnResult      func(*Analyzer) // Invoked synchronously after each completed transform. May be nil.
}

// DefaultConfig returns the stereo 16-bit 44.1 kHz starting point.
func DefaultConfig() Config {
	return Config{
		Channels:      2,
		BitsPerSample: 16,
		SampleRate:    44100,
	}
}

// decodeFunc reads one little-endian signed sample from the head of a byte
// slice and normalizes it to [-1, 1).
type decodeFunc func([]byte) float64

// Analyzer owns the sample window and drives the transform Driver. It
// implements io.Writer so any byte-stream source can feed it directly.
type Analyzer struct {
	driver    Driver
	windowLen int
	cursor    int // Next window slot to fill, in [0, windowLen).
	cfg       Config
	decode    decodeFunc
	sampleLen int // Bytes per sample at the configured depth.
	timestamp time.Time
}

// NewAnalyzer creates an analyzer over the given driver. windowLen must be
// a power of two; this is checked by Begin, not silently corrected.
func NewAnalyzer(windowLen int, drv Driver) *Analyzer {
	return &Analyzer{
		driver:    drv,
		windowLen: windowLen,
	}
}

// Begin validates the configuration and starts the transform driver. On
// any error the driver is left unstarted and subsequent Writes consume
// nothing.
func (a *Analyzer) Begin(cfg Config) error {
	if !bitint.IsPowerOfTwo(a.windowLen) {
		applog.Errorf("spectral: window length must be a power of two, got %d", a.windowLen)
		return fmt.Errorf("%w: got %d", ErrWindowNotPowerOfTwo, a.windowLen)
	}
	decode, ok := decoderFor(cfg.BitsPerSample)
	if !ok {
		applog.Errorf("spectral: unsupported bits per sample: %d", cfg.BitsPerSample)
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, cfg.BitsPerSample)
	}
	if cfg.Channels <= 0 || cfg.ChannelUsed < 0 || cfg.ChannelUsed >= cfg.Channels {
		return fmt.Errorf("%w: channel %d of %d", ErrChannelOutOfRange, cfg.ChannelUsed, cfg.Channels)
	}
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSampleRate, cfg.SampleRate)
	}

	if err := a.driver.Begin(a.windowLen); err != nil {
		return err
	}
	if !a.driver.Ready() {
		return ErrDriverNotReady
	}

	a.cfg = cfg
	a.decode = decode
	a.sampleLen = cfg.BitsPerSample / 8
	a.cursor = 0
	return nil
}

// SetFormat re-applies the stream format while keeping the window length
// and the registered callback. Used when the source changes sample rate,
// channel count or bit depth mid-stream.
func (a *Analyzer) SetFormat(channels, bitsPerSample, sampleRate int) error {
	cfg := a.cfg
	cfg.Channels = channels
	cfg.BitsPerSample = bitsPerSample
	cfg.SampleRate = sampleRate
	return a.Begin(cfg)
}

// End releases the transform driver. Idempotent.
func (a *Analyzer) End() {
	a.driver.End()
}

// Write ingests interleaved little-endian PCM frames. For each complete
// frame it decodes the sample of the configured channel into the window;
// every time the window fills, one transform runs and the callback fires.
// A single call may complete several windows.
//
// A trailing partial frame is dropped, not carried over to the next call,
// and the dropped bytes still count as consumed. Before a successful
// Begin, Write consumes nothing and returns ErrNotStarted.
//
// Write is not reentrant: the result callback must not call Write on the
// same analyzer.
func (a *Analyzer) Write(p []byte) (int, error) {
	if a.decode == nil || !a.driver.Ready() {
		return 0, ErrNotStarted
	}

	frameLen := a.sampleLen * a.cfg.Channels
	offset := a.cfg.ChannelUsed * a.sampleLen
	for base := 0; base+frameLen <= len(p); base += frameLen {
		a.driver.SetSample(a.cursor, a.decode(p[base+offset:]))
		a.cursor++
		if a.cursor >= a.windowLen {
			a.completeWindow()
		}
	}
	return len(p), nil
}

// completeWindow runs the transform, resets the fill cursor, stamps the
// result time and fires the callback on the current call stack.
func (a *Analyzer) completeWindow() {
	a.driver.Transform()
	a.cursor = 0
	a.timestamp = time.Now()

	if a.cfg.OnResult != nil {
		a.cfg.OnResult(a)
	}
}

// AvailableForWrite returns the byte count of one full single-channel
// window at the configured depth, as a sizing hint for callers. Write
// itself accepts any length.
func (a *Analyzer) AvailableForWrite() int {
	return a.sampleLen * a.windowLen
}

// Size returns the window length, which is also the transform length.
func (a *Analyzer) Size() int {
	return a.windowLen
}

// ResultTime returns the time of the last completed transform. Pollers
// compare it against a previously seen value to detect new results; it is
// the zero time until the first window completes.
func (a *Analyzer) ResultTime() time.Time {
	return a.timestamp
}

// Frequency returns the center frequency in Hz of the given bin. Bins
// outside [0, Size/2) carry no meaningful energy and yield 0.
func (a *Analyzer) Frequency(bin int) float64 {
	if bin < 0 || bin >= a.windowLen/2 {
		return 0
	}
	return float64(bin) * float64(a.cfg.SampleRate) / float64(a.windowLen)
}

// SampleRate returns the configured stream sample rate in Hz.
func (a *Analyzer) SampleRate() int {
	return a.cfg.SampleRate
}

// Driver exposes the underlying transform driver.
func (a *Analyzer) Driver() Driver {
	return a.driver
}

func decoderFor(bitsPerSample int) (decodeFunc, bool) {
	switch bitsPerSample {
	case 16:
		return decodeInt16, true
	case 24:
		return decodeInt24, true
	case 32:
		return decodeInt32, true
	default:
		return nil, false
	}
}

func decodeInt16(p []byte) float64 {
	return float64(int16(binary.LittleEndian.Uint16(p))) / float64(1<<15)
}

func decodeInt24(p []byte) float64 {
	v := int32(p[0]) | int32(p[1])<<8 | int32(p[2])<<16
	if v&0x800000 != 0 {
		v -= 1 << 24 // sign extend
	}
	return float64(v) / float64(1<<23)
}

func decodeInt32(p []byte) float64 {
	return float64(int32(binary.LittleEndian.Uint32(p))) / float64(1<<31)
}
