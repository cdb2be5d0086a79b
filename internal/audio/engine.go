// SPDX-License-Identifier: MIT
/*
Package audio implements live capture for the spectral analyzer:
- Audio input via PortAudio with pre-allocated buffers
- Noise gate with branchless amplitude scan
- WAV recording with atomic state management
- Result publishing to the configured transports

Thread Safety:
- The PortAudio callback runs on a dedicated OS thread and feeds the
  analyzer under a mutex; the same mutex guards the result accessors so
  transports can poll from their own goroutines.
- Recording state uses atomic operations.
*/
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"audiofft/internal/config"
	applog "audiofft/internal/log"
	"audiofft/internal/notes"
	"audiofft/internal/spectral"
	"audiofft/internal/transport"
	"audiofft/internal/transport/udp"
)

// captureBitDepth is the sample width PortAudio delivers to the stream
// callback. The configured bits_per_sample applies to file analysis;
// live capture always arrives as int32.
const captureBitDepth = 32

type Engine struct {
	cfg *config.Config

	// Analyzer state. mu guards it: the stream callback writes while
	// transports read ranked results from their own goroutines.
	mu       sync.Mutex
	analyzer *spectral.Analyzer

	// Audio input handling.
	inputBuffer  []int32
	packBuffer   []byte // inputBuffer re-packed as little-endian PCM
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Result publishing.
	transports []transport.Transport
	lookup     spectral.NoteLookup
	topN       int

	// Noise gate for signal conditioning.
	gateEnabled   bool
	gateThreshold int32 // Absolute amplitude threshold (0-2147483647)

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *goaudio.IntBuffer // Reusable buffer for format conversion
}

func NewEngine(cfg *config.Config) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	windowFn, err := spectral.ParseWindowFunc(cfg.Analysis.WindowFunction)
	if err != nil {
		return nil, err
	}

	lookup, err := notes.NewTableWithReference(cfg.Analysis.ReferencePitch)
	if err != nil {
		return nil, err
	}

	analyzer := spectral.NewAnalyzer(cfg.Analysis.WindowLength, spectral.NewGonumDriver(windowFn))

	// One callback buffer per FFT window, so every callback completes
	// exactly one transform.
	frames := cfg.Analysis.WindowLength
	inputSize := frames * cfg.Audio.Channels

	e := &Engine{
		cfg:           cfg,
		analyzer:      analyzer,
		inputBuffer:   make([]int32, inputSize),
		packBuffer:    make([]byte, inputSize*(captureBitDepth/8)),
		inputDevice:   inputDevice,
		lookup:        lookup,
		topN:          cfg.Analysis.TopResults,
		gateEnabled:   true,
		gateThreshold: 2147483647 / 1000, // Default to ~0.1% of max value
	}

	err = analyzer.Begin(spectral.Config{
		Channels:      cfg.Audio.Channels,
		BitsPerSample: captureBitDepth,
		SampleRate:    cfg.Audio.SampleRate,
		ChannelUsed:   cfg.Audio.ChannelUsed,
		OnResult:      e.publishResult,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return e, nil
}

// AddTransport registers a transport to receive a ResultFrame for every
// completed window. Not safe to call after StartInputStream.
func (e *Engine) AddTransport(t transport.Transport) {
	e.transports = append(e.transports, t)
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.Audio.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: len(e.inputBuffer) / e.cfg.Audio.Channels,
		SampleRate:      float64(e.cfg.Audio.SampleRate),
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return err
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)

	// Write to WAV file if recording
	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		if err := e.writeRecording(e.inputBuffer); err != nil {
			applog.Errorf("audio: error writing to WAV file: %v", err)
		}
	}

	// Skip analysis when the gate is closed; recording above is
	// unaffected so quiet passages still land on disk.
	if e.gateEnabled && maxAmplitude(e.inputBuffer) <= e.gateThreshold {
		return
	}

	n := packInt32LE(e.packBuffer, e.inputBuffer)

	e.mu.Lock()
	if _, err := e.analyzer.Write(e.packBuffer[:n]); err != nil {
		applog.Errorf("audio: dropping capture buffer: %v", err)
	}
	e.mu.Unlock()
}

// publishResult runs synchronously from the analyzer's window-complete
// callback, while the engine mutex is held by processInputStream.
func (e *Engine) publishResult(a *spectral.Analyzer) {
	if len(e.transports) == 0 {
		return
	}
	frame := transport.NewResultFrame(a, e.topN, e.lookup)
	for _, t := range e.transports {
		if err := t.Send(frame); err != nil {
			applog.Errorf("audio: transport send failed: %v", err)
		}
	}
}

// ResultTime returns the timestamp of the most recent completed window.
func (e *Engine) ResultTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer.ResultTime()
}

// Dominant returns the strongest bin of the most recent window.
func (e *Engine) Dominant() spectral.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer.Dominant()
}

// TopResults returns the n strongest bins of the most recent window.
func (e *Engine) TopResults(n int) []spectral.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer.TopResults(n)
}

// Size returns the analyzer's FFT window length.
func (e *Engine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer.Size()
}

// SampleRate returns the capture sample rate in Hz.
func (e *Engine) SampleRate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer.SampleRate()
}

var _ udp.ResultProvider = (*Engine)(nil)

func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	if err := e.StopInputStream(); err != nil {
		return err
	}

	e.mu.Lock()
	e.analyzer.End()
	e.mu.Unlock()

	return nil
}

// EnableGate reinstates level-based gating after DisableGate.
func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

// DisableGate routes every capture buffer to the analyzer regardless of
// its level.
func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold sets the gate level as a fraction of full scale at
// the capture depth (int32 samples): 0 analyzes every buffer, 1 none.
// Buffers whose peak amplitude stays at or below the threshold are never
// packed or written to the analyzer, so silence burns no transforms.
func (e *Engine) SetGateThreshold(threshold float64) {
	threshold = math.Min(1.0, math.Max(0.0, threshold))
	e.gateThreshold = int32(threshold * float64(math.MaxInt32))
}

// GetGateThreshold reports the gate level as a fraction of full scale.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold) / float64(math.MaxInt32)
}

// maxAmplitude returns the largest absolute sample value in the buffer.
// Branchless so the scan stays predictable in the stream callback.
func maxAmplitude(buffer []int32) int32 {
	var max int32
	for i := range buffer {
		sample := buffer[i]
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - max
		max += (diff & (diff >> 31)) ^ diff
	}
	return max
}

// packInt32LE re-packs int32 capture samples as little-endian PCM bytes
// for the analyzer. Returns the number of bytes written.
func packInt32LE(dst []byte, src []int32) int {
	if len(dst) < len(src)*4 {
		panic(fmt.Sprintf("audio: pack buffer too small: %d < %d", len(dst), len(src)*4))
	}
	for i, s := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(s))
	}
	return len(src) * 4
}
