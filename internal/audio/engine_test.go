// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"audiofft/internal/spectral"
)

func TestMaxAmplitude(t *testing.T) {
	tests := []struct {
		name   string
		buffer []int32
		want   int32
	}{
		{"empty", nil, 0},
		{"silence", []int32{0, 0, 0, 0}, 0},
		{"positive peak", []int32{100, 5000, 200}, 5000},
		{"negative peak", []int32{100, -9000, 200}, 9000},
		{"mixed signs", []int32{-100, 100, -6000, 5999}, 6000},
		{"near max", []int32{math.MaxInt32, -math.MaxInt32}, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maxAmplitude(tt.buffer); got != tt.want {
				t.Errorf("maxAmplitude() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMaxAmplitudeNoAllocs(t *testing.T) {
	buffer := make([]int32, 1024)
	for i := range buffer {
		buffer[i] = int32(i * 31)
	}

	allocs := testing.AllocsPerRun(100, func() {
		_ = maxAmplitude(buffer)
	})
	if allocs != 0 {
		t.Errorf("maxAmplitude allocated %.1f times per run, want 0", allocs)
	}
}

func TestPackInt32LE(t *testing.T) {
	src := []int32{0, 1, -1, math.MaxInt32, math.MinInt32}
	dst := make([]byte, len(src)*4)

	n := packInt32LE(dst, src)
	if n != len(src)*4 {
		t.Fatalf("packInt32LE returned %d bytes, want %d", n, len(src)*4)
	}

	for i, want := range src {
		got := int32(binary.LittleEndian.Uint32(dst[i*4:]))
		if got != want {
			t.Errorf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestPackInt32LENoAllocs(t *testing.T) {
	src := make([]int32, 512)
	dst := make([]byte, len(src)*4)

	allocs := testing.AllocsPerRun(100, func() {
		_ = packInt32LE(dst, src)
	})
	if allocs != 0 {
		t.Errorf("packInt32LE allocated %.1f times per run, want 0", allocs)
	}
}

func TestGateThresholdClamping(t *testing.T) {
	tests := []struct {
		name  string
		set   float64
		want  float64
		delta float64
	}{
		{"zero", 0.0, 0.0, 0.0},
		{"half", 0.5, 0.5, 0.001},
		{"full", 1.0, 1.0, 0.001},
		{"below range", -0.5, 0.0, 0.0},
		{"above range", 1.5, 1.0, 0.001},
	}

	e := &Engine{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.SetGateThreshold(tt.set)
			got := e.GetGateThreshold()
			if math.Abs(got-tt.want) > tt.delta {
				t.Errorf("GetGateThreshold() = %f, want %f", got, tt.want)
			}
		})
	}
}

// gateTestEngine wires an engine around a live analyzer without opening
// a capture stream, so the gate's effect on analysis is observable.
func gateTestEngine(t *testing.T, windowLen int, windows *int) *Engine {
	t.Helper()

	analyzer := spectral.NewAnalyzer(windowLen, spectral.NewGonumDriver(spectral.None))
	err := analyzer.Begin(spectral.Config{
		Channels:      1,
		BitsPerSample: captureBitDepth,
		SampleRate:    8000,
		OnResult:      func(*spectral.Analyzer) { *windows++ },
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	return &Engine{
		analyzer:      analyzer,
		inputBuffer:   make([]int32, windowLen),
		packBuffer:    make([]byte, windowLen*(captureBitDepth/8)),
		gateEnabled:   true,
		gateThreshold: math.MaxInt32 / 1000,
	}
}

func TestGateSkipsQuietBuffers(t *testing.T) {
	const windowLen = 64

	windows := 0
	e := gateTestEngine(t, windowLen, &windows)

	quiet := make([]int32, windowLen) // all below the threshold
	loud := make([]int32, windowLen)
	for i := range loud {
		loud[i] = int32(float64(math.MaxInt32/2) * math.Sin(2*math.Pi*2*float64(i)/windowLen))
	}

	e.processInputStream(quiet)
	if windows != 0 {
		t.Fatalf("quiet buffer completed %d windows with the gate closed, want 0", windows)
	}

	e.processInputStream(loud)
	if windows != 1 {
		t.Fatalf("loud buffer completed %d windows, want 1", windows)
	}

	// With the gate disabled even silence reaches the analyzer.
	e.DisableGate()
	e.processInputStream(quiet)
	if windows != 2 {
		t.Fatalf("quiet buffer with gate disabled completed %d windows, want 2", windows)
	}
}

func TestGateEnableDisable(t *testing.T) {
	e := &Engine{}

	e.EnableGate()
	if !e.gateEnabled {
		t.Error("EnableGate did not enable the gate")
	}

	e.DisableGate()
	if e.gateEnabled {
		t.Error("DisableGate did not disable the gate")
	}
}

func BenchmarkMaxAmplitude(b *testing.B) {
	buffer := make([]int32, 4096)
	for i := range buffer {
		buffer[i] = int32((i * 2654435761) % math.MaxInt32)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = maxAmplitude(buffer)
	}
}
