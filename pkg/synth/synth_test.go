// SPDX-License-Identifier: MIT
package synth

import "testing"

func TestPackSamplesSizes(t *testing.T) {
	samples := []float64{0, 0.5, -0.5, 1}

	tests := []struct {
		bits     int
		channels int
		wantLen  int
	}{
		{16, 1, 8},
		{16, 2, 16},
		{24, 1, 12},
		{24, 2, 24},
		{32, 1, 16},
		{32, 4, 64},
	}

	for _, tt := range tests {
		out, err := PackSamples(samples, tt.bits, tt.channels)
		if err != nil {
			t.Fatalf("PackSamples(%d bits, %d ch) error: %v", tt.bits, tt.channels, err)
		}
		if len(out) != tt.wantLen {
			t.Errorf("PackSamples(%d bits, %d ch) len = %d, want %d",
				tt.bits, tt.channels, len(out), tt.wantLen)
		}
	}
}

func TestPackSamplesUnsupportedDepth(t *testing.T) {
	if _, err := PackSamples([]float64{0}, 8, 1); err == nil {
		t.Error("expected error for 8-bit depth, got nil")
	}
	if _, err := PackSamples([]float64{0}, 16, 0); err == nil {
		t.Error("expected error for zero channels, got nil")
	}
}

func TestToneAtBinStartsAtZeroCrossing(t *testing.T) {
	out, err := ToneAtBin(8, 2, 16, 1)
	if err != nil {
		t.Fatalf("ToneAtBin error: %v", err)
	}
	if len(out) != 16 {
		t.Fatalf("ToneAtBin len = %d, want 16", len(out))
	}
	// sin(0) == 0, so the first 16-bit sample must be zero.
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("first sample = [%#x %#x], want zero crossing", out[0], out[1])
	}
}
