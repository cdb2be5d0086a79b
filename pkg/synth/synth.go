// SPDX-License-Identifier: MIT
// Package synth generates synthetic PCM test signals packed as interleaved
// little-endian bytes, the wire format the analyzer ingests. Used by tests
// and examples; not part of the processing hot path.
package synth

import (
	"fmt"
	"math"
)

// Amplitude applied to generated tones, leaving headroom below full scale.
const toneAmplitude = 0.9

// Sine returns count frames of a pure sine tone at freq Hz, packed at the
// given bit depth with the tone duplicated across all channels.
func Sine(count int, sampleRate, freq float64, bits, channels int) ([]byte, error) {
	samples := make([]float64, count)
	for i := range samples {
		t := float64(i) / sampleRate
		samples[i] = math.Sin(2*math.Pi*freq*t) * toneAmplitude
	}
	return PackSamples(samples, bits, channels)
}

// ToneAtBin returns one full window of n frames whose frequency lands
// exactly on bin k of an n-point FFT, so the spectral energy concentrates
// in that single bin (with a rectangular window).
func ToneAtBin(n, bin, bits, channels int) ([]byte, error) {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2*math.Pi*float64(bin)*float64(i)/float64(n)) * toneAmplitude
	}
	return PackSamples(samples, bits, channels)
}

// PackSamples quantizes normalized samples in [-1, 1] to signed
// little-endian PCM at the given bit depth, writing each sample to every
// channel of the output frame.
func PackSamples(samples []float64, bits, channels int) ([]byte, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channels must be positive, got %d", channels)
	}

	bytesPerSample := bits / 8
	out := make([]byte, len(samples)*bytesPerSample*channels)
	pos := 0
	for _, s := range samples {
		for c := 0; c < channels; c++ {
			switch bits {
			case 16:
				v := int16(s * math.MaxInt16)
				out[pos] = byte(v)
				out[pos+1] = byte(v >> 8)
			case 24:
				v := int32(s * (1<<23 - 1))
				out[pos] = byte(v)
				out[pos+1] = byte(v >> 8)
				out[pos+2] = byte(v >> 16)
			case 32:
				v := int32(s * math.MaxInt32)
				out[pos] = byte(v)
				out[pos+1] = byte(v >> 8)
				out[pos+2] = byte(v >> 16)
				out[pos+3] = byte(v >> 24)
			default:
				return nil, fmt.Errorf("unsupported bit depth %d", bits)
			}
			pos += bytesPerSample
		}
	}
	return out, nil
}
