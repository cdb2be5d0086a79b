// SPDX-License-Identifier: MIT
package config

// Core configuration constants that define the boundaries and defaults
// for the spectral analysis engine.
const (
	// Default values for the stream format and analysis settings.
	DefaultChannels      = 2       // Stereo input
	DefaultBitsPerSample = 16      // CD-style sample width
	DefaultSampleRate    = 44100   // CD-quality audio
	DefaultChannelUsed   = 0       // Analyze the first channel
	DefaultWindowLength  = 1024    // FFT window (power of 2)
	DefaultWindowFunc    = "hann"  // Window function name
	DefaultTopResults    = 5       // Ranked results per window
	DefaultDeviceID      = MinDeviceID
	DefaultLowLatency    = false

	// Hardware and processing limits.
	MinDeviceID     = -1     // -1 selects the system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxWindowLength = 8192   // Maximum FFT window length (power of 2)
)

// SupportedBitDepths lists the sample widths the analyzer decodes.
var SupportedBitDepths = []int{16, 24, 32}

// IsSupportedBitDepth reports whether the analyzer can decode samples of
// the given width.
func IsSupportedBitDepth(bits int) bool {
	for _, b := range SupportedBitDepths {
		if b == bits {
			return true
		}
	}
	return false
}
