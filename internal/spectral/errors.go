// SPDX-License-Identifier: MIT
package spectral

import "errors"

var (
	// ErrNotStarted is returned by Write when Begin has not succeeded yet.
	ErrNotStarted = errors.New("analyzer not started")

	// ErrWindowNotPowerOfTwo is returned by Begin for window lengths that
	// are not a power of two.
	ErrWindowNotPowerOfTwo = errors.New("window length must be a power of two")

	// ErrUnsupportedBitDepth is returned for bit depths other than 16, 24 or 32.
	ErrUnsupportedBitDepth = errors.New("unsupported bits per sample")

	// ErrChannelOutOfRange is returned when the configured input channel
	// index does not exist in the stream.
	ErrChannelOutOfRange = errors.New("channel index out of range")

	// ErrInvalidSampleRate is returned for non-positive sample rates.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")

	// ErrDriverNotReady is returned when the transform driver failed to
	// report ready after Begin.
	ErrDriverNotReady = errors.New("transform driver not ready")
)
