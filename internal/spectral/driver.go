// SPDX-License-Identifier: MIT
package spectral

// Driver is the capability interface for the transform backend that the
// Analyzer feeds. The analyzer loads one real-valued sample per slot with
// SetSample, then calls Transform once the window is full; magnitudes are
// valid from that point until the next window starts overwriting samples.
//
// A driver owns its spectrum state exclusively. Begin and End bracket the
// driver lifecycle: Begin allocates storage for transforms of the given
// length, End releases it and is idempotent.
type Driver interface {
	// Begin prepares the driver for transforms of the given length.
	// The driver reports Ready() == true only after a successful Begin.
	Begin(length int) error

	// End releases driver resources. Safe to call more than once.
	End()

	// SetSample writes one real-valued sample into slot pos of the pending
	// input buffer. pos must be in [0, length).
	SetSample(pos int, value float64)

	// Transform executes the FFT over the currently loaded input buffer.
	Transform()

	// Magnitude returns the non-negative magnitude of the given bin.
	// Only bins in [0, length/2) carry meaningful energy for real input;
	// out-of-range bins yield 0.
	Magnitude(bin int) float64

	// Ready reports whether the driver has been started and not released.
	Ready() bool
}
