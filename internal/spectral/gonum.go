// SPDX-License-Identifier: MIT
package spectral

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	applog "audiofft/internal/log"
)

// WindowFunc selects the taper applied to the sample window before the
// transform runs.
type WindowFunc int

// Available window functions. None leaves the samples untouched, which
// keeps a pure bin-centered tone confined to a single bin.
const (
	None WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// GonumDriver runs the transform through gonum's real-input FFT. All
// buffers are allocated once in Begin; Transform performs no allocations.
type GonumDriver struct {
	length     int
	fft        *fourier.FFT
	input      []float64    // raw samples, written by SetSample
	scratch    []float64    // windowed copy handed to the FFT
	coeffs     []complex128 // complex FFT output (length/2 + 1 bins)
	mags       []float64    // per-bin magnitudes
	taper      []float64    // window coefficients
	windowType WindowFunc
	valid      bool
}

var _ Driver = (*GonumDriver)(nil)

// NewGonumDriver returns an unstarted driver using the given window
// function. Call Begin before feeding samples.
func NewGonumDriver(windowType WindowFunc) *GonumDriver {
	return &GonumDriver{windowType: windowType}
}

func (d *GonumDriver) Begin(length int) error {
	if length <= 0 {
		return fmt.Errorf("transform length must be positive, got %d", length)
	}

	// FFT output size for real input is N/2 + 1 complex values.
	half := length/2 + 1

	d.length = length
	d.fft = fourier.NewFFT(length)
	d.input = make([]float64, length)
	d.scratch = make([]float64, length)
	d.coeffs = make([]complex128, half)
	d.mags = make([]float64, half)
	d.taper = make([]float64, length)
	applyWindow(d.taper, d.windowType)
	d.valid = true

	applog.Debugf("spectral: GonumDriver ready (length: %d, window: %s)", length, d.windowType)
	return nil
}

func (d *GonumDriver) End() {
	if !d.valid {
		return
	}
	d.valid = false
	d.fft = nil
	d.input = nil
	d.scratch = nil
	d.coeffs = nil
	d.mags = nil
	d.taper = nil
}

func (d *GonumDriver) SetSample(pos int, value float64) {
	if pos < 0 || pos >= len(d.input) {
		return
	}
	d.input[pos] = value
}

func (d *GonumDriver) Transform() {
	if !d.valid {
		return
	}
	for i, v := range d.input {
		d.scratch[i] = v * d.taper[i]
	}
	d.fft.Coefficients(d.coeffs, d.scratch)
	for i, c := range d.coeffs {
		d.mags[i] = cmplx.Abs(c)
	}
}

func (d *GonumDriver) Magnitude(bin int) float64 {
	if !d.valid || bin < 0 || bin >= len(d.mags) {
		return 0
	}
	return d.mags[bin]
}

func (d *GonumDriver) Ready() bool {
	return d.valid
}

// String returns the window function name for logs and flag output.
func (w WindowFunc) String() string {
	switch w {
	case None:
		return "none"
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return "unknown"
	}
}

// ParseWindowFunc converts a string name (case-insensitive, hyphens
// ignored, so "bartlett-hann" and "bartletthann" both work) to a
// WindowFunc. Returns Hann and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ReplaceAll(strings.ToLower(name), "-", "") {
	case "none", "rectangular":
		return None, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window function. Coefficients
// start at 1.0 so None is a plain pass-through.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case None:
		// Rectangular window, nothing to apply.
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		applog.Warnf("spectral: unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
