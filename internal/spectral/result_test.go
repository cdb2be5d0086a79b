// SPDX-License-Identifier: MIT
package spectral

import (
	"math"
	"testing"

	"audiofft/internal/notes"
)

// analyzerWithSpectrum builds an analyzer over a fake driver serving the
// given magnitudes, sized so every injected bin falls in the meaningful
// half of the spectrum.
func analyzerWithSpectrum(t *testing.T, windowLen, sampleRate int, mags []float64) *Analyzer {
	t.Helper()
	drv := &fakeDriver{mags: mags}
	a := NewAnalyzer(windowLen, drv)
	cfg := Config{Channels: 1, BitsPerSample: 16, SampleRate: sampleRate}
	if err := a.Begin(cfg); err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	return a
}

func TestDominantFindsInjectedPeak(t *testing.T) {
	const windowLen = 16 // bins 1..7 searched

	for peak := 1; peak < windowLen/2; peak++ {
		mags := make([]float64, windowLen/2)
		for i := range mags {
			mags[i] = 0.1
		}
		mags[peak] = 5

		a := analyzerWithSpectrum(t, windowLen, 16000, mags)
		got := a.Dominant()
		if got.Bin != peak {
			t.Errorf("Dominant().Bin = %d, want %d", got.Bin, peak)
		}
		if got.Magnitude != 5 {
			t.Errorf("Dominant().Magnitude = %v, want 5", got.Magnitude)
		}
		want := float64(peak) * 16000 / windowLen
		if got.Frequency != want {
			t.Errorf("Dominant().Frequency = %v, want %v", got.Frequency, want)
		}
	}
}

func TestDominantExcludesDC(t *testing.T) {
	// A huge DC term must never win the peak search.
	mags := []float64{1e9, 0.2, 0.7, 0.1, 0.1, 0.1, 0.1, 0.1}
	a := analyzerWithSpectrum(t, 16, 16000, mags)

	if got := a.Dominant(); got.Bin != 2 {
		t.Errorf("Dominant().Bin = %d, want 2 (DC excluded)", got.Bin)
	}
}

func TestDominantTieKeepsLowestBin(t *testing.T) {
	mags := []float64{0, 3, 3, 3, 1, 1, 1, 1}
	a := analyzerWithSpectrum(t, 16, 16000, mags)

	if got := a.Dominant(); got.Bin != 1 {
		t.Errorf("Dominant().Bin = %d, want 1 (first of the tied bins)", got.Bin)
	}
}

func TestDominantDegenerateWindow(t *testing.T) {
	// A 2-point window has no bins beyond DC to search.
	a := analyzerWithSpectrum(t, 2, 16000, []float64{7, 7})

	got := a.Dominant()
	if got.Bin != 0 || got.Magnitude != 0 || got.Frequency != 0 {
		t.Errorf("Dominant() on degenerate window = %+v, want zero Result", got)
	}
}

func TestTopResultsDescendingOrder(t *testing.T) {
	// Magnitudes strictly decreasing by bin: top 3 must be bins 1, 2, 3.
	mags := []float64{0, 8, 7, 6, 5, 4, 3, 2}
	a := analyzerWithSpectrum(t, 16, 16000, mags)

	got := a.TopResults(3)
	wantBins := []int{1, 2, 3}
	for i, want := range wantBins {
		if got[i].Bin != want {
			t.Errorf("TopResults[%d].Bin = %d, want %d", i, got[i].Bin, want)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Magnitude > got[i-1].Magnitude {
			t.Errorf("TopResults not descending at %d: %v > %v", i, got[i].Magnitude, got[i-1].Magnitude)
		}
	}
}

func TestTopResultsNoDuplicateBins(t *testing.T) {
	// Magnitudes strictly increasing by bin force every candidate to
	// displace slot 0. A multi-insertion-point implementation would
	// duplicate the last candidate across ranks.
	mags := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	a := analyzerWithSpectrum(t, 16, 16000, mags)

	got := a.TopResults(3)
	wantBins := []int{7, 6, 5}
	seen := make(map[int]bool)
	for i, r := range got {
		if r.Bin != wantBins[i] {
			t.Errorf("TopResults[%d].Bin = %d, want %d", i, r.Bin, wantBins[i])
		}
		if seen[r.Bin] {
			t.Errorf("bin %d appears more than once in TopResults", r.Bin)
		}
		seen[r.Bin] = true
	}
}

func TestTopResultsSparseSpectrum(t *testing.T) {
	// More slots than scanned bins: unfilled slots keep the sentinel.
	mags := []float64{0, 3, 1, 2}
	a := analyzerWithSpectrum(t, 8, 8000, mags) // bins 1..3 searched

	got := a.TopResults(5)
	wantBins := []int{1, 3, 2}
	for i, want := range wantBins {
		if got[i].Bin != want {
			t.Errorf("TopResults[%d].Bin = %d, want %d", i, got[i].Bin, want)
		}
	}
	for i := 3; i < 5; i++ {
		if !math.IsInf(got[i].Magnitude, -1) {
			t.Errorf("TopResults[%d].Magnitude = %v, want -Inf sentinel", i, got[i].Magnitude)
		}
	}
}

func TestResultFrequencyAsInt(t *testing.T) {
	tests := []struct {
		freq float64
		want int
	}{
		{440.0, 440},
		{440.4, 440},
		{440.5, 441},
		{439.6, 440},
		{0, 0},
	}
	for _, tt := range tests {
		r := Result{Frequency: tt.freq}
		if got := r.FrequencyAsInt(); got != tt.want {
			t.Errorf("FrequencyAsInt(%v) = %d, want %d", tt.freq, got, tt.want)
		}
	}
}

func TestResultNoteLookup(t *testing.T) {
	table := notes.NewTable()

	r := Result{Frequency: 440.2}
	if got := r.Note(table); got != "A4" {
		t.Errorf("Note = %q, want A4", got)
	}

	r = Result{Frequency: 442.0}
	name, diff := r.NoteWithDiff(table)
	if name != "A4" || diff != 2 {
		t.Errorf("NoteWithDiff = (%q, %d), want (A4, 2)", name, diff)
	}
}

func TestInsertSortedSingleInsertionPoint(t *testing.T) {
	slots := make([]Result, 3)
	for i := range slots {
		slots[i].Magnitude = math.Inf(-1)
	}

	// Insert ascending: each candidate must land in slot 0 exactly once
	// and push the others right.
	for bin, mag := range []float64{1, 2, 3} {
		insertSorted(slots, Result{Bin: bin + 1, Magnitude: mag})
	}

	wantBins := []int{3, 2, 1}
	for i, want := range wantBins {
		if slots[i].Bin != want {
			t.Errorf("slots[%d].Bin = %d, want %d", i, slots[i].Bin, want)
		}
	}
}
