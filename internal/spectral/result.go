// SPDX-License-Identifier: MIT
package spectral

import "math"

// Result describes one frequency-domain peak: the bin index, its
// magnitude and the bin's center frequency in Hz. Results are computed
// fresh on every extraction call and never persist across windows.
type Result struct {
	Bin       int     `json:"bin"`
	Magnitude float64 `json:"magnitude"`
	Frequency float64 `json:"frequency"`
}

// NoteLookup is the external musical-note collaborator queried by integer
// frequency.
type NoteLookup interface {
	// Note returns the name of the note closest to the given frequency.
	Note(freqHz int) string
	// NoteWithDiff additionally returns the signed deviation in Hz from
	// the exact note frequency.
	NoteWithDiff(freqHz int) (string, int)
}

// FrequencyAsInt returns the result frequency rounded to the nearest Hz.
func (r Result) FrequencyAsInt() int {
	return int(math.Round(r.Frequency))
}

// Note returns the musical note closest to the result frequency.
func (r Result) Note(lookup NoteLookup) string {
	return lookup.Note(r.FrequencyAsInt())
}

// NoteWithDiff returns the closest note and the deviation in Hz.
func (r Result) NoteWithDiff(lookup NoteLookup) (string, int) {
	return lookup.NoteWithDiff(r.FrequencyAsInt())
}

// Dominant returns the bin with the greatest magnitude in the most recent
// spectrum. The DC term (bin 0) is always excluded; bin 1 seeds the scan
// so ties keep the lowest bin. Windows too short to carry any non-DC bin
// yield a zero Result.
func (a *Analyzer) Dominant() Result {
	half := a.windowLen / 2
	if half <= 1 {
		return Result{}
	}

	ret := Result{Bin: 1, Magnitude: a.driver.Magnitude(1)}
	for j := 2; j < half; j++ {
		if m := a.driver.Magnitude(j); m > ret.Magnitude {
			ret.Magnitude = m
			ret.Bin = j
		}
	}
	ret.Frequency = a.Frequency(ret.Bin)
	return ret
}

// TopResults returns the n largest-magnitude bins of the most recent
// spectrum in descending order, DC excluded. Each bin appears at most
// once. Slots that no bin filled (n larger than the number of scanned
// bins) keep a -Inf magnitude sentinel.
func (a *Analyzer) TopResults(n int) []Result {
	out := make([]Result, n)
	for i := range out {
		out[i].Magnitude = math.Inf(-1)
	}

	half := a.windowLen / 2
	for j := 1; j < half; j++ {
		cand := Result{
			Bin:       j,
			Magnitude: a.driver.Magnitude(j),
			Frequency: a.Frequency(j),
		}
		insertSorted(out, cand)
	}
	return out
}

// insertSorted places cand at the first slot it outranks, shifting the
// remaining slots right and dropping the last. One insertion point only:
// inserting at every qualifying slot would duplicate the candidate across
// ranks.
func insertSorted(slots []Result, cand Result) {
	for i := range slots {
		if cand.Magnitude > slots[i].Magnitude {
			copy(slots[i+1:], slots[i:len(slots)-1])
			slots[i] = cand
			return
		}
	}
}
