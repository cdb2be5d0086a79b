// SPDX-License-Identifier: MIT
// Package notes maps frequencies to musical note names. It is the
// note-lookup collaborator queried by the spectral result API: callers
// hand it an integer frequency in Hz and get back the closest note in
// scientific pitch notation (e.g. "A4"), optionally with the signed
// deviation from the exact note frequency.
package notes

import (
	"fmt"
	"math"
)

// Chromatic note names within one octave, starting at C.
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Table resolves frequencies against an equal-tempered scale anchored at
// a reference pitch for A4. The zero value is not usable; construct with
// NewTable.
type Table struct {
	a4 float64
}

// NewTable returns a lookup table tuned to standard pitch (A4 = 440 Hz).
func NewTable() *Table {
	return &Table{a4: 440}
}

// NewTableWithReference returns a table tuned to the given A4 frequency,
// for sources recorded at non-standard pitch (e.g. 432 Hz).
func NewTableWithReference(a4 float64) (*Table, error) {
	if a4 <= 0 {
		return nil, fmt.Errorf("reference pitch must be positive, got %f", a4)
	}
	return &Table{a4: a4}, nil
}

// Note returns the name of the note closest to freqHz, or "" for
// non-positive frequencies.
func (t *Table) Note(freqHz int) string {
	name, _ := t.NoteWithDiff(freqHz)
	return name
}

// NoteWithDiff returns the closest note name and the signed deviation
// freqHz - exact note frequency, rounded to whole Hz. A positive diff
// means the input is sharp of the note.
func (t *Table) NoteWithDiff(freqHz int) (string, int) {
	if freqHz <= 0 {
		return "", 0
	}

	// Semitone distance from A4, rounded to the nearest note.
	semitones := 12 * math.Log2(float64(freqHz)/t.a4)
	nearest := math.Round(semitones)
	exact := t.a4 * math.Pow(2, nearest/12)

	// A4 sits 9 semitones above C4, so shifting by 9 puts C at index 0.
	idx := int(math.Mod(nearest+9, 12))
	if idx < 0 {
		idx += 12
	}
	octave := 4 + int(math.Floor((nearest+9)/12))

	name := fmt.Sprintf("%s%d", noteNames[idx], octave)
	return name, freqHz - int(math.Round(exact))
}
