// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	"audiofft/internal/spectral"
)

// Transport defines a generic interface for publishing analysis results.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// ResultFrame is the per-window payload published by transports: the
// dominant peak with its musical note, plus the ranked top bins.
type ResultFrame struct {
	Timestamp    time.Time         `json:"timestamp"`
	WindowLength int               `json:"window_length"`
	SampleRate   int               `json:"sample_rate"`
	Dominant     spectral.Result   `json:"dominant"`
	Note         string            `json:"note,omitempty"`
	NoteDiffHz   int               `json:"note_diff_hz"`
	Ranked       []spectral.Result `json:"ranked"`
}

// NewResultFrame extracts a frame from the analyzer's most recent
// completed window. Safe to call from the analyzer's result callback.
func NewResultFrame(a *spectral.Analyzer, topN int, lookup spectral.NoteLookup) ResultFrame {
	frame := ResultFrame{
		Timestamp:    a.ResultTime(),
		WindowLength: a.Size(),
		SampleRate:   a.SampleRate(),
		Dominant:     a.Dominant(),
		Ranked:       a.TopResults(topN),
	}
	if lookup != nil {
		frame.Note, frame.NoteDiffHz = frame.Dominant.NoteWithDiff(lookup)
	}
	return frame
}
