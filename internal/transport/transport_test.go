// SPDX-License-Identifier: MIT
package transport

import (
	"testing"

	"audiofft/internal/notes"
	"audiofft/internal/spectral"
	"audiofft/pkg/synth"
)

func TestNewResultFrameFromPureTone(t *testing.T) {
	const (
		windowLen  = 64
		bin        = 4
		sampleRate = 8000
		topN       = 3
	)

	analyzer := spectral.NewAnalyzer(windowLen, spectral.NewGonumDriver(spectral.None))
	err := analyzer.Begin(spectral.Config{
		Channels:      1,
		BitsPerSample: 16,
		SampleRate:    sampleRate,
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	tone, err := synth.ToneAtBin(windowLen, bin, 16, 1)
	if err != nil {
		t.Fatalf("generating tone: %v", err)
	}
	if _, err := analyzer.Write(tone); err != nil {
		t.Fatalf("Write: %v", err)
	}

	frame := NewResultFrame(analyzer, topN, notes.NewTable())

	if frame.Timestamp.IsZero() {
		t.Error("frame timestamp is zero")
	}
	if frame.WindowLength != windowLen {
		t.Errorf("window length = %d, want %d", frame.WindowLength, windowLen)
	}
	if frame.SampleRate != sampleRate {
		t.Errorf("sample rate = %d, want %d", frame.SampleRate, sampleRate)
	}
	if frame.Dominant.Bin != bin {
		t.Errorf("dominant bin = %d, want %d", frame.Dominant.Bin, bin)
	}
	// Bin 4 of a 64-sample window at 8 kHz is 500 Hz, nearest note B4.
	if frame.Note != "B4" {
		t.Errorf("note = %q, want %q", frame.Note, "B4")
	}
	if len(frame.Ranked) != topN {
		t.Errorf("ranked results = %d, want %d", len(frame.Ranked), topN)
	}
	if frame.Ranked[0].Bin != bin {
		t.Errorf("top ranked bin = %d, want %d", frame.Ranked[0].Bin, bin)
	}
}

func TestNewResultFrameWithoutLookup(t *testing.T) {
	analyzer := spectral.NewAnalyzer(8, spectral.NewGonumDriver(spectral.None))
	if err := analyzer.Begin(spectral.Config{Channels: 1, BitsPerSample: 16, SampleRate: 8000}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	frame := NewResultFrame(analyzer, 1, nil)
	if frame.Note != "" {
		t.Errorf("note = %q, want empty without a lookup", frame.Note)
	}
}

func TestLoggingTransportSend(t *testing.T) {
	lt := NewLoggingTransport()
	defer lt.Close()

	if err := lt.Send(ResultFrame{Note: "A4"}); err != nil {
		t.Errorf("Send(ResultFrame): %v", err)
	}
	if err := lt.Send("arbitrary payload"); err != nil {
		t.Errorf("Send(string): %v", err)
	}
}

func TestWebSocketCloseStopsBroadcaster(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	for i := 0; i < 10; i++ {
		if err := wst.Send(ResultFrame{}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	// Close waits for the broadcaster goroutine to exit before returning.
	if err := wst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// After Close, frames are dropped without blocking or panicking, and
	// a second Close is a no-op.
	if err := wst.Send(ResultFrame{}); err != nil {
		t.Errorf("Send after Close: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestWebSocketSendNeverBlocks(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0")
	defer wst.Close()

	// With no clients draining the queue, sends beyond the buffer are
	// dropped rather than blocking the analyzer callback.
	for i := 0; i < 1000; i++ {
		if err := wst.Send(ResultFrame{}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
}
