// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "audiofft/internal/log"
	"audiofft/internal/spectral"
)

// ResultProvider is the view of the analyzer the publisher polls. The
// publisher runs on its own goroutine, so implementations must be safe
// to read concurrently with ingestion; the capture engine provides a
// mutex-guarded view, and *spectral.Analyzer satisfies the interface
// directly for single-goroutine use.
type ResultProvider interface {
	ResultTime() time.Time
	Dominant() spectral.Result
	TopResults(n int) []spectral.Result
	Size() int
	SampleRate() int
}

// Publisher polls a result provider for new windows and sends them as
// packed binary packets over UDP. It detects fresh windows by comparing
// the provider's result timestamp against the last one it published, so
// quiet periods produce no traffic. Runs in its own goroutine managed by
// Start and Stop.
type Publisher struct {
	sender   *Sender
	provider ResultProvider
	topN     int
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32
	lastResult  time.Time

	// Reusable buffer for constructing the binary packet.
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher over the given sender and provider.
// If the interval is invalid (<= 0), it defaults to 33ms (~30Hz).
func NewPublisher(interval time.Duration, sender *Sender, provider ResultProvider, topN int) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("udp publisher: provider cannot be nil")
	}
	if topN < 1 {
		return nil, fmt.Errorf("udp publisher: topN must be at least 1, got %d", topN)
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("udp: invalid poll interval provided, defaulting to %s", interval)
	}

	applog.Infof("udp: initializing publisher (interval: %s, top results: %d)", interval, topN)

	return &Publisher{
		sender:       sender,
		provider:     provider,
		topN:         topN,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins the periodic polling process. Safe to call more than once;
// subsequent calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("udp: Start called but publisher already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("udp: publisher goroutine started (interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.pollAndSend()
			case <-doneChan:
				applog.Debugf("udp: publisher goroutine received stop signal")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits
// for it to exit. Safe to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

/*
UDP Packet Structure (BigEndian)

| Field           | Data Type | Size (Bytes) | Description                 |
|-----------------|-----------|--------------|-----------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing    |
| Timestamp       | int64     | 8            | Result time, ns since epoch |
| Window Length   | uint32    | 4            | FFT window length           |
| Sample Rate     | uint32    | 4            | Stream sample rate (Hz)     |
| Result Count    | uint16    | 2            | Result entries following    |
| Results         | repeated  | count * 16   | See entry layout below      |

Each result entry: bin uint32, magnitude float64 packed as float32,
frequency float32, padding uint32 (zero). Entry 0 is the dominant bin;
entries 1..count-1 are the ranked top bins.
*/

// pollAndSend checks whether the provider produced a new window since the
// last packet and publishes it if so.
func (p *Publisher) pollAndSend() {
	ts := p.provider.ResultTime()
	if ts.IsZero() || !ts.After(p.lastResult) {
		return // No new result since the last poll.
	}
	p.lastResult = ts

	dominant := p.provider.Dominant()
	ranked := p.provider.TopResults(p.topN)

	p.sequenceNum++
	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, ts.UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint32(p.provider.Size()))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint32(p.provider.SampleRate()))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(1+len(ranked)))
	}
	if err == nil {
		err = writeResult(p.packetBuffer, dominant)
	}
	for _, r := range ranked {
		if err != nil {
			break
		}
		err = writeResult(p.packetBuffer, r)
	}

	if err != nil {
		applog.Errorf("udp: error packing result packet: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("udp: sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
}

// writeResult packs one result entry into the packet buffer.
func writeResult(buf *bytes.Buffer, r spectral.Result) error {
	err := binary.Write(buf, binary.BigEndian, uint32(r.Bin))
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, float32(r.Magnitude))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, float32(r.Frequency))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint32(0)) // padding
	}
	return err
}

// Close implements io.Closer. It gracefully stops the publisher goroutine.
func (p *Publisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*Publisher)(nil)
