// SPDX-License-Identifier: MIT
package transport

import (
	applog "audiofft/internal/log"
)

// LoggingTransport implements the Transport interface by writing result
// frames to the application log. Useful for headless runs and debugging.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received frame at info level.
func (lt *LoggingTransport) Send(data any) error {
	if frame, ok := data.(ResultFrame); ok {
		applog.Infof("transport: dominant %.1f Hz (bin %d, magnitude %.4f) note %s%+d",
			frame.Dominant.Frequency, frame.Dominant.Bin, frame.Dominant.Magnitude,
			frame.Note, frame.NoteDiffHz)
		return nil
	}
	applog.Infof("transport: %+v", data)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
