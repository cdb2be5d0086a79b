// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"

	"audiofft/internal/config"
	applog "audiofft/internal/log"
)

// Initialize starts the PortAudio subsystem. Call once before any device
// or stream operation and pair with Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing PortAudio: %w", err)
	}
	return nil
}

// Terminate shuts the PortAudio subsystem down. Defer it right after a
// successful Initialize.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("terminating PortAudio: %w", err)
	}
	return nil
}

// InputDevice resolves the capture device the engine records from.
// MinDeviceID (-1) selects the system default input; any other ID must
// name a device that can actually capture.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == config.MinDeviceID {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("resolving default input device: %w", err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating audio devices: %w", err)
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID %d: %d devices available", deviceID, len(devices))
	}

	dev := devices[deviceID]
	if dev.MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) has no input channels", deviceID, dev.Name)
	}

	applog.Debugf("audio: selected input device %d (%s)", deviceID, dev.Name)
	return dev, nil
}

// ListDevices prints every PortAudio device with the details that matter
// for capture: channel counts, default rate (flagged when the analyzer
// cannot run at it) and input latency. The default capture device is
// starred.
func ListDevices() error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("enumerating audio devices: %w", err)
	}
	if len(devices) == 0 {
		applog.Warnf("audio: no devices found")
		return nil
	}

	defaultIn, err := portaudio.DefaultInputDevice()
	if err != nil {
		applog.Warnf("audio: no default input device: %v", err)
		defaultIn = nil
	}

	fmt.Printf("Available audio devices (* marks the default capture device)\n\n")
	for i, dev := range devices {
		fmt.Print(describeDevice(i, dev, dev == defaultIn))
	}
	return nil
}

// describeDevice renders the listing block for one device.
func describeDevice(index int, dev *portaudio.DeviceInfo, isDefault bool) string {
	marker := "  "
	if isDefault {
		marker = "* "
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d] %s (%s)\n", marker, index, dev.Name, deviceRole(dev))
	fmt.Fprintf(&b, "      in %d / out %d channels, default %.0f Hz\n",
		dev.MaxInputChannels, dev.MaxOutputChannels, dev.DefaultSampleRate)

	if dev.MaxInputChannels > 0 {
		fmt.Fprintf(&b, "      input latency %.2f-%.2f ms\n",
			dev.DefaultLowInputLatency.Seconds()*1000,
			dev.DefaultHighInputLatency.Seconds()*1000)
		if !captureRateSupported(dev.DefaultSampleRate) {
			fmt.Fprintf(&b, "      default rate outside the supported capture range %d-%d Hz\n",
				config.MinSampleRate, config.MaxSampleRate)
		}
	}

	b.WriteByte('\n')
	return b.String()
}

// deviceRole classifies a device by its channel counts.
func deviceRole(dev *portaudio.DeviceInfo) string {
	switch {
	case dev.MaxInputChannels > 0 && dev.MaxOutputChannels > 0:
		return "input/output"
	case dev.MaxInputChannels > 0:
		return "input"
	case dev.MaxOutputChannels > 0:
		return "output"
	default:
		return "unusable"
	}
}

// captureRateSupported reports whether the engine config would accept
// rate as a capture sample rate.
func captureRateSupported(rate float64) bool {
	return rate >= config.MinSampleRate && rate <= config.MaxSampleRate
}
