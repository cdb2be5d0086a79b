// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"audiofft/pkg/bitint"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g. "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Input stream format and device settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // FFT window and result extraction settings.
	Recording RecordingConfig `yaml:"recording"` // Audio recording settings.
	Transport TransportConfig `yaml:"transport"` // Result transport settings (WebSocket, UDP).
}

// AudioConfig holds the stream format and capture device settings.
type AudioConfig struct {
	InputDevice   int  `yaml:"input_device"`    // PortAudio device index for live capture (-1 for default).
	SampleRate    int  `yaml:"sample_rate"`     // Sample rate in Hz (e.g. 44100, 48000).
	Channels      int  `yaml:"channels"`        // Interleaved channels in the stream (1=mono, 2=stereo).
	BitsPerSample int  `yaml:"bits_per_sample"` // Sample width in bits: 16, 24 or 32.
	ChannelUsed   int  `yaml:"channel_used"`    // Which channel feeds the analyzer. Must be < channels.
	LowLatency    bool `yaml:"low_latency"`     // Request low latency settings from the capture device.
}

// AnalysisConfig holds the FFT window and result extraction settings.
type AnalysisConfig struct {
	WindowLength   int     `yaml:"window_length"`   // FFT window length in samples (power of 2).
	WindowFunction string  `yaml:"window_function"` // Window function name (e.g. "hann", "none").
	TopResults     int     `yaml:"top_results"`     // How many ranked bins to extract per window.
	ReferencePitch float64 `yaml:"reference_pitch"` // A4 reference frequency for note naming (Hz).
}

// RecordingConfig holds settings for recording live input while analyzing.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record captured audio to file during live analysis.
	OutputFile string `yaml:"output_file"` // WAV file path; empty picks a timestamped name.
}

// TransportConfig holds settings for publishing results.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Broadcast result frames over WebSocket.
	WebSocketAddr    string        `yaml:"websocket_addr"`     // Listen address for the WebSocket server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send packed result frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets.
	UDPPollInterval  time.Duration `yaml:"udp_poll_interval"`  // How often the UDP publisher polls for new results.
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches default locations ("config.yaml"). If no file is
// found, built-in defaults apply. Environment variable overrides are applied
// after loading, then the final configuration is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:   DefaultDeviceID,
			SampleRate:    DefaultSampleRate,
			Channels:      DefaultChannels,
			BitsPerSample: DefaultBitsPerSample,
			ChannelUsed:   DefaultChannelUsed,
			LowLatency:    DefaultLowLatency,
		},
		Analysis: AnalysisConfig{
			WindowLength:   DefaultWindowLength,
			WindowFunction: DefaultWindowFunc,
			TopResults:     DefaultTopResults,
			ReferencePitch: 440,
		},
		Recording: RecordingConfig{
			Enabled:    false,
			OutputFile: "",
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPPollInterval:  33 * time.Millisecond, // ~30Hz
		},
	}

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for values the engine cannot start
// with. Window length violations are rejected here, not corrected.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %d outside supported range [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !IsSupportedBitDepth(c.Audio.BitsPerSample) {
		return fmt.Errorf("audio.bits_per_sample must be one of %v, got %d",
			SupportedBitDepths, c.Audio.BitsPerSample)
	}
	if c.Audio.Channels <= 0 {
		return fmt.Errorf("audio.channels must be positive, got %d", c.Audio.Channels)
	}
	if c.Audio.ChannelUsed < 0 || c.Audio.ChannelUsed >= c.Audio.Channels {
		return fmt.Errorf("audio.channel_used %d out of range for %d channels",
			c.Audio.ChannelUsed, c.Audio.Channels)
	}
	if !bitint.IsPowerOfTwo(c.Analysis.WindowLength) {
		return fmt.Errorf("analysis.window_length must be a power of two, got %d",
			c.Analysis.WindowLength)
	}
	if c.Analysis.WindowLength > MaxWindowLength {
		return fmt.Errorf("analysis.window_length %d exceeds maximum %d",
			c.Analysis.WindowLength, MaxWindowLength)
	}
	if c.Analysis.TopResults < 1 {
		return fmt.Errorf("analysis.top_results must be at least 1, got %d",
			c.Analysis.TopResults)
	}
	if c.Analysis.ReferencePitch <= 0 {
		return fmt.Errorf("analysis.reference_pitch must be positive, got %f",
			c.Analysis.ReferencePitch)
	}
	if c.Transport.UDPEnabled && c.Transport.UDPPollInterval <= 0 {
		return fmt.Errorf("transport.udp_poll_interval must be positive when UDP is enabled")
	}
	return nil
}

func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	// ENV_UDP_POLL_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_POLL_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPPollInterval = dur
		}
	}
}
