// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"audiofft/internal/config"
	"audiofft/pkg/build"
)

// Options is the parsed invocation: the effective configuration plus
// which command the user asked for.
type Options struct {
	Config    *config.Config
	Command   string // "listen", "analyze" or "list"
	InputFile string // WAV path for the analyze command
}

// flagSet holds the raw command line values before they are merged into
// the configuration. Only flags the user actually set override the file.
type flagSet struct {
	configPath string

	device      int
	channels    int
	sampleRate  int
	bits        int
	channelUsed int
	lowLatency  bool

	windowLength int
	windowFunc   string
	topResults   int
	refPitch     float64

	record     bool
	outputFile string

	webSocket     bool
	webSocketAddr string
	udp           bool
	udpTarget     string

	verbose bool
}

func ParseArgs() (*Options, error) {
	buildInfo := build.GetBuildFlags()
	opts := &Options{}
	flags := &flagSet{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = "listen"
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Configuration is resolved before any command runs: defaults,
	// then the YAML file, then whichever flags the user set.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(rootCmd, cfg, flags)
		if err := cfg.Validate(); err != nil {
			return err
		}
		opts.Config = cfg
		return nil
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Analyze a WAV file and print per-window results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = "analyze"
			opts.InputFile = args[0]
			return nil
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = "list"
			return nil
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"Path to a YAML configuration file")

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&flags.channels, "channels", "c", config.DefaultChannels,
		"Number of interleaved channels in the stream (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().IntVarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVar(&flags.bits, "bits", config.DefaultBitsPerSample,
		"Sample width in bits (16, 24 or 32)")
	rootCmd.PersistentFlags().IntVar(&flags.channelUsed, "channel", config.DefaultChannelUsed,
		"Which channel feeds the analyzer (0-based)")
	rootCmd.PersistentFlags().BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Analysis Configuration
	rootCmd.PersistentFlags().IntVarP(&flags.windowLength, "window-length", "w", config.DefaultWindowLength,
		"FFT window length in samples (power of 2)")
	rootCmd.PersistentFlags().StringVar(&flags.windowFunc, "window-func", config.DefaultWindowFunc,
		"Window function: none, bartlett-hann, blackman, blackman-nuttall, hann, hamming, lanczos, nuttall")
	rootCmd.PersistentFlags().IntVarP(&flags.topResults, "top", "t", config.DefaultTopResults,
		"How many ranked bins to report per window")
	rootCmd.PersistentFlags().Float64Var(&flags.refPitch, "reference-pitch", 440,
		"A4 reference frequency for note naming (Hz)")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&flags.record, "record", "r", false,
		"Record audio from the specified input device")
	rootCmd.PersistentFlags().StringVarP(&flags.outputFile, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Transport Configuration
	rootCmd.PersistentFlags().BoolVar(&flags.webSocket, "websocket", false,
		"Broadcast result frames over WebSocket")
	rootCmd.PersistentFlags().StringVar(&flags.webSocketAddr, "websocket-addr", ":8080",
		"Listen address for the WebSocket server")
	rootCmd.PersistentFlags().BoolVar(&flags.udp, "udp", false,
		"Send packed result frames over UDP")
	rootCmd.PersistentFlags().StringVar(&flags.udpTarget, "udp-target", "127.0.0.1:9090",
		"Target address and port for UDP packets")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	// Pick a timestamped recording name when none was given.
	if opts.Config != nil && opts.Config.Recording.Enabled && opts.Config.Recording.OutputFile == "" {
		opts.Config.Recording.OutputFile = "recording-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}

	return opts, nil
}

// applyFlagOverrides merges explicitly-set flags into cfg. Flags left at
// their defaults never override the configuration file.
func applyFlagOverrides(rootCmd *cobra.Command, cfg *config.Config, flags *flagSet) {
	set := rootCmd.PersistentFlags().Changed

	if set("device") {
		cfg.Audio.InputDevice = flags.device
	}
	if set("channels") {
		cfg.Audio.Channels = flags.channels
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = flags.sampleRate
	}
	if set("bits") {
		cfg.Audio.BitsPerSample = flags.bits
	}
	if set("channel") {
		cfg.Audio.ChannelUsed = flags.channelUsed
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = flags.lowLatency
	}

	if set("window-length") {
		cfg.Analysis.WindowLength = flags.windowLength
	}
	if set("window-func") {
		cfg.Analysis.WindowFunction = flags.windowFunc
	}
	if set("top") {
		cfg.Analysis.TopResults = flags.topResults
	}
	if set("reference-pitch") {
		cfg.Analysis.ReferencePitch = flags.refPitch
	}

	if set("record") {
		cfg.Recording.Enabled = flags.record
	}
	if set("output") {
		cfg.Recording.OutputFile = flags.outputFile
	}

	if set("websocket") {
		cfg.Transport.WebSocketEnabled = flags.webSocket
	}
	if set("websocket-addr") {
		cfg.Transport.WebSocketAddr = flags.webSocketAddr
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = flags.udp
	}
	if set("udp-target") {
		cfg.Transport.UDPTargetAddress = flags.udpTarget
	}

	if set("verbose") && flags.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}
