// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"audiofft/cmd"
	"audiofft/internal/audio"
	"audiofft/internal/config"
	applog "audiofft/internal/log"
	"audiofft/internal/notes"
	"audiofft/internal/source"
	"audiofft/internal/spectral"
	"audiofft/internal/transport"
	"audiofft/internal/transport/udp"
	"audiofft/pkg/build"
)

// main drives the engine through three phases:
//
// 1. Startup (cold path): build info, argument parsing, configuration.
// 2. Processing (hot path): live capture feeding the analyzer, or a
//    one-shot WAV file analysis.
// 3. Shutdown (cold path): signal handling, flush recording, release
//    PortAudio.
func main() {
	if err := build.Initialize(); err != nil {
		// Development builds have no ldflags; keep the defaults.
		applog.Debugf("build info unavailable: %v", err)
	}

	opts, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if opts.Command == "" {
		// Help or version output already handled by the CLI.
		return
	}

	if level, ok := applog.ParseLevel(opts.Config.LogLevel); ok {
		applog.SetLevel(level)
	}

	switch opts.Command {
	case "list":
		if err := withPortAudio(audio.ListDevices); err != nil {
			applog.Fatalf("%v", err)
		}
	case "analyze":
		if err := runAnalyze(opts.Config, opts.InputFile); err != nil {
			applog.Fatalf("%v", err)
		}
	case "listen":
		if err := runListen(opts.Config); err != nil {
			applog.Fatalf("%v", err)
		}
	default:
		applog.Fatalf("unknown command: %s", opts.Command)
	}
}

// withPortAudio brackets fn with PortAudio subsystem setup and teardown.
func withPortAudio(fn func() error) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return fn()
}

// runAnalyze streams a WAV file through the analyzer and prints one
// line per completed window. The analyzer format follows the file, not
// the configured capture format.
func runAnalyze(cfg *config.Config, path string) error {
	src, err := source.OpenWAV(path)
	if err != nil {
		return err
	}
	defer src.Close()

	channels, bits, sampleRate := src.Format()
	applog.Infof("analyzing %s: %d ch, %d-bit, %d Hz", path, channels, bits, sampleRate)

	windowFn, err := spectral.ParseWindowFunc(cfg.Analysis.WindowFunction)
	if err != nil {
		return err
	}
	lookup, err := notes.NewTableWithReference(cfg.Analysis.ReferencePitch)
	if err != nil {
		return err
	}

	window := 0
	analyzer := spectral.NewAnalyzer(cfg.Analysis.WindowLength, spectral.NewGonumDriver(windowFn))
	err = analyzer.Begin(spectral.Config{
		Channels:      channels,
		BitsPerSample: bits,
		SampleRate:    sampleRate,
		ChannelUsed:   cfg.Audio.ChannelUsed,
		OnResult: func(a *spectral.Analyzer) {
			window++
			printWindow(window, a, cfg.Analysis.TopResults, lookup)
		},
	})
	if err != nil {
		return err
	}
	defer analyzer.End()

	if err := src.Stream(analyzer, cfg.Analysis.WindowLength); err != nil {
		return err
	}
	if window == 0 {
		applog.Warnf("file shorter than one window (%d samples), no results", cfg.Analysis.WindowLength)
	}
	return nil
}

func printWindow(window int, a *spectral.Analyzer, topN int, lookup spectral.NoteLookup) {
	dominant := a.Dominant()
	note, diff := dominant.NoteWithDiff(lookup)
	fmt.Printf("window %4d: %8.1f Hz  bin %4d  mag %10.1f  %s (%+d Hz)\n",
		window, dominant.Frequency, dominant.Bin, dominant.Magnitude, note, diff)

	for i, r := range a.TopResults(topN) {
		if r.Magnitude <= 0 {
			break
		}
		fmt.Printf("    #%d: %8.1f Hz  bin %4d  mag %10.1f\n", i+1, r.Frequency, r.Bin, r.Magnitude)
	}
}

// runListen captures live audio until interrupted, publishing results
// over the configured transports.
func runListen(cfg *config.Config) error {
	return withPortAudio(func() error {
		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGTERM)

		// One thread for the audio callback, one for transports and I/O.
		runtime.GOMAXPROCS(2)

		engine, err := audio.NewEngine(cfg)
		if err != nil {
			return err
		}

		engine.AddTransport(transport.NewLoggingTransport())

		if cfg.Transport.WebSocketEnabled {
			ws := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr)
			engine.AddTransport(ws)
			defer ws.Close()
		}

		var publisher *udp.Publisher
		if cfg.Transport.UDPEnabled {
			sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
			if err != nil {
				return err
			}
			defer sender.Close()

			publisher, err = udp.NewPublisher(cfg.Transport.UDPPollInterval, sender, engine, cfg.Analysis.TopResults)
			if err != nil {
				return err
			}
		}

		if err := engine.StartInputStream(); err != nil {
			return err
		}

		if cfg.Recording.Enabled {
			if err := engine.StartRecording(cfg.Recording.OutputFile); err != nil {
				engine.Close()
				return err
			}
		}

		if publisher != nil {
			publisher.Start()
		}

		applog.Infof("listening (window %d, %d Hz); press Ctrl+C to stop",
			cfg.Analysis.WindowLength, cfg.Audio.SampleRate)
		<-done

		if publisher != nil {
			if err := publisher.Stop(); err != nil {
				applog.Errorf("stopping UDP publisher: %v", err)
			}
		}

		if cfg.Recording.Enabled {
			if err := engine.StopRecording(); err != nil {
				applog.Errorf("stopping recording: %v", err)
			} else {
				applog.Infof("recording saved to %s", cfg.Recording.OutputFile)
			}
		}

		return engine.Close()
	})
}
