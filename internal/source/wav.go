// SPDX-License-Identifier: MIT
// Package source provides file-backed PCM sources for offline analysis.
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"audiofft/internal/spectral"
)

// WAVFile reads PCM samples from a RIFF/WAVE file and streams them as
// interleaved little-endian bytes, the same wire format a live capture
// produces.
type WAVFile struct {
	file    *os.File
	decoder *wav.Decoder
}

// OpenWAV opens path and validates that it is a WAV file the analyzer
// can decode.
func OpenWAV(path string) (*WAVFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("source: %s is not a valid WAV file", path)
	}

	switch decoder.BitDepth {
	case 16, 24, 32:
	default:
		file.Close()
		return nil, fmt.Errorf("source: %s has %d-bit samples: %w",
			path, decoder.BitDepth, spectral.ErrUnsupportedBitDepth)
	}

	return &WAVFile{file: file, decoder: decoder}, nil
}

// Format returns the channel count, bit depth and sample rate of the
// file, for configuring the analyzer before streaming.
func (w *WAVFile) Format() (channels, bitsPerSample, sampleRate int) {
	return int(w.decoder.NumChans), int(w.decoder.BitDepth), int(w.decoder.SampleRate)
}

// Stream decodes the file and writes its samples to dst in chunks of
// chunkFrames frames, packed as interleaved little-endian PCM at the
// file's bit depth. It stops at EOF or on the first write error.
func (w *WAVFile) Stream(dst io.Writer, chunkFrames int) error {
	if chunkFrames <= 0 {
		return fmt.Errorf("source: chunk size must be positive, got %d", chunkFrames)
	}

	channels := int(w.decoder.NumChans)
	bytesPerSample := int(w.decoder.BitDepth) / 8

	buf := &goaudio.IntBuffer{
		Format: w.decoder.Format(),
		Data:   make([]int, chunkFrames*channels),
	}
	packed := make([]byte, len(buf.Data)*bytesPerSample)

	for {
		n, err := w.decoder.PCMBuffer(buf)
		if err != nil {
			return fmt.Errorf("source: decoding %s: %w", w.file.Name(), err)
		}
		if n == 0 {
			return nil
		}

		packSamplesLE(packed, buf.Data[:n], bytesPerSample)
		if _, err := dst.Write(packed[:n*bytesPerSample]); err != nil {
			return err
		}
	}
}

func (w *WAVFile) Close() error {
	return w.file.Close()
}

// packSamplesLE writes each sample as bytesPerSample little-endian
// bytes. Samples are assumed to already be scaled to the target width,
// as the WAV decoder delivers them.
func packSamplesLE(dst []byte, src []int, bytesPerSample int) {
	for i, s := range src {
		off := i * bytesPerSample
		switch bytesPerSample {
		case 2:
			binary.LittleEndian.PutUint16(dst[off:], uint16(int16(s)))
		case 3:
			v := uint32(s)
			dst[off] = byte(v)
			dst[off+1] = byte(v >> 8)
			dst[off+2] = byte(v >> 16)
		case 4:
			binary.LittleEndian.PutUint32(dst[off:], uint32(int32(s)))
		}
	}
}
