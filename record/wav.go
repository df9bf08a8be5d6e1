// Package record captures emulator output to files: PCM audio as WAV
// and single frames as PNG.
package record

import (
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

const (
	wavBitDepth  = 16
	wavChannels  = 2
	wavFormatPCM = 1
)

// WAVWriter streams interleaved 16-bit stereo samples into a WAV file.
type WAVWriter struct {
	file afero.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer

	frames int
}

// NewWAVWriter creates path on fs and writes a WAV header for the given
// sample rate. Close must be called to finish the file.
func NewWAVWriter(fs afero.Fs, path string, sampleRate int) (*WAVWriter, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}

	return &WAVWriter{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, wavBitDepth, wavChannels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: wavChannels, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Write appends interleaved stereo samples. The slice is not retained.
func (w *WAVWriter) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	data := w.buf.Data[:0]
	for _, s := range samples {
		data = append(data, int(s))
	}
	w.buf.Data = data

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	w.frames += len(samples) / wavChannels
	return nil
}

// Frames returns the number of stereo sample frames written.
func (w *WAVWriter) Frames() int {
	return w.frames
}

// Close finalizes the header sizes and closes the file.
func (w *WAVWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close wav: %w", err)
	}
	return w.file.Close()
}
