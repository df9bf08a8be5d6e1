package record

import (
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

func TestWAVWriter_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := NewWAVWriter(fs, "/out.wav", 44100)
	if err != nil {
		t.Fatalf("NewWAVWriter failed: %v", err)
	}

	first := []int16{100, -100, 32767, -32768}
	second := []int16{1, 2}
	if err := w.Write(first); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Write(second); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if w.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", w.Frames())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := fs.Open("/out.wav")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("expected a valid WAV file")
	}
	if dec.SampleRate != 44100 {
		t.Errorf("expected 44100 Hz, got %d", dec.SampleRate)
	}
	if dec.NumChans != 2 {
		t.Errorf("expected 2 channels, got %d", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		t.Errorf("expected 16 bits, got %d", dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	want := append(append([]int16{}, first...), second...)
	if len(buf.Data) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(buf.Data))
	}
	for i, s := range want {
		if buf.Data[i] != int(s) {
			t.Errorf("sample %d: expected %d, got %d", i, s, buf.Data[i])
		}
	}
}

func TestWAVWriter_EmptyWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := NewWAVWriter(fs, "/empty.wav", 44100)
	if err != nil {
		t.Fatalf("NewWAVWriter failed: %v", err)
	}
	defer w.Close()
	if err := w.Write(nil); err != nil {
		t.Errorf("expected nil error for empty write, got %v", err)
	}
	if w.Frames() != 0 {
		t.Errorf("expected 0 frames, got %d", w.Frames())
	}
}

func TestWAVWriter_CreateFails(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	if _, err := NewWAVWriter(fs, "/out.wav", 44100); err == nil {
		t.Error("expected an error on a read-only filesystem")
	}
}

func TestWritePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 0xD4, G: 0x52, B: 0x4D, A: 0xFF})

	fs := afero.NewMemMapFs()
	if err := WritePNG(fs, "/frame.png", img); err != nil {
		t.Fatalf("WritePNG failed: %v", err)
	}

	f, err := fs.Open("/frame.png")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("expected bounds %v, got %v", img.Bounds(), decoded.Bounds())
	}
	r, g, b, _ := decoded.At(1, 1).RGBA()
	if r>>8 != 0xD4 || g>>8 != 0x52 || b>>8 != 0x4D {
		t.Errorf("expected 0xD4524D, got 0x%02X%02X%02X", r>>8, g>>8, b>>8)
	}
}
