package record

import (
	"fmt"
	"image"
	"image/png"

	"github.com/spf13/afero"
)

// WritePNG encodes img to path on fs.
func WritePNG(fs afero.Fs, path string, img image.Image) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
