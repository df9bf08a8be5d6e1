package emu

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
)

var (
	// ErrBIOSSize is returned when a BIOS image is not exactly 32KB.
	ErrBIOSSize = errors.New("bios image must be 32768 bytes")
	// ErrLogoSize is returned when a logo image is not exactly 16KB.
	ErrLogoSize = errors.New("logo image must be 16384 bytes")
)

// LoadBIOS copies a 32KB main BIOS image into slot 0. The current
// image is left untouched when the size is wrong.
func (m *Memory) LoadBIOS(data []byte) error {
	if len(data) != biosSize {
		return ErrBIOSSize
	}
	copy(m.bios[:], data)
	return nil
}

// LoadLogo copies a 16KB logo ROM image into slot 0, page 2.
func (m *Memory) LoadLogo(data []byte) error {
	if len(data) != logoSize {
		return ErrLogoSize
	}
	copy(m.logo[:], data)
	return nil
}

// LoadBIOS loads the main BIOS image from memory.
func (e *Emulator) LoadBIOS(data []byte) error {
	return e.mem.LoadBIOS(data)
}

// LoadLogo loads the logo ROM image from memory.
func (e *Emulator) LoadLogo(data []byte) error {
	return e.mem.LoadLogo(data)
}

// LoadBIOSFile reads the main BIOS image from fs.
func (e *Emulator) LoadBIOSFile(fs afero.Fs, path string) error {
	data, err := readSized(fs, path, biosSize)
	if err != nil {
		if errors.Is(err, errWrongSize) {
			return ErrBIOSSize
		}
		return fmt.Errorf("load bios: %w", err)
	}
	return e.mem.LoadBIOS(data)
}

// LoadLogoFile reads the logo ROM image from fs.
func (e *Emulator) LoadLogoFile(fs afero.Fs, path string) error {
	data, err := readSized(fs, path, logoSize)
	if err != nil {
		if errors.Is(err, errWrongSize) {
			return ErrLogoSize
		}
		return fmt.Errorf("load logo: %w", err)
	}
	return e.mem.LoadLogo(data)
}

var errWrongSize = errors.New("wrong size")

// readSized reads path and checks it is exactly size bytes long. The
// size is checked from Stat first so oversized files are not read.
func readSized(fs afero.Fs, path string, size int) ([]byte, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() != int64(size) {
		return nil, errWrongSize
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, errWrongSize
	}
	return data, nil
}
