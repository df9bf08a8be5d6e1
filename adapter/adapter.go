package adapter

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/afero"
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emsx/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Environment variables naming the MSX system images when the factory
// fields are empty.
const (
	EnvBIOS = "EMSX_BIOS"
	EnvLogo = "EMSX_LOGO"
)

// Factory implements emucore.CoreFactory for the MSX1 / SG-1000 emulator.
type Factory struct {
	// BIOSPath and LogoPath locate the MSX system images. Unset paths
	// fall back to EnvBIOS and EnvLogo.
	BIOSPath string
	LogoPath string

	// Fs is where the images are read from. Nil means the OS filesystem.
	Fs afero.Fs
}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "emsx",
		ConsoleName:     "MSX / SG-1000",
		Extensions:      []string{".rom", ".mx1", ".sg", ".sc"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     4.0 / 3.0,
		SampleRate:      emu.SampleRate,
		Buttons: []emucore.Button{
			{Name: "Trigger 1", ID: 4, DefaultKey: "J", DefaultPad: "A"},
			{Name: "Trigger 2", ID: 5, DefaultKey: "K", DefaultPad: "B"},
			{Name: "Special 1", ID: 6, DefaultKey: "Enter", DefaultPad: "Start"},
			{Name: "Special 2", ID: 7, DefaultKey: "Space", DefaultPad: "Select"},
		},
		Players: 2,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "sprite_limit",
				Label:       "Sprite Limit",
				Description: "Show at most four sprites per scanline like the hardware",
				Type:        emucore.CoreOptionBool,
				Default:     "true",
			},
		},
		RDBName:       "Microsoft - MSX",
		ThumbnailRepo: "Microsoft_-_MSX",
		DataDirName:   "emsx",
		ConsoleID:     29,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.SerializeSize(),
	}
}

// CreateEmulator creates a new emulator instance with the given ROM and region.
// The machine is detected from the image. An MSX machine without a BIOS
// still runs, but the BIOS area reads as 0xFF.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	machine := emu.DetectMachine(rom)
	e := emu.NewEmulator(machine, rom, emu.ColorModeRGB565)
	e.SetRegion(region)

	if machine == emu.MachineMSX1 {
		if err := f.loadSystemImages(e); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return e, nil
}

// DetectRegion returns NTSC; neither platform's cartridges carry a
// region marker. The bool return is false since no ROM database is
// consulted.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emu.DefaultRegion(), false
}

func (f *Factory) fs() afero.Fs {
	if f.Fs != nil {
		return f.Fs
	}
	return afero.NewOsFs()
}

// loadSystemImages loads the BIOS and logo ROM into e. A missing logo
// is not an error.
func (f *Factory) loadSystemImages(e *emu.Emulator) error {
	fs := f.fs()

	bios := firstNonEmpty(f.BIOSPath, os.Getenv(EnvBIOS))
	if bios == "" {
		return errors.New("no MSX BIOS configured (set " + EnvBIOS + ")")
	}
	if err := e.LoadBIOSFile(fs, bios); err != nil {
		return err
	}

	if logo := firstNonEmpty(f.LogoPath, os.Getenv(EnvLogo)); logo != "" {
		if err := e.LoadLogoFile(fs, logo); err != nil {
			return err
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
