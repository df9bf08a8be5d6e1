package emu

const (
	Name    = "emsx"
	Version = "0.1.0"
)

// Machine selects the emulated platform. It decides the memory map,
// the I/O port layout and which sound generator is fitted.
type Machine int

const (
	MachineSG1000 Machine = iota // Sega SG-1000, SN76489 sound
	MachineMSX1                  // MSX1, AY-3-8910 sound, slot mapper
)

func (m Machine) String() string {
	switch m {
	case MachineSG1000:
		return "SG-1000"
	case MachineMSX1:
		return "MSX1"
	default:
		return "unknown"
	}
}

// DetectMachine guesses the platform from a cartridge image. MSX
// cartridges carry an "AB" signature at the start of their first page;
// anything else is treated as an SG-1000 image.
func DetectMachine(rom []byte) Machine {
	if len(rom) >= 2 && rom[0] == 'A' && rom[1] == 'B' {
		return MachineMSX1
	}
	// Some 32KB MSX images put the header at 0x4000 (page 1 first).
	if len(rom) >= 0x4002 && rom[0x4000] == 'A' && rom[0x4001] == 'B' {
		return MachineMSX1
	}
	return MachineSG1000
}

// Pad bits for Tick. A set bit means the button is held.
const (
	PadUp       uint8 = 0x01
	PadDown     uint8 = 0x02
	PadLeft     uint8 = 0x04
	PadRight    uint8 = 0x08
	PadTrigger1 uint8 = 0x10
	PadTrigger2 uint8 = 0x20
	PadSpecial1 uint8 = 0x40
	PadSpecial2 uint8 = 0x80
)
