package emu

import emucore "github.com/user-none/eblitui/api"

// Region is an alias for emucore.Region so internal code compiles unchanged.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// CyclesPerLine is the number of Z80 cycles in one scanline. The VDP
// master clock is 3x the CPU clock and a line is 684 master clocks.
const CyclesPerLine = 228

// RegionTiming holds timing constants for a specific region.
// Both MSX1 and SG-1000 run the Z80 from the 3.579545 MHz colorburst
// clock; only the number of scanlines differs.
type RegionTiming struct {
	CPUClockHz int // Z80 clock frequency
	Scanlines  int // Total scanlines per frame
	FPS        int // Nominal frames per second
}

// NTSC timing: 3.579545 MHz, 262 scanlines, 60 Hz
var NTSCTiming = RegionTiming{
	CPUClockHz: 3579545,
	Scanlines:  262,
	FPS:        60,
}

// PAL timing: 3.579545 MHz, 313 scanlines, 50 Hz
var PALTiming = RegionTiming{
	CPUClockHz: 3579545,
	Scanlines:  313,
	FPS:        50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// CyclesPerFrame returns the number of CPU cycles in one frame.
func (t RegionTiming) CyclesPerFrame() int {
	return t.Scanlines * CyclesPerLine
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
