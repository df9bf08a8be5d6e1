package emu

import (
	"image"

	emucore "github.com/user-none/eblitui/api"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

// Flat address boundaries for ReadMemory.
const (
	systemRAMStart = 0x00000
	systemRAMEnd   = systemRAMStart + ramSize - 1
	vramStart      = 0x10000
	vramEnd        = vramStart + vramSize - 1
)

// Emulator is a complete SG-1000 or MSX1 machine.
type Emulator struct {
	machine Machine
	cpu     CPU
	bus     *Bus
	mem     *Memory
	vdp     *VDP
	io      *IO

	// Exactly one generator is fitted; psg points at it.
	sn  *SN76489
	ay  *AY8910
	psg SoundGenerator

	clock   Clock
	sampler *sampler

	// Current level of the CPU's INT input, driven by the VDP
	intLine bool

	region Region
	timing RegionTiming

	// Input latched by SetInput for RunFrame
	input [2]uint8

	// RGBA conversion of the VDP frame for GetFramebuffer
	framebuffer *image.RGBA
}

// NewEmulator creates a machine running rom on a Z80. mode selects the
// 16-bit pixel format of the display buffer. The machine starts in the
// reset state.
func NewEmulator(machine Machine, rom []byte, mode ColorMode) *Emulator {
	return NewEmulatorWithCPU(machine, rom, mode, NewZ80)
}

// NewEmulatorWithCPU creates a machine whose CPU is created by newCPU.
func NewEmulatorWithCPU(machine Machine, rom []byte, mode ColorMode, newCPU CPUFactory) *Emulator {
	region := DefaultRegion()
	timing := GetTimingForRegion(region)

	e := &Emulator{
		machine:     machine,
		mem:         NewMemory(machine, rom),
		vdp:         NewVDP(mode),
		io:          NewIO(),
		clock:       NewClock(timing.Scanlines),
		region:      region,
		timing:      timing,
		framebuffer: image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight)),
	}

	if machine == MachineMSX1 {
		e.ay = NewAY8910(e.io)
		e.psg = e.ay
	} else {
		e.sn = NewSN76489()
		e.psg = e.sn
	}
	e.sampler = newSampler(e.psg, timing.CPUClockHz)

	e.bus = NewBus(machine, e.mem, e.vdp, e.sn, e.ay, e.io)
	e.cpu = newCPU(e.bus)

	e.Reset()
	return e
}

// Reset returns every component to its power-on state. Cartridge,
// BIOS and logo images and the special key assignments are kept.
func (e *Emulator) Reset() {
	e.mem.Reset()
	e.vdp.Reset()
	e.psg.Reset()
	e.io.Reset()
	e.clock.Reset()
	e.sampler.reset()
	e.cpu.Reset()
	e.intLine = false
	e.cpu.INT(false, 0xFF)
}

// Machine returns the emulated platform.
func (e *Emulator) Machine() Machine {
	return e.machine
}

// ConsumeClock accounts cycles of CPU time: the VDP renders the lines
// they complete and the sound generator synthesizes over them.
// Returns true if a frame boundary was crossed.
func (e *Emulator) ConsumeClock(cycles int) bool {
	wrapped := e.clock.Advance(cycles, e.vdp)
	e.sampler.run(cycles)
	return wrapped
}

// Tick runs the machine for one frame with the given controller
// states (Pad* bits). On return the display buffer holds the frame
// and the sound buffer the frame's samples.
func (e *Emulator) Tick(pad1, pad2 uint8) {
	pressed := e.io.SetPads(pad1, pad2)
	if e.machine == MachineSG1000 && pressed&PadSpecial1 != 0 {
		// SG-1000 pause button
		e.cpu.NMI()
	}

	e.sampler.rewind()
	for {
		cycles := e.cpu.Step()
		if cycles <= 0 {
			// Keep time moving if the CPU reports no work
			cycles = 4
		}
		wrapped := e.ConsumeClock(cycles)
		e.updateINT()
		if wrapped {
			return
		}
	}
}

// updateINT drives the CPU's INT input from the VDP.
func (e *Emulator) updateINT() {
	pending := e.vdp.InterruptPending()
	if pending != e.intLine {
		e.intLine = pending
		e.cpu.INT(pending, 0xFF)
	}
}

// RunFrame executes one frame with the input last given to SetInput.
func (e *Emulator) RunFrame() {
	e.Tick(e.input[0], e.input[1])
}

// SetInput unpacks a button bitmask and latches it for the given player.
// Buttons 4 and 5 are the triggers, 6 and 7 the special buttons.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player < 0 || player > 1 {
		return
	}

	var pad uint8
	if buttons&(1<<emucore.ButtonUp) != 0 {
		pad |= PadUp
	}
	if buttons&(1<<emucore.ButtonDown) != 0 {
		pad |= PadDown
	}
	if buttons&(1<<emucore.ButtonLeft) != 0 {
		pad |= PadLeft
	}
	if buttons&(1<<emucore.ButtonRight) != 0 {
		pad |= PadRight
	}
	if buttons&(1<<4) != 0 {
		pad |= PadTrigger1
	}
	if buttons&(1<<5) != 0 {
		pad |= PadTrigger2
	}
	if buttons&(1<<6) != 0 {
		pad |= PadSpecial1
	}
	if buttons&(1<<7) != 0 {
		pad |= PadSpecial2
	}
	e.input[player] = pad
}

// Display returns the last frame as 16-bit palette values.
func (e *Emulator) Display() []uint16 {
	return e.vdp.Display()
}

// GetFramebuffer returns raw RGBA pixel data for the current frame.
func (e *Emulator) GetFramebuffer() []byte {
	pix := e.framebuffer.Pix
	for i, c := range e.vdp.Frame() {
		rgba := tmsColors[c&0x0F]
		o := i * 4
		pix[o] = rgba.R
		pix[o+1] = rgba.G
		pix[o+2] = rgba.B
		pix[o+3] = rgba.A
	}
	return pix
}

// FrameImage returns the current frame as an RGBA image. The image is
// reused by the next call.
func (e *Emulator) FrameImage() *image.RGBA {
	e.GetFramebuffer()
	return e.framebuffer
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return e.framebuffer.Stride
}

// GetActiveHeight returns the current active display height.
func (e *Emulator) GetActiveHeight() int {
	return ScreenHeight
}

// GetRegion returns the emulator's region setting.
func (e *Emulator) GetRegion() Region {
	return e.region
}

// SetRegion switches between 60 Hz and 50 Hz frame timing.
func (e *Emulator) SetRegion(region Region) {
	e.region = region
	e.timing = GetTimingForRegion(region)
	e.clock.SetScanlines(e.timing.Scanlines)
}

// GetTiming returns FPS and scanline count for the current region.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       e.timing.FPS,
		Scanlines: e.timing.Scanlines,
	}
}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "sprite_limit":
		e.vdp.SetSpriteLimit(value == "true")
	}
}

// Close releases the cartridge image and frame buffers. The emulator
// must not be used afterwards.
func (e *Emulator) Close() {
	e.mem.release()
	e.vdp.release()
	e.framebuffer = nil
}

// GetSystemRAM returns a copy of the 16KB system RAM.
func (e *Emulator) GetSystemRAM() []byte {
	out := make([]byte, ramSize)
	copy(out, e.mem.GetSystemRAM()[:])
	return out
}

// SetSystemRAM writes data into system RAM.
func (e *Emulator) SetSystemRAM(data []byte) {
	copy(e.mem.GetSystemRAM()[:], data)
}

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read. System RAM is at 0x00000 and VRAM at 0x10000.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	ram := e.mem.GetSystemRAM()
	vram := e.vdp.GetVRAM()

	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		switch {
		case cur <= systemRAMEnd:
			buf[i] = ram[cur-systemRAMStart]
		case cur >= vramStart && cur <= vramEnd:
			buf[i] = vram[cur-vramStart]
		default:
			return count
		}
		count++
	}
	return count
}

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: ramSize},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		return e.GetSystemRAM()
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		e.SetSystemRAM(data)
	}
}

// Memory returns the memory mapper.
func (e *Emulator) Memory() *Memory {
	return e.mem
}

// VDP returns the video display processor.
func (e *Emulator) VDP() *VDP {
	return e.vdp
}

// SN76489 returns the SG-1000 sound generator, or nil on MSX1.
func (e *Emulator) SN76489() *SN76489 {
	return e.sn
}

// AY8910 returns the MSX1 sound generator, or nil on SG-1000.
func (e *Emulator) AY8910() *AY8910 {
	return e.ay
}

// Clock returns the frame scheduler.
func (e *Emulator) Clock() *Clock {
	return &e.clock
}
