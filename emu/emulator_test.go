package emu

import (
	"testing"

	emucore "github.com/user-none/eblitui/api"
)

// backdropProgram sets the backdrop color to 4 and halts:
//
//	LD A,04h / OUT (BFh),A / LD A,87h / OUT (BFh),A / HALT
var backdropProgram = []byte{0x3E, 0x04, 0xD3, 0xBF, 0x3E, 0x87, 0xD3, 0xBF, 0x76}

// vblankProgram enables the display and frame interrupt, starts a tone
// on SN76489 channel 0 and halts. The IM 1 handler at 0x38 counts
// interrupts in the word at 0xC000 and writes the count to VRAM.
var vblankProgram = func() []byte {
	rom := make([]byte, 0x2000)
	copy(rom, []byte{
		0xF3,             // DI
		0x31, 0x00, 0xE0, // LD SP,E000h
		0x3E, 0xE2, // LD A,E2h
		0xD3, 0xBF, // OUT (BFh),A
		0x3E, 0x81, // LD A,81h      ; R1 = E2h
		0xD3, 0xBF, // OUT (BFh),A
		0xED, 0x56, // IM 1
		0xFB,       // EI
		0x3E, 0x90, // LD A,90h      ; ch0 attenuation 0
		0xD3, 0x7F, // OUT (7Fh),A
		0x3E, 0x85, // LD A,85h      ; ch0 divider low nibble
		0xD3, 0x7F, // OUT (7Fh),A
		0x3E, 0x04, // LD A,04h      ; ch0 divider high bits
		0xD3, 0x7F, // OUT (7Fh),A
		0x76,       // HALT
		0x18, 0xFD, // JR -3
	})
	copy(rom[0x38:], []byte{
		0xDB, 0xBF, // IN A,(BFh)    ; acknowledge
		0x2A, 0x00, 0xC0, // LD HL,(C000h)
		0x23,             // INC HL
		0x22, 0x00, 0xC0, // LD (C000h),HL
		0x7D,       // LD A,L
		0xD3, 0xBE, // OUT (BEh),A
		0xFB, // EI
		0xC9, // RET
	})
	return rom
}()

func makeTestEmulator(machine Machine, rom []byte) *Emulator {
	return NewEmulator(machine, rom, ColorModeRGB565)
}

func TestEmulator_BackdropScenario(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, backdropProgram)
	e.Reset()
	e.Tick(0, 0)

	want := e.VDP().Palette()[4]
	for i, px := range e.Display() {
		if px != want {
			t.Fatalf("pixel %d: expected 0x%04X, got 0x%04X", i, want, px)
		}
	}
}

func TestEmulator_TickRunsOneFrame(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, backdropProgram)
	e.Tick(0, 0)

	// A frame ends exactly on a line boundary once the overshoot of the
	// last instruction is discounted.
	if e.Clock().Line() != 0 {
		t.Errorf("expected line 0 after a frame, got %d", e.Clock().Line())
	}
	if e.Clock().FrameCycles() != e.Clock().LineCycles() {
		t.Errorf("expected frame cycles %d to equal line cycles %d",
			e.Clock().FrameCycles(), e.Clock().LineCycles())
	}
	if e.Clock().LineCycles() >= 23 {
		t.Errorf("expected overshoot under one instruction, got %d", e.Clock().LineCycles())
	}
}

func TestEmulator_VBlankInterrupt(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, vblankProgram)
	for i := 0; i < 3; i++ {
		e.Tick(0, 0)
	}

	ram := e.Memory().GetSystemRAM()
	count := uint16(ram[0]) | uint16(ram[1])<<8
	if count != 3 {
		t.Errorf("expected 3 interrupts after 3 frames, got %d", count)
	}
	if e.VDP().GetStatus()&statusVBlank != 0 {
		t.Error("expected VBlank flag cleared by the handler")
	}
}

func TestEmulator_SampleCountPerFrame(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, vblankProgram)
	e.Tick(0, 0)

	// 59736 cycles at 3579545 Hz is 735.9 samples at 44100 Hz
	n := len(e.SoundBuffer())
	if n < 1470 || n > 1472 {
		t.Errorf("expected 1470-1472 interleaved samples, got %d", n)
	}
	if n%2 != 0 {
		t.Errorf("expected whole stereo pairs, got %d values", n)
	}
}

func TestEmulator_SoundBufferRewinds(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, vblankProgram)
	e.Tick(0, 0)
	if len(e.SoundBuffer()) == 0 {
		t.Fatal("expected samples after a frame")
	}
	if n := len(e.SoundBuffer()); n != 0 {
		t.Errorf("expected empty buffer on second call, got %d", n)
	}
}

func TestEmulator_ToneIsAudible(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, vblankProgram)
	e.Tick(0, 0)
	e.Tick(0, 0)

	samples := e.GetAudioSamples()
	var lo, hi int16
	for _, s := range samples {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if hi-lo < 1000 {
		t.Errorf("expected an audible square wave, got range %d..%d", lo, hi)
	}
}

func TestEmulator_ResetClearsState(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, vblankProgram)
	e.Tick(0, 0)
	e.Tick(0, 0)
	e.Reset()

	if e.Clock().FrameCycles() != 0 || e.Clock().Line() != 0 {
		t.Error("expected clock at frame start after reset")
	}
	if e.Memory().GetSystemRAM()[0] != 0 {
		t.Error("expected RAM cleared after reset")
	}
	if e.VDP().GetRegister(1) != 0 {
		t.Errorf("expected VDP R1=0 after reset, got 0x%02X", e.VDP().GetRegister(1))
	}
	if e.SN76489().GetVolume(0) != 0x0F {
		t.Error("expected PSG silenced after reset")
	}
}

func TestEmulator_MachineSelectsGenerator(t *testing.T) {
	sg := makeTestEmulator(MachineSG1000, nil)
	if sg.SN76489() == nil || sg.AY8910() != nil {
		t.Error("SG-1000 should have an SN76489 only")
	}
	msx := makeTestEmulator(MachineMSX1, nil)
	if msx.AY8910() == nil || msx.SN76489() != nil {
		t.Error("MSX1 should have an AY8910 only")
	}
}

func TestEmulator_MSXRunsWithoutBIOS(t *testing.T) {
	e := makeTestEmulator(MachineMSX1, nil)
	e.Tick(0, 0)
	e.Tick(0, 0)
	if e.Clock().Line() != 0 {
		t.Errorf("expected frame boundary, got line %d", e.Clock().Line())
	}
}

// countingCPU is a CPU that executes fixed-cost instructions and
// records interrupt activity.
type countingCPU struct {
	cost  int
	steps int
	nmis  int
	intOn bool
	ints  int
}

func (c *countingCPU) Step() int { c.steps++; return c.cost }
func (c *countingCPU) Reset()    { c.steps = 0 }
func (c *countingCPU) INT(active bool, data uint8) {
	if active && !c.intOn {
		c.ints++
	}
	c.intOn = active
}
func (c *countingCPU) NMI()                         { c.nmis++ }
func (c *countingCPU) StateSize() int               { return 4 }
func (c *countingCPU) Serialize(buf []byte) error   { return nil }
func (c *countingCPU) Deserialize(buf []byte) error { return nil }

func TestEmulator_CustomCPU(t *testing.T) {
	cpu := &countingCPU{cost: 12}
	e := NewEmulatorWithCPU(MachineSG1000, nil, ColorModeRGB555, func(*Bus) CPU { return cpu })
	e.Tick(0, 0)

	frame := NTSCTiming.CyclesPerFrame()
	want := (frame + cpu.cost - 1) / cpu.cost
	if cpu.steps != want {
		t.Errorf("expected %d steps in a frame, got %d", want, cpu.steps)
	}
}

func TestEmulator_SG1000PauseRaisesNMIOnPress(t *testing.T) {
	cpu := &countingCPU{cost: 4}
	e := NewEmulatorWithCPU(MachineSG1000, nil, ColorModeRGB555, func(*Bus) CPU { return cpu })

	e.Tick(PadSpecial1, 0)
	e.Tick(PadSpecial1, 0)
	if cpu.nmis != 1 {
		t.Errorf("expected 1 NMI while held, got %d", cpu.nmis)
	}
	e.Tick(0, 0)
	e.Tick(PadSpecial1, 0)
	if cpu.nmis != 2 {
		t.Errorf("expected 2 NMIs after second press, got %d", cpu.nmis)
	}
}

func TestEmulator_MSXSpecialButtonNoNMI(t *testing.T) {
	cpu := &countingCPU{cost: 4}
	e := NewEmulatorWithCPU(MachineMSX1, nil, ColorModeRGB555, func(*Bus) CPU { return cpu })
	e.Tick(PadSpecial1, 0)
	if cpu.nmis != 0 {
		t.Errorf("expected no NMI on MSX1, got %d", cpu.nmis)
	}
}

func TestEmulator_InterruptLineFollowsVDP(t *testing.T) {
	cpu := &countingCPU{cost: 4}
	e := NewEmulatorWithCPU(MachineSG1000, nil, ColorModeRGB555, func(*Bus) CPU { return cpu })
	e.VDP().WriteControl(0x20)
	e.VDP().WriteControl(0x81) // R1: IE

	e.Tick(0, 0)
	if cpu.ints != 1 || !cpu.intOn {
		t.Fatalf("expected INT asserted once, got %d (on=%v)", cpu.ints, cpu.intOn)
	}

	e.VDP().ReadStatus()
	e.Tick(0, 0)
	if cpu.ints != 2 {
		t.Errorf("expected INT asserted again next frame, got %d", cpu.ints)
	}
}

func TestEmulator_SetInput(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, nil)
	e.SetInput(0, 1<<emucore.ButtonUp|1<<emucore.ButtonRight|1<<4)
	e.SetInput(1, 1<<5|1<<7)
	e.SetInput(2, 0xFFFF)

	if e.input[0] != PadUp|PadRight|PadTrigger1 {
		t.Errorf("player 1: expected 0x%02X, got 0x%02X", PadUp|PadRight|PadTrigger1, e.input[0])
	}
	if e.input[1] != PadTrigger2|PadSpecial2 {
		t.Errorf("player 2: expected 0x%02X, got 0x%02X", PadTrigger2|PadSpecial2, e.input[1])
	}
}

func TestEmulator_GetFramebuffer(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, backdropProgram)
	e.RunFrame()

	fb := e.GetFramebuffer()
	if len(fb) != e.GetFramebufferStride()*e.GetActiveHeight() {
		t.Fatalf("expected %d bytes, got %d", e.GetFramebufferStride()*e.GetActiveHeight(), len(fb))
	}
	want := tmsColors[4]
	if fb[0] != want.R || fb[1] != want.G || fb[2] != want.B || fb[3] != 0xFF {
		t.Errorf("expected %v, got %v", want, fb[0:4])
	}
}

func TestEmulator_FrameImage(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, backdropProgram)
	e.RunFrame()

	img := e.FrameImage()
	b := img.Bounds()
	if b.Dx() != ScreenWidth || b.Dy() != ScreenHeight {
		t.Fatalf("expected %dx%d, got %dx%d", ScreenWidth, ScreenHeight, b.Dx(), b.Dy())
	}
	got := img.RGBAAt(ScreenWidth-1, ScreenHeight-1)
	if got != tmsColors[4] {
		t.Errorf("expected %v, got %v", tmsColors[4], got)
	}
}

func TestEmulator_SpriteLimitOption(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, nil)
	e.SetOption("sprite_limit", "false")
	if e.VDP().spriteLimit {
		t.Error("expected sprite limit disabled")
	}
	e.SetOption("sprite_limit", "true")
	if !e.VDP().spriteLimit {
		t.Error("expected sprite limit enabled")
	}
}

func TestEmulator_SetRegion(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, nil)
	e.SetRegion(RegionPAL)
	if got := e.GetTiming(); got.FPS != 50 || got.Scanlines != 313 {
		t.Errorf("expected 50 FPS / 313 lines, got %d / %d", got.FPS, got.Scanlines)
	}

	cpu := &countingCPU{cost: 4}
	e = NewEmulatorWithCPU(MachineSG1000, nil, ColorModeRGB555, func(*Bus) CPU { return cpu })
	e.SetRegion(RegionPAL)
	e.Tick(0, 0)
	if cpu.steps != PALTiming.CyclesPerFrame()/4 {
		t.Errorf("expected %d steps, got %d", PALTiming.CyclesPerFrame()/4, cpu.steps)
	}
}

func TestEmulator_ReadMemory(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, nil)
	e.Memory().Write(0xC010, 0x5A)
	e.VDP().GetVRAM()[0x20] = 0xA5

	buf := make([]byte, 1)
	if n := e.ReadMemory(0x10, buf); n != 1 || buf[0] != 0x5A {
		t.Errorf("RAM: expected 0x5A, got 0x%02X (n=%d)", buf[0], n)
	}
	if n := e.ReadMemory(vramStart+0x20, buf); n != 1 || buf[0] != 0xA5 {
		t.Errorf("VRAM: expected 0xA5, got 0x%02X (n=%d)", buf[0], n)
	}

	// Reads stop at the end of a region
	big := make([]byte, 8)
	if n := e.ReadMemory(systemRAMEnd-3, big); n != 4 {
		t.Errorf("expected 4 bytes before the gap, got %d", n)
	}
}

func TestEmulator_RegionAccess(t *testing.T) {
	e := makeTestEmulator(MachineSG1000, nil)
	data := make([]byte, ramSize)
	data[100] = 0x77
	e.WriteRegion(emucore.MemorySystemRAM, data)

	got := e.ReadRegion(emucore.MemorySystemRAM)
	if len(got) != ramSize || got[100] != 0x77 {
		t.Error("system RAM region did not round-trip")
	}
	if e.ReadRegion(emucore.MemorySaveRAM) != nil {
		t.Error("expected no save RAM region")
	}
	if len(e.MemoryMap()) != 1 {
		t.Errorf("expected 1 memory region, got %d", len(e.MemoryMap()))
	}
}
