package emu

import "testing"

func makeTestBus(machine Machine) *Bus {
	io := NewIO()
	var sn *SN76489
	var ay *AY8910
	if machine == MachineMSX1 {
		ay = NewAY8910(io)
	} else {
		sn = NewSN76489()
	}
	return NewBus(machine, NewMemory(machine, makeTestROM(0x8000)), NewVDP(ColorModeRGB565), sn, ay, io)
}

func TestIO_SG1000Controllers(t *testing.T) {
	b := makeTestBus(MachineSG1000)
	b.io.SetPads(PadUp|PadTrigger1, PadDown|PadLeft|PadTrigger2)

	// DC: P1 up (bit 0), P1 TL (bit 4), P2 down (bit 7) held
	if got := b.In(0xDC); got != 0x6E {
		t.Errorf("port DC: expected 0x6E, got 0x%02X", got)
	}
	// DD: P2 left (bit 0) and TR (bit 3) held
	if got := b.In(0xDD); got != 0xF6 {
		t.Errorf("port DD: expected 0xF6, got 0x%02X", got)
	}
}

func TestIO_SG1000ControllersIdle(t *testing.T) {
	b := makeTestBus(MachineSG1000)
	if got := b.In(0xDC); got != 0xFF {
		t.Errorf("port DC: expected 0xFF, got 0x%02X", got)
	}
	if got := b.In(0xDD); got != 0xFF {
		t.Errorf("port DD: expected 0xFF, got 0x%02X", got)
	}
}

func TestIO_SG1000PartialDecode(t *testing.T) {
	b := makeTestBus(MachineSG1000)
	b.io.SetPads(PadRight, 0)

	// Mirrors of DC and DD across 0xC0-0xFF
	if got := b.In(0xC0); got != 0xF7 {
		t.Errorf("port C0: expected 0xF7, got 0x%02X", got)
	}
	if got := b.In(0xFF); got != 0xFF {
		t.Errorf("port FF: expected 0xFF, got 0x%02X", got)
	}

	// VDP mirrors: 0xBE data, 0x81 control
	b.Out(0x81, 0x00)
	b.Out(0x81, 0x40)
	b.Out(0xBE, 0x5A)
	if b.vdp.GetVRAM()[0] != 0x5A {
		t.Errorf("expected VRAM[0] = 0x5A, got 0x%02X", b.vdp.GetVRAM()[0])
	}

	// Unconnected range
	if got := b.In(0x00); got != 0xFF {
		t.Errorf("port 00: expected 0xFF, got 0x%02X", got)
	}
}

func TestIO_SG1000SoundPort(t *testing.T) {
	b := makeTestBus(MachineSG1000)
	b.Out(0x7F, 0x90)
	b.Out(0x40, 0xB3)
	if b.sn.GetVolume(0) != 0 {
		t.Errorf("expected channel 0 attenuation 0, got %d", b.sn.GetVolume(0))
	}
	if b.sn.GetVolume(1) != 3 {
		t.Errorf("expected channel 1 attenuation 3, got %d", b.sn.GetVolume(1))
	}
}

func TestIO_SG1000VDPStatus(t *testing.T) {
	b := makeTestBus(MachineSG1000)
	b.vdp.SetVBlank()
	if got := b.In(0xBF); got&statusVBlank == 0 {
		t.Errorf("expected VBlank in status, got 0x%02X", got)
	}
	if got := b.In(0xBF); got&statusVBlank != 0 {
		t.Error("expected status read to clear VBlank")
	}
}

func TestIO_MSXVDPPorts(t *testing.T) {
	b := makeTestBus(MachineMSX1)
	b.Out(0x99, 0x07)
	b.Out(0x99, 0x87)
	if b.vdp.GetRegister(7) != 0x07 {
		t.Errorf("expected R7 = 0x07, got 0x%02X", b.vdp.GetRegister(7))
	}

	b.Out(0x99, 0x10)
	b.Out(0x99, 0x40)
	b.Out(0x98, 0xA5)
	b.Out(0x99, 0x10)
	b.Out(0x99, 0x00)
	if got := b.In(0x98); got != 0xA5 {
		t.Errorf("expected VRAM read 0xA5, got 0x%02X", got)
	}
}

func TestIO_MSXSoundPorts(t *testing.T) {
	b := makeTestBus(MachineMSX1)
	b.Out(0xA0, 8)
	b.Out(0xA1, 0x0C)
	if b.ay.Register(8) != 0x0C {
		t.Errorf("expected R8 = 0x0C, got 0x%02X", b.ay.Register(8))
	}
	if got := b.In(0xA2); got != 0x0C {
		t.Errorf("expected 0x0C read back, got 0x%02X", got)
	}
}

func TestIO_MSXJoystick(t *testing.T) {
	b := makeTestBus(MachineMSX1)
	b.io.SetPads(PadUp|PadTrigger1, PadRight|PadTrigger2)

	b.Out(0xA0, ayPortB)
	b.Out(0xA1, 0x00)
	b.Out(0xA0, ayPortA)
	if got := b.In(0xA2); got != 0xEE {
		t.Errorf("joystick 1: expected 0xEE, got 0x%02X", got)
	}

	b.Out(0xA0, ayPortB)
	b.Out(0xA1, 0x40)
	b.Out(0xA0, ayPortA)
	if got := b.In(0xA2); got != 0xD7 {
		t.Errorf("joystick 2: expected 0xD7, got 0x%02X", got)
	}
}

func TestIO_MSXPrimarySlotPort(t *testing.T) {
	b := makeTestBus(MachineMSX1)
	b.Out(0xA8, 0xF4)
	if got := b.In(0xA8); got != 0xF4 {
		t.Errorf("expected 0xF4, got 0x%02X", got)
	}
	if b.mem.PrimarySlot(1) != 1 || b.mem.PrimarySlot(3) != 3 {
		t.Errorf("expected page 1 in slot 1 and page 3 in slot 3, got %d and %d",
			b.mem.PrimarySlot(1), b.mem.PrimarySlot(3))
	}
}

func TestIO_MSXPortC(t *testing.T) {
	b := makeTestBus(MachineMSX1)
	b.Out(0xAA, 0x58)
	if got := b.In(0xAA); got != 0x58 {
		t.Errorf("expected 0x58, got 0x%02X", got)
	}

	// Bit set/reset through the control port
	b.Out(0xAB, 0x01) // set bit 0
	b.Out(0xAB, 0x06) // reset bit 3
	if got := b.In(0xAA); got != 0x51 {
		t.Errorf("expected 0x51, got 0x%02X", got)
	}

	// Mode words are ignored
	b.Out(0xAB, 0x82)
	if got := b.In(0xAA); got != 0x51 {
		t.Errorf("expected mode word to leave port C, got 0x%02X", got)
	}
}

func TestIO_MSXUnconnectedPort(t *testing.T) {
	b := makeTestBus(MachineMSX1)
	for _, p := range []uint16{0x00, 0x7F, 0xA3, 0xBE, 0xDC} {
		if got := b.In(p); got != 0xFF {
			t.Errorf("port 0x%02X: expected 0xFF, got 0x%02X", p, got)
		}
	}
}

func TestIO_SetPadsEdges(t *testing.T) {
	io := NewIO()
	if got := io.SetPads(PadSpecial1, 0); got != PadSpecial1 {
		t.Errorf("expected press edge, got 0x%02X", got)
	}
	if got := io.SetPads(PadSpecial1|PadUp, 0); got != PadUp {
		t.Errorf("expected only PadUp as new, got 0x%02X", got)
	}
	if got := io.SetPads(0, PadSpecial1); got != 0 {
		t.Errorf("expected player 2 ignored for edges, got 0x%02X", got)
	}
}

func TestLookupKey(t *testing.T) {
	tests := []struct {
		ascii  byte
		tenKey bool
		want   matrixKey
	}{
		{'0', false, matrixKey{0, 0}},
		{'9', false, matrixKey{1, 1}},
		{'A', false, matrixKey{2, 6}},
		{'b', false, matrixKey{2, 7}},
		{'C', false, matrixKey{3, 0}},
		{'J', false, matrixKey{3, 7}},
		{'K', false, matrixKey{4, 0}},
		{'Z', false, matrixKey{5, 7}},
		{' ', false, matrixKey{8, 0}},
		{'\r', false, matrixKey{7, 7}},
		{'0', true, matrixKey{9, 3}},
		{'9', true, matrixKey{10, 4}},
		{'*', true, matrixKey{9, 0}},
	}
	for _, tc := range tests {
		got, ok := lookupKey(tc.ascii, tc.tenKey)
		if !ok {
			t.Errorf("%q (tenKey %v): expected a key", tc.ascii, tc.tenKey)
			continue
		}
		if got != tc.want {
			t.Errorf("%q (tenKey %v): expected %v, got %v", tc.ascii, tc.tenKey, tc.want, got)
		}
	}

	if _, ok := lookupKey('A', true); ok {
		t.Error("expected no letters on the keypad")
	}
	if _, ok := lookupKey(0x01, false); ok {
		t.Error("expected no key for a control character")
	}
}

func TestIO_SpecialKeyInKeyboardRow(t *testing.T) {
	e := makeTestEmulator(MachineMSX1, makeTestROM(0x8000))
	e.SetupSpecialKey1(' ', false)
	e.SetupSpecialKey2('5', true)

	selectRow := func(row uint8) uint8 {
		e.bus.Out(0xAA, row)
		return e.bus.In(0xA9)
	}

	if got := selectRow(8); got != 0xFF {
		t.Errorf("expected row 8 idle, got 0x%02X", got)
	}

	e.io.SetPads(PadSpecial1, 0)
	if got := selectRow(8); got != 0xFE {
		t.Errorf("expected space held in row 8, got 0x%02X", got)
	}
	if got := selectRow(10); got != 0xFF {
		t.Errorf("expected row 10 idle, got 0x%02X", got)
	}

	// Either controller's special button presses the key
	e.io.SetPads(0, PadSpecial2)
	if got := selectRow(10); got != 0xFE {
		t.Errorf("expected keypad 5 held in row 10, got 0x%02X", got)
	}
	if got := selectRow(8); got != 0xFF {
		t.Errorf("expected row 8 idle, got 0x%02X", got)
	}
}

func TestIO_SpecialKeyDisabled(t *testing.T) {
	e := makeTestEmulator(MachineMSX1, makeTestROM(0x8000))
	e.SetupSpecialKey1(0x01, false)
	e.io.SetPads(PadSpecial1, 0)
	for row := uint8(0); row < keyboardRows; row++ {
		e.bus.Out(0xAA, row)
		if got := e.bus.In(0xA9); got != 0xFF {
			t.Errorf("row %d: expected 0xFF, got 0x%02X", row, got)
		}
	}
}

func TestIO_SpecialKeySurvivesReset(t *testing.T) {
	e := makeTestEmulator(MachineMSX1, makeTestROM(0x8000))
	e.SetupSpecialKey1('0', false)
	e.Reset()
	e.io.SetPads(PadSpecial1, 0)
	e.bus.Out(0xAA, 0)
	if got := e.bus.In(0xA9); got != 0xFE {
		t.Errorf("expected '0' held after reset, got 0x%02X", got)
	}
}

func TestIO_KeyboardRowOutOfRange(t *testing.T) {
	io := NewIO()
	io.writePortC(0x0F)
	if got := io.keyboardRow(); got != 0xFF {
		t.Errorf("expected 0xFF for row 15, got 0x%02X", got)
	}
}

func TestIO_SerializeRoundTrip(t *testing.T) {
	io := NewIO()
	io.setSpecialKey(0, 'M', false)
	io.SetPads(PadLeft, PadTrigger2)
	io.writePortC(0x05)

	buf := make([]byte, IOSerializeSize)
	if err := io.Serialize(buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	restored := NewIO()
	if err := restored.Deserialize(buf); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if *restored != *io {
		t.Errorf("expected %+v, got %+v", *io, *restored)
	}
}
