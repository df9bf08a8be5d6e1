package emu

import "errors"

// IO holds controller state and the keyboard side of the MSX PPI.
type IO struct {
	pad     [2]uint8 // PadUp.. bits, set = held
	prevPad uint8    // player 1 pad at the previous frame, for edge detection
	portC   uint8    // PPI port C: keyboard row select in bits 3-0
	special [2]matrixKey
}

// NewIO creates controller state with both special keys unassigned.
func NewIO() *IO {
	return &IO{special: [2]matrixKey{disabledKey, disabledKey}}
}

// Reset releases all buttons and clears the PPI. Special key
// assignments are configuration and are kept.
func (io *IO) Reset() {
	io.pad = [2]uint8{}
	io.prevPad = 0
	io.portC = 0
}

// SetPads latches both controllers for the coming frame and returns
// the buttons of player 1 that went from released to held.
func (io *IO) SetPads(pad1, pad2 uint8) uint8 {
	pressed := pad1 &^ io.prevPad
	io.prevPad = pad1
	io.pad[0] = pad1
	io.pad[1] = pad2
	return pressed
}

// ReadJoystick returns AY port A: the joystick selected by R15 bit 6,
// active low, with the two unused inputs high.
func (io *IO) ReadJoystick(portB uint8) uint8 {
	pad := io.pad[(portB>>6)&1]
	return 0xC0 | ^pad&0x3F
}

// readPortDC returns SG-1000 port 0xDC: player 1 directions and
// triggers, and player 2 up/down. Active low.
func (io *IO) readPortDC() uint8 {
	return ^(io.pad[0]&0x3F | (io.pad[1]&0x03)<<6)
}

// readPortDD returns SG-1000 port 0xDD: player 2 left/right and
// triggers. Active low; the upper bits are unused and read high.
func (io *IO) readPortDD() uint8 {
	return 0xF0 | ^(io.pad[1]>>2)&0x0F
}

// writePortC sets PPI port C.
func (io *IO) writePortC(val uint8) {
	io.portC = val
}

// writePPIControl handles the PPI control port. With bit 7 clear it
// sets (bit 0 = 1) or resets a single bit of port C.
func (io *IO) writePPIControl(val uint8) {
	if val&0x80 != 0 {
		return
	}
	bit := uint8(1) << ((val >> 1) & 0x07)
	if val&0x01 != 0 {
		io.portC |= bit
	} else {
		io.portC &^= bit
	}
}

const (
	ioSerializeVersion = 1
	// IOSerializeSize is the total bytes needed for IO serialization.
	// version(1) + pad(2) + prevPad(1) + portC(1) + special(4)
	IOSerializeSize = 9
)

// Serialize writes IO state to buf.
func (io *IO) Serialize(buf []byte) error {
	if len(buf) < IOSerializeSize {
		return errors.New("IO serialize buffer too small")
	}
	buf[0] = ioSerializeVersion
	buf[1] = io.pad[0]
	buf[2] = io.pad[1]
	buf[3] = io.prevPad
	buf[4] = io.portC
	for n, k := range io.special {
		buf[5+n*2] = k.row
		buf[6+n*2] = k.col
	}
	return nil
}

// Deserialize reads IO state from buf.
func (io *IO) Deserialize(buf []byte) error {
	if len(buf) < IOSerializeSize {
		return errors.New("IO deserialize buffer too small")
	}
	if buf[0] != ioSerializeVersion {
		return errors.New("unsupported IO serialize version")
	}
	io.pad[0] = buf[1]
	io.pad[1] = buf[2]
	io.prevPad = buf[3]
	io.portC = buf[4]
	for n := range io.special {
		io.special[n] = matrixKey{row: buf[5+n*2], col: buf[6+n*2] & 0x07}
	}
	return nil
}

// Bus implements z80.Bus: memory through the Memory mapper and I/O
// ports through the machine's port decoder.
//
// SG-1000 ports (partially decoded by A7/A6, A0):
//
//	0x40-0x7F  SN76489 (write)
//	0x80-0xBF  VDP data (even) / control and status (odd)
//	0xC0-0xFF  controllers, 0xDC (even) / 0xDD (odd)
//
// MSX1 ports:
//
//	0x98  VDP data
//	0x99  VDP control / status
//	0xA0  AY register latch
//	0xA1  AY data write
//	0xA2  AY data read
//	0xA8  PPI port A, primary slot register
//	0xA9  PPI port B, keyboard row
//	0xAA  PPI port C, row select
//	0xAB  PPI control
type Bus struct {
	machine Machine
	mem     *Memory
	vdp     *VDP
	sn      *SN76489
	ay      *AY8910
	io      *IO
}

// NewBus wires the components of a machine together. Only the sound
// generator fitted to machine needs to be non-nil.
func NewBus(machine Machine, mem *Memory, vdp *VDP, sn *SN76489, ay *AY8910, io *IO) *Bus {
	return &Bus{
		machine: machine,
		mem:     mem,
		vdp:     vdp,
		sn:      sn,
		ay:      ay,
		io:      io,
	}
}

// Fetch reads an opcode byte during an M1 cycle. Neither machine has
// M1-specific behavior, so this delegates to Read.
func (b *Bus) Fetch(addr uint16) uint8 {
	return b.mem.Read(addr)
}

// Read reads a byte from memory.
func (b *Bus) Read(addr uint16) uint8 {
	return b.mem.Read(addr)
}

// Write writes a byte to memory.
func (b *Bus) Write(addr uint16, val uint8) {
	b.mem.Write(addr, val)
}

// In reads from an I/O port. Only the low 8 bits of the port address
// are decoded. Unconnected ports return 0xFF.
func (b *Bus) In(port uint16) uint8 {
	p := uint8(port)
	if b.machine == MachineSG1000 {
		return b.inSG1000(p)
	}

	switch p {
	case 0x98:
		return b.vdp.ReadData()
	case 0x99:
		return b.vdp.ReadStatus()
	case 0xA2:
		return b.ay.ReadData()
	case 0xA8:
		return b.mem.ReadPrimary()
	case 0xA9:
		return b.io.keyboardRow()
	case 0xAA:
		return b.io.portC
	default:
		return 0xFF
	}
}

func (b *Bus) inSG1000(p uint8) uint8 {
	switch p & 0xC1 {
	case 0x80:
		return b.vdp.ReadData()
	case 0x81:
		return b.vdp.ReadStatus()
	case 0xC0:
		return b.io.readPortDC()
	case 0xC1:
		return b.io.readPortDD()
	default:
		return 0xFF
	}
}

// Out writes to an I/O port.
func (b *Bus) Out(port uint16, val uint8) {
	p := uint8(port)
	if b.machine == MachineSG1000 {
		b.outSG1000(p, val)
		return
	}

	switch p {
	case 0x98:
		b.vdp.WriteData(val)
	case 0x99:
		b.vdp.WriteControl(val)
	case 0xA0:
		b.ay.WriteAddress(val)
	case 0xA1:
		b.ay.WriteData(val)
	case 0xA8:
		b.mem.WritePrimary(val)
	case 0xAA:
		b.io.writePortC(val)
	case 0xAB:
		b.io.writePPIControl(val)
	}
}

func (b *Bus) outSG1000(p, val uint8) {
	switch p & 0xC0 {
	case 0x40:
		b.sn.Write(val)
	case 0x80:
		if p&0x01 == 0 {
			b.vdp.WriteData(val)
		} else {
			b.vdp.WriteControl(val)
		}
	}
}
