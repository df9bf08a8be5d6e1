package emu

import (
	"encoding/binary"
	"errors"
)

const (
	ScreenWidth     = 256
	ScreenHeight    = 192
	MaxScreenHeight = ScreenHeight

	vramSize = 0x4000
	vramMask = vramSize - 1
)

// Status register bits
const (
	statusVBlank    = 0x80 // F: frame interrupt / vertical blank
	statusFifth     = 0x40 // 5S: fifth sprite on a line
	statusCollision = 0x20 // C: sprite pattern overlap
	statusFifthMask = 0x1F // number of the fifth sprite
)

// Video modes as returned by vdpRegs.mode: M1 -> bit 0, M3 -> bit 1, M2 -> bit 2.
const (
	modeGraphics0  = 0
	modeText       = 1
	modeGraphics2  = 2
	modeMulticolor = 4
)

// vdpRegs is the TMS9918A register file. Each register is a packed
// byte; the accessors below name the fields.
//
//	R0  ------ M3 EXTVID
//	R1  4/16K BL IE M1 M2 - SIZE MAG
//	R2  name table base (bits 3-0) * 0x400
//	R3  color table base * 0x40
//	R4  pattern generator base (bits 2-0) * 0x800
//	R5  sprite attribute table base (bits 6-0) * 0x80
//	R6  sprite pattern generator base (bits 2-0) * 0x800
//	R7  text color (bits 7-4), backdrop color (bits 3-0)
type vdpRegs [8]uint8

func (r *vdpRegs) m1() bool { return r[1]&0x10 != 0 }
func (r *vdpRegs) m2() bool { return r[1]&0x08 != 0 }
func (r *vdpRegs) m3() bool { return r[0]&0x02 != 0 }

// mode combines M1, M3 and M2 into a 3-bit selector.
func (r *vdpRegs) mode() int {
	m := 0
	if r.m1() {
		m |= 1
	}
	if r.m3() {
		m |= 2
	}
	if r.m2() {
		m |= 4
	}
	return m
}

func (r *vdpRegs) displayEnabled() bool   { return r[1]&0x40 != 0 }
func (r *vdpRegs) interruptEnabled() bool { return r[1]&0x20 != 0 }
func (r *vdpRegs) largeSprites() bool     { return r[1]&0x02 != 0 }
func (r *vdpRegs) magnifiedSprites() bool { return r[1]&0x01 != 0 }

func (r *vdpRegs) nameTable() uint16     { return uint16(r[2]&0x0F) << 10 }
func (r *vdpRegs) colorTable() uint16    { return uint16(r[3]) << 6 }
func (r *vdpRegs) patternTable() uint16  { return uint16(r[4]&0x07) << 11 }
func (r *vdpRegs) spriteAttrs() uint16   { return uint16(r[5]&0x7F) << 7 }
func (r *vdpRegs) spritePattern() uint16 { return uint16(r[6]&0x07) << 11 }
func (r *vdpRegs) textColor() uint8      { return r[7] >> 4 }
func (r *vdpRegs) backdrop() uint8       { return r[7] & 0x0F }

// Graphics 2 splits the tables into thirds; R3 and R4 also act as masks.
func (r *vdpRegs) g2PatternBase() uint16 { return uint16(r[4]&0x04) << 11 }
func (r *vdpRegs) g2PatternMask() uint16 { return uint16(r[4]&0x03)<<8 | 0xFF }
func (r *vdpRegs) g2ColorBase() uint16   { return uint16(r[3]&0x80) << 6 }
func (r *vdpRegs) g2ColorMask() uint16   { return uint16(r[3]&0x7F)<<3 | 0x07 }

// VDP is a TMS9918A-class video display processor.
type VDP struct {
	vram       [vramSize]uint8
	register   vdpRegs
	addr       uint16 // 14-bit VRAM address
	addrLatch  uint8  // first byte of a control write
	writeLatch bool   // true when the first byte has been written
	status     uint8
	readBuffer uint8 // read-ahead

	palette     [16]uint16
	display     []uint16 // ScreenWidth*ScreenHeight palette values
	frame       []uint8  // same pixels as color indices
	spriteLimit bool

	// Pre-allocated per-line buffers
	lineBuf       [ScreenWidth]uint8
	spriteCovered [ScreenWidth]bool // some displayed sprite has a pattern bit here
	spriteDrawn   [ScreenWidth]bool // an earlier sprite already colored this pixel
}

// NewVDP creates a VDP producing pixels in the given color mode.
func NewVDP(mode ColorMode) *VDP {
	return &VDP{
		palette:     BuildPalette(mode),
		display:     make([]uint16, ScreenWidth*ScreenHeight),
		frame:       make([]uint8, ScreenWidth*ScreenHeight),
		spriteLimit: true,
	}
}

// Reset restores power-on register state and clears VRAM. The display
// buffers are kept.
func (v *VDP) Reset() {
	for i := range v.vram {
		v.vram[i] = 0
	}
	for i := range v.register {
		v.register[i] = 0
	}
	v.addr = 0
	v.addrLatch = 0
	v.writeLatch = false
	v.status = 0
	v.readBuffer = 0
}

// WriteControl handles the two-write control port sequence. The first
// write is latched; the second commits either a VRAM address or a
// register write depending on bit 7.
func (v *VDP) WriteControl(value uint8) {
	if !v.writeLatch {
		v.addrLatch = value
		v.addr = v.addr&0x3F00 | uint16(value)
		v.writeLatch = true
		return
	}

	v.writeLatch = false
	if value&0x80 != 0 {
		v.register[value&0x07] = v.addrLatch
		return
	}

	v.addr = (uint16(value&0x3F)<<8 | uint16(v.addrLatch)) & vramMask
	if value&0x40 == 0 {
		// Read setup: pre-fetch into the read-ahead buffer
		v.readBuffer = v.vram[v.addr]
		v.addr = (v.addr + 1) & vramMask
	}
}

// ReadStatus returns the status register and clears the frame,
// fifth-sprite and collision flags.
func (v *VDP) ReadStatus() uint8 {
	status := v.status
	v.status &^= statusVBlank | statusFifth | statusCollision
	v.writeLatch = false
	return status
}

// ReadData returns the read-ahead buffer and refills it from the
// current address.
func (v *VDP) ReadData() uint8 {
	v.writeLatch = false
	data := v.readBuffer
	v.readBuffer = v.vram[v.addr]
	v.addr = (v.addr + 1) & vramMask
	return data
}

// WriteData stores value at the current address. The read-ahead buffer
// also takes the written value.
func (v *VDP) WriteData(value uint8) {
	v.writeLatch = false
	v.readBuffer = value
	v.vram[v.addr] = value
	v.addr = (v.addr + 1) & vramMask
}

// SetVBlank raises the frame flag.
func (v *VDP) SetVBlank() {
	v.status |= statusVBlank
}

// InterruptPending reports whether the VDP is asserting INT.
func (v *VDP) InterruptPending() bool {
	return v.status&statusVBlank != 0 && v.register.interruptEnabled()
}

// SetSpriteLimit enables or disables the four-sprites-per-line display
// limit. Status flags follow the hardware either way.
func (v *VDP) SetSpriteLimit(enabled bool) {
	v.spriteLimit = enabled
}

// Display returns the frame as palette values, ScreenWidth per row.
func (v *VDP) Display() []uint16 {
	return v.display
}

// Frame returns the frame as color indices, ScreenWidth per row.
func (v *VDP) Frame() []uint8 {
	return v.frame
}

// Palette returns the palette used for the display buffer.
func (v *VDP) Palette() [16]uint16 {
	return v.palette
}

// BackdropColor returns the palette value of the backdrop register.
func (v *VDP) BackdropColor() uint16 {
	return v.palette[v.register.backdrop()]
}

// Mode returns the current 3-bit video mode selector.
func (v *VDP) Mode() int {
	return v.register.mode()
}

// GetVRAM returns the VRAM contents
func (v *VDP) GetVRAM() []uint8 {
	return v.vram[:]
}

// GetRegister returns the value of a VDP register (0-7)
func (v *VDP) GetRegister(n int) uint8 {
	if n < 0 || n >= len(v.register) {
		return 0
	}
	return v.register[n]
}

// GetAddress returns the current VRAM address
func (v *VDP) GetAddress() uint16 {
	return v.addr
}

// GetWriteLatch returns whether a control write is pending
func (v *VDP) GetWriteLatch() bool {
	return v.writeLatch
}

// GetStatus returns the status register without clearing flags
func (v *VDP) GetStatus() uint8 {
	return v.status
}

// release drops the display buffers.
func (v *VDP) release() {
	v.display = nil
	v.frame = nil
}

const (
	vdpSerializeVersion = 1
	// VDPSerializeSize is the total bytes needed for VDP serialization.
	// version(1) + vram(16384) + regs(8) + addr(2) + addrLatch(1) +
	// writeLatch(1) + status(1) + readBuffer(1)
	VDPSerializeSize = 1 + vramSize + 8 + 2 + 4
)

// Serialize writes VDP state to buf. buf must be at least VDPSerializeSize bytes.
func (v *VDP) Serialize(buf []byte) error {
	if len(buf) < VDPSerializeSize {
		return errors.New("VDP serialize buffer too small")
	}

	offset := 0
	buf[offset] = vdpSerializeVersion
	offset++

	copy(buf[offset:], v.vram[:])
	offset += vramSize

	copy(buf[offset:], v.register[:])
	offset += len(v.register)

	binary.LittleEndian.PutUint16(buf[offset:], v.addr)
	offset += 2

	buf[offset] = v.addrLatch
	offset++
	buf[offset] = boolByte(v.writeLatch)
	offset++
	buf[offset] = v.status
	offset++
	buf[offset] = v.readBuffer
	return nil
}

// Deserialize reads VDP state from buf.
func (v *VDP) Deserialize(buf []byte) error {
	if len(buf) < VDPSerializeSize {
		return errors.New("VDP deserialize buffer too small")
	}
	if buf[0] != vdpSerializeVersion {
		return errors.New("unsupported VDP serialize version")
	}

	offset := 1
	copy(v.vram[:], buf[offset:offset+vramSize])
	offset += vramSize

	copy(v.register[:], buf[offset:offset+len(v.register)])
	offset += len(v.register)

	v.addr = binary.LittleEndian.Uint16(buf[offset:]) & vramMask
	offset += 2

	v.addrLatch = buf[offset]
	offset++
	v.writeLatch = buf[offset] != 0
	offset++
	v.status = buf[offset]
	offset++
	v.readBuffer = buf[offset]
	return nil
}
