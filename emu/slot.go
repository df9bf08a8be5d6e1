package emu

// slotSelect is a packed slot register holding a 2-bit selector per page:
//
//	bit 7-6  page 3 (0xC000-0xFFFF)
//	bit 5-4  page 2 (0x8000-0xBFFF)
//	bit 3-2  page 1 (0x4000-0x7FFF)
//	bit 1-0  page 0 (0x0000-0x3FFF)
//
// The primary slot register (PPI port A) and every secondary slot
// register of an expanded slot share this layout.
type slotSelect uint8

// page returns the slot number selected for page p (0-3).
func (s slotSelect) page(p int) int {
	return int(s>>(uint(p&0x03)*2)) & 0x03
}

// withPage returns a copy of s with page p bound to slot.
func (s slotSelect) withPage(p, slot int) slotSelect {
	shift := uint(p&0x03) * 2
	return s&^(0x03<<shift) | slotSelect(slot&0x03)<<shift
}

// source identifies the physical backing a page resolves to.
type source uint8

const (
	sourceNone source = iota // unmapped, reads 0xFF
	sourceBIOS               // 32KB main BIOS, pages 0-1
	sourceLogo               // 16KB logo ROM, page 2
	sourceCart               // cartridge image through the bank window
	sourceRAM                // 16KB system RAM
)

func (s source) String() string {
	switch s {
	case sourceBIOS:
		return "bios"
	case sourceLogo:
		return "logo"
	case sourceCart:
		return "cart"
	case sourceRAM:
		return "ram"
	default:
		return "none"
	}
}

// slotLayout maps [primary slot][sub-slot][page] to a backing source.
// Non-expanded primary slots only use sub-slot 0.
type slotLayout [4][4][4]source

// msx1Layout is the fixed MSX1 machine configuration:
//
//	slot 0    BIOS main (pages 0-1), logo ROM (page 2)
//	slot 1    cartridge
//	slot 2    empty
//	slot 3-0  16KB RAM (page 3)
//	slot 3-1..3-3  empty
var msx1Layout = func() slotLayout {
	var l slotLayout
	l[0][0][0] = sourceBIOS
	l[0][0][1] = sourceBIOS
	l[0][0][2] = sourceLogo
	for p := 0; p < 4; p++ {
		l[1][0][p] = sourceCart
	}
	l[3][0][3] = sourceRAM
	return l
}()

// msx1Expanded marks which primary slots are subdivided.
var msx1Expanded = [4]bool{false, false, false, true}
