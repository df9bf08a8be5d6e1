package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

const (
	pageSize   = 0x4000   // 16KB page
	ramSize    = 0x4000   // 16KB system RAM
	biosSize   = 0x8000   // 32KB main BIOS
	logoSize   = 0x4000   // 16KB logo ROM
	maxROMSize = 0x400000 // 4MB, 256 banks of 16KB
)

// CartType describes how a cartridge image is laid out in its slot.
type CartType uint8

const (
	CartPlain    CartType = iota // linear image, no bank registers
	CartBanked16                 // 16KB banks, selected at 0x6000 / 0x7000
)

// Memory is the Z80 address space: a slot mapper on MSX1 and a fixed
// map on SG-1000.
//
// SG-1000 memory map:
//
//	0x0000-0xBFFF  cartridge ROM (linear, up to 48KB)
//	0xC000-0xFFFF  RAM
//
// MSX1 memory map: four 16KB pages, each routed through the primary
// slot register and, for expanded slots, the secondary slot register
// held at 0xFFFF of that slot. See msx1Layout for the slot contents.
type Memory struct {
	machine Machine

	bios [biosSize]byte
	logo [logoSize]byte
	ram  [ramSize]byte

	rom       []byte
	romCRC    uint32
	cartType  CartType
	cartStart int // first page of a plain cartridge
	bankMask  int

	layout   slotLayout
	expanded [4]bool

	primary   slotSelect    // PPI port A
	secondary [4]slotSelect // one per expanded primary slot
	bank      [4]int        // 16KB bank shown in each page, -1 = none
}

// NewMemory creates the address space for machine with the given
// cartridge image. Images larger than maxROMSize are truncated.
func NewMemory(machine Machine, rom []byte) *Memory {
	if len(rom) > maxROMSize {
		rom = rom[:maxROMSize]
	}

	m := &Memory{
		machine: machine,
		rom:     rom,
		romCRC:  crc32.ChecksumIEEE(rom),
	}

	for i := range m.bios {
		m.bios[i] = 0xFF
	}
	for i := range m.logo {
		m.logo[i] = 0xFF
	}

	if machine == MachineMSX1 {
		m.layout = msx1Layout
		m.expanded = msx1Expanded
	}

	switch {
	case len(rom) > 0x10000:
		m.cartType = CartBanked16
	case len(rom) > 0x8000:
		m.cartStart = 0
	default:
		m.cartStart = 1
	}

	banks := (len(rom) + pageSize - 1) / pageSize
	mask := 1
	for mask < banks {
		mask <<= 1
	}
	m.bankMask = mask - 1

	m.Reset()
	return m
}

// Reset restores power-on mapping and clears RAM. Loaded images are kept.
func (m *Memory) Reset() {
	for i := range m.ram {
		m.ram[i] = 0
	}
	m.primary = 0
	for i := range m.secondary {
		m.secondary[i] = 0
	}
	m.resetBanks()
}

func (m *Memory) resetBanks() {
	for p := range m.bank {
		m.bank[p] = -1
	}
	if m.cartType == CartBanked16 {
		m.bank[1] = 0
		m.bank[2] = 0
		return
	}
	for p := m.cartStart; p < 4; p++ {
		m.bank[p] = p - m.cartStart
	}
}

// Read reads a byte from the Z80 address space.
func (m *Memory) Read(addr uint16) uint8 {
	if m.machine == MachineSG1000 {
		return m.readSG1000(addr)
	}

	page := int(addr >> 14)
	ps := m.primary.page(page)
	if addr == 0xFFFF && m.expanded[ps] {
		// Secondary slot register reads back inverted
		return ^uint8(m.secondary[ps])
	}
	return m.readSource(m.layout[ps][m.ExpandedSlot(page)][page], page, addr)
}

// Write writes a byte to the Z80 address space. Writes to ROM are
// dropped unless they hit a bank-select address.
func (m *Memory) Write(addr uint16, val uint8) {
	if m.machine == MachineSG1000 {
		if addr >= 0xC000 {
			m.ram[addr&(ramSize-1)] = val
		}
		return
	}

	page := int(addr >> 14)
	ps := m.primary.page(page)
	if addr == 0xFFFF && m.expanded[ps] {
		m.secondary[ps] = slotSelect(val)
		return
	}

	switch m.layout[ps][m.ExpandedSlot(page)][page] {
	case sourceRAM:
		m.ram[addr&(ramSize-1)] = val
	case sourceCart:
		if m.cartType != CartBanked16 {
			return
		}
		switch addr & 0xF800 {
		case 0x6000:
			m.SetBank(1, val)
		case 0x7000:
			m.SetBank(2, val)
		}
	}
}

func (m *Memory) readSG1000(addr uint16) uint8 {
	if addr >= 0xC000 {
		return m.ram[addr&(ramSize-1)]
	}
	if int(addr) < len(m.rom) {
		return m.rom[addr]
	}
	return 0xFF
}

func (m *Memory) readSource(src source, page int, addr uint16) uint8 {
	switch src {
	case sourceBIOS:
		return m.bios[addr&(biosSize-1)]
	case sourceLogo:
		return m.logo[addr&(logoSize-1)]
	case sourceRAM:
		return m.ram[addr&(ramSize-1)]
	case sourceCart:
		b := m.bank[page]
		if b < 0 {
			return 0xFF
		}
		offset := b*pageSize + int(addr&(pageSize-1))
		if offset < len(m.rom) {
			return m.rom[offset]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

// SetBank selects which 16KB bank of the cartridge appears in page.
// Only banked cartridges honour it, and only for pages 1 and 2.
func (m *Memory) SetBank(page int, bank uint8) {
	if m.cartType != CartBanked16 || page < 1 || page > 2 {
		return
	}
	m.bank[page] = int(bank) & m.bankMask
}

// Bank returns the cartridge bank shown in page, or -1 when none.
func (m *Memory) Bank(page int) int {
	return m.bank[page&0x03]
}

// PrimarySlot returns the primary slot (0-3) selected for page.
func (m *Memory) PrimarySlot(page int) int {
	return m.primary.page(page)
}

// ExpandedSlot returns the sub-slot (0-3) selected for page. It is
// always 0 when the page's primary slot is not expanded.
func (m *Memory) ExpandedSlot(page int) int {
	ps := m.primary.page(page)
	if !m.expanded[ps] {
		return 0
	}
	return m.secondary[ps].page(page)
}

// WritePrimary sets the primary slot register (PPI port A).
func (m *Memory) WritePrimary(val uint8) {
	m.primary = slotSelect(val)
}

// ReadPrimary returns the primary slot register (PPI port A).
func (m *Memory) ReadPrimary() uint8 {
	return uint8(m.primary)
}

// CartType returns the detected cartridge layout.
func (m *Memory) CartType() CartType {
	return m.cartType
}

// GetSystemRAM returns the 16KB system RAM.
func (m *Memory) GetSystemRAM() *[ramSize]uint8 {
	return &m.ram
}

// GetROMCRC32 returns the CRC32 of the cartridge image.
func (m *Memory) GetROMCRC32() uint32 {
	return m.romCRC
}

// release drops the cartridge image.
func (m *Memory) release() {
	m.rom = nil
}

const (
	memSerializeVersion = 1
	// MemorySerializeSize is the total bytes needed for Memory serialization.
	// version(1) + ram(16384) + primary(1) + secondary(4) + bank(4*2)
	MemorySerializeSize = 1 + ramSize + 1 + 4 + 8
)

// Serialize writes Memory state to buf. buf must be at least MemorySerializeSize bytes.
func (m *Memory) Serialize(buf []byte) error {
	if len(buf) < MemorySerializeSize {
		return errors.New("memory serialize buffer too small")
	}

	offset := 0
	buf[offset] = memSerializeVersion
	offset++

	copy(buf[offset:], m.ram[:])
	offset += ramSize

	buf[offset] = uint8(m.primary)
	offset++
	for _, s := range m.secondary {
		buf[offset] = uint8(s)
		offset++
	}
	for _, b := range m.bank {
		binary.LittleEndian.PutUint16(buf[offset:], uint16(int16(b)))
		offset += 2
	}
	return nil
}

// Deserialize reads Memory state from buf.
func (m *Memory) Deserialize(buf []byte) error {
	if len(buf) < MemorySerializeSize {
		return errors.New("memory deserialize buffer too small")
	}
	if buf[0] != memSerializeVersion {
		return errors.New("unsupported memory serialize version")
	}

	offset := 1
	copy(m.ram[:], buf[offset:offset+ramSize])
	offset += ramSize

	m.primary = slotSelect(buf[offset])
	offset++
	for i := range m.secondary {
		m.secondary[i] = slotSelect(buf[offset])
		offset++
	}
	for i := range m.bank {
		m.bank[i] = int(int16(binary.LittleEndian.Uint16(buf[offset:])))
		offset += 2
	}
	return nil
}
