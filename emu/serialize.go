package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/user-none/go-chip-sn76489"
	"github.com/user-none/go-chip-z80"
)

// Save state format constants
const (
	stateVersion    = 2
	stateMagic      = "eMSXState\x00\x00\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + romCRC(4) + dataCRC(4)
)

// Fixed serialization sizes for inline components
const (
	// The generator slot fits whichever chip the machine has.
	psgSlotSize = max(sn76489.SerializeSize, AY8910SerializeSize)

	// cycles(4) + phase(8) + sumL(8) + sumR(8) + steps(8)
	samplerSerializeSize = 36

	// machine(1) + intLine(1) + input(2)
	emulatorSerializeSize = 4
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func stateSize(cpuSize int) int {
	return stateHeaderSize +
		cpuSize +
		MemorySerializeSize +
		VDPSerializeSize +
		psgSlotSize +
		IOSerializeSize +
		ClockSerializeSize +
		samplerSerializeSize +
		emulatorSerializeSize
}

// SerializeSize returns the size of a save state for a machine with the
// default Z80 CPU.
func SerializeSize() int {
	return stateSize(z80.SerializeSize)
}

// SerializeSize returns the total size in bytes needed for a save state.
func (e *Emulator) SerializeSize() int {
	return stateSize(e.cpu.StateSize())
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, e.SerializeSize())

	// Write header
	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.mem.GetROMCRC32())

	offset := stateHeaderSize

	if err := e.cpu.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += e.cpu.StateSize()

	if err := e.mem.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += MemorySerializeSize

	if err := e.vdp.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += VDPSerializeSize

	if err := e.psg.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += psgSlotSize

	if err := e.io.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += IOSerializeSize

	if err := e.clock.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += ClockSerializeSize

	offset = e.serializeSampler(data, offset)
	e.serializeBase(data, offset)

	// Calculate and write data CRC32 (over everything after header)
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)

	return data, nil
}

// Deserialize restores emulator state from a save state byte slice.
// On failure the emulator is left as it was. Region is not restored.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	backup, err := e.Serialize()
	if err != nil {
		return err
	}
	if err := e.restore(data); err != nil {
		_ = e.restore(backup)
		return err
	}
	return nil
}

// SaveState is Serialize under the name used by frontends.
func (e *Emulator) SaveState() ([]byte, error) {
	return e.Serialize()
}

// LoadState is Deserialize under the name used by frontends.
func (e *Emulator) LoadState(data []byte) error {
	return e.Deserialize(data)
}

// restore applies a verified state.
func (e *Emulator) restore(data []byte) error {
	offset := stateHeaderSize

	if err := e.cpu.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += e.cpu.StateSize()

	if err := e.mem.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += MemorySerializeSize

	if err := e.vdp.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += VDPSerializeSize

	if err := e.psg.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += psgSlotSize

	if err := e.io.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += IOSerializeSize

	if err := e.clock.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += ClockSerializeSize

	offset, err := e.deserializeSampler(data, offset)
	if err != nil {
		return err
	}
	return e.deserializeBase(data, offset)
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) != e.SerializeSize() {
		return errors.New("save state has wrong size")
	}

	if string(data[0:12]) != stateMagic {
		return errors.New("invalid save state magic")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version != stateVersion {
		return errors.New("unsupported save state version")
	}

	romCRC := binary.LittleEndian.Uint32(data[14:18])
	if romCRC != e.mem.GetROMCRC32() {
		return errors.New("save state is for a different ROM")
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return errors.New("save state data is corrupted")
	}

	return nil
}

// serializeSampler writes the synthesis accumulators to the data buffer.
// Buffered samples belong to the current frame and are not saved.
func (e *Emulator) serializeSampler(data []byte, offset int) int {
	s := e.sampler
	binary.LittleEndian.PutUint32(data[offset:], uint32(s.cycles))
	offset += 4
	binary.LittleEndian.PutUint64(data[offset:], uint64(s.phase))
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], uint64(s.sumL))
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], uint64(s.sumR))
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], uint64(s.steps))
	offset += 8
	return offset
}

// deserializeSampler reads the synthesis accumulators and empties the
// sample buffer. Counters outside the range run can produce are rejected
// before anything is changed.
func (e *Emulator) deserializeSampler(data []byte, offset int) (int, error) {
	cycles := int(int32(binary.LittleEndian.Uint32(data[offset:])))
	phase := int64(binary.LittleEndian.Uint64(data[offset+4:]))
	sumL := int64(binary.LittleEndian.Uint64(data[offset+12:]))
	sumR := int64(binary.LittleEndian.Uint64(data[offset+20:]))
	steps := int64(binary.LittleEndian.Uint64(data[offset+28:]))

	s := e.sampler
	if cycles < 0 || cycles >= psgStepCycles {
		return offset, errors.New("save state sampler cycle count out of range")
	}
	if phase < 0 || phase >= s.cpuClock {
		return offset, errors.New("save state sampler phase out of range")
	}
	if steps < 0 {
		return offset, errors.New("save state sampler step count out of range")
	}

	s.cycles = cycles
	s.phase = phase
	s.sumL = sumL
	s.sumR = sumR
	s.steps = steps
	s.rewind()
	return offset + samplerSerializeSize, nil
}

// serializeBase writes Emulator inline state to the data buffer.
func (e *Emulator) serializeBase(data []byte, offset int) int {
	data[offset] = uint8(e.machine)
	offset++
	data[offset] = boolByte(e.intLine)
	offset++
	data[offset] = e.input[0]
	offset++
	data[offset] = e.input[1]
	offset++
	return offset
}

// deserializeBase reads Emulator inline state from the data buffer.
func (e *Emulator) deserializeBase(data []byte, offset int) error {
	if Machine(data[offset]) != e.machine {
		return errors.New("save state is for a different machine")
	}
	offset++
	e.intLine = data[offset] != 0
	offset++
	e.input[0] = data[offset]
	offset++
	e.input[1] = data[offset]
	// The INT line is not part of the CPU's own state
	e.cpu.INT(e.intLine, 0xFF)
	return nil
}
