package emu

import "github.com/user-none/go-chip-z80"

// CPU is the instruction-execution engine driving the machine. The
// emulator owns timing: it calls Step once per instruction and feeds
// the returned cycle count to the clock.
type CPU interface {
	// Step executes one instruction (or one interrupt acknowledge)
	// and returns the number of cycles it took.
	Step() int
	Reset()
	// INT sets the level of the maskable interrupt line. data is the
	// byte placed on the bus during acknowledge.
	INT(active bool, data uint8)
	// NMI raises a non-maskable interrupt.
	NMI()

	StateSize() int
	Serialize(buf []byte) error
	Deserialize(buf []byte) error
}

// CPUFactory creates a CPU attached to bus.
type CPUFactory func(bus *Bus) CPU

// z80CPU adapts go-chip-z80 to the CPU interface.
type z80CPU struct {
	*z80.CPU
}

// NewZ80 creates a Zilog Z80 attached to bus.
func NewZ80(bus *Bus) CPU {
	return z80CPU{z80.New(bus)}
}

func (c z80CPU) StateSize() int {
	return z80.SerializeSize
}
