package emu

import (
	"encoding/binary"
	"errors"
)

// AY-3-8910 register numbers
const (
	ayToneFineA    = 0
	ayNoisePeriod  = 6
	ayMixer        = 7
	ayAmplitudeA   = 8
	ayEnvFine      = 11
	ayEnvCoarse    = 12
	ayEnvShape     = 13
	ayPortA        = 14
	ayPortB        = 15
	ayRegisterMask = 0x1F
	ayRegisters    = 32
)

const (
	ayEnvelopeMode = 0x10 // amplitude register: follow the envelope
	ayNoiseSeed    = 1
	ayNoiseMask    = 1<<17 - 1
)

// Envelope shape bits (R13)
const (
	envHold      = 0x01
	envAlternate = 0x02
	envAttack    = 0x04
	envContinue  = 0x08
)

// ayWriteMask drops the bits each register does not implement.
// Registers 16-31 are plain storage.
var ayWriteMask = [ayRegisters]uint8{
	0xFF, 0x0F, 0xFF, 0x0F, 0xFF, 0x0F, // tone periods
	0x1F, 0xFF, // noise period, mixer
	0x1F, 0x1F, 0x1F, // amplitudes
	0xFF, 0xFF, 0x0F, // envelope period, shape
	0xFF, 0xFF, // I/O ports
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
}

// ayVolume is the logarithmic 16-level amplitude table.
var ayVolume = [16]int32{
	0x0000, 0x0055, 0x0079, 0x00AB, 0x00F1, 0x0155, 0x01E3, 0x02AA,
	0x03C5, 0x0555, 0x078B, 0x0AAB, 0x0F16, 0x1555, 0x1E2B, 0x2AAA,
}

// PortReader supplies the value of the AY's I/O port A, which the MSX
// wires to the joystick connectors. portB is the current R15 value.
type PortReader interface {
	ReadJoystick(portB uint8) uint8
}

// AY8910 is the General Instrument AY-3-8910 PSG fitted to the MSX.
type AY8910 struct {
	reg   [ayRegisters]uint8
	latch uint8 // selected register, 5 bits

	toneCount [3]uint16
	toneOut   [3]bool

	prescale   bool // noise and envelope run at half the tone rate
	noiseCount uint16
	noiseSeed  uint32 // 17-bit LFSR

	envCount     uint32
	envStep      int8
	envAttack    uint8 // 0x00 or 0x0F, XORed into the step
	envHold      bool
	envAlternate bool
	envHolding   bool

	ports PortReader
}

// NewAY8910 creates a silent generator. ports may be nil, in which case
// port A reads as 0xFF.
func NewAY8910(ports PortReader) *AY8910 {
	a := &AY8910{ports: ports}
	a.Reset()
	return a
}

// Reset clears every register and counter.
func (a *AY8910) Reset() {
	ports := a.ports
	*a = AY8910{ports: ports}
	a.noiseSeed = ayNoiseSeed
	a.envHolding = true
}

// SetPortReader replaces the port A input source.
func (a *AY8910) SetPortReader(ports PortReader) {
	a.ports = ports
}

// WriteAddress latches the register number for the next data access.
func (a *AY8910) WriteAddress(val uint8) {
	a.latch = val & ayRegisterMask
}

// WriteData writes val to the latched register. Registers 16-31 hold
// their value but drive nothing.
func (a *AY8910) WriteData(val uint8) {
	r := a.latch
	a.reg[r] = val & ayWriteMask[r]
	if r == ayEnvShape {
		a.restartEnvelope()
	}
}

// ReadData returns the latched register. Port A returns the joystick
// selected by R15 bit 6, with the upper two bits high.
func (a *AY8910) ReadData() uint8 {
	r := a.latch
	if r == ayPortA {
		if a.ports == nil {
			return 0xFF
		}
		return a.ports.ReadJoystick(a.reg[ayPortB])
	}
	return a.reg[r]
}

// Register returns register r without side effects.
func (a *AY8910) Register(r int) uint8 {
	return a.reg[r&ayRegisterMask]
}

// Latch returns the selected register number.
func (a *AY8910) Latch() uint8 {
	return a.latch
}

func (a *AY8910) tonePeriod(ch int) uint16 {
	p := uint16(a.reg[ayToneFineA+ch*2]) | uint16(a.reg[ayToneFineA+ch*2+1])<<8
	if p == 0 {
		p = 1
	}
	return p
}

func (a *AY8910) noisePeriod() uint16 {
	p := uint16(a.reg[ayNoisePeriod])
	if p == 0 {
		p = 1
	}
	return p
}

func (a *AY8910) envPeriod() uint32 {
	p := uint32(a.reg[ayEnvFine]) | uint32(a.reg[ayEnvCoarse])<<8
	if p == 0 {
		p = 1
	}
	return p
}

// restartEnvelope starts the envelope at the top of a new cycle with
// the shape in R13. Shapes without the continue bit behave as their
// hold/alternate equivalents that end at level 0.
func (a *AY8910) restartEnvelope() {
	shape := a.reg[ayEnvShape]
	a.envAttack = 0
	if shape&envAttack != 0 {
		a.envAttack = 0x0F
	}
	if shape&envContinue == 0 {
		a.envHold = true
		a.envAlternate = a.envAttack != 0
	} else {
		a.envHold = shape&envHold != 0
		a.envAlternate = shape&envAlternate != 0
	}
	a.envStep = 0x0F
	a.envHolding = false
	a.envCount = a.envPeriod()
}

// Step advances the generator by one synthesis step (16 CPU cycles).
func (a *AY8910) Step() {
	for ch := 0; ch < 3; ch++ {
		if a.toneCount[ch] > 0 {
			a.toneCount[ch]--
		}
		if a.toneCount[ch] == 0 {
			a.toneCount[ch] = a.tonePeriod(ch)
			a.toneOut[ch] = !a.toneOut[ch]
		}
	}

	a.prescale = !a.prescale
	if a.prescale {
		return
	}

	if a.noiseCount > 0 {
		a.noiseCount--
	}
	if a.noiseCount == 0 {
		a.noiseCount = a.noisePeriod()
		bit := (a.noiseSeed ^ a.noiseSeed>>3) & 1
		a.noiseSeed = a.noiseSeed>>1 | bit<<16
	}

	if a.envHolding {
		return
	}
	if a.envCount > 0 {
		a.envCount--
	}
	if a.envCount == 0 {
		a.envCount = a.envPeriod()
		a.envStep--
		if a.envStep < 0 {
			if a.envAlternate {
				a.envAttack ^= 0x0F
			}
			if a.envHold {
				a.envHolding = true
				a.envStep = 0
			} else {
				a.envStep &= 0x0F
			}
		}
	}
}

// envelopeLevel returns the current 4-bit envelope output.
func (a *AY8910) envelopeLevel() uint8 {
	return uint8(a.envStep) ^ a.envAttack
}

// Output returns the current mixed sample pair. A channel contributes
// nothing when both its tone and noise are disabled in R7 or its
// amplitude is zero; otherwise it adds or subtracts its amplitude
// according to the tone/noise gate.
func (a *AY8910) Output() (int32, int32) {
	noise := a.noiseSeed&1 != 0
	mixer := a.reg[ayMixer]

	var sum int32
	for ch := 0; ch < 3; ch++ {
		toneOff := mixer&(0x01<<uint(ch)) != 0
		noiseOff := mixer&(0x08<<uint(ch)) != 0
		if toneOff && noiseOff {
			continue
		}

		vol := a.reg[ayAmplitudeA+ch]
		level := vol & 0x0F
		if vol&ayEnvelopeMode != 0 {
			level = a.envelopeLevel()
		}
		amp := ayVolume[level]
		if amp == 0 {
			continue
		}

		if (a.toneOut[ch] || toneOff) && (noise || noiseOff) {
			sum += amp
		} else {
			sum -= amp
		}
	}
	return sum, sum
}

const (
	aySerializeVersion = 2
	// AY8910SerializeSize is the total bytes needed for AY8910 serialization.
	// version(1) + reg(32) + latch(1) + toneCount(6) + toneOut(3) +
	// prescale(1) + noiseCount(2) + noiseSeed(4) + envCount(4) +
	// envStep(1) + envAttack(1) + envHold(1) + envAlternate(1) + envHolding(1)
	AY8910SerializeSize = 59
)

// SerializeSize returns AY8910SerializeSize.
func (a *AY8910) SerializeSize() int {
	return AY8910SerializeSize
}

// Serialize writes generator state to buf.
func (a *AY8910) Serialize(buf []byte) error {
	if len(buf) < AY8910SerializeSize {
		return errors.New("AY8910 serialize buffer too small")
	}

	offset := 0
	buf[offset] = aySerializeVersion
	offset++
	copy(buf[offset:], a.reg[:])
	offset += len(a.reg)
	buf[offset] = a.latch
	offset++
	for _, c := range a.toneCount {
		binary.LittleEndian.PutUint16(buf[offset:], c)
		offset += 2
	}
	for _, o := range a.toneOut {
		buf[offset] = boolByte(o)
		offset++
	}
	buf[offset] = boolByte(a.prescale)
	offset++
	binary.LittleEndian.PutUint16(buf[offset:], a.noiseCount)
	offset += 2
	binary.LittleEndian.PutUint32(buf[offset:], a.noiseSeed)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], a.envCount)
	offset += 4
	buf[offset] = uint8(a.envStep)
	offset++
	buf[offset] = a.envAttack
	offset++
	buf[offset] = boolByte(a.envHold)
	offset++
	buf[offset] = boolByte(a.envAlternate)
	offset++
	buf[offset] = boolByte(a.envHolding)
	return nil
}

// Deserialize reads generator state from buf. State whose counters or
// envelope position could not occur on the chip is rejected and the
// generator is left unchanged.
func (a *AY8910) Deserialize(buf []byte) error {
	if len(buf) < AY8910SerializeSize {
		return errors.New("AY8910 deserialize buffer too small")
	}
	if buf[0] != aySerializeVersion {
		return errors.New("unsupported AY8910 serialize version")
	}

	n := AY8910{ports: a.ports}
	offset := 1
	for i := range n.reg {
		n.reg[i] = buf[offset+i] & ayWriteMask[i]
	}
	offset += len(n.reg)
	n.latch = buf[offset] & ayRegisterMask
	offset++
	for i := range n.toneCount {
		n.toneCount[i] = binary.LittleEndian.Uint16(buf[offset:])
		offset += 2
	}
	for i := range n.toneOut {
		n.toneOut[i] = buf[offset] != 0
		offset++
	}
	n.prescale = buf[offset] != 0
	offset++
	n.noiseCount = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2
	n.noiseSeed = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	n.envCount = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	n.envStep = int8(buf[offset])
	offset++
	n.envAttack = buf[offset]
	offset++
	n.envHold = buf[offset] != 0
	offset++
	n.envAlternate = buf[offset] != 0
	offset++
	n.envHolding = buf[offset] != 0

	if err := n.validate(); err != nil {
		return err
	}
	*a = n
	return nil
}

// validate checks the ranges the generator relies on when stepping and
// mixing.
func (a *AY8910) validate() error {
	for _, c := range a.toneCount {
		if c > 0x0FFF {
			return errors.New("AY8910 tone counter out of range")
		}
	}
	if a.noiseCount > 0x1F {
		return errors.New("AY8910 noise counter out of range")
	}
	if a.noiseSeed == 0 || a.noiseSeed > ayNoiseMask {
		return errors.New("AY8910 noise generator state invalid")
	}
	if a.envCount > 0xFFFF {
		return errors.New("AY8910 envelope counter out of range")
	}
	if a.envStep < 0 || a.envStep > 0x0F {
		return errors.New("AY8910 envelope step out of range")
	}
	if a.envAttack != 0 && a.envAttack != 0x0F {
		return errors.New("AY8910 envelope direction invalid")
	}
	return nil
}
