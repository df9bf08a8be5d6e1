package emu

import (
	"errors"
	"math"

	"github.com/user-none/go-chip-sn76489"
)

const (
	// snGain scales the chip's 0..4 mix to the sampler's integer range.
	snGain = 8000.0

	snMaxTone       = 0x3FF
	snMaxNoiseReg   = 0x07
	snMaxNoiseShift = 0x7FFF // TI variant shifts a 15-bit register
)

// SN76489 is the TI SN76489AN sound generator fitted to the SG-1000:
// three square wave channels and one noise channel. Synthesis is done by
// the TI variant of go-chip-sn76489; the sampler steps it and reads the
// mix one synthesis step at a time.
type SN76489 struct {
	chip *sn76489.SN76489
}

// NewSN76489 creates a silent generator.
func NewSN76489() *SN76489 {
	// The chip's own sample buffers are unused, the sampler pulls Sample.
	chip := sn76489.New(NTSCTiming.CPUClockHz, SampleRate, 1, sn76489.TI)
	chip.SetGain(snGain)
	return &SN76489{chip: chip}
}

// Reset restores power-on state: all channels at maximum attenuation.
func (s *SN76489) Reset() {
	s.chip.Reset()
}

// Write handles a byte written to the chip on port 0x7F.
func (s *SN76489) Write(val uint8) {
	s.chip.Write(val)
}

// Step advances the generator by one synthesis step (16 CPU cycles).
func (s *SN76489) Step() {
	for i := 0; i < psgStepCycles; i++ {
		s.chip.Clock()
	}
}

// Output returns the current mixed sample pair. The chip is mono.
func (s *SN76489) Output() (int32, int32) {
	v := int32(math.Round(float64(s.chip.Sample())))
	return v, v
}

// GetToneReg returns the 10-bit divider of a tone channel.
func (s *SN76489) GetToneReg(ch int) uint16 {
	return s.chip.GetToneReg(ch % 3)
}

// GetVolume returns the 4-bit attenuation of a channel.
func (s *SN76489) GetVolume(ch int) uint8 {
	return s.chip.GetVolume(ch & 0x03)
}

// GetNoiseReg returns the noise control register.
func (s *SN76489) GetNoiseReg() uint8 {
	return s.chip.GetNoiseReg()
}

// GetNoiseShift returns the noise LFSR.
func (s *SN76489) GetNoiseShift() uint16 {
	return s.chip.GetNoiseShift()
}

// SerializeSize returns the chip's state size.
func (s *SN76489) SerializeSize() int {
	return sn76489.SerializeSize
}

// Serialize writes generator state to buf.
func (s *SN76489) Serialize(buf []byte) error {
	return s.chip.Serialize(buf)
}

// Deserialize reads generator state from buf. Register values the chip
// cannot hold are rejected and the previous state is kept.
func (s *SN76489) Deserialize(buf []byte) error {
	prev := make([]byte, sn76489.SerializeSize)
	if err := s.chip.Serialize(prev); err != nil {
		return err
	}
	if err := s.chip.Deserialize(buf); err != nil {
		return err
	}
	if err := s.validate(); err != nil {
		if rerr := s.chip.Deserialize(prev); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}

func (s *SN76489) validate() error {
	for ch := 0; ch < 4; ch++ {
		if s.chip.GetVolume(ch) > 0x0F {
			return errors.New("SN76489 attenuation out of range")
		}
	}
	for ch := 0; ch < 3; ch++ {
		if s.chip.GetToneReg(ch) > snMaxTone {
			return errors.New("SN76489 tone divider out of range")
		}
	}
	if s.chip.GetNoiseReg() > snMaxNoiseReg {
		return errors.New("SN76489 noise control out of range")
	}
	if shift := s.chip.GetNoiseShift(); shift == 0 || shift > snMaxNoiseShift {
		return errors.New("SN76489 noise generator state invalid")
	}
	return nil
}
