package emu

const (
	// SampleRate is the output rate of the sound buffer.
	SampleRate = 44100

	// psgStepCycles is the number of CPU cycles per synthesis step.
	psgStepCycles = 16

	// soundBufferSize is the capacity of the sound buffer in int16
	// values. One frame at 44100 Hz stereo needs under 1800.
	soundBufferSize = 65536
)

// SoundGenerator is a programmable sound generator driven by the
// sampler. Step advances it by one synthesis step; Output reports the
// instantaneous stereo level.
type SoundGenerator interface {
	Reset()
	Step()
	Output() (left, right int32)
	SerializeSize() int
	Serialize(buf []byte) error
	Deserialize(buf []byte) error
}

// sampler converts CPU cycles into synthesis steps and steps into
// output samples. Every step's output is accumulated and each emitted
// sample is the average of the steps since the previous one.
type sampler struct {
	gen      SoundGenerator
	cpuClock int64

	cycles int   // CPU cycles not yet consumed by a step
	phase  int64 // sample phase in units of 1/cpuClock samples
	sumL   int64
	sumR   int64
	steps  int64

	buf    [soundBufferSize]int16
	cursor int
}

func newSampler(gen SoundGenerator, cpuClock int) *sampler {
	return &sampler{gen: gen, cpuClock: int64(cpuClock)}
}

// reset clears accumulators and the buffer. The generator is not reset.
func (s *sampler) reset() {
	s.cycles = 0
	s.phase = 0
	s.sumL, s.sumR, s.steps = 0, 0, 0
	s.cursor = 0
}

// run advances the generator by cycles CPU cycles.
func (s *sampler) run(cycles int) {
	s.cycles += cycles
	for s.cycles >= psgStepCycles {
		s.cycles -= psgStepCycles
		s.gen.Step()
		l, r := s.gen.Output()
		s.sumL += int64(l)
		s.sumR += int64(r)
		s.steps++

		s.phase += psgStepCycles * SampleRate
		for s.phase >= s.cpuClock {
			s.phase -= s.cpuClock
			s.emit()
		}
	}
}

func (s *sampler) emit() {
	var l, r int32
	if s.steps > 0 {
		l = int32(s.sumL / s.steps)
		r = int32(s.sumR / s.steps)
	}
	s.sumL, s.sumR, s.steps = 0, 0, 0

	// Drop samples that do not fit
	if s.cursor+2 > len(s.buf) {
		return
	}
	s.buf[s.cursor] = int16(clampInt32(l, -32768, 32767))
	s.buf[s.cursor+1] = int16(clampInt32(r, -32768, 32767))
	s.cursor += 2
}

// samples returns the buffered samples.
func (s *sampler) samples() []int16 {
	return s.buf[:s.cursor]
}

// rewind restarts the buffer at its beginning.
func (s *sampler) rewind() {
	s.cursor = 0
}

// GetAudioSamples returns the samples generated by the last frame as
// interleaved 16-bit stereo PCM. The slice is reused by the next frame.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.sampler.samples()
}

// SoundBuffer returns the samples generated since the last call and
// rewinds the buffer. The slice is reused by the next frame.
func (e *Emulator) SoundBuffer() []int16 {
	out := e.sampler.samples()
	e.sampler.rewind()
	return out
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
