package emu

import (
	"encoding/binary"
	"errors"
)

// scanlineSink receives the per-line events of the frame scheduler.
type scanlineSink interface {
	RenderScanline(line int)
	SetVBlank()
}

// Clock divides CPU time into scanlines and frames. The frame counter
// always equals line*CyclesPerLine + lineCycles, so splitting a run of
// cycles across several Advance calls ends in the same state as one
// call with the sum.
type Clock struct {
	scanlines   int
	line        int
	lineCycles  int
	frameCycles int
}

// NewClock creates a clock for frames of the given number of scanlines.
func NewClock(scanlines int) Clock {
	return Clock{scanlines: scanlines}
}

// Reset returns to the first cycle of line 0.
func (c *Clock) Reset() {
	c.line = 0
	c.lineCycles = 0
	c.frameCycles = 0
}

// SetScanlines changes the frame length. A clock past the end of the
// new frame moves to line 0.
func (c *Clock) SetScanlines(scanlines int) {
	c.scanlines = scanlines
	if c.line >= scanlines {
		c.line = 0
		c.frameCycles = c.lineCycles
	}
}

// Advance accounts cycles of CPU time. Each completed line below
// ScreenHeight is rendered; entering line ScreenHeight raises VBlank.
// Returns true if a frame boundary was crossed.
func (c *Clock) Advance(cycles int, video scanlineSink) bool {
	wrapped := false
	c.frameCycles += cycles
	c.lineCycles += cycles

	for c.lineCycles >= CyclesPerLine {
		c.lineCycles -= CyclesPerLine
		if c.line < ScreenHeight {
			video.RenderScanline(c.line)
		}

		c.line++
		if c.line == ScreenHeight {
			video.SetVBlank()
		}
		if c.line >= c.scanlines {
			c.line = 0
			c.frameCycles -= c.scanlines * CyclesPerLine
			wrapped = true
		}
	}
	return wrapped
}

// Line returns the current scanline.
func (c *Clock) Line() int {
	return c.line
}

// LineCycles returns the cycles elapsed in the current scanline.
func (c *Clock) LineCycles() int {
	return c.lineCycles
}

// FrameCycles returns the cycles elapsed in the current frame.
func (c *Clock) FrameCycles() int {
	return c.frameCycles
}

const (
	clockSerializeVersion = 1
	// ClockSerializeSize is the total bytes needed for Clock serialization.
	// version(1) + line(4) + lineCycles(4) + frameCycles(4)
	ClockSerializeSize = 13
)

// Serialize writes clock position to buf. The frame length is
// configuration and is not saved.
func (c *Clock) Serialize(buf []byte) error {
	if len(buf) < ClockSerializeSize {
		return errors.New("clock serialize buffer too small")
	}
	buf[0] = clockSerializeVersion
	binary.LittleEndian.PutUint32(buf[1:], uint32(c.line))
	binary.LittleEndian.PutUint32(buf[5:], uint32(c.lineCycles))
	binary.LittleEndian.PutUint32(buf[9:], uint32(c.frameCycles))
	return nil
}

// Deserialize reads clock position from buf.
func (c *Clock) Deserialize(buf []byte) error {
	if len(buf) < ClockSerializeSize {
		return errors.New("clock deserialize buffer too small")
	}
	if buf[0] != clockSerializeVersion {
		return errors.New("unsupported clock serialize version")
	}
	line := int(int32(binary.LittleEndian.Uint32(buf[1:])))
	lineCycles := int(int32(binary.LittleEndian.Uint32(buf[5:])))
	if line < 0 || line >= c.scanlines || lineCycles < 0 || lineCycles >= CyclesPerLine {
		return errors.New("clock state out of range")
	}
	c.line = line
	c.lineCycles = lineCycles
	c.frameCycles = int(int32(binary.LittleEndian.Uint32(buf[9:])))
	return nil
}
