package emu

import "image/color"

// ColorMode selects the 16-bit pixel format of the display buffer.
type ColorMode int

const (
	ColorModeRGB555 ColorMode = iota // 0RRRRRGGGGGBBBBB
	ColorModeRGB565                  // RRRRRGGGGGGBBBBB
)

// tmsColors is the TMS9918A fixed palette. Index 0 is transparent and
// shows the backdrop; its own value is only used when the backdrop
// register itself selects 0.
var tmsColors = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xFF}, // 0 transparent
	{0x00, 0x00, 0x00, 0xFF}, // 1 black
	{0x21, 0xC8, 0x42, 0xFF}, // 2 medium green
	{0x5E, 0xDC, 0x78, 0xFF}, // 3 light green
	{0x54, 0x55, 0xED, 0xFF}, // 4 dark blue
	{0x7D, 0x76, 0xFC, 0xFF}, // 5 light blue
	{0xD4, 0x52, 0x4D, 0xFF}, // 6 dark red
	{0x42, 0xEB, 0xF5, 0xFF}, // 7 cyan
	{0xFC, 0x55, 0x54, 0xFF}, // 8 medium red
	{0xFF, 0x79, 0x78, 0xFF}, // 9 light red
	{0xD4, 0xC1, 0x54, 0xFF}, // 10 dark yellow
	{0xE6, 0xCE, 0x80, 0xFF}, // 11 light yellow
	{0x21, 0xB0, 0x3B, 0xFF}, // 12 dark green
	{0xC9, 0x5B, 0xBA, 0xFF}, // 13 magenta
	{0xCC, 0xCC, 0xCC, 0xFF}, // 14 gray
	{0xFF, 0xFF, 0xFF, 0xFF}, // 15 white
}

// Pack converts an RGB color to the mode's 16-bit pixel format.
func (m ColorMode) Pack(c color.RGBA) uint16 {
	r := uint16(c.R >> 3)
	b := uint16(c.B >> 3)
	if m == ColorModeRGB565 {
		g := uint16(c.G >> 2)
		return r<<11 | g<<5 | b
	}
	g := uint16(c.G >> 3)
	return r<<10 | g<<5 | b
}

// BuildPalette returns the 16-entry TMS9918A palette in mode's format.
func BuildPalette(m ColorMode) [16]uint16 {
	var p [16]uint16
	for i, c := range tmsColors {
		p[i] = m.Pack(c)
	}
	return p
}
