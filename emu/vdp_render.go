package emu

// textLeftBorder is the width of the left border in text mode. 40
// columns of 6 pixels leave 16 pixels split between both sides.
const textLeftBorder = 8

// RenderScanline renders one visible line into the display buffer.
// Lines outside the visible area are ignored.
func (v *VDP) RenderScanline(line int) {
	if line < 0 || line >= ScreenHeight {
		return
	}

	if !v.register.displayEnabled() {
		v.fillLine(0)
		v.commitLine(line)
		return
	}

	switch v.register.mode() {
	case modeGraphics0:
		v.renderGraphics0(line)
	case modeText:
		v.renderText(line)
	case modeGraphics2:
		v.renderGraphics2(line)
	case modeMulticolor:
		v.renderMulticolor(line)
	default:
		v.fillLine(0)
	}

	if v.register.mode() != modeText {
		v.renderSprites(line)
	}
	v.commitLine(line)
}

// fillLine sets every pixel of the line buffer to color.
func (v *VDP) fillLine(color uint8) {
	for x := range v.lineBuf {
		v.lineBuf[x] = color
	}
}

// commitLine resolves transparent pixels to the backdrop and copies the
// line buffer into the display buffers.
func (v *VDP) commitLine(line int) {
	backdrop := v.register.backdrop()
	row := line * ScreenWidth
	for x, c := range v.lineBuf {
		if c == 0 {
			c = backdrop
		}
		v.frame[row+x] = c
		v.display[row+x] = v.palette[c]
	}
}

// drawPattern expands one pattern byte into 8 pixels starting at x.
func (v *VDP) drawPattern(x int, pattern, fg, bg uint8) {
	for bit := 0; bit < 8; bit++ {
		if pattern&(0x80>>uint(bit)) != 0 {
			v.lineBuf[x+bit] = fg
		} else {
			v.lineBuf[x+bit] = bg
		}
	}
}

// renderGraphics0 renders a Graphics I line: 32x24 names, one color
// byte per group of 8 patterns.
func (v *VDP) renderGraphics0(line int) {
	nameBase := v.register.nameTable()
	patternBase := v.register.patternTable()
	colorBase := v.register.colorTable()
	row := uint16(line >> 3)
	fine := uint16(line & 7)

	for col := uint16(0); col < 32; col++ {
		name := uint16(v.vram[(nameBase+row*32+col)&vramMask])
		pattern := v.vram[(patternBase+name*8+fine)&vramMask]
		color := v.vram[(colorBase+name>>3)&vramMask]
		v.drawPattern(int(col)*8, pattern, color>>4, color&0x0F)
	}
}

// renderGraphics2 renders a Graphics II line. The screen is split into
// three bands of 256 names; R3 and R4 mask which pattern and color
// blocks each band can reach.
func (v *VDP) renderGraphics2(line int) {
	nameBase := v.register.nameTable()
	patternBase := v.register.g2PatternBase()
	patternMask := v.register.g2PatternMask()
	colorBase := v.register.g2ColorBase()
	colorMask := v.register.g2ColorMask()
	row := uint16(line >> 3)
	fine := uint16(line & 7)
	band := uint16(line>>6) << 8

	for col := uint16(0); col < 32; col++ {
		char := band | uint16(v.vram[(nameBase+row*32+col)&vramMask])
		pattern := v.vram[(patternBase|(char&patternMask)<<3|fine)&vramMask]
		color := v.vram[(colorBase|(char&colorMask)<<3|fine)&vramMask]
		v.drawPattern(int(col)*8, pattern, color>>4, color&0x0F)
	}
}

// renderMulticolor renders a multicolor line: each name selects a 4x4
// pixel block pair from the pattern table.
func (v *VDP) renderMulticolor(line int) {
	nameBase := v.register.nameTable()
	patternBase := v.register.patternTable()
	row := uint16(line >> 3)
	sub := uint16(line>>2) & 7

	for col := uint16(0); col < 32; col++ {
		name := uint16(v.vram[(nameBase+row*32+col)&vramMask])
		colors := v.vram[(patternBase+name*8+sub)&vramMask]
		x := int(col) * 8
		left, right := colors>>4, colors&0x0F
		for i := 0; i < 4; i++ {
			v.lineBuf[x+i] = left
			v.lineBuf[x+4+i] = right
		}
	}
}

// renderText renders a 40-column text line. Characters are the top 6
// bits of each pattern byte, colored from R7.
func (v *VDP) renderText(line int) {
	nameBase := v.register.nameTable()
	patternBase := v.register.patternTable()
	fg := v.register.textColor()
	bg := v.register.backdrop()
	row := uint16(line >> 3)
	fine := uint16(line & 7)

	v.fillLine(bg)
	for col := uint16(0); col < 40; col++ {
		name := uint16(v.vram[(nameBase+row*40+col)&vramMask])
		pattern := v.vram[(patternBase+name*8+fine)&vramMask]
		x := textLeftBorder + int(col)*6
		for bit := 0; bit < 6; bit++ {
			if pattern&(0x80>>uint(bit)) != 0 {
				v.lineBuf[x+bit] = fg
			}
		}
	}
}
