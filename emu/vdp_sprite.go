package emu

const (
	spriteCount        = 32   // entries in the sprite attribute table
	spritesPerLine     = 4    // hardware display limit per line
	spriteTerminator   = 0xD0 // Y value ending the attribute table
	spriteEarlyClock   = 0x80 // EC bit in the color byte: shift left 32 pixels
	spriteEarlyClockPx = 32
)

// lineSprite is a sprite found to cover the current line.
type lineSprite struct {
	x       int
	color   uint8
	pattern uint16 // 16 pixels, MSB leftmost; 8x8 sprites use the high byte
}

// renderSprites evaluates the sprite attribute table for line and draws
// the displayed sprites over the line buffer. Lower table indices have
// priority. Sets the fifth-sprite and collision status flags.
func (v *VDP) renderSprites(line int) {
	size := 8
	if v.register.largeSprites() {
		size = 16
	}
	mag := uint(0)
	if v.register.magnifiedSprites() {
		mag = 1
	}
	height := size << mag

	attrBase := v.register.spriteAttrs()
	patternBase := v.register.spritePattern()

	var found [spriteCount]lineSprite
	count := 0
	last := 0

	for i := 0; i < spriteCount; i++ {
		last = i
		entry := attrBase + uint16(i*4)
		y := v.vram[entry&vramMask]
		if y == spriteTerminator {
			break
		}

		// Sprites are displayed one line below their Y value and wrap
		// at 256, so Y in 0xE1-0xFF enters from the top.
		row := (line - int(y) - 1) & 0xFF
		if row >= height {
			continue
		}

		if count == spritesPerLine && v.status&statusFifth == 0 {
			v.status = v.status&^statusFifthMask | statusFifth | uint8(i)
		}
		if count == spritesPerLine && v.spriteLimit {
			break
		}

		row >>= mag
		name := uint16(v.vram[(entry+2)&vramMask])
		if size == 16 {
			name &= 0xFC
		}
		addr := patternBase + name*8 + uint16(row)
		pattern := uint16(v.vram[addr&vramMask]) << 8
		if size == 16 {
			pattern |= uint16(v.vram[(addr+16)&vramMask])
		}

		color := v.vram[(entry+3)&vramMask]
		x := int(v.vram[(entry+1)&vramMask])
		if color&spriteEarlyClock != 0 {
			x -= spriteEarlyClockPx
		}

		found[count] = lineSprite{x: x, color: color & 0x0F, pattern: pattern}
		count++
	}

	if v.status&statusFifth == 0 {
		v.status = v.status&^statusFifthMask | uint8(last)
	}

	for x := range v.spriteCovered {
		v.spriteCovered[x] = false
		v.spriteDrawn[x] = false
	}

	width := size << mag
	for k, s := range found[:count] {
		// Only the sprites the hardware displays take part in collision
		hw := k < spritesPerLine
		for px := 0; px < width; px++ {
			sx := s.x + px
			if sx < 0 || sx >= ScreenWidth {
				continue
			}
			if s.pattern&(0x8000>>uint(px>>mag)) == 0 {
				continue
			}

			if hw {
				if v.spriteCovered[sx] {
					v.status |= statusCollision
				}
				v.spriteCovered[sx] = true
			}

			// Color 0 sprites are invisible but still collide, and do
			// not hide sprites behind them.
			if s.color == 0 || v.spriteDrawn[sx] {
				continue
			}
			v.spriteDrawn[sx] = true
			v.lineBuf[sx] = s.color
		}
	}
}
