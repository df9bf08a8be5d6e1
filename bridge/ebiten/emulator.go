// Package ebiten provides an Ebiten-specific wrapper for the emulator.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/emsx/emu"
)

// displayAspect is the shape of the picture on a TV: 256x192 pixels
// are shown 4:3, so pixels are slightly wider than tall.
const displayAspect = 4.0 / 3.0

// Emulator wraps emu.Emulator with Ebiten-specific functionality
type Emulator struct {
	*emu.Emulator

	offscreen *ebiten.Image // native 256x192 frame
	drawOpts  ebiten.DrawImageOptions
	fitW      int // screen size drawOpts was computed for
	fitH      int
}

// NewEmulator creates a new emulator instance with Ebiten rendering.
func NewEmulator(machine emu.Machine, rom []byte, region emu.Region) *Emulator {
	e := emu.NewEmulator(machine, rom, emu.ColorModeRGB565)
	e.SetRegion(region)
	return &Emulator{Emulator: e}
}

// Close cleans up the emulator resources.
func (e *Emulator) Close() {
	if e.offscreen != nil {
		e.offscreen.Deallocate()
		e.offscreen = nil
	}
	e.Emulator.Close()
}

// Layout implements ebiten.Game.
func (e *Emulator) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// DrawFrame draws an RGBA frame produced on the emulation goroutine,
// letterboxed to the 4:3 display shape. The offscreen image is only
// re-uploaded when fresh is set.
func (e *Emulator) DrawFrame(screen *ebiten.Image, pixels []byte, fresh bool) {
	if len(pixels) < emu.ScreenWidth*emu.ScreenHeight*4 {
		return
	}

	if e.offscreen == nil {
		e.offscreen = ebiten.NewImage(emu.ScreenWidth, emu.ScreenHeight)
		fresh = true
	}
	if fresh {
		e.offscreen.WritePixels(pixels[:emu.ScreenWidth*emu.ScreenHeight*4])
	}

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if w != e.fitW || h != e.fitH {
		e.fit(w, h)
	}
	screen.DrawImage(e.offscreen, &e.drawOpts)
}

// fit computes the scale and offset placing the frame in a w x h screen.
func (e *Emulator) fit(w, h int) {
	e.fitW, e.fitH = w, h

	nativeW := float64(emu.ScreenWidth)
	nativeH := float64(emu.ScreenHeight)
	shownW := nativeH * displayAspect

	scaleY := float64(h) / nativeH
	if s := float64(w) / shownW; s < scaleY {
		scaleY = s
	}
	scaleX := scaleY * shownW / nativeW

	e.drawOpts = ebiten.DrawImageOptions{}
	e.drawOpts.GeoM.Scale(scaleX, scaleY)
	e.drawOpts.GeoM.Translate((float64(w)-nativeW*scaleX)/2, (float64(h)-nativeH*scaleY)/2)
	e.drawOpts.Filter = ebiten.FilterNearest
}
