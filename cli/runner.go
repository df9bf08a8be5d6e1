// Package cli provides a command-line runner for the emulator.
// It handles input polling and runs the emulator in a window without the full UI.
package cli

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emubridge "github.com/user-none/emsx/bridge/ebiten"
	"github.com/user-none/emsx/emu"
	"github.com/user-none/emsx/ui"
)

// ADT buffer thresholds in bytes, about 50ms and 100ms at 44.1kHz.
const (
	adtMinBuffer = 8820
	adtMaxBuffer = 17640
)

// SampleSink receives every frame's audio, e.g. a WAV recorder.
type SampleSink interface {
	Write(samples []int16) error
}

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine with audio-driven timing.
// The Ebiten thread handles input polling and rendering from the shared framebuffer.
type Runner struct {
	emulator    *emubridge.Emulator
	audioPlayer *ui.AudioPlayer

	// ADT goroutine control
	emuControl        *ui.EmuControl
	sharedInput       *ui.SharedInput
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}

	sink SampleSink
}

// NewRunner creates a new Runner wrapping the given emulator. sink may
// be nil. Audio initialization failure is non-fatal; the runner will
// work without sound.
func NewRunner(e *emubridge.Emulator, sink SampleSink) *Runner {
	player, err := ui.NewAudioPlayer(1.0)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		emulator:          e,
		audioPlayer:       player,
		emuControl:        ui.NewEmuControl(),
		sharedInput:       &ui.SharedInput{},
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		emuDone:           make(chan struct{}),
		sink:              sink,
	}

	// Start emulation goroutine
	go r.emulationLoop()

	return r
}

// Close cleans up the runner's resources.
func (r *Runner) Close() {
	// Stop emulation goroutine
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
	}

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		pad1, pad2 := r.sharedInput.Read()
		r.emulator.Tick(pad1, pad2)

		samples := r.emulator.GetAudioSamples()
		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(samples)
		}
		if r.sink != nil {
			if err := r.sink.Write(samples); err != nil {
				log.Printf("Warning: audio recording stopped: %v", err)
				r.sink = nil
			}
		}

		// Update shared framebuffer
		r.sharedFramebuffer.Update(r.emulator.GetFramebuffer())

		// ADT sleep
		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed

		if r.audioPlayer != nil {
			bufferLevel := r.audioPlayer.GetBufferLevel()
			if bufferLevel < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if bufferLevel > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}

		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		r.togglePause()
	}
	r.pollInputToShared()
	return nil
}

// togglePause pauses or resumes the emulation goroutine. Queued audio
// is dropped on pause.
func (r *Runner) togglePause() {
	if r.emuControl.IsPaused() {
		r.emuControl.RequestResume()
		return
	}
	r.emuControl.RequestPause()
	if r.audioPlayer != nil {
		r.audioPlayer.Flush()
	}
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, fresh := r.sharedFramebuffer.Read()
	if pixels == nil {
		return
	}
	r.emulator.DrawFrame(screen, pixels, fresh)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

// pollInputToShared reads keyboard and gamepad input and writes to shared state.
// The keyboard drives player 1; gamepads drive players 1 and 2 in the
// order they were connected.
func (r *Runner) pollInputToShared() {
	var pads [2]uint8

	// Keyboard (WASD + arrows for movement, J/K triggers, Enter/Space special)
	keys := []struct {
		keys []ebiten.Key
		bit  uint8
	}{
		{[]ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}, emu.PadUp},
		{[]ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}, emu.PadDown},
		{[]ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}, emu.PadLeft},
		{[]ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}, emu.PadRight},
		{[]ebiten.Key{ebiten.KeyJ}, emu.PadTrigger1},
		{[]ebiten.Key{ebiten.KeyK}, emu.PadTrigger2},
		{[]ebiten.Key{ebiten.KeyEnter}, emu.PadSpecial1},
		{[]ebiten.Key{ebiten.KeySpace}, emu.PadSpecial2},
	}
	for _, k := range keys {
		for _, key := range k.keys {
			if ebiten.IsKeyPressed(key) {
				pads[0] |= k.bit
			}
		}
	}

	buttons := []struct {
		button ebiten.StandardGamepadButton
		bit    uint8
	}{
		{ebiten.StandardGamepadButtonLeftTop, emu.PadUp},
		{ebiten.StandardGamepadButtonLeftBottom, emu.PadDown},
		{ebiten.StandardGamepadButtonLeftLeft, emu.PadLeft},
		{ebiten.StandardGamepadButtonLeftRight, emu.PadRight},
		{ebiten.StandardGamepadButtonRightBottom, emu.PadTrigger1},
		{ebiten.StandardGamepadButtonRightRight, emu.PadTrigger2},
		{ebiten.StandardGamepadButtonCenterRight, emu.PadSpecial1},
		{ebiten.StandardGamepadButtonCenterLeft, emu.PadSpecial2},
	}

	player := 0
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if player == len(pads) {
			break
		}
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}

		for _, b := range buttons {
			if ebiten.IsStandardGamepadButtonPressed(id, b.button) {
				pads[player] |= b.bit
			}
		}

		// Left analog stick (with deadzone)
		const deadzone = 0.5
		axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		if axisX < -deadzone {
			pads[player] |= emu.PadLeft
		}
		if axisX > deadzone {
			pads[player] |= emu.PadRight
		}
		if axisY < -deadzone {
			pads[player] |= emu.PadUp
		}
		if axisY > deadzone {
			pads[player] |= emu.PadDown
		}
		player++
	}

	r.sharedInput.Set(pads[0], pads[1])
}
