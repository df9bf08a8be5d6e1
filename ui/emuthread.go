package ui

import (
	"sync"

	"github.com/user-none/emsx/emu"
)

// SharedInput holds the two controller bytes (emu.Pad* bits) written
// by the Ebiten thread and read by the emulation goroutine.
type SharedInput struct {
	mu   sync.Mutex
	pads [2]uint8
}

// Set replaces both controller states.
func (si *SharedInput) Set(pad1, pad2 uint8) {
	si.mu.Lock()
	si.pads[0] = pad1
	si.pads[1] = pad2
	si.mu.Unlock()
}

// Read returns the current controller states.
func (si *SharedInput) Read() (pad1, pad2 uint8) {
	si.mu.Lock()
	pad1, pad2 = si.pads[0], si.pads[1]
	si.mu.Unlock()
	return
}

// frameBytes is the size of one RGBA frame. The TMS9918 always
// produces ScreenWidth x ScreenHeight.
const frameBytes = emu.ScreenWidth * emu.ScreenHeight * 4

// SharedFramebuffer passes finished frames from the emulation goroutine
// to Ebiten's Draw. Frames are numbered so Draw only copies a frame it
// has not seen.
type SharedFramebuffer struct {
	mu      sync.Mutex
	latest  []byte // last frame from the emulation goroutine
	drawn   []byte // copy owned by the Draw side
	seq     uint64 // frames published
	readSeq uint64 // frame held in drawn
}

// NewSharedFramebuffer creates a pre-allocated framebuffer.
func NewSharedFramebuffer() *SharedFramebuffer {
	return &SharedFramebuffer{
		latest: make([]byte, frameBytes),
		drawn:  make([]byte, frameBytes),
	}
}

// Update publishes a frame. Short input leaves the tail of the
// previous frame in place.
func (sf *SharedFramebuffer) Update(pixels []byte) {
	sf.mu.Lock()
	copy(sf.latest, pixels)
	sf.seq++
	sf.mu.Unlock()
}

// Read returns the most recent frame and whether it changed since the
// previous Read. pixels is nil until the first Update. The returned
// slice stays valid until the next Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, fresh bool) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.seq == 0 {
		return nil, false
	}
	if sf.readSeq != sf.seq {
		copy(sf.drawn, sf.latest)
		sf.readSeq = sf.seq
		fresh = true
	}
	return sf.drawn, fresh
}

type emuState int

const (
	stateRunning emuState = iota
	statePauseRequested
	statePaused
	stateStopped
)

// EmuControl coordinates pausing and stopping the emulation goroutine
// from the Ebiten thread. The goroutine calls CheckPause between frames.
type EmuControl struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state emuState
}

// NewEmuControl creates a control in the running state.
func NewEmuControl() *EmuControl {
	ec := &EmuControl{}
	ec.cond = sync.NewCond(&ec.mu)
	return ec
}

// RequestPause asks the emulation goroutine to pause and blocks until
// it has finished its current frame.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.state != stateRunning {
		return
	}
	ec.state = statePauseRequested
	for ec.state == statePauseRequested {
		ec.cond.Wait()
	}
}

// RequestResume lets a paused goroutine continue.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	if ec.state == statePaused || ec.state == statePauseRequested {
		ec.state = stateRunning
		ec.cond.Broadcast()
	}
	ec.mu.Unlock()
}

// CheckPause blocks while paused. Returns false once Stop has been
// called and the goroutine should exit.
func (ec *EmuControl) CheckPause() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	for {
		switch ec.state {
		case stateRunning:
			return true
		case stateStopped:
			return false
		case statePauseRequested:
			ec.state = statePaused
			ec.cond.Broadcast()
		}
		ec.cond.Wait()
	}
}

// Stop makes CheckPause return false, waking a paused goroutine.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.state = stateStopped
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// IsPaused reports whether the emulation goroutine is parked in
// CheckPause.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.state == statePaused
}
