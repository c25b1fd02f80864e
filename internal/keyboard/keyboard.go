// Package keyboard delivers key transitions to a virtual keyboard device.
// The real implementation uses Linux uinput.
// The fake implementation records writes for tests.
package keyboard

import (
	"log"

	"github.com/sweeney/button-kbd/internal/keymap"
)

// Device is a virtual keyboard. KeyDown and KeyUp each write the key value
// followed by a single synchronization report.
type Device interface {
	KeyDown(code int) error
	KeyUp(code int) error
	Close() error
}

// Emitter sends ordered key sequences to a Device.
type Emitter struct {
	dev Device
}

// NewEmitter creates an Emitter writing to dev.
func NewEmitter(dev Device) *Emitter {
	return &Emitter{dev: dev}
}

// Emit writes every transition in seq in order and returns how many were
// written. A failed write is logged and skipped; the rest of the sequence is
// still sent.
func (e *Emitter) Emit(seq []keymap.KeyTransition) int {
	return len(e.EmitSent(seq))
}

// EmitSent is Emit, returning the transitions that were written.
func (e *Emitter) EmitSent(seq []keymap.KeyTransition) []keymap.KeyTransition {
	sent := make([]keymap.KeyTransition, 0, len(seq))
	for _, k := range seq {
		var err error
		if k.Direction == keymap.Down {
			err = e.dev.KeyDown(k.Code)
		} else {
			err = e.dev.KeyUp(k.Code)
		}
		if err != nil {
			log.Printf("keyboard: write %s: %v", k, err)
			continue
		}
		sent = append(sent, k)
	}
	return sent
}
