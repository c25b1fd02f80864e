//go:build linux

package keyboard

import (
	"fmt"

	"github.com/bendahl/uinput"

	"github.com/sweeney/button-kbd/internal/keymap"
)

// Defaults for the virtual device.
const (
	DefaultPath = "/dev/uinput"
	DefaultName = "button-kbd"
)

// Uinput is a virtual keyboard created through /dev/uinput.
type Uinput struct {
	kbd uinput.Keyboard
}

// NewUinput creates the virtual keyboard. Every code the mappings reference
// must be one the device declares, so codes are checked before the device is
// created.
func NewUinput(path, name string, codes []int) (*Uinput, error) {
	for _, c := range codes {
		if c < keymap.MinCode || c > keymap.MaxCode {
			return nil, fmt.Errorf("key code %d not supported by virtual keyboard", c)
		}
	}

	kbd, err := uinput.CreateKeyboard(path, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("create keyboard device %s: %w", path, err)
	}
	return &Uinput{kbd: kbd}, nil
}

// KeyDown sends a key press and a sync report.
func (u *Uinput) KeyDown(code int) error {
	if err := u.kbd.KeyDown(code); err != nil {
		return fmt.Errorf("key down %d: %w", code, err)
	}
	return nil
}

// KeyUp sends a key release and a sync report.
func (u *Uinput) KeyUp(code int) error {
	if err := u.kbd.KeyUp(code); err != nil {
		return fmt.Errorf("key up %d: %w", code, err)
	}
	return nil
}

// Close destroys the virtual device.
func (u *Uinput) Close() error {
	if err := u.kbd.Close(); err != nil {
		return fmt.Errorf("close keyboard device: %w", err)
	}
	return nil
}
