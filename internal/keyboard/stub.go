//go:build !linux

package keyboard

import "errors"

// Defaults for the virtual device.
const (
	DefaultPath = "/dev/uinput"
	DefaultName = "button-kbd"
)

// Uinput is not available on non-Linux platforms.
type Uinput struct{}

// NewUinput returns an error on non-Linux platforms.
func NewUinput(path, name string, codes []int) (*Uinput, error) {
	return nil, errors.New("keyboard: not supported on this platform (requires Linux)")
}

// KeyDown is not implemented on non-Linux platforms.
func (u *Uinput) KeyDown(code int) error {
	return errors.New("keyboard: not supported")
}

// KeyUp is not implemented on non-Linux platforms.
func (u *Uinput) KeyUp(code int) error {
	return errors.New("keyboard: not supported")
}

// Close is not implemented on non-Linux platforms.
func (u *Uinput) Close() error {
	return nil
}
