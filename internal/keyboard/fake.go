package keyboard

import "errors"

// Write kinds recorded by FakeDevice.
const (
	WritePress   = "press"
	WriteRelease = "release"
	WriteSync    = "sync"
)

// Write is one event written to the fake device.
type Write struct {
	Kind string
	Code int // zero for sync
}

// FakeDevice is a test double that records every event it is sent.
type FakeDevice struct {
	// Writes contains the device writes in order, each key value followed by
	// its sync marker.
	Writes []Write

	// Fail, if set for a code, is returned for both press and release of it.
	Fail map[int]error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDevice creates an empty FakeDevice.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{}
}

// KeyDown records a press and a sync.
func (f *FakeDevice) KeyDown(code int) error {
	return f.write(WritePress, code)
}

// KeyUp records a release and a sync.
func (f *FakeDevice) KeyUp(code int) error {
	return f.write(WriteRelease, code)
}

func (f *FakeDevice) write(kind string, code int) error {
	if f.Closed {
		return errors.New("device closed")
	}
	if err := f.Fail[code]; err != nil {
		return err
	}
	f.Writes = append(f.Writes, Write{Kind: kind, Code: code}, Write{Kind: WriteSync})
	return nil
}

// Close marks the device as closed.
func (f *FakeDevice) Close() error {
	f.Closed = true
	return nil
}

// Keys returns the non-sync writes.
func (f *FakeDevice) Keys() []Write {
	var keys []Write
	for _, w := range f.Writes {
		if w.Kind != WriteSync {
			keys = append(keys, w)
		}
	}
	return keys
}

// Reset clears recorded writes.
func (f *FakeDevice) Reset() {
	f.Writes = nil
	f.Fail = nil
	f.Closed = false
}
