//go:build !linux

package gpio

import (
	"context"
	"errors"
	"time"
)

// DefaultSysfsRoot is where the legacy GPIO sysfs interface lives.
const DefaultSysfsRoot = "/sys/class/gpio"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Cdev is not available on non-Linux platforms.
type Cdev struct{}

// NewCdev returns an error on non-Linux platforms.
func NewCdev(chipName string, ids []int, bias Bias) (*Cdev, error) {
	return nil, errUnsupported
}

// Wait is not implemented on non-Linux platforms.
func (c *Cdev) Wait(ctx context.Context, timeout time.Duration) ([]int, error) {
	return nil, errUnsupported
}

// Level is not implemented on non-Linux platforms.
func (c *Cdev) Level(line int) (int, error) {
	return -1, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (c *Cdev) Close() error {
	return nil
}

// Sysfs is not available on non-Linux platforms.
type Sysfs struct{}

// NewSysfs returns an error on non-Linux platforms.
func NewSysfs(root string, ids []int) (*Sysfs, error) {
	return nil, errUnsupported
}

// Wait is not implemented on non-Linux platforms.
func (s *Sysfs) Wait(ctx context.Context, timeout time.Duration) ([]int, error) {
	return nil, errUnsupported
}

// Level is not implemented on non-Linux platforms.
func (s *Sysfs) Level(line int) (int, error) {
	return -1, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *Sysfs) Close() error {
	return nil
}
