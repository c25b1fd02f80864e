// Package gpio watches GPIO input lines for edge interrupts with hardware
// abstraction.
// The real implementations use the Linux GPIO character device or the legacy
// sysfs interface. The fake implementation allows testing without hardware.
package gpio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Watcher waits on a fixed set of lines.
type Watcher interface {
	// Wait blocks until at least one line has pending activity, the timeout
	// elapses or ctx is done. It returns the lines with activity in the order
	// they were configured, after acknowledging their notifications. An empty
	// result means the timeout elapsed. If ctx is done, ctx.Err() is returned.
	Wait(ctx context.Context, timeout time.Duration) ([]int, error)

	// Level returns the current level of a line, 0 or 1.
	Level(line int) (int, error)

	// Close releases the lines.
	Close() error
}

// ErrIndeterminate is returned by Level when the line state could not be read
// conclusively.
var ErrIndeterminate = errors.New("gpio: indeterminate level")

// Bias selects the pull resistor applied to input lines.
type Bias string

const (
	BiasAsIs     Bias = "as-is"
	BiasPullUp   Bias = "pull-up"
	BiasPullDown Bias = "pull-down"
	BiasDisabled Bias = "disabled"
)

// ParseBias parses a bias name.
func ParseBias(s string) (Bias, error) {
	switch b := Bias(strings.ToLower(strings.TrimSpace(s))); b {
	case BiasAsIs, BiasPullUp, BiasPullDown, BiasDisabled:
		return b, nil
	}
	return "", fmt.Errorf("unknown bias %q (want as-is, pull-up, pull-down or disabled)", s)
}

// DefaultChip is the gpiochip used by the character device backend.
const DefaultChip = "gpiochip0"

// inOrder returns the ids in pending, ordered as in ids.
func inOrder(ids []int, pending map[int]bool) []int {
	out := make([]int, 0, len(pending))
	for _, id := range ids {
		if pending[id] {
			out = append(out, id)
		}
	}
	return out
}

func parseLevel(b []byte) (int, error) {
	switch strings.TrimSpace(string(b)) {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return -1, fmt.Errorf("%w: read %q", ErrIndeterminate, b)
}
