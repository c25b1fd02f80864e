//go:build linux

package gpio

import (
	"context"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Consumer is the label the lines are requested under.
const Consumer = "button-kbd"

// eventQueue bounds edge notifications buffered between waits. A full queue
// drops the notification; the line is already pending.
const eventQueue = 64

// Cdev watches lines through the Linux GPIO character device.
type Cdev struct {
	chip   *gpiocdev.Chip
	ids    []int
	lines  map[int]*gpiocdev.Line
	events chan int
}

// NewCdev requests ids on the named chip as inputs with both-edge detection.
func NewCdev(chipName string, ids []int, bias Bias) (*Cdev, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	c := &Cdev{
		chip:   chip,
		ids:    append([]int(nil), ids...),
		lines:  make(map[int]*gpiocdev.Line, len(ids)),
		events: make(chan int, eventQueue),
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(c.handle),
	}
	if opt := biasOption(bias); opt != nil {
		opts = append(opts, opt)
	}

	for _, id := range ids {
		l, err := chip.RequestLine(id, opts...)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("request line %d: %w", id, err)
		}
		c.lines[id] = l
	}
	return c, nil
}

func biasOption(b Bias) gpiocdev.LineReqOption {
	switch b {
	case BiasPullUp:
		return gpiocdev.WithPullUp
	case BiasPullDown:
		return gpiocdev.WithPullDown
	case BiasDisabled:
		return gpiocdev.WithBiasDisabled
	}
	return nil
}

// handle runs on the gpiocdev event goroutine.
func (c *Cdev) handle(evt gpiocdev.LineEvent) {
	select {
	case c.events <- evt.Offset:
	default:
	}
}

// Wait blocks for the first edge event, then drains any others already queued.
func (c *Cdev) Wait(ctx context.Context, timeout time.Duration) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var first int
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case first = <-c.events:
	}

	pending := map[int]bool{first: true}
	for {
		select {
		case id := <-c.events:
			pending[id] = true
		default:
			return inOrder(c.ids, pending), nil
		}
	}
}

// Level returns the current level of a requested line.
func (c *Cdev) Level(line int) (int, error) {
	l, ok := c.lines[line]
	if !ok {
		return -1, fmt.Errorf("line %d not requested", line)
	}
	v, err := l.Value()
	if err != nil {
		return -1, fmt.Errorf("read line %d: %w", line, err)
	}
	return v, nil
}

// Close releases the lines and the chip.
// Edge detection is turned off first so no events arrive during release.
func (c *Cdev) Close() error {
	var errs []error

	for _, id := range c.ids {
		l := c.lines[id]
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.WithoutEdges); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", id, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", id, err))
		}
		delete(c.lines, id)
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
