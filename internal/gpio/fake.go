package gpio

import (
	"context"
	"errors"
	"time"
)

// Wakeup is one scripted return from FakeWatcher.Wait.
type Wakeup struct {
	// Lines with pending activity.
	Lines []int
	// Levels to apply before returning; later reads of Level see them.
	Levels map[int]int
}

// FakeWatcher is a test double that returns scripted wakeups.
type FakeWatcher struct {
	// Wakeups contains scripted Wait results. Each call consumes the next one.
	Wakeups []Wakeup

	// OnExhausted, if set, is called once when Wait runs out of wakeups.
	// Wait then blocks until ctx is done or the timeout elapses.
	OnExhausted func()

	// Levels holds the current line levels. Missing lines read as
	// ErrIndeterminate.
	Levels map[int]int

	// LevelError, if set for a line, is returned by Level.
	LevelError map[int]error

	// WaitError, if set, is returned by Wait.
	WaitError error

	// Waits counts Wait calls.
	Waits int

	// Reads records the lines passed to Level.
	Reads []int

	// Closed tracks if Close was called.
	Closed bool

	index     int
	exhausted bool
}

// NewFakeWatcher creates a FakeWatcher with the given wakeups.
func NewFakeWatcher(wakeups ...Wakeup) *FakeWatcher {
	return &FakeWatcher{Wakeups: wakeups, Levels: make(map[int]int)}
}

// Wait returns the next scripted wakeup.
func (f *FakeWatcher) Wait(ctx context.Context, timeout time.Duration) ([]int, error) {
	f.Waits++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.WaitError != nil {
		return nil, f.WaitError
	}

	if f.index < len(f.Wakeups) {
		w := f.Wakeups[f.index]
		f.index++
		for id, level := range w.Levels {
			f.Levels[id] = level
		}
		return w.Lines, nil
	}

	if !f.exhausted {
		f.exhausted = true
		if f.OnExhausted != nil {
			f.OnExhausted()
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return nil, nil
	}
}

// Level returns the scripted level of a line.
func (f *FakeWatcher) Level(line int) (int, error) {
	f.Reads = append(f.Reads, line)
	if err := f.LevelError[line]; err != nil {
		return -1, err
	}
	level, ok := f.Levels[line]
	if !ok {
		return -1, ErrIndeterminate
	}
	return level, nil
}

// Close marks the watcher as closed.
func (f *FakeWatcher) Close() error {
	if f.Closed {
		return errors.New("already closed")
	}
	f.Closed = true
	return nil
}

// Reset rewinds the script.
func (f *FakeWatcher) Reset() {
	f.index = 0
	f.exhausted = false
	f.Waits = 0
	f.Reads = nil
	f.Closed = false
}
