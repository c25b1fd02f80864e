//go:build linux

package gpio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultSysfsRoot is where the legacy GPIO sysfs interface lives.
const DefaultSysfsRoot = "/sys/class/gpio"

// Sysfs watches lines through /sys/class/gpio value files. Each line is
// exported, set to input with both-edge interrupts, and its value file is
// polled for POLLPRI.
type Sysfs struct {
	root     string
	ids      []int
	values   []*os.File
	exported []int

	// pollset holds one entry per line, in ids order, plus the wake pipe.
	pollset []unix.PollFd
	wakeR   int
	wakeW   int
}

// NewSysfs exports and arms every line. On failure, lines already exported
// are unexported again.
func NewSysfs(root string, ids []int) (*Sysfs, error) {
	s := &Sysfs{
		root:  root,
		ids:   append([]int(nil), ids...),
		wakeR: -1,
		wakeW: -1,
	}

	for _, id := range ids {
		if err := s.export(id); err != nil {
			s.Close()
			return nil, err
		}
		f, err := os.OpenFile(s.linePath(id, "value"), os.O_RDONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open line %d value: %w", id, err)
		}
		s.values = append(s.values, f)
		// Reading clears the initial readable state.
		ack(f)
		s.pollset = append(s.pollset, unix.PollFd{Fd: int32(f.Fd()), Events: unix.POLLPRI | unix.POLLERR})
	}

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		s.Close()
		return nil, fmt.Errorf("create wake pipe: %w", err)
	}
	s.wakeR, s.wakeW = p[0], p[1]
	s.pollset = append(s.pollset, unix.PollFd{Fd: int32(s.wakeR), Events: unix.POLLIN})

	return s, nil
}

func (s *Sysfs) linePath(id int, attr string) string {
	return filepath.Join(s.root, "gpio"+strconv.Itoa(id), attr)
}

func (s *Sysfs) export(id int) error {
	err := writeFile(filepath.Join(s.root, "export"), strconv.Itoa(id))
	switch {
	case errors.Is(err, unix.EBUSY):
		// Left exported by an earlier run that did not clean up.
	case err != nil:
		return fmt.Errorf("export line %d: %w", id, err)
	}
	s.exported = append(s.exported, id)

	if err := writeFile(s.linePath(id, "direction"), "in"); err != nil {
		return fmt.Errorf("set line %d direction: %w", id, err)
	}
	if err := writeFile(s.linePath(id, "edge"), "both"); err != nil {
		return fmt.Errorf("set line %d edge: %w", id, err)
	}
	return nil
}

// Wait polls every value file and the wake pipe.
func (s *Sysfs) Wait(ctx context.Context, timeout time.Duration) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, s.wake)
	defer stop()

	fds := make([]unix.PollFd, len(s.pollset))
	copy(fds, s.pollset)

	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil && !errors.Is(err, unix.EINTR) {
		return nil, fmt.Errorf("poll: %w", err)
	}
	if err := ctx.Err(); err != nil {
		s.drainWake()
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	var pending []int
	for i, id := range s.ids {
		if fds[i].Revents&(unix.POLLPRI|unix.POLLERR) == 0 {
			continue
		}
		// The value file stays readable until it is read again.
		ack(s.values[i])
		pending = append(pending, id)
	}
	return pending, nil
}

func (s *Sysfs) wake() {
	unix.Write(s.wakeW, []byte{1})
}

func (s *Sysfs) drainWake() {
	var buf [16]byte
	for {
		if n, err := unix.Read(s.wakeR, buf[:]); n <= 0 || err != nil {
			return
		}
	}
}

// Level reads the value file of a line.
func (s *Sysfs) Level(line int) (int, error) {
	for i, id := range s.ids {
		if id != line {
			continue
		}
		var buf [3]byte
		n, err := s.values[i].ReadAt(buf[:], 0)
		if err != nil && !errors.Is(err, io.EOF) {
			return -1, fmt.Errorf("read line %d: %w", line, err)
		}
		return parseLevel(buf[:n])
	}
	return -1, fmt.Errorf("line %d not exported", line)
}

// Close closes the value files and unexports every exported line.
func (s *Sysfs) Close() error {
	var errs []error

	for _, f := range s.values {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", f.Name(), err))
		}
	}
	s.values = nil
	s.pollset = nil

	for _, id := range s.exported {
		if err := writeFile(filepath.Join(s.root, "unexport"), strconv.Itoa(id)); err != nil {
			errs = append(errs, fmt.Errorf("unexport line %d: %w", id, err))
		}
	}
	s.exported = nil

	for _, fd := range []int{s.wakeR, s.wakeW} {
		if fd >= 0 {
			unix.Close(fd)
		}
	}
	s.wakeR, s.wakeW = -1, -1

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func ack(f *os.File) {
	var buf [8]byte
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return
	}
	f.Read(buf[:])
}

func writeFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
