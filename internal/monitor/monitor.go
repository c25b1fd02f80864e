// Package monitor runs the main loop: it waits on every configured line and
// turns accepted edges into key events.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/button-kbd/internal/gpio"
	"github.com/sweeney/button-kbd/internal/keyboard"
	"github.com/sweeney/button-kbd/internal/keymap"
	"github.com/sweeney/button-kbd/internal/logic"
)

// DefaultPollTimeout bounds each wait so cancellation is noticed even when no
// button is pressed.
const DefaultPollTimeout = 3 * time.Second

// waitRetry is the pause after a failed wait before waiting again.
const waitRetry = time.Second

// Config holds the timing parameters of the loop.
type Config struct {
	BounceWindow time.Duration
	StartupGrace time.Duration
	ClockJump    time.Duration
	Settle       time.Duration
	PollTimeout  time.Duration
	Debug        bool
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		BounceWindow: logic.DefaultBounceWindow,
		StartupGrace: logic.DefaultStartupGrace,
		ClockJump:    logic.DefaultClockJump,
		Settle:       DefaultSettle,
		PollTimeout:  DefaultPollTimeout,
	}
}

// Validate reports timings the loop cannot run with. A non-positive poll
// timeout turns the bounded wait into a busy loop, and a clock jump threshold
// within the bounce window would reset the anchor on every press.
func (c Config) Validate() error {
	var errs []error
	if c.PollTimeout <= 0 {
		errs = append(errs, fmt.Errorf("poll timeout %v must be positive", c.PollTimeout))
	}
	if c.BounceWindow < 0 {
		errs = append(errs, fmt.Errorf("bounce window %v is negative", c.BounceWindow))
	}
	if c.StartupGrace < 0 {
		errs = append(errs, fmt.Errorf("startup grace %v is negative", c.StartupGrace))
	}
	if c.Settle < 0 {
		errs = append(errs, fmt.Errorf("settle delay %v is negative", c.Settle))
	}
	if c.ClockJump <= c.BounceWindow {
		errs = append(errs, fmt.Errorf("clock jump %v must exceed bounce window %v", c.ClockJump, c.BounceWindow))
	}
	return errors.Join(errs...)
}

// Observer is told about every processed wakeup. Observers run on the loop
// goroutine and must not block.
type Observer interface {
	Observe(evt logic.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(evt logic.Event)

// Observe calls f.
func (f ObserverFunc) Observe(evt logic.Event) { f(evt) }

// Monitor owns the wait set and drives the filter chain.
type Monitor struct {
	cfg       Config
	watcher   gpio.Watcher
	table     *keymap.Table
	lines     map[int]keymap.Line
	emitter   *keyboard.Emitter
	clock     *logic.ClockGuard
	filter    *logic.DebounceFilter
	resolver  *EdgeResolver
	now       func() time.Time
	observers []Observer
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithSleep replaces time.Sleep for the settle delay.
func WithSleep(sleep func(time.Duration)) Option {
	return func(m *Monitor) { m.resolver.sleep = sleep }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.observers = append(m.observers, o) }
}

// New creates a Monitor. The clock anchor is taken when New is called, so it
// should be called once the watcher is armed.
func New(cfg Config, w gpio.Watcher, table *keymap.Table, e *keyboard.Emitter, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:     cfg,
		watcher: w,
		table:   table,
		lines:   make(map[int]keymap.Line),
		emitter: e,
		now:     time.Now,
	}
	for _, l := range table.Lines() {
		m.lines[l.ID] = l
	}
	m.resolver = NewEdgeResolver(cfg.Settle, w, time.Sleep)
	for _, opt := range opts {
		opt(m)
	}

	m.clock = logic.NewClockGuard(m.now(), cfg.ClockJump)
	m.filter = logic.NewDebounceFilter(cfg.BounceWindow, cfg.StartupGrace, table.LineIDs())
	return m
}

// Run waits for line activity until ctx is cancelled. Each pending line is
// handled once per wakeup. It returns nil on cancellation.
func (m *Monitor) Run(ctx context.Context) error {
	m.debugf("monitor: waiting on %d lines", len(m.lines))
	for ctx.Err() == nil {
		pending, err := m.watcher.Wait(ctx, m.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("monitor: wait error: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(waitRetry):
			}
			continue
		}

		for _, id := range pending {
			m.Handle(id)
		}
	}
	m.debugf("monitor: stopped")
	return nil
}

// Handle routes one pending line through the clock guard, debounce filter,
// edge resolver and key mapping, emitting keys if all accept it.
func (m *Monitor) Handle(id int) logic.Outcome {
	now := m.now()
	evt := logic.Event{Timestamp: now, Line: id}
	evt.Outcome = m.process(id, now, &evt)
	for _, o := range m.observers {
		o.Observe(evt)
	}
	return evt.Outcome
}

func (m *Monitor) process(id int, now time.Time, evt *logic.Event) logic.Outcome {
	line, ok := m.lines[id]
	if !ok {
		log.Printf("monitor: internal error: line %d has no mapping", id)
		return logic.OutcomeUnmapped
	}

	elapsed, ok := m.clock.Check(now)
	if !ok {
		log.Printf("monitor: system time changed, clock anchor reset to %s", now.Format(time.RFC3339))
		return logic.OutcomeClockReset
	}

	if !m.filter.Accept(id, elapsed) {
		m.debugf("monitor: line %d: bounce at %v", id, elapsed)
		return logic.OutcomeBounce
	}

	edge, ok := m.resolver.Resolve(line)
	evt.Edge = edge
	if !ok {
		m.debugf("monitor: line %d: settled %s edge does not match %s", id, edge, line.Edges)
		return logic.OutcomeEdgeMismatch
	}

	mapping, ok := m.table.Lookup(id)
	if !ok {
		log.Printf("monitor: internal error: line %d has no mapping", id)
		return logic.OutcomeUnmapped
	}

	m.debugf("monitor: line %d: %s edge, emitting %d transitions", id, edge, len(mapping.Sequence))
	sent := m.emitter.EmitSent(mapping.Sequence)
	if len(sent) < len(mapping.Sequence) {
		log.Printf("monitor: line %d: %d of %d transitions written", id, len(sent), len(mapping.Sequence))
	}

	evt.Keys = make([]string, len(sent))
	for i, k := range sent {
		evt.Keys[i] = k.String()
	}
	return logic.OutcomeEmitted
}

// ClockResets returns how many clock discontinuities have been seen.
func (m *Monitor) ClockResets() int {
	return m.clock.Resets()
}

func (m *Monitor) debugf(format string, args ...any) {
	if m.cfg.Debug {
		log.Printf(format, args...)
	}
}
