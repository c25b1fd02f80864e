package mqtt

import (
	"log"
	"sync"

	"github.com/sweeney/button-kbd/internal/logic"
)

// DefaultForwardQueue is the number of key events a Forwarder holds before
// it starts dropping.
const DefaultForwardQueue = 64

// Forwarder hands emitted key events to a Publisher on its own goroutine so
// broker latency never delays the monitor loop. It implements
// monitor.Observer.
type Forwarder struct {
	pub   Publisher
	queue chan logic.Event
	done  chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewForwarder starts a Forwarder with room for depth pending events.
func NewForwarder(pub Publisher, depth int) *Forwarder {
	if depth < 1 {
		depth = DefaultForwardQueue
	}
	f := &Forwarder{
		pub:   pub,
		queue: make(chan logic.Event, depth),
		done:  make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *Forwarder) run() {
	defer close(f.done)
	for evt := range f.queue {
		if err := f.pub.Publish(evt); err != nil {
			log.Printf("mqtt: publish line %d: %v", evt.Line, err)
		}
	}
}

// Observe queues evt if it emitted keys. It never blocks; when the queue is
// full the event is dropped.
func (f *Forwarder) Observe(evt logic.Event) {
	if evt.Outcome != logic.OutcomeEmitted {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- evt:
	default:
		f.dropped++
		log.Printf("mqtt: forward queue full, dropping event for line %d", evt.Line)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (f *Forwarder) Dropped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Close stops accepting events and waits for queued ones to be published.
func (f *Forwarder) Close() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()
	<-f.done
}
