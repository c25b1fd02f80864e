package monitor

import (
	"time"

	"github.com/sweeney/button-kbd/internal/keymap"
	"github.com/sweeney/button-kbd/internal/logic"
)

// DefaultSettle is how long to wait after an accepted interrupt before
// sampling the line. Found by trial on Pi sysfs; other hardware may differ.
const DefaultSettle = 2 * time.Millisecond

// Sampler reads the instantaneous level of a line.
type Sampler interface {
	Level(line int) (int, error)
}

// EdgeResolver samples a line once it has settled and decides which edge
// occurred.
type EdgeResolver struct {
	settle time.Duration
	sample Sampler
	sleep  func(time.Duration)
}

// NewEdgeResolver creates a resolver. sleep is usually time.Sleep.
func NewEdgeResolver(settle time.Duration, s Sampler, sleep func(time.Duration)) *EdgeResolver {
	return &EdgeResolver{settle: settle, sample: s, sleep: sleep}
}

// Resolve returns the edge implied by the settled level and whether it is one
// the line triggers on. A level that cannot be read resolves to EdgeNone.
func (r *EdgeResolver) Resolve(line keymap.Line) (logic.Edge, bool) {
	if r.settle > 0 {
		r.sleep(r.settle)
	}
	level, err := r.sample.Level(line.ID)
	if err != nil {
		return logic.EdgeNone, false
	}
	edge, ok := logic.EdgeForLevel(level)
	if !ok {
		return logic.EdgeNone, false
	}
	return edge, line.Edges.Has(edge)
}
