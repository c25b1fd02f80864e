// Package keymap holds the static table mapping monitored lines to ordered
// key transition sequences.
package keymap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sweeney/button-kbd/internal/logic"
)

// Direction is the direction of a key transition.
type Direction bool

const (
	Up   Direction = false
	Down Direction = true
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// KeyTransition is a single key press or release.
type KeyTransition struct {
	Code      int
	Direction Direction
}

// String renders the transition as "+NAME" for down and "-NAME" for up.
func (k KeyTransition) String() string {
	sign := "-"
	if k.Direction == Down {
		sign = "+"
	}
	return sign + Name(k.Code)
}

// Line is a monitored input line and the edges it triggers on.
type Line struct {
	ID    int
	Edges logic.Edge
}

// Mapping associates one line with the sequence it emits.
type Mapping struct {
	Line     Line
	Sequence []KeyTransition
}

// Table is the read-only mapping configuration.
type Table struct {
	mappings []Mapping
	index    map[int]int
}

// NewTable validates mappings and builds a lookup table.
// Line ids must be unique and non-negative, every sequence non-empty and every
// code within the range the virtual keyboard declares.
func NewTable(mappings []Mapping) (*Table, error) {
	if len(mappings) == 0 {
		return nil, errors.New("keymap: no mappings configured")
	}

	t := &Table{
		mappings: make([]Mapping, 0, len(mappings)),
		index:    make(map[int]int, len(mappings)),
	}
	for i, m := range mappings {
		if m.Line.ID < 0 {
			return nil, fmt.Errorf("keymap: mapping %d: invalid line %d", i, m.Line.ID)
		}
		if _, dup := t.index[m.Line.ID]; dup {
			return nil, fmt.Errorf("keymap: line %d mapped more than once", m.Line.ID)
		}
		if m.Line.Edges == logic.EdgeNone {
			return nil, fmt.Errorf("keymap: line %d: no trigger edge", m.Line.ID)
		}
		if len(m.Sequence) == 0 {
			return nil, fmt.Errorf("keymap: line %d: empty key sequence", m.Line.ID)
		}
		for _, k := range m.Sequence {
			if k.Code < MinCode || k.Code > MaxCode {
				return nil, fmt.Errorf("keymap: line %d: key code %d out of range [%d, %d]", m.Line.ID, k.Code, MinCode, MaxCode)
			}
		}

		seq := make([]KeyTransition, len(m.Sequence))
		copy(seq, m.Sequence)
		t.index[m.Line.ID] = len(t.mappings)
		t.mappings = append(t.mappings, Mapping{Line: m.Line, Sequence: seq})
	}
	return t, nil
}

// Lookup returns the mapping for a line. The returned sequence is a copy.
func (t *Table) Lookup(id int) (Mapping, bool) {
	i, ok := t.index[id]
	if !ok {
		return Mapping{}, false
	}
	m := t.mappings[i]
	seq := make([]KeyTransition, len(m.Sequence))
	copy(seq, m.Sequence)
	return Mapping{Line: m.Line, Sequence: seq}, true
}

// Lines returns the monitored lines in configured order.
func (t *Table) Lines() []Line {
	lines := make([]Line, len(t.mappings))
	for i, m := range t.mappings {
		lines[i] = m.Line
	}
	return lines
}

// LineIDs returns the monitored line ids in configured order.
func (t *Table) LineIDs() []int {
	ids := make([]int, len(t.mappings))
	for i, m := range t.mappings {
		ids[i] = m.Line.ID
	}
	return ids
}

// Codes returns every key code referenced by any mapping, sorted.
func (t *Table) Codes() []int {
	seen := make(map[int]struct{})
	var codes []int
	for _, m := range t.mappings {
		for _, k := range m.Sequence {
			if _, ok := seen[k.Code]; ok {
				continue
			}
			seen[k.Code] = struct{}{}
			codes = append(codes, k.Code)
		}
	}
	sort.Ints(codes)
	return codes
}

// Unbalanced returns the lines whose sequence leaves a key held down or
// releases a key it never pressed. This is a convention, not an error.
func (t *Table) Unbalanced() []int {
	var lines []int
	for _, m := range t.mappings {
		held := make(map[int]int)
		ok := true
		for _, k := range m.Sequence {
			if k.Direction == Down {
				held[k.Code]++
				continue
			}
			if held[k.Code] == 0 {
				ok = false
				break
			}
			held[k.Code]--
		}
		for _, n := range held {
			if n != 0 {
				ok = false
			}
		}
		if !ok {
			lines = append(lines, m.Line.ID)
		}
	}
	return lines
}

// Chord expands keys into a press of each key in order followed by the
// releases in reverse order.
func Chord(codes ...int) []KeyTransition {
	seq := make([]KeyTransition, 0, 2*len(codes))
	for _, c := range codes {
		seq = append(seq, KeyTransition{Code: c, Direction: Down})
	}
	for i := len(codes) - 1; i >= 0; i-- {
		seq = append(seq, KeyTransition{Code: codes[i], Direction: Up})
	}
	return seq
}
