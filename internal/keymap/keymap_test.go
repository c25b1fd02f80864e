package keymap

import (
	"reflect"
	"testing"

	"github.com/sweeney/button-kbd/internal/logic"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()

	ids := tbl.LineIDs()
	if !reflect.DeepEqual(ids, []int{20, 21}) {
		t.Fatalf("lines: got %v, want [20 21]", ids)
	}

	m, ok := tbl.Lookup(20)
	if !ok {
		t.Fatal("line 20 not mapped")
	}
	want := []KeyTransition{{57, Down}, {57, Up}}
	if !reflect.DeepEqual(m.Sequence, want) {
		t.Errorf("line 20: got %v, want %v", m.Sequence, want)
	}
	if m.Line.Edges != logic.EdgeFalling {
		t.Errorf("line 20 edge: got %v, want falling", m.Line.Edges)
	}

	m, ok = tbl.Lookup(21)
	if !ok {
		t.Fatal("line 21 not mapped")
	}
	want = []KeyTransition{{29, Down}, {19, Down}, {19, Up}, {29, Up}}
	if !reflect.DeepEqual(m.Sequence, want) {
		t.Errorf("line 21: got %v, want %v", m.Sequence, want)
	}
}

func TestLookupIsIdempotent(t *testing.T) {
	tbl := Default()

	first, _ := tbl.Lookup(21)
	first.Sequence[0].Code = 1 // caller mutation must not leak into the table

	for i := 0; i < 3; i++ {
		m, ok := tbl.Lookup(21)
		if !ok {
			t.Fatal("line 21 not mapped")
		}
		if m.Sequence[0].Code != 29 {
			t.Fatalf("lookup %d: sequence changed: %v", i, m.Sequence)
		}
	}
}

func TestLookupNotFound(t *testing.T) {
	if _, ok := Default().Lookup(5); ok {
		t.Error("unmapped line should not be found")
	}
}

func TestCodes(t *testing.T) {
	got := Default().Codes()
	want := []int{19, 29, 57}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("codes: got %v, want %v", got, want)
	}
}

func TestNewTableValidation(t *testing.T) {
	space := Chord(57)
	tests := []struct {
		name     string
		mappings []Mapping
	}{
		{"empty", nil},
		{"negative line", []Mapping{{Line: Line{ID: -1, Edges: logic.EdgeFalling}, Sequence: space}}},
		{"duplicate line", []Mapping{
			{Line: Line{ID: 4, Edges: logic.EdgeFalling}, Sequence: space},
			{Line: Line{ID: 4, Edges: logic.EdgeRising}, Sequence: space},
		}},
		{"no edge", []Mapping{{Line: Line{ID: 4}, Sequence: space}}},
		{"empty sequence", []Mapping{{Line: Line{ID: 4, Edges: logic.EdgeFalling}}}},
		{"code out of range", []Mapping{{Line: Line{ID: 4, Edges: logic.EdgeFalling}, Sequence: Chord(600)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.mappings); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLineZeroIsValid(t *testing.T) {
	tbl, err := NewTable([]Mapping{{Line: Line{ID: 0, Edges: logic.EdgeFalling}, Sequence: Chord(57)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tbl.Lookup(0); !ok {
		t.Error("line 0 should be mapped")
	}
}

func TestUnbalanced(t *testing.T) {
	tbl, err := NewTable([]Mapping{
		{Line: Line{ID: 1, Edges: logic.EdgeFalling}, Sequence: Chord(29, 19)},
		{Line: Line{ID: 2, Edges: logic.EdgeFalling}, Sequence: []KeyTransition{{42, Down}}},
		{Line: Line{ID: 3, Edges: logic.EdgeFalling}, Sequence: []KeyTransition{{42, Up}, {42, Down}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := tbl.Unbalanced()
	if !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("unbalanced: got %v, want [2 3]", got)
	}
}

func TestChord(t *testing.T) {
	got := Chord(29, 42, 20)
	want := []KeyTransition{{29, Down}, {42, Down}, {20, Down}, {20, Up}, {42, Up}, {29, Up}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("chord: got %v, want %v", got, want)
	}
}

func TestTransitionString(t *testing.T) {
	if s := (KeyTransition{Code: 29, Direction: Down}).String(); s != "+LEFTCTRL" {
		t.Errorf("got %q, want +LEFTCTRL", s)
	}
	if s := (KeyTransition{Code: 57, Direction: Up}).String(); s != "-SPACE" {
		t.Errorf("got %q, want -SPACE", s)
	}
	if s := (KeyTransition{Code: 240, Direction: Up}).String(); s != "-240" {
		t.Errorf("got %q, want -240", s)
	}
}
