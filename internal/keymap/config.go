package keymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/button-kbd/internal/logic"
)

// File is the on-disk mapping configuration.
type File struct {
	// Edge is the default trigger edge for buttons that do not set one.
	Edge    string   `toml:"edge" json:"edge" yaml:"edge"`
	Buttons []Button `toml:"button" json:"button" yaml:"button"`
}

// Button maps one line to keys. Exactly one of Keys or Sequence is set.
type Button struct {
	Line int    `toml:"line" json:"line" yaml:"line"`
	Edge string `toml:"edge" json:"edge" yaml:"edge"`
	// Keys is a chord: pressed in order, released in reverse.
	Keys []string `toml:"keys" json:"keys" yaml:"keys"`
	// Sequence lists explicit transitions, "+KEY" for press and "-KEY" for release.
	Sequence []string `toml:"sequence" json:"sequence" yaml:"sequence"`
}

// Default returns the built-in table: line 20 sends space, line 21 sends
// ctrl+R, both on the falling edge.
func Default() *Table {
	t, err := NewTable([]Mapping{
		{
			Line:     Line{ID: 20, Edges: logic.EdgeFalling},
			Sequence: Chord(codesByName["SPACE"]),
		},
		{
			Line:     Line{ID: 21, Edges: logic.EdgeFalling},
			Sequence: Chord(codesByName["LEFTCTRL"], codesByName["R"]),
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads a mapping file. The format is chosen by extension: .toml, .json,
// .yaml or .yml. defaultEdge applies when neither the file nor a button sets
// an edge.
func Load(path string, defaultEdge logic.Edge) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("keymap %s: unsupported extension %q", path, ext)
	}

	return f.Table(defaultEdge)
}

// Table converts the file into a validated table.
func (f File) Table(defaultEdge logic.Edge) (*Table, error) {
	if f.Edge != "" {
		e, err := logic.ParseEdge(f.Edge)
		if err != nil {
			return nil, fmt.Errorf("keymap: %w", err)
		}
		defaultEdge = e
	}

	mappings := make([]Mapping, 0, len(f.Buttons))
	for i, b := range f.Buttons {
		m, err := b.mapping(defaultEdge)
		if err != nil {
			return nil, fmt.Errorf("keymap: button %d (line %d): %w", i, b.Line, err)
		}
		mappings = append(mappings, m)
	}
	return NewTable(mappings)
}

func (b Button) mapping(defaultEdge logic.Edge) (Mapping, error) {
	edge := defaultEdge
	if b.Edge != "" {
		e, err := logic.ParseEdge(b.Edge)
		if err != nil {
			return Mapping{}, err
		}
		edge = e
	}

	var seq []KeyTransition
	switch {
	case len(b.Keys) > 0 && len(b.Sequence) > 0:
		return Mapping{}, errors.New("set keys or sequence, not both")
	case len(b.Keys) > 0:
		codes := make([]int, 0, len(b.Keys))
		for _, k := range b.Keys {
			code, err := ParseKey(k)
			if err != nil {
				return Mapping{}, err
			}
			codes = append(codes, code)
		}
		seq = Chord(codes...)
	case len(b.Sequence) > 0:
		for _, s := range b.Sequence {
			k, err := ParseTransition(s)
			if err != nil {
				return Mapping{}, err
			}
			seq = append(seq, k)
		}
	default:
		return Mapping{}, errors.New("no keys")
	}

	return Mapping{Line: Line{ID: b.Line, Edges: edge}, Sequence: seq}, nil
}

// ParseTransition parses "+KEY" (press) or "-KEY" (release).
func ParseTransition(s string) (KeyTransition, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return KeyTransition{}, fmt.Errorf("invalid transition %q", s)
	}
	var dir Direction
	switch s[0] {
	case '+':
		dir = Down
	case '-':
		dir = Up
	default:
		return KeyTransition{}, fmt.Errorf("transition %q must start with + or -", s)
	}
	code, err := ParseKey(s[1:])
	if err != nil {
		return KeyTransition{}, err
	}
	return KeyTransition{Code: code, Direction: dir}, nil
}
