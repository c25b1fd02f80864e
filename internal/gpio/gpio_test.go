package gpio

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseBias(t *testing.T) {
	for _, in := range []string{"as-is", "pull-up", "Pull-Down", " disabled "} {
		if _, err := ParseBias(in); err != nil {
			t.Errorf("ParseBias(%q): unexpected error: %v", in, err)
		}
	}
	if _, err := ParseBias("floating"); err == nil {
		t.Error("expected error for unknown bias")
	}
}

func TestInOrder(t *testing.T) {
	got := inOrder([]int{20, 21, 5}, map[int]bool{5: true, 20: true})
	if !reflect.DeepEqual(got, []int{20, 5}) {
		t.Errorf("got %v, want [20 5]", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0\n", 0, false},
		{"1\n", 1, false},
		{"1", 1, false},
		{"", -1, true},
		{"2\n", -1, true},
		{"10", -1, true},
	}
	for _, tt := range tests {
		got, err := parseLevel([]byte(tt.in))
		if tt.wantErr {
			if !errors.Is(err, ErrIndeterminate) {
				t.Errorf("parseLevel(%q): want ErrIndeterminate, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseLevel(%q): got (%d, %v), want %d", tt.in, got, err, tt.want)
		}
	}
}
