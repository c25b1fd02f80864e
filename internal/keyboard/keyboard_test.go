package keyboard

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sweeney/button-kbd/internal/keymap"
)

func TestEmitSingleKey(t *testing.T) {
	dev := NewFakeDevice()
	e := NewEmitter(dev)

	sent := e.Emit(keymap.Chord(57))
	if sent != 2 {
		t.Errorf("sent: got %d, want 2", sent)
	}

	want := []Write{
		{WritePress, 57}, {WriteSync, 0},
		{WriteRelease, 57}, {WriteSync, 0},
	}
	if !reflect.DeepEqual(dev.Writes, want) {
		t.Errorf("writes:\ngot:  %v\nwant: %v", dev.Writes, want)
	}
}

func TestEmitChordOrder(t *testing.T) {
	dev := NewFakeDevice()
	e := NewEmitter(dev)

	// ctrl down, r down, r up, ctrl up
	e.Emit(keymap.Chord(29, 19))

	if len(dev.Writes) != 8 {
		t.Fatalf("expected 8 device writes, got %d", len(dev.Writes))
	}
	want := []Write{
		{WritePress, 29}, {WriteSync, 0},
		{WritePress, 19}, {WriteSync, 0},
		{WriteRelease, 19}, {WriteSync, 0},
		{WriteRelease, 29}, {WriteSync, 0},
	}
	if !reflect.DeepEqual(dev.Writes, want) {
		t.Errorf("writes:\ngot:  %v\nwant: %v", dev.Writes, want)
	}
}

func TestEmitEachTransitionFollowedBySync(t *testing.T) {
	dev := NewFakeDevice()
	e := NewEmitter(dev)

	seq := []keymap.KeyTransition{
		{Code: 42, Direction: keymap.Down},
		{Code: 30, Direction: keymap.Down},
		{Code: 30, Direction: keymap.Up},
		{Code: 48, Direction: keymap.Down},
		{Code: 48, Direction: keymap.Up},
		{Code: 42, Direction: keymap.Up},
	}
	e.Emit(seq)

	if len(dev.Writes) != 2*len(seq) {
		t.Fatalf("expected %d writes, got %d", 2*len(seq), len(dev.Writes))
	}
	for i, k := range seq {
		w := dev.Writes[2*i]
		wantKind := WriteRelease
		if k.Direction == keymap.Down {
			wantKind = WritePress
		}
		if w.Kind != wantKind || w.Code != k.Code {
			t.Errorf("transition %d: got %v, want %s %d", i, w, wantKind, k.Code)
		}
		if dev.Writes[2*i+1].Kind != WriteSync {
			t.Errorf("transition %d not followed by sync", i)
		}
	}
}

func TestEmitSkipsFailedWrites(t *testing.T) {
	dev := NewFakeDevice()
	dev.Fail = map[int]error{19: errors.New("simulated write error")}
	e := NewEmitter(dev)

	sent := e.Emit(keymap.Chord(29, 19))
	if sent != 2 {
		t.Errorf("sent: got %d, want 2", sent)
	}

	// The modifier must still be released.
	want := []Write{{WritePress, 29}, {WriteRelease, 29}}
	if got := dev.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("keys: got %v, want %v", got, want)
	}
}

func TestEmitSentReturnsWrittenTransitions(t *testing.T) {
	dev := NewFakeDevice()
	dev.Fail = map[int]error{19: errors.New("simulated write error")}

	sent := NewEmitter(dev).EmitSent(keymap.Chord(29, 19))

	want := []keymap.KeyTransition{{Code: 29, Direction: keymap.Down}, {Code: 29, Direction: keymap.Up}}
	if !reflect.DeepEqual(sent, want) {
		t.Errorf("sent: got %v, want %v", sent, want)
	}
}

func TestEmitEmptySequence(t *testing.T) {
	dev := NewFakeDevice()
	if sent := NewEmitter(dev).Emit(nil); sent != 0 {
		t.Errorf("sent: got %d, want 0", sent)
	}
	if len(dev.Writes) != 0 {
		t.Errorf("expected no writes, got %v", dev.Writes)
	}
}

func TestFakeDeviceClose(t *testing.T) {
	dev := NewFakeDevice()
	if err := dev.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !dev.Closed {
		t.Error("should be closed after Close()")
	}
	if err := dev.KeyDown(57); err == nil {
		t.Error("expected error writing to a closed device")
	}

	dev.Reset()
	if dev.Closed || len(dev.Writes) != 0 {
		t.Error("reset should clear state")
	}
}
