package keymap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bendahl/uinput"
)

// Code range accepted by the virtual keyboard.
const (
	MinCode = 1
	MaxCode = 248
)

var codesByName = map[string]int{
	"ESC":        uinput.KeyEsc,
	"1":          uinput.Key1,
	"2":          uinput.Key2,
	"3":          uinput.Key3,
	"4":          uinput.Key4,
	"5":          uinput.Key5,
	"6":          uinput.Key6,
	"7":          uinput.Key7,
	"8":          uinput.Key8,
	"9":          uinput.Key9,
	"0":          uinput.Key0,
	"MINUS":      uinput.KeyMinus,
	"EQUAL":      uinput.KeyEqual,
	"BACKSPACE":  uinput.KeyBackspace,
	"TAB":        uinput.KeyTab,
	"Q":          uinput.KeyQ,
	"W":          uinput.KeyW,
	"E":          uinput.KeyE,
	"R":          uinput.KeyR,
	"T":          uinput.KeyT,
	"Y":          uinput.KeyY,
	"U":          uinput.KeyU,
	"I":          uinput.KeyI,
	"O":          uinput.KeyO,
	"P":          uinput.KeyP,
	"LEFTBRACE":  uinput.KeyLeftbrace,
	"RIGHTBRACE": uinput.KeyRightbrace,
	"ENTER":      uinput.KeyEnter,
	"LEFTCTRL":   uinput.KeyLeftctrl,
	"A":          uinput.KeyA,
	"S":          uinput.KeyS,
	"D":          uinput.KeyD,
	"F":          uinput.KeyF,
	"G":          uinput.KeyG,
	"H":          uinput.KeyH,
	"J":          uinput.KeyJ,
	"K":          uinput.KeyK,
	"L":          uinput.KeyL,
	"SEMICOLON":  uinput.KeySemicolon,
	"APOSTROPHE": uinput.KeyApostrophe,
	"GRAVE":      uinput.KeyGrave,
	"LEFTSHIFT":  uinput.KeyLeftshift,
	"BACKSLASH":  uinput.KeyBackslash,
	"Z":          uinput.KeyZ,
	"X":          uinput.KeyX,
	"C":          uinput.KeyC,
	"V":          uinput.KeyV,
	"B":          uinput.KeyB,
	"N":          uinput.KeyN,
	"M":          uinput.KeyM,
	"COMMA":      uinput.KeyComma,
	"DOT":        uinput.KeyDot,
	"SLASH":      uinput.KeySlash,
	"LEFTALT":    uinput.KeyLeftalt,
	"SPACE":      uinput.KeySpace,
	"F1":         uinput.KeyF1,
	"F2":         uinput.KeyF2,
	"F9":         uinput.KeyF9,
	"F11":        uinput.KeyF11,
	"F12":        uinput.KeyF12,
	"SCROLLLOCK": uinput.KeyScrolllock,
	"RIGHTALT":   uinput.KeyRightalt,
	"UP":         uinput.KeyUp,
	"LEFT":       uinput.KeyLeft,
	"RIGHT":      uinput.KeyRight,
	"DOWN":       uinput.KeyDown,
	"MUTE":       uinput.KeyMute,
	"VOLUMEDOWN": uinput.KeyVolumedown,
	"VOLUMEUP":   uinput.KeyVolumeup,
	"LEFTMETA":   uinput.KeyLeftmeta,

	// Not exported under these names by the uinput package.
	"CAPSLOCK":     58,
	"F3":           61,
	"F4":           62,
	"F5":           63,
	"F6":           64,
	"F7":           65,
	"F8":           66,
	"F10":          68,
	"RIGHTCTRL":    97,
	"HOME":         102,
	"PAGEUP":       104,
	"END":          107,
	"PAGEDOWN":     109,
	"INSERT":       110,
	"DELETE":       111,
	"POWER":        116,
	"PAUSE":        119,
	"RIGHTSHIFT":   54,
	"RIGHTMETA":    126,
	"NEXTSONG":     163,
	"PLAYPAUSE":    164,
	"PREVIOUSSONG": 165,
	"STOPCD":       166,
}

var namesByCode = func() map[int]string {
	m := make(map[int]string, len(codesByName))
	for name, code := range codesByName {
		// Prefer the shortest name when two share a code.
		if prev, ok := m[code]; !ok || len(name) < len(prev) || (len(name) == len(prev) && name < prev) {
			m[code] = name
		}
	}
	return m
}()

// ParseKey resolves a key name such as "KEY_SPACE", "space" or "LeftCtrl",
// or a decimal key code such as "57".
func ParseKey(s string) (int, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "KEY_")
	if name == "" {
		return 0, fmt.Errorf("empty key name")
	}
	if code, ok := codesByName[name]; ok {
		return code, nil
	}
	if code, err := strconv.Atoi(name); err == nil && len(name) > 1 {
		if code < MinCode || code > MaxCode {
			return 0, fmt.Errorf("key code %d out of range [%d, %d]", code, MinCode, MaxCode)
		}
		return code, nil
	}
	return 0, fmt.Errorf("unknown key %q", s)
}

// Name returns the key name for a code, or the decimal code if unnamed.
func Name(code int) string {
	if name, ok := namesByCode[code]; ok {
		return name
	}
	return strconv.Itoa(code)
}

// KnownNames returns every key name ParseKey understands, sorted.
func KnownNames() []string {
	names := make([]string, 0, len(codesByName))
	for name := range codesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
