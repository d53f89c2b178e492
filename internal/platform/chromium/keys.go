package chromium

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-rod/rod/lib/input"
)

// ErrUnknownKey is returned for key names the keyboard cannot produce.
var ErrUnknownKey = errors.New("unknown key")

var namedKeys = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Delete":     input.Delete,
	"Insert":     input.Insert,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
	"Space":      input.Space,
	"F1":         input.F1,
	"F2":         input.F2,
	"F3":         input.F3,
	"F4":         input.F4,
	"F5":         input.F5,
	"F6":         input.F6,
	"F7":         input.F7,
	"F8":         input.F8,
	"F9":         input.F9,
	"F10":        input.F10,
	"F11":        input.F11,
	"F12":        input.F12,
}

var modifierKeys = map[string]input.Key{
	"Shift":   input.ShiftLeft,
	"Control": input.ControlLeft,
	"Alt":     input.AltLeft,
	"Meta":    input.MetaLeft,
}

// parseKey splits a key description such as "Control+Shift+a" into the
// modifiers to hold and the key to type.
func parseKey(desc string) ([]input.Key, input.Key, error) {
	if desc == "" {
		return nil, 0, fmt.Errorf("%w: empty key", ErrUnknownKey)
	}
	parts := []string{desc}
	// "+" on its own is a key, not a separator.
	if desc != "+" && strings.Contains(desc, "+") {
		parts = strings.Split(desc, "+")
		if strings.HasSuffix(desc, "++") {
			parts = append(parts[:len(parts)-2], "+")
		}
	}

	var mods []input.Key
	for _, m := range parts[:len(parts)-1] {
		k, ok := modifierKeys[m]
		if !ok {
			return nil, 0, fmt.Errorf("%w: modifier %q in %q", ErrUnknownKey, m, desc)
		}
		mods = append(mods, k)
	}

	last := parts[len(parts)-1]
	if k, ok := namedKeys[last]; ok {
		return mods, k, nil
	}
	if k, ok := modifierKeys[last]; ok {
		return mods, k, nil
	}
	if utf8.RuneCountInString(last) == 1 {
		r, _ := utf8.DecodeRuneInString(last)
		return mods, input.Key(r), nil
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrUnknownKey, last)
}
