package movemode

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
)

// MoveStep is the distance in pixels a single key press moves or resizes
// the target window.
const MoveStep = 20

// MinWindowSize is the floor for both window dimensions when shrinking.
const MinWindowSize = 100

const (
	keysymLeft    = 0xff51
	keysymUp      = 0xff52
	keysymRight   = 0xff53
	keysymDown    = 0xff54
	keysymReturn  = 0xff0d
	keysymEscape  = 0xff1b
	keysymKPEnter = 0xff8d
	keysymH       = 0x0048
	keysymh       = 0x0068
	keysymJ       = 0x004a
	keysymj       = 0x006a
	keysymK       = 0x004b
	keysymk       = 0x006b
	keysymL       = 0x004c
	keysyml       = 0x006c
)

// DirectionForKeysym maps arrow keys and hjkl vi keys to a direction.
func DirectionForKeysym(keysym uint32) (Direction, bool) {
	switch keysym {
	case keysymUp, keysymK, keysymk:
		return DirUp, true
	case keysymDown, keysymJ, keysymj:
		return DirDown, true
	case keysymLeft, keysymH, keysymh:
		return DirLeft, true
	case keysymRight, keysymL, keysyml:
		return DirRight, true
	default:
		return 0, false
	}
}

// isConfirmKeysym reports whether the keysym exits move mode, keeping the
// window where it is.
func isConfirmKeysym(keysym uint32) bool {
	return keysym == keysymReturn || keysym == keysymKPEnter || keysym == keysymEscape
}

// Hotkey is a parsed global hotkey: a keysym plus the modifier mask that
// must be held.
type Hotkey struct {
	Keysym uint32
	Mods   uint16
}

// ignoredMods are lock modifiers that must not affect hotkey matching.
// Mod2 is NumLock on virtually every X11 keymap.
const ignoredMods = xproto.ModMaskLock | xproto.ModMask2

// Matches reports whether a key press triggers the hotkey. Extra held
// modifiers beyond the required set still match.
func (hk Hotkey) Matches(keysym uint32, mods uint16) bool {
	if keysym != hk.Keysym {
		return false
	}
	relevant := mods &^ ignoredMods
	return relevant&hk.Mods == hk.Mods
}

var modMasks = map[string]uint16{
	"shift":   xproto.ModMaskShift,
	"lock":    xproto.ModMaskLock,
	"control": xproto.ModMaskControl,
	"ctrl":    xproto.ModMaskControl,
	"mod1":    xproto.ModMask1,
	"alt":     xproto.ModMask1,
	"mod2":    xproto.ModMask2,
	"mod3":    xproto.ModMask3,
	"mod4":    xproto.ModMask4,
	"super":   xproto.ModMask4,
	"mod5":    xproto.ModMask5,
}

var namedKeysyms = map[string]uint32{
	"space":     0x0020,
	"return":    keysymReturn,
	"escape":    keysymEscape,
	"tab":       0xff09,
	"backspace": 0xff08,
	"up":        keysymUp,
	"down":      keysymDown,
	"left":      keysymLeft,
	"right":     keysymRight,
}

// ParseHotkey parses a hotkey string in keybind notation, e.g.
// "Mod4-Mod1-m" or "Control-Shift-space". The final dash-separated token is
// the key; everything before it is a modifier.
func ParseHotkey(s string) (Hotkey, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Hotkey{}, fmt.Errorf("empty hotkey %q", s)
	}

	var mods uint16
	for _, part := range parts[:len(parts)-1] {
		mask, ok := modMasks[strings.ToLower(part)]
		if !ok {
			return Hotkey{}, fmt.Errorf("unknown modifier %q in hotkey %q", part, s)
		}
		mods |= mask
	}

	key := parts[len(parts)-1]
	if sym, ok := namedKeysyms[strings.ToLower(key)]; ok {
		return Hotkey{Keysym: sym, Mods: mods}, nil
	}
	runes := []rune(key)
	if len(runes) == 1 && runes[0] < 0x80 {
		// Latin-1 keysyms equal their codepoint; match the unshifted
		// (lowercase) form since that is what keycode column 0 yields.
		return Hotkey{Keysym: uint32(strings.ToLower(key)[0]), Mods: mods}, nil
	}
	return Hotkey{}, fmt.Errorf("unknown key %q in hotkey %q", key, s)
}
