package movemode

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestDirectionForKeysym(t *testing.T) {
	tests := []struct {
		name   string
		keysym uint32
		want   Direction
		ok     bool
	}{
		{"arrow up", keysymUp, DirUp, true},
		{"arrow down", keysymDown, DirDown, true},
		{"arrow left", keysymLeft, DirLeft, true},
		{"arrow right", keysymRight, DirRight, true},
		{"vi k", keysymk, DirUp, true},
		{"vi j", keysymj, DirDown, true},
		{"vi h", keysymh, DirLeft, true},
		{"vi l", keysyml, DirRight, true},
		{"vi L uppercase", keysymL, DirRight, true},
		{"unbound q", 0x0071, 0, false},
		{"escape is not a direction", keysymEscape, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, ok := DirectionForKeysym(tt.keysym)
			if ok != tt.ok {
				t.Fatalf("DirectionForKeysym(%#x) ok = %v, want %v", tt.keysym, ok, tt.ok)
			}
			if ok && dir != tt.want {
				t.Fatalf("DirectionForKeysym(%#x) = %v, want %v", tt.keysym, dir, tt.want)
			}
		})
	}
}

func TestDirectionDelta(t *testing.T) {
	if dx, dy := DirUp.Delta(); dx != 0 || dy != -1 {
		t.Fatalf("up delta = %d,%d", dx, dy)
	}
	if dx, dy := DirRight.Delta(); dx != 1 || dy != 0 {
		t.Fatalf("right delta = %d,%d", dx, dy)
	}
}

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		in      string
		want    Hotkey
		wantErr bool
	}{
		{"Mod4-Mod1-m", Hotkey{Keysym: 0x006d, Mods: xproto.ModMask4 | xproto.ModMask1}, false},
		{"Super-Alt-m", Hotkey{Keysym: 0x006d, Mods: xproto.ModMask4 | xproto.ModMask1}, false},
		{"Control-Shift-space", Hotkey{Keysym: 0x0020, Mods: xproto.ModMaskControl | xproto.ModMaskShift}, false},
		{"Mod4-M", Hotkey{Keysym: 0x006d, Mods: xproto.ModMask4}, false},
		{"m", Hotkey{Keysym: 0x006d}, false},
		{"Mod9-m", Hotkey{}, true},
		{"Mod4-", Hotkey{}, true},
		{"", Hotkey{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHotkey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHotkey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("ParseHotkey(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHotkeyMatches(t *testing.T) {
	hk := Hotkey{Keysym: 0x006d, Mods: xproto.ModMask4 | xproto.ModMask1}

	if !hk.Matches(0x006d, xproto.ModMask4|xproto.ModMask1) {
		t.Fatal("exact modifier match should trigger")
	}
	// Extra modifiers beyond the required set still match.
	if !hk.Matches(0x006d, xproto.ModMask4|xproto.ModMask1|xproto.ModMaskShift) {
		t.Fatal("superset of modifiers should trigger")
	}
	// Lock modifiers are ignored.
	if !hk.Matches(0x006d, xproto.ModMask4|xproto.ModMask1|xproto.ModMaskLock|xproto.ModMask2) {
		t.Fatal("caps/num lock should not prevent a match")
	}
	if hk.Matches(0x006d, xproto.ModMask4) {
		t.Fatal("missing required modifier should not trigger")
	}
	if hk.Matches(0x006e, xproto.ModMask4|xproto.ModMask1) {
		t.Fatal("different keysym should not trigger")
	}
}
