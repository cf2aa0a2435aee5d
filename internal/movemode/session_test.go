package movemode

import (
	"errors"
	"testing"

	"github.com/1broseidon/nudge/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
)

// fakeBackend is an in-memory platform.Backend for session tests.
type fakeBackend struct {
	active    platform.WindowID
	activeErr error
	rects     map[platform.WindowID]platform.Rect
	geomErr   error

	positionCalls int
	sizeCalls     int
	bellCalls     int
}

func newFakeBackend(active platform.WindowID, rect platform.Rect) *fakeBackend {
	return &fakeBackend{
		active: active,
		rects:  map[platform.WindowID]platform.Rect{active: rect},
	}
}

func (b *fakeBackend) ActiveWindow() (platform.WindowID, error) {
	if b.activeErr != nil {
		return 0, b.activeErr
	}
	return b.active, nil
}

func (b *fakeBackend) Geometry(id platform.WindowID) (platform.Rect, error) {
	if b.geomErr != nil {
		return platform.Rect{}, b.geomErr
	}
	return b.rects[id], nil
}

func (b *fakeBackend) SetPosition(id platform.WindowID, x, y int) error {
	r := b.rects[id]
	r.X, r.Y = x, y
	b.rects[id] = r
	b.positionCalls++
	return nil
}

func (b *fakeBackend) SetSize(id platform.WindowID, width, height int) error {
	r := b.rects[id]
	r.Width, r.Height = width, height
	b.rects[id] = r
	b.sizeCalls++
	return nil
}

func (b *fakeBackend) Bell() error {
	b.bellCalls++
	return nil
}

type fakeHighlighter struct {
	shown    bool
	lastRect platform.Rect
}

func (h *fakeHighlighter) Show(rect platform.Rect) error {
	h.shown = true
	h.lastRect = rect
	return nil
}

func (h *fakeHighlighter) Hide() { h.shown = false }

type fakeGrabber struct {
	grabbed bool
	grabErr error
}

func (g *fakeGrabber) Grab() error {
	if g.grabErr != nil {
		return g.grabErr
	}
	g.grabbed = true
	return nil
}

func (g *fakeGrabber) Ungrab() { g.grabbed = false }

const testWindow platform.WindowID = 0x42

func newTestSession(backend *fakeBackend) (*Session, *fakeHighlighter, *fakeGrabber) {
	hl := &fakeHighlighter{}
	gr := &fakeGrabber{}
	hk, _ := ParseHotkey("Mod4-Mod1-m")
	s := NewSession(backend, Options{
		Hotkey:      hk,
		Bell:        true,
		Highlighter: hl,
		Grabber:     gr,
	})
	return s, hl, gr
}

func TestToggle_EntersAndExits(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{X: 10, Y: 20, Width: 300, Height: 200})
	s, hl, gr := newTestSession(backend)

	if err := s.Toggle(); err != nil {
		t.Fatalf("toggle enter: %v", err)
	}
	if s.Mode() != ModeMove {
		t.Fatalf("mode = %v, want move", s.Mode())
	}
	if s.TargetWindow() != testWindow {
		t.Fatalf("target = %v, want %v", s.TargetWindow(), testWindow)
	}
	if !gr.grabbed {
		t.Fatal("expected keyboard grab to be held")
	}
	if !hl.shown {
		t.Fatal("expected highlight to be shown")
	}
	if backend.bellCalls != 1 {
		t.Fatalf("bell calls = %d, want 1", backend.bellCalls)
	}

	if err := s.Toggle(); err != nil {
		t.Fatalf("toggle exit: %v", err)
	}
	if s.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want idle", s.Mode())
	}
	if gr.grabbed {
		t.Fatal("expected keyboard grab to be released")
	}
	if hl.shown {
		t.Fatal("expected highlight to be hidden")
	}
	if s.TargetWindow() != 0 {
		t.Fatalf("target = %v, want 0", s.TargetWindow())
	}
}

func TestEnter_WhileActiveIsNoop(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{Width: 300, Height: 200})
	s, _, _ := newTestSession(backend)

	if err := s.Enter(); err != nil {
		t.Fatalf("enter: %v", err)
	}
	bellsAfterFirst := backend.bellCalls
	if err := s.Enter(); err != nil {
		t.Fatalf("second enter: %v", err)
	}
	if backend.bellCalls != bellsAfterFirst {
		t.Fatal("re-entering must not re-run entry side effects")
	}
	if s.Mode() != ModeMove {
		t.Fatalf("mode = %v, want move", s.Mode())
	}
}

func TestEnter_NoActiveWindowStaysIdle(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{})
	backend.activeErr = errors.New("no active window")
	s, _, gr := newTestSession(backend)

	if err := s.Enter(); err == nil {
		t.Fatal("expected enter to fail")
	}
	if s.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want idle", s.Mode())
	}
	if gr.grabbed {
		t.Fatal("grab must not be held after failed enter")
	}
}

func TestEnter_GrabFailureStaysIdle(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{Width: 300, Height: 200})
	s, hl, gr := newTestSession(backend)
	gr.grabErr = errors.New("grab failed")

	if err := s.Enter(); err == nil {
		t.Fatal("expected enter to fail")
	}
	if s.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want idle", s.Mode())
	}
	if hl.shown {
		t.Fatal("highlight must not be shown after failed enter")
	}
}

func TestHandleKey_MovesByStep(t *testing.T) {
	tests := []struct {
		name   string
		keysym uint32
		wantX  int
		wantY  int
	}{
		{"arrow right", keysymRight, 120, 200},
		{"arrow left", keysymLeft, 80, 200},
		{"arrow down", keysymDown, 100, 220},
		{"arrow up", keysymUp, 100, 180},
		{"vi l", keysyml, 120, 200},
		{"vi h", keysymh, 80, 200},
		{"vi j", keysymj, 100, 220},
		{"vi k", keysymk, 100, 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(testWindow, platform.Rect{X: 100, Y: 200, Width: 300, Height: 250})
			s, hl, _ := newTestSession(backend)
			if err := s.Enter(); err != nil {
				t.Fatalf("enter: %v", err)
			}

			s.HandleKey(tt.keysym, 0)

			got := backend.rects[testWindow]
			if got.X != tt.wantX || got.Y != tt.wantY {
				t.Fatalf("position = %d,%d, want %d,%d", got.X, got.Y, tt.wantX, tt.wantY)
			}
			if got.Width != 300 || got.Height != 250 {
				t.Fatalf("size changed on move: %dx%d", got.Width, got.Height)
			}
			if hl.lastRect != got {
				t.Fatalf("highlight rect = %+v, want %+v", hl.lastRect, got)
			}
		})
	}
}

func TestHandleKey_ShiftResizes(t *testing.T) {
	tests := []struct {
		name       string
		keysym     uint32
		wantWidth  int
		wantHeight int
	}{
		{"shift right grows width", keysymRight, 320, 250},
		{"shift left shrinks width", keysymLeft, 280, 250},
		{"shift down grows height", keysymDown, 300, 270},
		{"shift up shrinks height", keysymUp, 300, 230},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(testWindow, platform.Rect{X: 100, Y: 200, Width: 300, Height: 250})
			s, _, _ := newTestSession(backend)
			if err := s.Enter(); err != nil {
				t.Fatalf("enter: %v", err)
			}

			s.HandleKey(tt.keysym, xproto.ModMaskShift)

			got := backend.rects[testWindow]
			if got.Width != tt.wantWidth || got.Height != tt.wantHeight {
				t.Fatalf("size = %dx%d, want %dx%d", got.Width, got.Height, tt.wantWidth, tt.wantHeight)
			}
			if got.X != 100 || got.Y != 200 {
				t.Fatalf("position changed on resize: %d,%d", got.X, got.Y)
			}
		})
	}
}

func TestHandleKey_ResizeClampsToMinimum(t *testing.T) {
	// 110 - 20 = 90 which is below the floor, so the width clamps to 100.
	backend := newFakeBackend(testWindow, platform.Rect{X: 0, Y: 0, Width: 110, Height: 300})
	s, _, _ := newTestSession(backend)
	if err := s.Enter(); err != nil {
		t.Fatalf("enter: %v", err)
	}

	s.HandleKey(keysymLeft, xproto.ModMaskShift)

	got := backend.rects[testWindow]
	if got.Width != MinWindowSize {
		t.Fatalf("width = %d, want %d", got.Width, MinWindowSize)
	}

	// Already at the floor: shrinking again must not issue a resize.
	sizeCalls := backend.sizeCalls
	s.HandleKey(keysymLeft, xproto.ModMaskShift)
	if backend.sizeCalls != sizeCalls {
		t.Fatal("expected no resize when already at minimum size")
	}
}

func TestHandleKey_ExitKeys(t *testing.T) {
	exitPresses := []struct {
		name   string
		keysym uint32
		mods   uint16
	}{
		{"escape", keysymEscape, 0},
		{"return", keysymReturn, 0},
		{"kp enter", keysymKPEnter, 0},
		{"hotkey", 0x006d, xproto.ModMask4 | xproto.ModMask1},
	}
	for _, tt := range exitPresses {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(testWindow, platform.Rect{Width: 300, Height: 200})
			s, hl, gr := newTestSession(backend)
			if err := s.Enter(); err != nil {
				t.Fatalf("enter: %v", err)
			}

			s.HandleKey(tt.keysym, tt.mods)

			if s.Mode() != ModeIdle {
				t.Fatalf("mode = %v, want idle", s.Mode())
			}
			if gr.grabbed {
				t.Fatal("grab must be released on exit")
			}
			if hl.shown {
				t.Fatal("highlight must be hidden on exit")
			}
		})
	}
}

func TestHandleKey_IgnoredWhenIdle(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{X: 100, Y: 200, Width: 300, Height: 250})
	s, _, _ := newTestSession(backend)

	s.HandleKey(keysymRight, 0)

	if backend.positionCalls != 0 {
		t.Fatal("idle session must not move windows")
	}
}

func TestHandleKey_UnboundKeyIsIgnored(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{X: 100, Y: 200, Width: 300, Height: 250})
	s, _, _ := newTestSession(backend)
	if err := s.Enter(); err != nil {
		t.Fatalf("enter: %v", err)
	}

	s.HandleKey(0x0071, 0) // q

	if backend.positionCalls != 0 || backend.sizeCalls != 0 {
		t.Fatal("unbound key must not change geometry")
	}
	if s.Mode() != ModeMove {
		t.Fatalf("mode = %v, want move", s.Mode())
	}
}

func TestHandleKey_GeometryErrorKeepsModeAlive(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{X: 100, Y: 200, Width: 300, Height: 250})
	s, _, _ := newTestSession(backend)
	if err := s.Enter(); err != nil {
		t.Fatalf("enter: %v", err)
	}

	backend.geomErr = errors.New("window destroyed")
	s.HandleKey(keysymRight, 0)

	if backend.positionCalls != 0 {
		t.Fatal("move must be skipped when geometry read fails")
	}
	if s.Mode() != ModeMove {
		t.Fatalf("mode = %v, want move", s.Mode())
	}

	// The accessor recovers; the next press works again.
	backend.geomErr = nil
	s.HandleKey(keysymRight, 0)
	if got := backend.rects[testWindow].X; got != 120 {
		t.Fatalf("x = %d, want 120", got)
	}
}

func TestCancel_OnFocusChange(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{Width: 300, Height: 200})
	s, hl, gr := newTestSession(backend)
	if err := s.Enter(); err != nil {
		t.Fatalf("enter: %v", err)
	}

	// Focus reported for the target itself is ignored.
	s.Cancel(testWindow)
	if s.Mode() != ModeMove {
		t.Fatalf("mode = %v, want move after self-focus", s.Mode())
	}

	// Focus moving elsewhere cancels.
	s.Cancel(0x99)
	if s.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want idle", s.Mode())
	}
	if gr.grabbed || hl.shown {
		t.Fatal("cancel must release grab and hide highlight")
	}

	// A stray key after cancellation does nothing.
	s.HandleKey(keysymRight, 0)
	if backend.positionCalls != 0 {
		t.Fatal("key after cancel must not move windows")
	}
}

func TestCancel_WhenIdleIsNoop(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{Width: 300, Height: 200})
	s, _, _ := newTestSession(backend)

	s.Cancel(0x99)

	if s.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want idle", s.Mode())
	}
}

func TestExternalMoveBetweenPressesIsRespected(t *testing.T) {
	backend := newFakeBackend(testWindow, platform.Rect{X: 100, Y: 200, Width: 300, Height: 250})
	s, _, _ := newTestSession(backend)
	if err := s.Enter(); err != nil {
		t.Fatalf("enter: %v", err)
	}

	// Something else moves the window while move mode is active.
	backend.rects[testWindow] = platform.Rect{X: 500, Y: 600, Width: 300, Height: 250}

	s.HandleKey(keysymRight, 0)

	got := backend.rects[testWindow]
	if got.X != 520 || got.Y != 600 {
		t.Fatalf("position = %d,%d, want 520,600 (relative to fresh geometry)", got.X, got.Y)
	}
}
