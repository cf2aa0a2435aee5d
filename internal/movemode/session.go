package movemode

import (
	"log"
	"sync"
	"time"

	"github.com/1broseidon/nudge/internal/actionlog"
	"github.com/1broseidon/nudge/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
)

// DefaultTimeout is the move mode auto-exit timeout in seconds.
const DefaultTimeout = 10

// Highlighter draws attention to the move-mode target window.
type Highlighter interface {
	Show(rect platform.Rect) error
	Hide()
}

// KeyboardGrabber owns the full keyboard grab that routes every key press
// to the session while move mode is active. Outside move mode no grab is
// held and keys flow to applications untouched.
type KeyboardGrabber interface {
	Grab() error
	Ungrab()
}

// Options configures a move mode session.
type Options struct {
	Hotkey         Hotkey
	TimeoutSeconds int
	Bell           bool
	Highlighter    Highlighter
	Grabber        KeyboardGrabber
	Actions        *actionlog.Logger
}

// Session is the move mode controller. A single session serializes all
// state transitions behind one mutex: hotkey presses, grabbed key events,
// focus changes, timeouts, and IPC commands all funnel through it.
type Session struct {
	mu      sync.Mutex
	backend platform.Backend

	hotkey      Hotkey
	bell        bool
	highlighter Highlighter
	grabber     KeyboardGrabber
	actions     *actionlog.Logger

	mode            Mode
	target          platform.WindowID
	timeout         *time.Timer
	timeoutDuration time.Duration
}

// NewSession creates a new move mode session controller.
func NewSession(backend platform.Backend, opts Options) *Session {
	timeout := DefaultTimeout
	if opts.TimeoutSeconds > 0 {
		timeout = opts.TimeoutSeconds
	}

	return &Session{
		backend:         backend,
		hotkey:          opts.Hotkey,
		bell:            opts.Bell,
		highlighter:     opts.Highlighter,
		grabber:         opts.Grabber,
		actions:         opts.Actions,
		mode:            ModeIdle,
		timeoutDuration: time.Duration(timeout) * time.Second,
	}
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// TargetWindow returns the window being moved, or 0 when idle.
func (s *Session) TargetWindow() platform.WindowID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Toggle flips between idle and move mode. This is the global hotkey entry
// point; it is also reachable over IPC.
func (s *Session) Toggle() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeMove {
		s.exitLocked(actionlog.ActionExitMove, "hotkey")
		return nil
	}
	return s.enterLocked()
}

// Enter activates move mode against the currently focused window. Entering
// while already active is a no-op.
func (s *Session) Enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeMove {
		return nil
	}
	return s.enterLocked()
}

func (s *Session) enterLocked() error {
	target, err := s.backend.ActiveWindow()
	if err != nil {
		log.Printf("Move mode: no usable target window: %v", err)
		return err
	}

	if s.grabber != nil {
		if err := s.grabber.Grab(); err != nil {
			log.Printf("Move mode: failed to grab keyboard: %v", err)
			return err
		}
	}

	s.mode = ModeMove
	s.target = target

	s.showHighlightLocked()
	if s.bell {
		if err := s.backend.Bell(); err != nil {
			log.Printf("Move mode: bell failed: %v", err)
		}
	}
	s.startTimeoutLocked()

	s.actions.Log(actionlog.ActionEnterMove, uint32(target), nil)
	log.Printf("Move mode: entered, target window %d", target)
	return nil
}

// Exit deactivates move mode. Exiting while idle is a no-op.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeIdle {
		return
	}
	s.exitLocked(actionlog.ActionExitMove, "request")
}

// Cancel deactivates move mode because focus moved to another window. A
// focus event for the target itself (e.g. the report generated by entering
// move mode) is ignored.
func (s *Session) Cancel(newActive platform.WindowID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeIdle || newActive == s.target {
		return
	}
	s.exitLocked(actionlog.ActionCancelMove, "focus-change")
}

func (s *Session) exitLocked(action actionlog.ActionType, reason string) {
	if s.timeout != nil {
		s.timeout.Stop()
		s.timeout = nil
	}

	if s.grabber != nil {
		s.grabber.Ungrab()
	}
	if s.highlighter != nil {
		s.highlighter.Hide()
	}

	target := s.target
	s.mode = ModeIdle
	s.target = 0

	s.actions.Log(action, uint32(target), map[string]interface{}{"reason": reason})
	log.Printf("Move mode: exited (%s)", reason)
}

// HandleKey processes a key press delivered through the keyboard grab.
// It only does anything in move mode; unrecognized keys are swallowed by
// the grab and ignored here.
func (s *Session) HandleKey(keysym uint32, mods uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeMove {
		return
	}

	switch {
	case s.hotkey.Matches(keysym, mods):
		s.exitLocked(actionlog.ActionExitMove, "hotkey")
	case isConfirmKeysym(keysym):
		s.exitLocked(actionlog.ActionExitMove, "key")
	default:
		dir, ok := DirectionForKeysym(keysym)
		if !ok {
			return
		}
		s.startTimeoutLocked()
		if mods&xproto.ModMaskShift != 0 {
			s.applyResizeLocked(dir)
		} else {
			s.applyMoveLocked(dir)
		}
	}
}

// applyMoveLocked nudges the target window one step in the given direction.
// Geometry is re-read on every press so external moves between presses are
// respected.
func (s *Session) applyMoveLocked(dir Direction) {
	rect, err := s.backend.Geometry(s.target)
	if err != nil {
		// Window may be gone or the WM is busy; keep the mode alive and
		// let the next press retry.
		log.Printf("Move mode: failed to read geometry: %v", err)
		return
	}

	dx, dy := dir.Delta()
	newX := rect.X + dx*MoveStep
	newY := rect.Y + dy*MoveStep

	if err := s.backend.SetPosition(s.target, newX, newY); err != nil {
		log.Printf("Move mode: failed to move window: %v", err)
		return
	}

	rect.X = newX
	rect.Y = newY
	s.updateHighlightLocked(rect)

	s.actions.Log(actionlog.ActionMove, uint32(s.target), map[string]interface{}{
		"dir": dir.String(),
		"x":   newX,
		"y":   newY,
	})
}

// applyResizeLocked grows or shrinks the target window one step. Width
// follows left/right, height follows up/down, and neither dimension drops
// below MinWindowSize.
func (s *Session) applyResizeLocked(dir Direction) {
	rect, err := s.backend.Geometry(s.target)
	if err != nil {
		log.Printf("Move mode: failed to read geometry: %v", err)
		return
	}

	dw, dh := dir.Delta()
	newW := rect.Width + dw*MoveStep
	newH := rect.Height + dh*MoveStep
	if newW < MinWindowSize {
		newW = MinWindowSize
	}
	if newH < MinWindowSize {
		newH = MinWindowSize
	}

	if newW == rect.Width && newH == rect.Height {
		return
	}

	if err := s.backend.SetSize(s.target, newW, newH); err != nil {
		log.Printf("Move mode: failed to resize window: %v", err)
		return
	}

	rect.Width = newW
	rect.Height = newH
	s.updateHighlightLocked(rect)

	s.actions.Log(actionlog.ActionResize, uint32(s.target), map[string]interface{}{
		"dir":    dir.String(),
		"width":  newW,
		"height": newH,
	})
}

func (s *Session) showHighlightLocked() {
	if s.highlighter == nil {
		return
	}
	rect, err := s.backend.Geometry(s.target)
	if err != nil {
		log.Printf("Move mode: failed to read geometry for highlight: %v", err)
		return
	}
	if err := s.highlighter.Show(rect); err != nil {
		log.Printf("Move mode: failed to show highlight: %v", err)
	}
}

func (s *Session) updateHighlightLocked(rect platform.Rect) {
	if s.highlighter == nil {
		return
	}
	if err := s.highlighter.Show(rect); err != nil {
		log.Printf("Move mode: failed to update highlight: %v", err)
	}
}

// startTimeoutLocked starts or resets the auto-exit timeout.
func (s *Session) startTimeoutLocked() {
	if s.timeoutDuration <= 0 {
		return
	}
	if s.timeout != nil {
		s.timeout.Stop()
	}

	s.timeout = time.AfterFunc(s.timeoutDuration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.mode == ModeMove {
			log.Println("Move mode: timeout - auto-exiting")
			s.exitLocked(actionlog.ActionTimeout, "timeout")
		}
	})
}

// UpdateOptions applies a reloaded configuration to a running session.
// The mode and target are untouched; only tunables change.
func (s *Session) UpdateOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hotkey = opts.Hotkey
	s.bell = opts.Bell
	if opts.Highlighter != nil {
		s.highlighter = opts.Highlighter
	}
	if opts.Actions != nil {
		s.actions = opts.Actions
	}

	timeout := DefaultTimeout
	if opts.TimeoutSeconds > 0 {
		timeout = opts.TimeoutSeconds
	}
	s.timeoutDuration = time.Duration(timeout) * time.Second
}
