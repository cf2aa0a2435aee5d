package hook

import (
	"fmt"
	"log"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Session receives key events from the hook. Implemented by the move mode
// session controller.
type Session interface {
	Toggle() error
	HandleKey(keysym uint32, mods uint16)
}

// Keyboard owns both halves of keyboard interception: the passive global
// hotkey grab that fires while idle, and the full keyboard grab that
// swallows every key press while move mode is active.
type Keyboard struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	session Session

	grabWindow         xproto.Window
	keyHandlerAttached bool
}

var ignoreModsOnce sync.Once

// NewKeyboard creates a keyboard hook bound to the given X connection.
func NewKeyboard(xu *xgbutil.XUtil, root xproto.Window) *Keyboard {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Keyboard{
		xu:   xu,
		root: root,
	}
}

// SetSession sets the key event consumer.
func (k *Keyboard) SetSession(s Session) {
	k.session = s
}

// RegisterToggle registers the global move mode toggle hotkey. Only the
// toggle is registered as a passive grab; every other key reaches
// applications untouched while idle. Directional keys are handled via the
// full keyboard grab once move mode is active.
func (k *Keyboard) RegisterToggle(keySequence string) error {
	if k.session == nil {
		return fmt.Errorf("no session set")
	}

	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		if err := k.session.Toggle(); err != nil {
			log.Printf("Failed to toggle move mode: %v", err)
		}
	}).Connect(k.xu, k.root, keySequence, true)
	if err != nil {
		return fmt.Errorf("failed to register hotkey %q: %w", keySequence, err)
	}
	return nil
}

// UnregisterAll drops every passive hotkey grab held by this connection.
// Used during config reload before re-registering the new hotkey.
func (k *Keyboard) UnregisterAll() {
	keybind.Detach(k.xu, k.root)
}

// Grab takes the full keyboard grab and routes key events to the session.
// Implements the session's KeyboardGrabber.
func (k *Keyboard) Grab() error {
	xu := k.xu
	if err := k.ensureGrabWindow(); err != nil {
		return err
	}

	grab := func() (*xproto.GrabKeyboardReply, error) {
		cookie := xproto.GrabKeyboard(
			xu.Conn(),
			false,                  // owner_events (report events to grab_window)
			k.root,                 // grab_window (must be viewable)
			xproto.TimeCurrentTime, // time
			xproto.GrabModeAsync,   // pointer_mode
			xproto.GrabModeAsync,   // keyboard_mode
		)
		return cookie.Reply()
	}

	reply, err := grab()
	if err != nil {
		return err
	}

	// When move mode is entered from a globally grabbed hotkey, the keyboard
	// may already be grabbed by this client. If so, ungrab and retry.
	if reply.Status == xproto.GrabStatusAlreadyGrabbed {
		xproto.UngrabKeyboard(xu.Conn(), xproto.TimeCurrentTime)
		reply, err = grab()
		if err != nil {
			return err
		}
	}

	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("keyboard grab failed with status %d", reply.Status)
	}

	// Redirect all key events to our grab window while move mode is active.
	xevent.RedirectKeyEvents(xu, k.grabWindow)

	// Connect key press handler on our dedicated window (safe to detach later).
	if !k.keyHandlerAttached {
		xevent.KeyPressFun(k.handleKeyPress).Connect(xu, k.grabWindow)
		k.keyHandlerAttached = true
	}

	log.Println("Keyboard grabbed")
	return nil
}

// Ungrab releases the full keyboard grab.
func (k *Keyboard) Ungrab() {
	xu := k.xu

	xproto.UngrabKeyboard(xu.Conn(), xproto.TimeCurrentTime)

	// Stop redirecting key events.
	xevent.RedirectKeyEvents(xu, 0)

	// Detach key press handler from our dedicated grab window.
	if k.keyHandlerAttached && k.grabWindow != 0 {
		xevent.Detach(xu, k.grabWindow)
		k.keyHandlerAttached = false
	}

	log.Println("Keyboard released")
}

func (k *Keyboard) ensureGrabWindow() error {
	if k.grabWindow != 0 {
		return nil
	}

	conn := k.xu.Conn()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return err
	}

	// InputOnly window that never draws anything; used solely as a safe
	// target for key event callbacks while the keyboard is grabbed.
	err = xproto.CreateWindowChecked(
		conn,
		0, // depth (must be 0 for InputOnly)
		wid,
		k.root,
		0, 0, // x, y
		1, 1, // width, height
		0, // border_width
		xproto.WindowClassInputOnly,
		xproto.Visualid(0), // CopyFromParent
		xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskKeyPress)},
	).Check()
	if err != nil {
		return err
	}

	xproto.MapWindow(conn, wid)

	k.grabWindow = wid
	return nil
}

// handleKeyPress forwards grabbed key presses to the session. Column 0
// yields the unshifted keysym; the shift state travels in the modifier
// mask instead.
func (k *Keyboard) handleKeyPress(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
	if k.session == nil {
		return
	}
	keysym := keybind.KeysymGet(xu, ev.Detail, 0)
	k.session.HandleKey(uint32(keysym), ev.State)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
