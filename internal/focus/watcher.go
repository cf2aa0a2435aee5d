package focus

import (
	"fmt"
	"log"

	"github.com/1broseidon/nudge/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Canceller is notified when focus moves to a new window. Implemented by
// the move mode session.
type Canceller interface {
	Cancel(newActive platform.WindowID)
}

// Watcher cancels move mode when the focused window changes. It watches
// _NET_ACTIVE_WINDOW on the root window, which EWMH window managers update
// on every focus change.
type Watcher struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	activeAtom xproto.Atom
	canceller  Canceller
}

// NewWatcher creates a focus watcher. Watch must be called to start it.
func NewWatcher(xu *xgbutil.XUtil, root xproto.Window, canceller Canceller) *Watcher {
	return &Watcher{
		xu:        xu,
		root:      root,
		canceller: canceller,
	}
}

// Watch subscribes to root property changes and starts delivering focus
// changes to the canceller. Events arrive on the X event loop goroutine.
func (w *Watcher) Watch() error {
	atom, err := xprop.Atm(w.xu, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}
	w.activeAtom = atom

	if err := xwindow.New(w.xu, w.root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to listen for root property changes: %w", err)
	}

	xevent.PropertyNotifyFun(w.handlePropertyNotify).Connect(w.xu, w.root)
	return nil
}

func (w *Watcher) handlePropertyNotify(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	if ev.Atom != w.activeAtom {
		return
	}

	active, err := ewmh.ActiveWindowGet(xu)
	if err != nil {
		// Transient read failure; the next property change tries again.
		log.Printf("Focus watcher: failed to read active window: %v", err)
		return
	}

	w.canceller.Cancel(platform.WindowID(active))
}
