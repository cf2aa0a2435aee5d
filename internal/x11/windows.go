package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// GetActiveWindow returns the window currently holding focus per _NET_ACTIVE_WINDOW.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// WindowGeometry returns a window's position in root coordinates and its size.
// Position comes from TranslateCoordinates because GetGeometry reports
// coordinates relative to the window's (possibly reparented) parent.
func (c *Connection) WindowGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	conn := c.XUtil.Conn()

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := xproto.TranslateCoordinates(conn, windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// MoveWindow repositions a window without touching its size.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	// Maximized windows ignore configure requests on many WMs; drop the
	// maximized state first so the move takes effect.
	if err := c.unmaximizeWindow(windowID); err != nil {
		// Some windows might not support this.
	}

	win := xwindow.New(c.XUtil, windowID)
	win.Move(x, y)
	return nil
}

// ResizeWindow changes a window's size without touching its position.
func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) error {
	if err := c.unmaximizeWindow(windowID); err != nil {
		// Some windows might not support this.
	}

	win := xwindow.New(c.XUtil, windowID)
	win.Resize(width, height)
	return nil
}

// Bell rings the keyboard bell at default volume.
func (c *Connection) Bell() error {
	return xproto.BellChecked(c.XUtil.Conn(), 0).Check()
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) error {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return err
	}

	hasMaxH := false
	hasMaxV := false
	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" {
			hasMaxH = true
		}
		if state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			hasMaxV = true
		}
	}

	if hasMaxH {
		ewmh.WmStateReq(c.XUtil, windowID, 0, "_NET_WM_STATE_MAXIMIZED_HORZ")
	}
	if hasMaxV {
		ewmh.WmStateReq(c.XUtil, windowID, 0, "_NET_WM_STATE_MAXIMIZED_VERT")
	}

	return nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}
	return isMovableWindowType(types)
}

// isMovableWindowType classifies a _NET_WM_WINDOW_TYPE value list. Windows
// with no type set are treated as normal, per EWMH.
func isMovableWindowType(types []string) bool {
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Reject desktop, dock, splash, etc.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	return len(types) == 0
}
