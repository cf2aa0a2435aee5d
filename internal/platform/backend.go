package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a window's position and size in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Backend abstracts the window-system operations the daemon needs: resolving
// the focused window and reading/writing its geometry. Every call may fail
// (stale handle, destroyed window, uncooperative window manager); callers are
// expected to treat failures as skippable, not fatal.
type Backend interface {
	ActiveWindow() (WindowID, error)
	Geometry(windowID WindowID) (Rect, error)
	SetPosition(windowID WindowID, x, y int) error
	SetSize(windowID WindowID, width, height int) error
	Bell() error
}
