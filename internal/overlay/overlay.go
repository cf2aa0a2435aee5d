package overlay

import (
	"github.com/1broseidon/nudge/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Defaults used when the config leaves the highlight section empty.
const (
	DefaultColor     = 0xff0000
	DefaultThickness = 4
)

// Border represents a rectangular highlight made of 4 thin windows drawn
// around the move-mode target. The windows are override-redirect so the
// window manager never decorates or reparents them.
type Border struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	color     uint32
	thickness int

	top     xproto.Window
	bottom  xproto.Window
	left    xproto.Window
	right   xproto.Window
	created bool
	mapped  bool
}

// NewBorder creates a border highlight. Windows are created lazily on the
// first Show call.
func NewBorder(xu *xgbutil.XUtil, root xproto.Window, color uint32, thickness int) *Border {
	if thickness < 1 {
		thickness = DefaultThickness
	}
	return &Border{
		xu:        xu,
		root:      root,
		color:     color,
		thickness: thickness,
	}
}

// SetStyle updates the border color and thickness. Takes effect on the
// next Show.
func (b *Border) SetStyle(color uint32, thickness int) {
	if thickness < 1 {
		thickness = DefaultThickness
	}
	b.color = color
	b.thickness = thickness
}

// Show draws the border around the given rectangle, creating the overlay
// windows on first use.
func (b *Border) Show(rect platform.Rect) error {
	if !b.created {
		if err := b.createWindows(); err != nil {
			return err
		}
	}

	conn := b.xu.Conn()
	for _, bar := range borderBars(rect, b.thickness) {
		b.updateWindow(bar.win(b), bar.rect)
	}

	xproto.MapWindow(conn, b.top)
	xproto.MapWindow(conn, b.bottom)
	xproto.MapWindow(conn, b.left)
	xproto.MapWindow(conn, b.right)

	b.mapped = true
	return nil
}

// Hide unmaps the border windows without destroying them.
func (b *Border) Hide() {
	if !b.mapped {
		return
	}

	conn := b.xu.Conn()
	xproto.UnmapWindow(conn, b.top)
	xproto.UnmapWindow(conn, b.bottom)
	xproto.UnmapWindow(conn, b.left)
	xproto.UnmapWindow(conn, b.right)

	b.mapped = false
}

// Cleanup destroys the border windows.
func (b *Border) Cleanup() {
	conn := b.xu.Conn()
	for _, wid := range []xproto.Window{b.top, b.bottom, b.left, b.right} {
		if wid != 0 {
			xproto.DestroyWindow(conn, wid)
		}
	}

	b.top = 0
	b.bottom = 0
	b.left = 0
	b.right = 0
	b.created = false
	b.mapped = false
}

type barSide int

const (
	sideTop barSide = iota
	sideBottom
	sideLeft
	sideRight
)

type bar struct {
	side barSide
	rect platform.Rect
}

func (br bar) win(b *Border) xproto.Window {
	switch br.side {
	case sideTop:
		return b.top
	case sideBottom:
		return b.bottom
	case sideLeft:
		return b.left
	default:
		return b.right
	}
}

// borderBars computes the four bar rectangles for a border of the given
// thickness around rect. The side bars sit between the top and bottom bars
// so corners are not drawn twice.
func borderBars(rect platform.Rect, thickness int) [4]bar {
	x, y := rect.X, rect.Y
	w, h := rect.Width, rect.Height
	t := thickness

	return [4]bar{
		{sideTop, platform.Rect{X: x, Y: y, Width: w, Height: t}},
		{sideBottom, platform.Rect{X: x, Y: y + h - t, Width: w, Height: t}},
		{sideLeft, platform.Rect{X: x, Y: y + t, Width: t, Height: h - 2*t}},
		{sideRight, platform.Rect{X: x + w - t, Y: y + t, Width: t, Height: h - 2*t}},
	}
}

// createWindows creates the 4 border windows.
func (b *Border) createWindows() error {
	var err error

	if b.top, err = b.createOverrideRedirectWindow(); err != nil {
		return err
	}
	if b.bottom, err = b.createOverrideRedirectWindow(); err != nil {
		return err
	}
	if b.left, err = b.createOverrideRedirectWindow(); err != nil {
		return err
	}
	if b.right, err = b.createOverrideRedirectWindow(); err != nil {
		return err
	}

	b.created = true
	return nil
}

// createOverrideRedirectWindow creates a single override-redirect window
func (b *Border) createOverrideRedirectWindow() (xproto.Window, error) {
	conn := b.xu.Conn()
	screen := b.xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	// Create window with override_redirect=true
	// This makes it bypass the window manager
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		b.root,
		0, 0, // x, y (will be updated later)
		1, 1, // width, height (will be updated later)
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwOverrideRedirect|xproto.CwBackPixel,
		// Value list order follows the bit positions of the mask (low -> high).
		// CwBackPixel comes before CwOverrideRedirect, so it must be first.
		[]uint32{0, 1}, // back_pixel=black, override_redirect=true
	).Check()

	if err != nil {
		return 0, err
	}

	return wid, nil
}

// updateWindow moves, resizes, and recolors a window
func (b *Border) updateWindow(wid xproto.Window, rect platform.Rect) {
	conn := b.xu.Conn()

	width, height := rect.Width, rect.Height
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	xproto.ConfigureWindow(
		conn,
		wid,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(rect.X),
			uint32(rect.Y),
			uint32(width),
			uint32(height),
			xproto.StackModeAbove, // Keep on top
		},
	)

	xproto.ChangeWindowAttributes(
		conn,
		wid,
		xproto.CwBackPixel,
		[]uint32{b.color},
	)

	// Clear window to show new color
	xproto.ClearArea(conn, false, wid, 0, 0, 0, 0)
}
