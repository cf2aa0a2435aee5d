package movemode

// Mode represents the current key-handling mode of the daemon
type Mode int

const (
	// ModeIdle means move mode is not active and keys pass through
	ModeIdle Mode = iota
	// ModeMove means a window is targeted and directional keys move/resize it
	ModeMove
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeMove:
		return "move"
	default:
		return "unknown"
	}
}

// Direction represents a directional key press
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// String returns the string representation of the direction
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}

// Delta returns the unit x/y offsets for the direction. Positive x is
// rightward, positive y is downward (X11 screen coordinates).
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	default:
		return 0, 0
	}
}
