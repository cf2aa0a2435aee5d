package mcp

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Mode          string `json:"mode"`
	TargetWindow  uint32 `json:"target_window,omitempty"`
	Hotkey        string `json:"hotkey"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// ToggleMoveModeInput is the input for the toggle_move_mode tool.
type ToggleMoveModeInput struct{}

// ToggleMoveModeOutput is the output for the toggle_move_mode tool.
type ToggleMoveModeOutput struct {
	Mode         string `json:"mode"`
	TargetWindow uint32 `json:"target_window,omitempty"`
}

// CancelMoveModeInput is the input for the cancel_move_mode tool.
type CancelMoveModeInput struct{}

// CancelMoveModeOutput is the output for the cancel_move_mode tool.
type CancelMoveModeOutput struct {
	Cancelled bool `json:"cancelled"`
}

// NudgeWindowInput is the input for the nudge_window tool.
type NudgeWindowInput struct {
	Window uint32 `json:"window,omitempty" jsonschema:"X11 window ID to move (default: the currently focused window)"`
	DX     int    `json:"dx,omitempty" jsonschema:"Horizontal offset in pixels; positive moves right"`
	DY     int    `json:"dy,omitempty" jsonschema:"Vertical offset in pixels; positive moves down"`
}

// NudgeWindowOutput is the output for the nudge_window tool.
type NudgeWindowOutput struct {
	Window uint32 `json:"window"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// ResizeWindowInput is the input for the resize_window tool.
type ResizeWindowInput struct {
	Window uint32 `json:"window,omitempty" jsonschema:"X11 window ID to resize (default: the currently focused window)"`
	DW     int    `json:"dw,omitempty" jsonschema:"Width delta in pixels; positive grows the window"`
	DH     int    `json:"dh,omitempty" jsonschema:"Height delta in pixels; positive grows the window"`
}

// ResizeWindowOutput is the output for the resize_window tool.
type ResizeWindowOutput struct {
	Window uint32 `json:"window"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
