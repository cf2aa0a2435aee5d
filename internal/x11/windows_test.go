package x11

import "testing"

func TestIsMovableWindowType(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  bool
	}{
		{"normal", []string{"_NET_WM_WINDOW_TYPE_NORMAL"}, true},
		{"no type set", nil, true},
		{"desktop", []string{"_NET_WM_WINDOW_TYPE_DESKTOP"}, false},
		{"dock", []string{"_NET_WM_WINDOW_TYPE_DOCK"}, false},
		{"splash", []string{"_NET_WM_WINDOW_TYPE_SPLASH"}, false},
		{"notification", []string{"_NET_WM_WINDOW_TYPE_NOTIFICATION"}, false},
		{"normal listed first wins", []string{"_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DOCK"}, true},
		{"dock listed first wins", []string{"_NET_WM_WINDOW_TYPE_DOCK", "_NET_WM_WINDOW_TYPE_NORMAL"}, false},
		{"unrecognized type only", []string{"_NET_WM_WINDOW_TYPE_DIALOG"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isMovableWindowType(tt.types); got != tt.want {
				t.Errorf("isMovableWindowType(%v) = %v, want %v", tt.types, got, tt.want)
			}
		})
	}
}
