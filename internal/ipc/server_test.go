package ipc

import (
	"testing"

	"github.com/1broseidon/nudge/internal/config"
	"github.com/1broseidon/nudge/internal/movemode"
	"github.com/1broseidon/nudge/internal/platform"
)

type stubBackend struct{}

func (stubBackend) ActiveWindow() (platform.WindowID, error) { return 0x42, nil }
func (stubBackend) Geometry(platform.WindowID) (platform.Rect, error) {
	return platform.Rect{X: 10, Y: 20, Width: 300, Height: 200}, nil
}
func (stubBackend) SetPosition(platform.WindowID, int, int) error { return nil }
func (stubBackend) SetSize(platform.WindowID, int, int) error     { return nil }
func (stubBackend) Bell() error                                   { return nil }

func startTestServer(t *testing.T) (*Server, *movemode.Session) {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	session := movemode.NewSession(stubBackend{}, movemode.Options{})
	srv, err := NewServer(config.DefaultConfig(), session, make(chan struct{}, 1))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, session
}

func TestGetStatus_Roundtrip(t *testing.T) {
	startTestServer(t)

	status, err := NewClient().GetStatus()
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if !status.DaemonRunning {
		t.Fatal("expected daemon_running true")
	}
	if status.Mode != "idle" {
		t.Fatalf("mode = %q, want idle", status.Mode)
	}
	if status.Hotkey != config.DefaultConfig().Hotkey {
		t.Fatalf("hotkey = %q, want default", status.Hotkey)
	}
}

func TestToggleAndCancel_Roundtrip(t *testing.T) {
	_, session := startTestServer(t)
	client := NewClient()

	status, err := client.Toggle()
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if status.Mode != "move" {
		t.Fatalf("mode after toggle = %q, want move", status.Mode)
	}
	if status.TargetWindow != 0x42 {
		t.Fatalf("target = %#x, want 0x42", status.TargetWindow)
	}
	if session.Mode() != movemode.ModeMove {
		t.Fatalf("session mode = %v, want move", session.Mode())
	}

	if err := client.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if session.Mode() != movemode.ModeIdle {
		t.Fatalf("session mode = %v, want idle", session.Mode())
	}

	// Cancel while idle is a no-op, not an error.
	if err := client.Cancel(); err != nil {
		t.Fatalf("cancel while idle: %v", err)
	}
}

func TestPing_DetectsRunningDaemon(t *testing.T) {
	srv, _ := startTestServer(t)

	client := NewClient()
	if err := client.Ping(); err != nil {
		t.Fatalf("ping with server up: %v", err)
	}

	srv.Stop()
	if err := client.Ping(); err == nil {
		t.Fatal("expected ping to fail after server stop")
	}
}

func TestUnknownCommand_ReturnsError(t *testing.T) {
	startTestServer(t)

	client := NewClient()
	_, err := client.sendRequest(&Request{Command: "BOGUS"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}
