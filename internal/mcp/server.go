package mcp

import (
	"context"
	"fmt"
	"log"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/nudge/internal/actionlog"
	"github.com/1broseidon/nudge/internal/config"
	"github.com/1broseidon/nudge/internal/ipc"
	"github.com/1broseidon/nudge/internal/movemode"
	"github.com/1broseidon/nudge/internal/platform"
)

const (
	ServerName    = "nudge"
	ServerVersion = "0.1.0"
)

// Server is the MCP server exposing window nudging to AI agents.
//
// Mode-related tools (get_status, toggle_move_mode, cancel_move_mode) proxy
// to the running daemon over IPC. The direct manipulation tools
// (nudge_window, resize_window) open their own X connection so they work
// with or without the daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	client    *ipc.Client
	logger    *actionlog.Logger

	backendMu sync.Mutex
	backend   platform.Backend
}

// NewServer creates a new MCP server.
func NewServer(cfg *config.Config) (*Server, error) {
	logCfg := cfg.GetLoggingConfig()
	var logger *actionlog.Logger
	if logCfg.Enabled {
		var err error
		logger, err = actionlog.NewLogger(actionlog.LogConfig{
			Enabled:   logCfg.Enabled,
			Level:     actionlog.ParseLogLevel(logCfg.Level),
			FilePath:  logCfg.File,
			MaxSizeMB: logCfg.MaxSizeMB,
			MaxFiles:  logCfg.MaxFiles,
		})
		if err != nil {
			log.Printf("Warning: failed to initialize MCP logger: %v", err)
			logger = nil
		}
	}

	s := &Server{
		config: cfg,
		client: ipc.NewClient(),
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases server resources.
func (s *Server) Close() error {
	s.backendMu.Lock()
	if b, ok := s.backend.(*platform.LinuxBackend); ok && b != nil {
		b.Disconnect()
	}
	s.backend = nil
	s.backendMu.Unlock()

	if s.logger == nil {
		return nil
	}
	return s.logger.Close()
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Get the nudge daemon status: current mode (idle or move), the targeted window if any, the configured hotkey, and uptime. Requires the daemon to be running.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_move_mode",
		Description: "Toggle move mode on the running daemon, same as pressing the global hotkey. Entering targets the currently focused window; exiting leaves the window where it is.",
	}, s.handleToggleMoveMode)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cancel_move_mode",
		Description: "Exit move mode on the running daemon if it is active. A no-op when the daemon is idle.",
	}, s.handleCancelMoveMode)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "nudge_window",
		Description: "Move a window by a pixel offset. Defaults to the currently focused window. Works directly against the X server; the daemon does not need to be running.",
	}, s.handleNudgeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_window",
		Description: "Resize a window by a pixel delta. Defaults to the currently focused window. Neither dimension will shrink below 100 pixels. Works directly against the X server; the daemon does not need to be running.",
	}, s.handleResizeWindow)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}

	return nil, GetStatusOutput{
		Mode:          status.Mode,
		TargetWindow:  status.TargetWindow,
		Hotkey:        status.Hotkey,
		UptimeSeconds: status.UptimeSeconds,
		DaemonRunning: status.DaemonRunning,
	}, nil
}

func (s *Server) handleToggleMoveMode(_ context.Context, _ *mcpsdk.CallToolRequest, _ ToggleMoveModeInput) (*mcpsdk.CallToolResult, ToggleMoveModeOutput, error) {
	status, err := s.client.Toggle()
	if err != nil {
		return nil, ToggleMoveModeOutput{}, err
	}

	return nil, ToggleMoveModeOutput{
		Mode:         status.Mode,
		TargetWindow: status.TargetWindow,
	}, nil
}

func (s *Server) handleCancelMoveMode(_ context.Context, _ *mcpsdk.CallToolRequest, _ CancelMoveModeInput) (*mcpsdk.CallToolResult, CancelMoveModeOutput, error) {
	if err := s.client.Cancel(); err != nil {
		return nil, CancelMoveModeOutput{}, err
	}
	return nil, CancelMoveModeOutput{Cancelled: true}, nil
}

func (s *Server) handleNudgeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args NudgeWindowInput) (*mcpsdk.CallToolResult, NudgeWindowOutput, error) {
	backend, err := s.getBackend()
	if err != nil {
		return nil, NudgeWindowOutput{}, err
	}

	window, err := s.resolveWindow(backend, args.Window)
	if err != nil {
		return nil, NudgeWindowOutput{}, err
	}

	rect, err := backend.Geometry(window)
	if err != nil {
		return nil, NudgeWindowOutput{}, fmt.Errorf("failed to read window geometry: %w", err)
	}

	newX := rect.X + args.DX
	newY := rect.Y + args.DY
	if err := backend.SetPosition(window, newX, newY); err != nil {
		return nil, NudgeWindowOutput{}, fmt.Errorf("failed to move window: %w", err)
	}

	s.logger.Log(actionlog.ActionMove, uint32(window), map[string]interface{}{
		"dx":  args.DX,
		"dy":  args.DY,
		"via": "mcp",
	})

	return nil, NudgeWindowOutput{
		Window: uint32(window),
		X:      newX,
		Y:      newY,
	}, nil
}

func (s *Server) handleResizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeWindowInput) (*mcpsdk.CallToolResult, ResizeWindowOutput, error) {
	backend, err := s.getBackend()
	if err != nil {
		return nil, ResizeWindowOutput{}, err
	}

	window, err := s.resolveWindow(backend, args.Window)
	if err != nil {
		return nil, ResizeWindowOutput{}, err
	}

	rect, err := backend.Geometry(window)
	if err != nil {
		return nil, ResizeWindowOutput{}, fmt.Errorf("failed to read window geometry: %w", err)
	}

	newW := rect.Width + args.DW
	newH := rect.Height + args.DH
	if newW < movemode.MinWindowSize {
		newW = movemode.MinWindowSize
	}
	if newH < movemode.MinWindowSize {
		newH = movemode.MinWindowSize
	}

	if err := backend.SetSize(window, newW, newH); err != nil {
		return nil, ResizeWindowOutput{}, fmt.Errorf("failed to resize window: %w", err)
	}

	s.logger.Log(actionlog.ActionResize, uint32(window), map[string]interface{}{
		"dw":  args.DW,
		"dh":  args.DH,
		"via": "mcp",
	})

	return nil, ResizeWindowOutput{
		Window: uint32(window),
		Width:  newW,
		Height: newH,
	}, nil
}

func (s *Server) resolveWindow(backend platform.Backend, window uint32) (platform.WindowID, error) {
	if window != 0 {
		return platform.WindowID(window), nil
	}
	active, err := backend.ActiveWindow()
	if err != nil {
		return 0, fmt.Errorf("no window given and no focused window found: %w", err)
	}
	return active, nil
}

// getBackend lazily opens the X connection used by the direct tools.
func (s *Server) getBackend() (platform.Backend, error) {
	s.backendMu.Lock()
	defer s.backendMu.Unlock()

	if s.backend != nil {
		return s.backend, nil
	}

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		return nil, err
	}
	s.backend = backend
	return s.backend, nil
}
