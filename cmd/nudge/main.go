package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/nudge/internal/actionlog"
	"github.com/1broseidon/nudge/internal/config"
	"github.com/1broseidon/nudge/internal/focus"
	"github.com/1broseidon/nudge/internal/hook"
	"github.com/1broseidon/nudge/internal/ipc"
	"github.com/1broseidon/nudge/internal/mcp"
	"github.com/1broseidon/nudge/internal/movemode"
	"github.com/1broseidon/nudge/internal/overlay"
	"github.com/1broseidon/nudge/internal/platform"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: nudge daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: nudge daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "toggle":
		os.Exit(runToggle(os.Args[2:]))
	case "cancel":
		os.Exit(runCancel(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nudge <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the nudge daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  toggle              Toggle move mode, same as the global hotkey")
	fmt.Fprintln(w, "  cancel              Exit move mode if active")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config init         Write a default config file")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'nudge <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: nudge status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC. Output is JSON when stdout is not a")
		fmt.Fprintln(os.Stderr, "terminal or when --json is given.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output status as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("mode:           %s\n", status.Mode)
	if status.TargetWindow != 0 {
		fmt.Printf("target_window:  0x%x\n", status.TargetWindow)
	}
	fmt.Printf("hotkey:         %s\n", status.Hotkey)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runToggle(args []string) int {
	fs := flag.NewFlagSet("toggle", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: nudge toggle")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Toggle move mode on the running daemon, same as pressing the hotkey.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "toggle takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.Toggle()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("mode: %s\n", status.Mode)
	if status.TargetWindow != 0 {
		fmt.Printf("target_window: 0x%x\n", status.TargetWindow)
	}
	return 0
}

func runCancel(args []string) int {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: nudge cancel")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Exit move mode on the running daemon. A no-op when idle.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "cancel takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Cancel(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: nudge reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the running daemon to reload its configuration.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  nudge config init [--path PATH]")
		fmt.Fprintln(os.Stderr, "  nudge config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  nudge config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("init", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/nudge/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		target := *path
		if target == "" {
			var err error
			target, err = config.DefaultConfigPath()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		if _, err := os.Stat(target); err == nil {
			fmt.Fprintf(os.Stderr, "config already exists at %s\n", target)
			return 1
		}
		if err := config.DefaultConfig().SaveTo(target); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("wrote %s\n", target)
		return 0

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/nudge/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.LoadWithSources()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/nudge/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		if *printDefaults {
			cfg = config.DefaultConfig()
		} else {
			var res *config.LoadResult
			var err error
			if *path == "" {
				res, err = config.LoadWithSources()
			} else {
				res, err = config.LoadFromPath(*path)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runMCP(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage: nudge mcp serve")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the MCP server on stdio transport.")
		return 2
	}
	if args[0] != "serve" {
		fmt.Fprintf(os.Stderr, "Unknown mcp subcommand: %s\n", args[0])
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	applyDisplayEnv(cfg)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// applyDisplayEnv exports display settings from the config so the X
// connection targets the right server. Useful when the daemon runs from a
// systemd user unit without a session environment.
func applyDisplayEnv(cfg *config.Config) {
	if cfg.Display != "" {
		os.Setenv("DISPLAY", cfg.Display)
	}
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
}

func newActionLogger(cfg *config.Config) *actionlog.Logger {
	logCfg := cfg.GetLoggingConfig()
	if !logCfg.Enabled {
		return nil
	}
	logger, err := actionlog.NewLogger(actionlog.LogConfig{
		Enabled:   logCfg.Enabled,
		Level:     actionlog.ParseLogLevel(logCfg.Level),
		FilePath:  logCfg.File,
		MaxSizeMB: logCfg.MaxSizeMB,
		MaxFiles:  logCfg.MaxFiles,
	})
	if err != nil {
		log.Printf("Warning: failed to initialize action log: %v", err)
		return nil
	}
	return logger
}

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (hotkey: %s, timeout: %ds)", cfg.Hotkey, cfg.MoveModeTimeout)

	hotkey, err := movemode.ParseHotkey(cfg.Hotkey)
	if err != nil {
		log.Fatalf("Invalid hotkey %q: %v", cfg.Hotkey, err)
	}

	// A second daemon would steal the first one's socket and hotkey grab.
	if err := ipc.NewClient().Ping(); err == nil {
		log.Fatal("nudge daemon is already running")
	}

	applyDisplayEnv(cfg)

	// Connect to display server
	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	log.Println("nudge daemon started successfully")

	actions := newActionLogger(cfg)
	if actions != nil {
		defer actions.Close()
	}

	// Border highlight drawn around the target window while move mode is
	// active. The color was validated during config load.
	pixel, err := config.ParseHighlightColor(cfg.Highlight.Color)
	if err != nil {
		log.Fatalf("Invalid highlight color %q: %v", cfg.Highlight.Color, err)
	}
	border := overlay.NewBorder(backend.XUtil(), backend.RootWindow(), pixel, cfg.Highlight.Thickness)
	defer border.Cleanup()

	// Keyboard hook: passive toggle grab while idle, full grab in move mode.
	kb := hook.NewKeyboard(backend.XUtil(), backend.RootWindow())

	session := movemode.NewSession(backend, movemode.Options{
		Hotkey:         hotkey,
		TimeoutSeconds: cfg.MoveModeTimeout,
		Bell:           cfg.GetBell(),
		Highlighter:    border,
		Grabber:        kb,
		Actions:        actions,
	})
	kb.SetSession(session)

	if err := kb.RegisterToggle(cfg.Hotkey); err != nil {
		log.Fatalf("Failed to register hotkey: %v", err)
	}
	log.Printf("Move mode hotkey registered: %s", cfg.Hotkey)

	// Cancel move mode when focus leaves the target window.
	watcher := focus.NewWatcher(backend.XUtil(), backend.RootWindow(), session)
	if err := watcher.Watch(); err != nil {
		log.Fatalf("Failed to watch focus changes: %v", err)
	}

	// Create config reload channel
	reloadChan := make(chan struct{}, 1)

	// Start IPC server
	ipcServer, err := ipc.NewServer(cfg, session, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	applyReload := func(newCfg *config.Config) {
		newHotkey, err := movemode.ParseHotkey(newCfg.Hotkey)
		if err != nil {
			log.Printf("Config reload: invalid hotkey %q: %v", newCfg.Hotkey, err)
			return
		}

		// Leave move mode before swapping tunables so the old grab and
		// highlight are released cleanly.
		session.Exit()

		kb.UnregisterAll()
		if err := kb.RegisterToggle(newCfg.Hotkey); err != nil {
			log.Printf("Config reload: failed to register hotkey: %v", err)
		}

		if pixel, err := config.ParseHighlightColor(newCfg.Highlight.Color); err == nil {
			border.SetStyle(pixel, newCfg.Highlight.Thickness)
		} else {
			log.Printf("Config reload: invalid highlight color %q: %v", newCfg.Highlight.Color, err)
		}

		session.UpdateOptions(movemode.Options{
			Hotkey:         newHotkey,
			TimeoutSeconds: newCfg.MoveModeTimeout,
			Bell:           newCfg.GetBell(),
		})

		ipcServer.UpdateConfig(newCfg)
		log.Println("Config reloaded successfully")
	}

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	// Handle signals and config reloads
	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					newCfg, err := config.Load()
					if err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					applyReload(newCfg)

				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down nudge daemon...")
					session.Exit()
					ipcServer.Stop()
					border.Cleanup()
					if actions != nil {
						actions.Close()
					}
					os.Exit(0)
				}

			case <-reloadChan:
				// Config was reloaded via IPC; the server already swapped
				// its copy, the session still needs the new tunables.
				applyReload(ipcServer.GetConfig())
			}
		}
	}()

	// Start event loop (blocking)
	log.Println("Entering event loop...")
	backend.EventLoop()
}
