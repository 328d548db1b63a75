package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("keysticks v%s\n", version)
	fmt.Println("Game controller to keyboard and mouse input daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  keysticks [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Reads game controllers through Linux input devices, maps their controls")
	fmt.Println("  to keyboard, mouse and window actions using a profile, and types through")
	fmt.Println("  a uinput virtual device. Word suggestions come from a prediction service")
	fmt.Println("  over WebSocket; UI events are streamed to WebSocket clients.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with a config file")
	fmt.Println("  keysticks -config ~/.config/keysticks/config.yaml")
	fmt.Println()
	fmt.Println("  # Check a config and its profile, then exit")
	fmt.Println("  keysticks -config config.toml -profile ./profiles/typing.yaml -check")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to the input devices ('input' group) and write")
	fmt.Println("    access to /dev/uinput")
	fmt.Println("  - Window auto-activation needs xdotool; layout detection needs setxkbmap")
	fmt.Println()
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to a YAML or TOML config file")
		devices     = flag.String("devices", "", "Comma separated input device paths or globs")
		uinputPath  = flag.String("uinput", "", "uinput device path")
		profileName = flag.String("profile", "", "Profile name (looked up in -profile-dir) or path")
		profileDir  = flag.String("profile-dir", "", "Directory holding named profiles")
		engineLevel = flag.String("engine-logging-level", "", "UI event echo level: none, errors, info, debug")
		pollMS      = flag.Int("poll-ms", 0, "Input polling interval in ms")
		layout      = flag.String("keyboard-layout", "", "Keyboard layout used when it cannot be detected")
		prediction  = flag.Bool("prediction", true, "Enable word prediction")
		predictURL  = flag.String("prediction-ws-url", "", "Prediction service websocket URL")
		ipcSocket   = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		uiListen    = flag.String("ui-listen", "", "UI websocket listen address (empty string disables)")
		logLevelStr = flag.String("log-level", "", "Log level: error, warn, info, debug")
		watch       = flag.Bool("watch", false, "Reload the config and profile files when they change")
		check       = flag.Bool("check", false, "Validate the config and profile, then exit")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Only flags given on the command line override the config file.
	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "devices":
			overrides.Devices = devices
		case "uinput":
			overrides.UinputPath = uinputPath
		case "profile":
			overrides.ProfileName = profileName
		case "profile-dir":
			overrides.ProfileDir = profileDir
		case "engine-logging-level":
			overrides.EngineLoggingLevel = engineLevel
		case "poll-ms":
			overrides.PollingIntervalMS = pollMS
		case "keyboard-layout":
			overrides.KeyboardLayout = layout
		case "prediction":
			overrides.PredictionEnabled = prediction
		case "prediction-ws-url":
			overrides.PredictionWsURL = predictURL
		case "ipc-socket":
			overrides.IPCSocketPath = ipcSocket
		case "ui-listen":
			overrides.UIListen = uiListen
		case "log-level":
			overrides.LogLevel = logLevelStr
		case "watch":
			overrides.Watch = watch
		}
	})

	cfg, err := loadConfig(*configPath, overrides)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	var levelVar slog.LevelVar
	lvl, _ := parseLogLevel(cfg.Logging.Level)
	levelVar.Set(lvl)
	logger, err := newLogger(os.Stdout, cfg.Logging.Format, &levelVar)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if *check {
		if _, err := LoadProfileFile(resolveProfilePath(cfg.Profile.Name, cfg.Profile.Dir)); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Println("config and profile OK")
		return
	}

	if err := run(cfg, *configPath, overrides, logger, &levelVar); err != nil {
		logger.Error("keysticks stopped", "error", err)
		os.Exit(1)
	}
}

// loadConfig builds the effective config: defaults, then the file if any,
// then flag overrides.
func loadConfig(path string, overrides FlagOverrides) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadConfigFile(path); err != nil {
			return Config{}, err
		}
	}
	overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg Config, configPath string, overrides FlagOverrides, logger *slog.Logger, levelVar *slog.LevelVar) error {
	session := uuid.NewString()
	logger = logger.With("session", session)

	out, err := newOutputDevice(cfg.Output)
	if err != nil {
		return fmt.Errorf("open output device (tip: check access to %s): %w", cfg.Output.UinputPath, err)
	}
	defer out.Close()

	input := NewInputManager(cfg.Devices.Paths, logger)
	predictionCfg := cfg.Prediction

	// setxkbmap and xdotool run on the monitor goroutine; the engine reads
	// the cached results.
	var orch *Orchestrator
	monitor := NewSystemMonitor(NewWindowMonitor(logger), readKeyboardLayout,
		func(ev Event) { orch.SubmitUIEvent(ev) }, logger)

	orch = NewOrchestrator(logger,
		func(o *Orchestrator) looper {
			return NewEngine(o, EngineDeps{
				Input:      input,
				Output:     out,
				Windows:    monitor,
				ReadLayout: monitor.ReadLayout,
			}, logger)
		},
		func(o *Orchestrator) looper {
			return NewPredictionEngine(o, func() (predictionFramework, error) {
				c, err := NewPredictionClient(predictionCfg.WsURL, logger, predictionCfg.TimeoutMS)
				if err != nil {
					return nil, err
				}
				return c, nil
			}, logger)
		},
	)

	var watcher *fileWatcher
	if cfg.Watch.Enabled {
		if watcher, err = newFileWatcher(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, logger); err != nil {
			return err
		}
		defer watcher.Close()
	}

	// The profile file currently loaded; swapped when a new one is loaded.
	var profileMu sync.Mutex
	var profilePath string
	loadProfile := func(name string) (*Profile, error) {
		path := resolveProfilePath(name, cfg.Profile.Dir)
		p, err := LoadProfileFile(path)
		if err != nil {
			return nil, err
		}
		if watcher != nil {
			profileMu.Lock()
			if profilePath != "" && profilePath != path {
				watcher.Unwatch(profilePath)
			}
			profilePath = path
			profileMu.Unlock()
			if err := watcher.Watch(path, func() { orch.SubmitUIEvent(LoadProfileEvent{Name: path}) }); err != nil {
				logger.Warn("profile not watched", "path", path, "error", err)
			}
		}
		return p, nil
	}

	var ui *UILoop
	var server *Server
	uiDeps := UIDeps{
		LoadProfile:  loadProfile,
		StartProgram: newProgramLauncher(logger).Start,
		Session:      session,
	}
	if cfg.UI.Listen != "" {
		server = NewServer(logger,
			func() uiSnapshot { return ui.Snapshot() },
			func(ev Event) {
				if err := routeEvent(orch, ev); err != nil {
					logger.Warn("ui client event rejected", "error", err)
				}
			},
			ServerConfig{Hub: HubConfig{SendBuf: cfg.UI.SendBuf}})
		uiDeps.Hub = server.Hub()
	}
	ui = NewUILoop(orch, uiDeps, logger)

	appCfg := cfg.AppConfig()
	orch.SetAppConfig(appCfg)
	ui.SetAppConfig(appCfg)

	if watcher != nil && configPath != "" {
		err := watcher.Watch(ExpandPath(configPath), func() {
			next, err := loadConfig(configPath, overrides)
			if err != nil {
				logger.Error("config reload failed", "path", configPath, "error", err)
				orch.SubmitUIEvent(newErrorEvent("could not reload config", err))
				return
			}
			lvl, _ := parseLogLevel(next.Logging.Level)
			levelVar.Set(lvl)
			a := next.AppConfig()
			orch.SetAppConfig(a)
			ui.SetAppConfig(a)
			logger.Info("config reloaded", "path", configPath)
		})
		if err != nil {
			logger.Warn("config not watched", "path", configPath, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return runIPCServer(gctx, cfg.IPC.SocketPath, orch, logger) })
	g.Go(func() error { return ui.Run(gctx) })
	g.Go(func() error { return monitor.Run(gctx) })

	if server != nil {
		mux := http.NewServeMux()
		server.Register(mux, cfg.UI.Path)
		httpSrv := &http.Server{
			Addr:              cfg.UI.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			server.Hub().Run(gctx)
			return nil
		})
		g.Go(func() error {
			logger.Info("ui websocket listening", "addr", cfg.UI.Listen, "path", cfg.UI.Path)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ui websocket server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		orch.StopThreads()
		orch.Wait()
		return nil
	})

	logger.Info("starting keysticks", "version", version, "devices", cfg.Devices.Paths, "ipc", cfg.IPC.SocketPath)

	// The engine starts with the profile; give it a layout reading first.
	monitor.Sample(ctx)

	// Without a usable profile the daemon idles until one is loaded over IPC.
	if p, err := loadProfile(cfg.Profile.Name); err != nil {
		logger.Error("initial profile not loaded", "profile", cfg.Profile.Name, "error", err)
	} else {
		orch.SetProfile(p)
		ui.SetProfileName(p.Name)
	}

	return g.Wait()
}
