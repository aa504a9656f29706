package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/stylecam/internal/app"
	_ "github.com/ayusman/stylecam/internal/effects/all"
	"github.com/ayusman/stylecam/internal/notify"
	"github.com/ayusman/stylecam/internal/output"
	"github.com/ayusman/stylecam/internal/preset"
	"github.com/ayusman/stylecam/internal/server"
	"github.com/ayusman/stylecam/internal/store"
	"github.com/ayusman/stylecam/internal/style"
	"github.com/ayusman/stylecam/internal/tray"
)

const appVersion = "0.3.0"

type options struct {
	debug     bool
	addr      string
	device    string
	style     string
	variant   string
	output    string
	width     int
	height    int
	fps       int
	dataDir   string
	presets   string
	tray      bool
	autostart bool
}

func parseFlags() options {
	var o options
	flag.BoolVar(&o.debug, "debug", false, "Enable debug mode with verbose logging")
	flag.StringVar(&o.addr, "addr", ":8080", "Control panel listen address")
	flag.StringVar(&o.device, "device", "", "Capture device: index, path, URL or \"pattern\" (default: last used, then 0)")
	flag.StringVar(&o.style, "style", "", "Style to start with (default: last used)")
	flag.StringVar(&o.variant, "variant", "", "Variant of the style")
	flag.StringVar(&o.output, "output", output.DefaultDevice, "Virtual camera device, GStreamer pipeline or file; empty for preview only")
	flag.IntVar(&o.width, "width", output.DefaultWidth, "Output width")
	flag.IntVar(&o.height, "height", output.DefaultHeight, "Output height")
	flag.IntVar(&o.fps, "fps", output.DefaultFPS, "Output frame rate")
	flag.StringVar(&o.dataDir, "data", "", "Data directory (default ~/.stylecam)")
	flag.StringVar(&o.presets, "presets", "", "Preset directory (default <data>/presets)")
	flag.BoolVar(&o.tray, "tray", false, "Show a system tray icon")
	flag.BoolVar(&o.autostart, "autostart", false, "Start the camera immediately")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	logger := initLogger(opts.debug)
	logger.WithFields(logrus.Fields{
		"version":    appVersion,
		"debug_mode": opts.debug,
	}).Info("Starting stylecam")

	if err := run(opts, logger); err != nil {
		logger.WithError(err).Fatal("Stylecam failed")
	}
	logger.Info("Stylecam shutting down gracefully")
}

func run(opts options, logger *logrus.Logger) error {
	dataDir := opts.dataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".stylecam")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, "stylecam.db"))
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	registry := style.NewRegistry(logger)
	registry.Discover()

	presetDir := opts.presets
	if presetDir == "" {
		presetDir = filepath.Join(dataDir, "presets")
	}
	presets := preset.NewManager(presetDir, logger)
	if err := presets.Discover(); err != nil {
		logger.WithError(err).Warn("Presets unavailable")
	}

	var sink output.Sink = output.NewVideoWriter()
	if opts.output == "" {
		sink = &output.Discard{}
	}

	application := app.New(app.Config{
		Registry: registry,
		Sink:     sink,
		Output: output.Config{
			Width:  opts.width,
			Height: opts.height,
			FPS:    opts.fps,
			Target: opts.output,
		},
		Store:   st,
		Presets: presets,
		Logger:  logger,
	})
	defer application.Stop()

	sel := initialSelection(application, opts, logger)
	if opts.autostart {
		if err := application.Start(sel.Device, sel.Style, sel.Variant, sel.Params); err != nil {
			logger.WithError(err).Error("Autostart failed")
		}
	} else if sel.Style != "" {
		if err := application.SelectStyle(sel.Style, sel.Variant, sel.Params); err != nil {
			logger.WithError(err).Warn("Ignoring saved style")
		}
	}

	srv := server.New(server.Config{
		App:       application,
		StaticDir: findWebDir(dataDir),
		Logger:    logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(opts.addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if opts.tray {
		t := newTray(application, sel.Device, panelURL(opts.addr), logger)
		go func() {
			select {
			case <-sigCh:
			case err := <-errCh:
				logger.WithError(err).Error("Server stopped")
			}
			t.Quit()
		}()
		t.Run()
		return nil
	}

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Received signal")
		return nil
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
}

// initialSelection merges the command line over the persisted selection.
func initialSelection(a *app.App, opts options, logger logrus.FieldLogger) app.Selection {
	sel, err := a.Restore()
	if err != nil {
		logger.WithError(err).Warn("Failed to restore last selection")
	}

	if opts.device != "" {
		sel.Device = opts.device
	}
	if sel.Device == "" {
		sel.Device = "0"
	}
	if opts.style != "" {
		if opts.style != sel.Style {
			sel.Params = nil
		}
		sel.Style = opts.style
		sel.Variant = opts.variant
	}
	return sel
}

func newTray(a *app.App, device, panel string, logger logrus.FieldLogger) *tray.Tray {
	t := tray.New()
	t.SetRunning(a.IsRunning())
	if s := a.Status().Session; s != nil {
		t.SetStyle(sessionLabel(s.Style, s.Variant))
	}

	t.OnToggle(func(start bool) {
		if !start {
			a.Stop()
			return
		}
		sel, _ := a.Restore()
		if sel.Device == "" {
			sel.Device = device
		}
		if err := a.Start(sel.Device, sel.Style, sel.Variant, sel.Params); err != nil {
			logger.WithError(err).Error("Failed to start from tray")
		}
	})
	t.OnOpenPanel(func() {
		if err := openBrowser(panel); err != nil {
			logger.WithError(err).Warn("Failed to open control panel")
		}
	})
	t.OnQuit(a.Stop)

	events := a.Subscribe()
	go func() {
		for e := range events {
			switch e.Kind {
			case notify.KindStarted, notify.KindStopped, notify.KindStyle, notify.KindDeviceOpen, notify.KindSinkOpen:
				t.SetRunning(a.IsRunning())
				if s := a.Status().Session; s != nil {
					t.SetStyle(sessionLabel(s.Style, s.Variant))
				}
			}
		}
	}()
	return t
}

func sessionLabel(name, variant string) string {
	if name == "" {
		return "Original"
	}
	if variant != "" {
		return name + " (" + variant + ")"
	}
	return name
}

func panelURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the control panel assets in "web", "../web",
// "../../web" and <data>/web. It returns "" when none exists.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
