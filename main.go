package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"codeberg.org/miketth/kblayout/pkg/config"
	"codeberg.org/miketth/kblayout/pkg/hyprland"
	"codeberg.org/miketth/kblayout/pkg/indicator"
	"codeberg.org/miketth/kblayout/pkg/render"
	"codeberg.org/miketth/kblayout/pkg/x11"
	"codeberg.org/miketth/kblayout/pkg/xkblayouts"
	"github.com/coreos/go-systemd/v22/daemon"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	err := run()
	switch {
	case errors.Is(err, x11.ErrOpenDisplay):
		fmt.Fprintf(os.Stderr, "%s: Error open DISPLAY\n", progName(os.Args[0]))
		os.Exit(1)
	case err != nil:
		log.Fatalf("error: %+v", err)
	}
}

// progName strips everything up to the last slash of argv[0].
func progName(argv0 string) string {
	return argv0[strings.LastIndexByte(argv0, '/')+1:]
}

type groupSource interface {
	indicator.LayoutSource
	xkblayouts.GroupLayoutSource
}

func run() error {
	configPath := flag.StringP("config", "c", "", "path to config.toml (default: search XDG config dirs)")
	debug := flag.BoolP("debug", "d", false, "enable debug logging")
	posX := flag.Int("x", 0, "overlay x position, overrides the config file")
	posY := flag.Int("y", 0, "overlay y position, overrides the config file")
	flag.Parse()

	log, err := newLogger(*debug, progName(os.Args[0]))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	if *configPath == "" {
		*configPath = config.FindFile()
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flag.CommandLine.Changed("x") {
		cfg.WindowX = *posX
	}
	if flag.CommandLine.Changed("y") {
		cfg.WindowY = *posY
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := render.NewRenderer(cfg)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Close()

	display, err := x11.Open(cfg, renderer, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := display.Close(); err != nil {
			log.Warnw("release display", "error", err)
		}
	}()

	var (
		source groupSource           = display
		events indicator.EventSource = display
	)

	registry, registryErr := xkblayouts.ParseLayouts(cfg.EvdevXMLPath)
	if registryErr != nil {
		log.Debugw("layout registry unavailable", "path", cfg.EvdevXMLPath, "error", registryErr)
		registry = nil
	}

	if cfg.Backend == config.BackendHyprland {
		client, err := hyprland.Connect()
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer client.Close()

		hyprctl, err := hyprland.NewHyprctl()
		if err != nil {
			return fmt.Errorf("connect hyprctl: %w", err)
		}

		source = hyprland.NewSource(hyprctl, registry, cfg.Keyboard)
		events = indicator.Merge(ctx, display, client)
	}

	var layouts indicator.LayoutSource = source
	switch cfg.LabelSource {
	case config.LabelSourceLayout:
		layouts = xkblayouts.NewDescriptionSource(source, nil, xkblayouts.StyleCode)
	case config.LabelSourceDescription, config.LabelSourceShort:
		if registry == nil {
			return fmt.Errorf("label source %q needs the layout registry: %w", cfg.LabelSource, registryErr)
		}
		style := xkblayouts.StyleDescription
		if cfg.LabelSource == config.LabelSourceShort {
			style = xkblayouts.StyleShort
		}
		layouts = xkblayouts.NewDescriptionSource(source, registry, style)
	}

	surface := &statusSurface{Surface: display, notify: sdNotify, log: log}
	ind := indicator.New(layouts, surface, events, cfg.LabelLength, log)

	log.Infow("started kblayout",
		"backend", cfg.Backend,
		"x", cfg.WindowX,
		"y", cfg.WindowY,
		"label_source", cfg.LabelSource,
		"label_position", renderer.Position(),
	)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := ind.Run(ctx)
		if err != nil {
			errChan <- fmt.Errorf("run indicator: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := systemdNotifyLoop(ctx, cfg.Backend, display.Ping)
		if err != nil {
			errChan <- fmt.Errorf("systemd notify: %w", err)
		}
	}()

	err = <-errChan
	stop()
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		wg.Wait()
		return nil
	case err != nil:
		return err
	}

	return nil
}

func sdNotify(state string) (bool, error) {
	return daemon.SdNotify(false, state)
}

// statusSurface mirrors every label it draws into the unit's STATUS line,
// so `systemctl status` shows the active layout.
type statusSurface struct {
	indicator.Surface

	notify func(state string) (bool, error)
	log    *zap.SugaredLogger
}

func (s *statusSurface) Draw(label string) error {
	if err := s.Surface.Draw(label); err != nil {
		return err
	}

	status := strings.TrimSpace(label)
	if status == "" {
		status = "(unnamed)"
	}
	if _, err := s.notify("STATUS=Layout " + status); err != nil {
		s.log.Debugw("could not update systemd status", "error", err)
	}
	return nil
}

// systemdNotifyLoop reports readiness once the overlay is mapped and keeps
// the watchdog fed only while ping gets an answer from the X server, so a
// wedged display connection gets the unit restarted.
func systemdNotifyLoop(ctx context.Context, backend string, ping func() error) error {
	supported, err := sdNotify(daemon.SdNotifyReady + "\nSTATUS=Waiting for " + backend + " layout changes")
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	if t == 0 {
		return nil
	}

	ticker := time.NewTicker(t / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := ping(); err != nil {
				_, _ = sdNotify("STATUS=X server stopped answering")
				return fmt.Errorf("ping display: %w", err)
			}
			if _, err := sdNotify(daemon.SdNotifyWatchdog); err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

// newLogger logs to stdout under name. Stack traces are only attached in
// debug mode; a lost X connection is an expected exit, not a crash.
func newLogger(debug bool, name string) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggerConfig.DisableStacktrace = true
	if debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		loggerConfig.DisableStacktrace = false
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Named(name).Sugar(), nil
}
