package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml"
)

// LabelOffsetAuto centers the label inside the window along that axis.
const LabelOffsetAuto = -1

const (
	BackendX11      = "x11"
	BackendHyprland = "hyprland"

	LabelSourceGroup       = "group"
	LabelSourceLayout      = "layout"
	LabelSourceDescription = "description"
	LabelSourceShort       = "short"
)

// RelPath is the config file location relative to the XDG config dirs.
const RelPath = "kblayout/config.toml"

type Config struct {
	WindowX      int
	WindowY      int
	Background   string
	Foreground   string
	Font         string
	LabelLength  int
	Width        int
	Height       int
	LabelOffsetX int
	LabelOffsetY int

	Backend      string
	LabelSource  string
	Keyboard     string
	EvdevXMLPath string
}

func Default() Config {
	return Config{
		WindowX:      600,
		WindowY:      0,
		Background:   "#222222",
		Foreground:   "#bbbbbb",
		Font:         "monospace:size=10",
		LabelLength:  2,
		Width:        30,
		Height:       17,
		LabelOffsetX: LabelOffsetAuto,
		LabelOffsetY: LabelOffsetAuto,
		Backend:      BackendX11,
		LabelSource:  LabelSourceGroup,
		EvdevXMLPath: "/usr/share/X11/xkb/rules/evdev.xml",
	}
}

// file mirrors Config with optional fields so that keys missing from the
// file keep their default values.
type file struct {
	WindowX      *int    `toml:"window_x"`
	WindowY      *int    `toml:"window_y"`
	Background   *string `toml:"background"`
	Foreground   *string `toml:"foreground"`
	Font         *string `toml:"font"`
	LabelLength  *int    `toml:"label_length"`
	Width        *int    `toml:"width"`
	Height       *int    `toml:"height"`
	LabelOffsetX *int    `toml:"label_offset_x"`
	LabelOffsetY *int    `toml:"label_offset_y"`
	Backend      *string `toml:"backend"`
	LabelSource  *string `toml:"label_source"`
	Keyboard     *string `toml:"keyboard"`
	EvdevXMLPath *string `toml:"evdev_xml_path"`
}

// FindFile returns the first kblayout config file in the XDG config
// search path, or an empty string if there is none.
func FindFile() string {
	path, err := xdg.SearchConfigFile(RelPath)
	if err != nil {
		return ""
	}
	return path
}

// Load reads the TOML file at path on top of the defaults. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.apply(data); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) apply(data []byte) error {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return err
	}

	setInt(&c.WindowX, f.WindowX)
	setInt(&c.WindowY, f.WindowY)
	setString(&c.Background, f.Background)
	setString(&c.Foreground, f.Foreground)
	setString(&c.Font, f.Font)
	setInt(&c.LabelLength, f.LabelLength)
	setInt(&c.Width, f.Width)
	setInt(&c.Height, f.Height)
	setInt(&c.LabelOffsetX, f.LabelOffsetX)
	setInt(&c.LabelOffsetY, f.LabelOffsetY)
	setString(&c.Backend, f.Backend)
	setString(&c.LabelSource, f.LabelSource)
	setString(&c.Keyboard, f.Keyboard)
	setString(&c.EvdevXMLPath, f.EvdevXMLPath)

	c.Backend = strings.ToLower(c.Backend)
	c.LabelSource = strings.ToLower(c.LabelSource)

	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

const (
	MaxLabelLength = 64
	MaxWindowSize  = 4096
)

var (
	ErrWindowSize  = fmt.Errorf("window size must be within 1..%d", MaxWindowSize)
	ErrLabelLength = fmt.Errorf("label length must be within 1..%d", MaxLabelLength)
)

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 || c.Width > MaxWindowSize || c.Height > MaxWindowSize {
		return fmt.Errorf("%w, got %dx%d", ErrWindowSize, c.Width, c.Height)
	}
	if c.LabelLength <= 0 || c.LabelLength > MaxLabelLength {
		return fmt.Errorf("%w, got %d", ErrLabelLength, c.LabelLength)
	}
	if c.WindowX < -0x8000 || c.WindowX > 0x7fff || c.WindowY < -0x8000 || c.WindowY > 0x7fff {
		return fmt.Errorf("window position %d,%d out of range", c.WindowX, c.WindowY)
	}

	switch c.Backend {
	case BackendX11, BackendHyprland:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.LabelSource {
	case LabelSourceGroup, LabelSourceLayout, LabelSourceDescription, LabelSourceShort:
	default:
		return fmt.Errorf("unknown label source %q", c.LabelSource)
	}

	if c.Background == "" || c.Foreground == "" {
		return errors.New("colors must not be empty")
	}
	if c.Font == "" {
		return errors.New("font must not be empty")
	}

	return nil
}

// AutoX reports whether the horizontal label offset is computed.
func (c Config) AutoX() bool {
	return c.LabelOffsetX == LabelOffsetAuto
}

// AutoY reports whether the vertical label offset is computed.
func (c Config) AutoY() bool {
	return c.LabelOffsetY == LabelOffsetAuto
}
