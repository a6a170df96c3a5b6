package x11

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"codeberg.org/miketth/kblayout/pkg/config"
	"codeberg.org/miketth/kblayout/pkg/indicator"
	"codeberg.org/miketth/kblayout/pkg/render"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrOpenDisplay = errors.New("open display")

// Display owns the X connection, the overlay window and the colors
// allocated for it. It is the indicator's LayoutSource, Surface and
// EventSource when running under X.
type Display struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	format pixelFormat

	win      xproto.Window
	colors   []uint32
	renderer *render.Renderer

	width  uint16
	height uint16

	rulesAtom xproto.Atom

	events     chan indicator.Event
	eventsOnce sync.Once
	done       chan struct{}
	closeOnce  sync.Once
	closeErr   error

	log *zap.SugaredLogger
}

// Open connects to the X server named by $DISPLAY, creates and maps the
// overlay window and subscribes to keyboard state changes. On failure every
// resource acquired so far is released.
func Open(cfg config.Config, renderer *render.Renderer, log *zap.SugaredLogger) (*Display, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenDisplay, err)
	}

	setup := xproto.Setup(conn)
	d := &Display{
		conn:     conn,
		screen:   setup.DefaultScreen(conn),
		renderer: renderer,
		width:    uint16(cfg.Width),
		height:   uint16(cfg.Height),
		done:     make(chan struct{}),
		log:      log,
	}

	if err := d.init(cfg, setup); err != nil {
		return nil, multierr.Append(err, d.Close())
	}

	return d, nil
}

func (d *Display) init(cfg config.Config, setup *xproto.SetupInfo) error {
	var err error

	d.format, err = newPixelFormat(setup, d.screen)
	if err != nil {
		return fmt.Errorf("pixel format: %w", err)
	}

	if err := d.initXkb(); err != nil {
		return fmt.Errorf("init xkb: %w", err)
	}

	bg, err := d.allocColor(d.renderer.Background)
	if err != nil {
		return fmt.Errorf("alloc background: %w", err)
	}
	if _, err := d.allocColor(d.renderer.Foreground); err != nil {
		return fmt.Errorf("alloc foreground: %w", err)
	}

	d.rulesAtom, err = internAtom(d.conn, rulesNamesAtom)
	if err != nil {
		return err
	}

	if err := d.createWindow(cfg.WindowX, cfg.WindowY, bg); err != nil {
		return fmt.Errorf("create window: %w", err)
	}

	if err := d.selectXkbEvents(); err != nil {
		return fmt.Errorf("select xkb events: %w", err)
	}

	d.log.Debugw("overlay window mapped",
		"window", d.win,
		"x", cfg.WindowX,
		"y", cfg.WindowY,
		"width", d.width,
		"height", d.height,
	)

	return nil
}

func (d *Display) allocColor(c color.RGBA) (uint32, error) {
	reply, err := xproto.AllocColor(d.conn, d.screen.DefaultColormap,
		uint16(c.R)*0x101, uint16(c.G)*0x101, uint16(c.B)*0x101).Reply()
	if err != nil {
		return 0, err
	}

	d.colors = append(d.colors, reply.Pixel)
	return reply.Pixel, nil
}

func (d *Display) createWindow(x, y int, background uint32) error {
	win, err := xproto.NewWindowId(d.conn)
	if err != nil {
		return fmt.Errorf("allocate window id: %w", err)
	}

	err = xproto.CreateWindowChecked(d.conn,
		d.screen.RootDepth,
		win,
		d.screen.Root,
		int16(x), int16(y),
		d.width, d.height,
		0,
		xproto.WindowClassInputOutput,
		d.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{
			background,
			1,
			xproto.EventMaskExposure | xproto.EventMaskVisibilityChange,
		},
	).Check()
	if err != nil {
		return err
	}
	d.win = win

	if err := xproto.MapWindowChecked(d.conn, win).Check(); err != nil {
		return fmt.Errorf("map window: %w", err)
	}

	return nil
}

// Draw repaints the overlay with label and raises it above its siblings.
func (d *Display) Draw(label string) (err error) {
	data := d.format.encode(d.renderer.Render(label))

	gc, err := xproto.NewGcontextId(d.conn)
	if err != nil {
		return fmt.Errorf("allocate gc id: %w", err)
	}
	if err := xproto.CreateGCChecked(d.conn, gc, xproto.Drawable(d.win), 0, nil).Check(); err != nil {
		return fmt.Errorf("create gc: %w", err)
	}
	defer func() {
		err = multierr.Append(err, xproto.FreeGCChecked(d.conn, gc).Check())
	}()

	if err := xproto.ClearAreaChecked(d.conn, false, d.win, 0, 0, 0, 0).Check(); err != nil {
		return fmt.Errorf("clear window: %w", err)
	}

	err = xproto.PutImageChecked(d.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(d.win),
		gc,
		d.width, d.height,
		0, 0,
		0,
		d.format.depth,
		data,
	).Check()
	if err != nil {
		return fmt.Errorf("put image: %w", err)
	}

	err = xproto.ConfigureWindowChecked(d.conn, d.win,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check()
	if err != nil {
		return fmt.Errorf("raise window: %w", err)
	}

	return nil
}

// Events starts the reader goroutine on first use. The channel is closed
// when the connection goes away.
func (d *Display) Events() <-chan indicator.Event {
	d.eventsOnce.Do(func() {
		d.events = make(chan indicator.Event)
		go d.readEvents()
	})
	return d.events
}

func (d *Display) readEvents() {
	defer close(d.events)

	for {
		ev, xerr := d.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}

		var out indicator.Event
		if xerr != nil {
			out = indicator.Event{Err: fmt.Errorf("x11: %s", xerr.Error())}
		} else {
			out = indicator.Event{Kind: eventKind(ev)}
		}

		select {
		case d.events <- out:
		case <-d.done:
			return
		}
	}
}

func eventKind(ev xgb.Event) indicator.EventKind {
	switch ev := ev.(type) {
	case xproto.ExposeEvent:
		return indicator.EventExpose
	case xproto.VisibilityNotifyEvent:
		return indicator.EventVisibility
	case xkbEvent:
		if ev.XkbType == xkbStateNotify {
			return indicator.EventLayout
		}
	}
	return indicator.EventOther
}

// Ping makes one round trip to the server.
func (d *Display) Ping() error {
	_, err := xproto.GetInputFocus(d.conn).Reply()
	return err
}

// Close destroys the window, frees the colors and closes the connection,
// in that order. It is safe to call more than once.
func (d *Display) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)

		if d.win != 0 {
			d.closeErr = multierr.Append(d.closeErr,
				xproto.DestroyWindowChecked(d.conn, d.win).Check())
		}

		if len(d.colors) > 0 {
			d.closeErr = multierr.Append(d.closeErr,
				xproto.FreeColorsChecked(d.conn, d.screen.DefaultColormap, 0, d.colors).Check())
		}

		d.conn.Close()
	})

	return d.closeErr
}
