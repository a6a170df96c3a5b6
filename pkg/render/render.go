package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"codeberg.org/miketth/kblayout/pkg/config"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// LabelPosition computes the baseline origin of the label. Offsets equal to
// config.LabelOffsetAuto are centered using the font metrics, any other
// value is returned as is.
func LabelPosition(m Metrics, width, height, labelLength, offsetX, offsetY int) image.Point {
	pos := image.Pt(offsetX, offsetY)

	if offsetX == config.LabelOffsetAuto {
		pos.X = width/2 - m.MaxAdvance*labelLength/2
	}
	if offsetY == config.LabelOffsetAuto {
		pos.Y = height/2 + m.Ascent/2 - 1
	}

	return pos
}

// ParseColor resolves a "#rrggbb" color name.
func ParseColor(name string) (color.RGBA, error) {
	c, err := colorful.Hex(name)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", name, err)
	}

	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Renderer rasterizes labels into window sized images. Its face and colors
// are resolved once and reused for every label.
type Renderer struct {
	face    font.Face
	metrics Metrics
	pos     image.Point
	size    image.Point

	Background color.RGBA
	Foreground color.RGBA
}

func NewRenderer(cfg config.Config) (*Renderer, error) {
	spec, err := ParseFont(cfg.Font)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	face, err := spec.Open()
	if err != nil {
		return nil, fmt.Errorf("open font: %w", err)
	}

	bg, err := ParseColor(cfg.Background)
	if err != nil {
		_ = face.Close()
		return nil, fmt.Errorf("background: %w", err)
	}

	fg, err := ParseColor(cfg.Foreground)
	if err != nil {
		_ = face.Close()
		return nil, fmt.Errorf("foreground: %w", err)
	}

	metrics := MeasureFace(face)

	return &Renderer{
		face:       face,
		metrics:    metrics,
		pos:        LabelPosition(metrics, cfg.Width, cfg.Height, cfg.LabelLength, cfg.LabelOffsetX, cfg.LabelOffsetY),
		size:       image.Pt(cfg.Width, cfg.Height),
		Background: bg,
		Foreground: fg,
	}, nil
}

func (r *Renderer) Metrics() Metrics {
	return r.metrics
}

func (r *Renderer) Position() image.Point {
	return r.pos
}

func (r *Renderer) Size() image.Point {
	return r.size
}

// Render returns the full window content for label.
func (r *Renderer) Render(label string) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: r.size})
	draw.Draw(img, img.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(r.Foreground),
		Face: r.face,
		Dot:  fixed.P(r.pos.X, r.pos.Y),
	}
	d.DrawString(label)

	return img
}

func (r *Renderer) Close() error {
	return r.face.Close()
}
