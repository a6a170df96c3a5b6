package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DPI used to convert point sizes into pixels, matching the usual Xft
// default.
const DPI = 96

const defaultSize = 10

// FontSpec is a parsed "family:size=N" font descriptor.
type FontSpec struct {
	Family string
	Size   float64
}

func ParseFont(descriptor string) (FontSpec, error) {
	parts := strings.Split(descriptor, ":")

	spec := FontSpec{
		Family: strings.TrimSpace(parts[0]),
		Size:   defaultSize,
	}
	if spec.Family == "" {
		return FontSpec{}, fmt.Errorf("font %q: missing family", descriptor)
	}

	for _, prop := range parts[1:] {
		key, value, ok := strings.Cut(prop, "=")
		if !ok {
			// fontconfig style flags like ":bold" are accepted and ignored
			continue
		}

		key = strings.TrimSpace(key)
		switch key {
		case "size", "pixelsize":
			size, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil || size <= 0 {
				return FontSpec{}, fmt.Errorf("font %q: invalid size %q", descriptor, value)
			}
			spec.Size = size
			if key == "pixelsize" {
				spec.Size = size * 72 / DPI
			}
		}
	}

	return spec, nil
}

func (s FontSpec) data() ([]byte, error) {
	switch strings.ToLower(s.Family) {
	case "monospace", "mono", "go mono":
		return gomono.TTF, nil
	case "sans", "sans-serif", "serif", "go":
		return goregular.TTF, nil
	}

	lower := strings.ToLower(s.Family)
	if strings.HasSuffix(lower, ".ttf") || strings.HasSuffix(lower, ".otf") {
		data, err := os.ReadFile(s.Family)
		if err != nil {
			return nil, fmt.Errorf("read font file: %w", err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("unknown font family %q", s.Family)
}

// Open loads the font face described by s.
func (s FontSpec) Open() (font.Face, error) {
	data, err := s.data()
	if err != nil {
		return nil, err
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", s.Family, err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    s.Size,
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}

	return face, nil
}

// Metrics are the integer font measurements used to place the label.
type Metrics struct {
	MaxAdvance int
	Ascent     int
}

func MeasureFace(face font.Face) Metrics {
	maxAdvance := 0
	for r := rune(0x20); r < 0x7f; r++ {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		if a := adv.Ceil(); a > maxAdvance {
			maxAdvance = a
		}
	}

	return Metrics{
		MaxAdvance: maxAdvance,
		Ascent:     face.Metrics().Ascent.Ceil(),
	}
}
