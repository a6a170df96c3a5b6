package render

import (
	"image"
	"image/color"
	"testing"

	"codeberg.org/miketth/kblayout/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelPosition(t *testing.T) {
	tests := []struct {
		name     string
		metrics  Metrics
		offX     int
		offY     int
		expected image.Point
	}{
		{
			name:     "auto both",
			metrics:  Metrics{MaxAdvance: 8, Ascent: 13},
			offX:     config.LabelOffsetAuto,
			offY:     config.LabelOffsetAuto,
			expected: image.Pt(30/2-8*2/2, 17/2+13/2-1),
		},
		{
			name:     "explicit both",
			metrics:  Metrics{MaxAdvance: 8, Ascent: 13},
			offX:     3,
			offY:     12,
			expected: image.Pt(3, 12),
		},
		{
			name:     "explicit zero is not auto",
			metrics:  Metrics{MaxAdvance: 8, Ascent: 13},
			offX:     0,
			offY:     config.LabelOffsetAuto,
			expected: image.Pt(0, 13),
		},
		{
			name:     "odd advance",
			metrics:  Metrics{MaxAdvance: 7, Ascent: 10},
			offX:     config.LabelOffsetAuto,
			offY:     config.LabelOffsetAuto,
			expected: image.Pt(8, 12),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := LabelPosition(tt.metrics, 30, 17, 2, tt.offX, tt.offY)
			assert.Equal(t, tt.expected, pos)
			// deterministic
			assert.Equal(t, pos, LabelPosition(tt.metrics, 30, 17, 2, tt.offX, tt.offY))
		})
	}
}

func TestParseFont(t *testing.T) {
	tests := []struct {
		descriptor string
		expected   FontSpec
		wantErr    bool
	}{
		{descriptor: "monospace:size=10", expected: FontSpec{Family: "monospace", Size: 10}},
		{descriptor: "sans", expected: FontSpec{Family: "sans", Size: 10}},
		{descriptor: "monospace:bold:size=8.5", expected: FontSpec{Family: "monospace", Size: 8.5}},
		{descriptor: "monospace:pixelsize=16", expected: FontSpec{Family: "monospace", Size: 12}},
		{descriptor: ":size=10", wantErr: true},
		{descriptor: "monospace:size=big", wantErr: true},
		{descriptor: "monospace:size=-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			spec, err := ParseFont(tt.descriptor)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, spec)
		})
	}
}

func TestFontSpec_OpenUnknownFamily(t *testing.T) {
	_, err := FontSpec{Family: "Comic Sans", Size: 10}.Open()
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#222222")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}, c)

	c, err = ParseColor("#bbbbbb")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff}, c)

	_, err = ParseColor("grey")
	assert.Error(t, err)
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer(config.Default())
	require.NoError(t, err)
	defer r.Close()

	m := r.Metrics()
	assert.Positive(t, m.MaxAdvance)
	assert.Positive(t, m.Ascent)
	assert.Equal(t, LabelPosition(m, 30, 17, 2, -1, -1), r.Position())
	assert.Equal(t, image.Pt(30, 17), r.Size())
}

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer(config.Default())
	require.NoError(t, err)
	defer r.Close()

	img := r.Render("US")
	assert.Equal(t, image.Rect(0, 0, 30, 17), img.Bounds())

	// corner is background, some pixel carries foreground ink
	assert.Equal(t, r.Background, img.RGBAAt(0, 0))
	inked := false
	for y := 0; y < 17 && !inked; y++ {
		for x := 0; x < 30; x++ {
			if img.RGBAAt(x, y) != r.Background {
				inked = true
				break
			}
		}
	}
	assert.True(t, inked)

	// same label renders identically
	assert.Equal(t, img.Pix, r.Render("US").Pix)
	assert.NotEqual(t, img.Pix, r.Render("RU").Pix)
}

func TestNewRenderer_BadColor(t *testing.T) {
	cfg := config.Default()
	cfg.Background = "dark"
	_, err := NewRenderer(cfg)
	assert.Error(t, err)
}
