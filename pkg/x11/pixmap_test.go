package x11

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScale(t *testing.T) {
	assert.Equal(t, uint32(0xab0000), scale(0xab, 0xff0000))
	assert.Equal(t, uint32(0x00ab00), scale(0xab, 0x00ff00))
	assert.Equal(t, uint32(0x0000ab), scale(0xab, 0x0000ff))
	assert.Equal(t, uint32(0x3fc00000), scale(0xff, 0x3ff00000))
	assert.Equal(t, uint32(0xf800), scale(0xff, 0xf800))
	assert.Equal(t, uint32(0), scale(0xff, 0))
}

func TestPixelFormat_Encode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0x22, G: 0x33, B: 0x44, A: 0xff})
	img.SetRGBA(1, 0, color.RGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff})

	f := pixelFormat{depth: 24, bpp: 32, red: 0xff0000, green: 0x00ff00, blue: 0x0000ff}

	f.lsbFirst = true
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x00, 0xbb, 0xbb, 0xbb, 0x00}, f.encode(img))

	f.lsbFirst = false
	assert.Equal(t, []byte{0x00, 0x22, 0x33, 0x44, 0x00, 0xbb, 0xbb, 0xbb}, f.encode(img))
}
