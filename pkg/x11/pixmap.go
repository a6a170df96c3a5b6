package x11

import (
	"errors"
	"fmt"
	"image"
	"math/bits"

	"github.com/jezek/xgb/xproto"
)

var ErrUnsupportedVisual = errors.New("unsupported visual")

// pixelFormat describes how the root visual lays out a pixel in a ZPixmap.
type pixelFormat struct {
	depth    byte
	bpp      byte
	lsbFirst bool
	red      uint32
	green    uint32
	blue     uint32
}

func newPixelFormat(setup *xproto.SetupInfo, screen *xproto.ScreenInfo) (pixelFormat, error) {
	f := pixelFormat{
		depth:    screen.RootDepth,
		lsbFirst: setup.ImageByteOrder == xproto.ImageOrderLSBFirst,
	}

	for _, pf := range setup.PixmapFormats {
		if pf.Depth == screen.RootDepth {
			f.bpp = pf.BitsPerPixel
		}
	}
	if f.bpp != 32 {
		return pixelFormat{}, fmt.Errorf("%w: %d bits per pixel at depth %d", ErrUnsupportedVisual, f.bpp, f.depth)
	}

	for _, d := range screen.AllowedDepths {
		for _, v := range d.Visuals {
			if v.VisualId != screen.RootVisual {
				continue
			}
			if v.Class != xproto.VisualClassTrueColor && v.Class != xproto.VisualClassDirectColor {
				return pixelFormat{}, fmt.Errorf("%w: visual class %d", ErrUnsupportedVisual, v.Class)
			}
			f.red, f.green, f.blue = v.RedMask, v.GreenMask, v.BlueMask
			return f, nil
		}
	}

	return pixelFormat{}, fmt.Errorf("%w: root visual %d not found", ErrUnsupportedVisual, screen.RootVisual)
}

// scale places an 8 bit channel value into the bits selected by mask.
func scale(v uint8, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)

	c := uint32(v)
	if width < 8 {
		c >>= 8 - width
	} else {
		c <<= width - 8
	}

	return (c << shift) & mask
}

// encode converts img into ZPixmap data for a 32 bits per pixel format.
func (f pixelFormat) encode(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*4)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			p := scale(c.R, f.red) | scale(c.G, f.green) | scale(c.B, f.blue)

			if f.lsbFirst {
				out = append(out, byte(p), byte(p>>8), byte(p>>16), byte(p>>24))
			} else {
				out = append(out, byte(p>>24), byte(p>>16), byte(p>>8), byte(p))
			}
		}
	}

	return out
}
