package raster

import (
	"image"
	"image/color"
)

// tint multiplies every source pixel by a premultiplied vertex color.
type tint struct {
	src        *image.RGBA
	r, g, b, a uint32
}

// newTint wraps src with a packed ABGR premultiplied vertex color.
func newTint(src *image.RGBA, abgr uint32) *tint {
	return &tint{
		src: src,
		r:   abgr & 0xff,
		g:   abgr >> 8 & 0xff,
		b:   abgr >> 16 & 0xff,
		a:   abgr >> 24,
	}
}

func (t *tint) ColorModel() color.Model { return color.RGBAModel }

func (t *tint) Bounds() image.Rectangle { return t.src.Bounds() }

func (t *tint) At(x, y int) color.Color {
	c := t.src.RGBAAt(x, y)
	return color.RGBA{
		R: uint8(uint32(c.R) * t.r / 255),
		G: uint8(uint32(c.G) * t.g / 255),
		B: uint8(uint32(c.B) * t.b / 255),
		A: uint8(uint32(c.A) * t.a / 255),
	}
}
