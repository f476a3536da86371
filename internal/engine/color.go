package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// White is the default corner color (opaque white, 0xAARRGGBB).
const White uint32 = 0xFFFFFFFF

// mergeColorAlpha scales the ARGB color c by alpha and returns it
// premultiplied in ABGR byte order (R in the low byte), ready for upload.
func mergeColorAlpha(c uint32, alpha float64) uint32 {
	a := uint32(float64(c>>24) * alpha)
	if a > 255 {
		a = 255
	}
	r := ((c >> 16) & 0xff) * a / 255
	g := ((c >> 8) & 0xff) * a / 255
	b := (c & 0xff) * a / 255
	return r | g<<8 | b<<16 | a<<24
}

// packTexCoord packs normalized texture coordinates into 16 bits each,
// u in the low half and v in the high half.
func packTexCoord(u, v float64) uint32 {
	return uint32(clamp01(u)*65535+0.5) | uint32(clamp01(v)*65535+0.5)<<16
}

// UnpackTexCoord reverses packTexCoord.
func UnpackTexCoord(p uint32) (u, v float64) {
	return float64(p&0xffff) / 65535, float64(p>>16) / 65535
}

// UnpackColor splits a premultiplied ABGR vertex color into components.
func UnpackColor(c uint32) (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// ParseColor parses "#RRGGBB" or "#AARRGGBB" into ARGB. An empty string
// yields White.
func ParseColor(s string) (uint32, error) {
	if s == "" {
		return White, nil
	}
	hex := strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", s, err)
	}
	switch len(hex) {
	case 6:
		return 0xFF000000 | uint32(v), nil
	case 8:
		return uint32(v), nil
	}
	return 0, fmt.Errorf("parse color %q: want #RRGGBB or #AARRGGBB", s)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
