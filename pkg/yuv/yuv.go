// Package yuv converts packed 4:2:2 frames into interleaved 24-bit RGB.
package yuv

import (
	"errors"
	"fmt"
	"strings"
)

// Palette is the byte ordering of a packed 4:2:2 frame. It is resolved once
// when the device is negotiated and handed to Convert explicitly.
type Palette uint8

const (
	Unknown Palette = iota
	// UYVY stores a macropixel as U0 Y0 V0 Y1.
	UYVY
	// YUYV stores a macropixel as Y0 U0 Y1 V0.
	YUYV
)

var ErrPalette = errors.New("unsupported palette")

func (p Palette) String() string {
	switch p {
	case UYVY:
		return "uyvy"
	case YUYV:
		return "yuyv"
	default:
		return "unknown"
	}
}

// ParsePalette accepts the names returned by Palette.String.
func ParsePalette(s string) (Palette, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uyvy":
		return UYVY, nil
	case "yuyv", "yuy2":
		return YUYV, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrPalette, s)
}

// offsets returns the position of Y0, U, Y1 and V inside a macropixel.
func (p Palette) offsets() (y0, u, y1, v int, ok bool) {
	switch p {
	case UYVY:
		return 1, 0, 3, 2, true
	case YUYV:
		return 0, 1, 2, 3, true
	}
	return 0, 0, 0, 0, false
}

// FrameSize is the number of bytes of a packed width x height frame.
func FrameSize(width, height int) int {
	return width * height * 2
}

// chroma contributions, full range BT.601
var (
	rFromV [256]int32
	gFromU [256]int32
	gFromV [256]int32
	bFromU [256]int32
)

func init() {
	for i := 0; i < 256; i++ {
		c := int32(i - 128)
		// 16.16 fixed point, rounded
		rFromV[i] = (91881*c + 32768) >> 16
		gFromU[i] = (22554*c + 32768) >> 16
		gFromV[i] = (46802*c + 32768) >> 16
		bFromU[i] = (116130*c + 32768) >> 16
	}
}

func clamp(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Convert expands the packed frame in into RGB triplets in out. Every four
// input bytes produce two pixels (six output bytes). in must hold at least
// FrameSize(width, height) bytes and out at least width*height*3.
func Convert(p Palette, in, out []byte, width, height int) error {
	oy0, ou, oy1, ov, ok := p.offsets()
	if !ok {
		return fmt.Errorf("%w: %s", ErrPalette, p)
	}
	pixels := width * height
	if width <= 0 || height <= 0 || width%2 != 0 {
		return fmt.Errorf("invalid geometry %dx%d, width must be even", width, height)
	}
	if len(in) < FrameSize(width, height) {
		return fmt.Errorf("input is %d bytes, need %d", len(in), FrameSize(width, height))
	}
	if len(out) < pixels*3 {
		return fmt.Errorf("output is %d bytes, need %d", len(out), pixels*3)
	}

	j := 0
	for i := 0; i < pixels*2; i += 4 {
		g := in[i : i+4 : i+4]
		y0, y1 := int32(g[oy0]), int32(g[oy1])
		u, v := g[ou], g[ov]
		r, gg, b := rFromV[v], gFromU[u]+gFromV[v], bFromU[u]

		o := out[j : j+6 : j+6]
		o[0] = clamp(y0 + r)
		o[1] = clamp(y0 - gg)
		o[2] = clamp(y0 + b)
		o[3] = clamp(y1 + r)
		o[4] = clamp(y1 - gg)
		o[5] = clamp(y1 + b)
		j += 6
	}

	return nil
}
