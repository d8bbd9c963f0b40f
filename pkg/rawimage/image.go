// Package rawimage holds the flat pixel buffers shared by the camera, the
// converter and the corner detector.
package rawimage

import (
	"fmt"
	"image"
	"image/color"
)

// Image is a width x height buffer of Bpp bytes per pixel. Bpp 1 is
// monochrome, Bpp 3 is interleaved R, G, B. The pixel at (x, y) starts at
// Data[(y*Width+x)*Bpp].
type Image struct {
	Width  int
	Height int
	Bpp    int
	Data   []byte
}

func New(width, height, bpp int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Bpp:    bpp,
		Data:   make([]byte, width*height*bpp),
	}
}

// Size is the number of pixels.
func (m *Image) Size() int {
	return m.Width * m.Height
}

func (m *Image) Stride() int {
	return m.Width * m.Bpp
}

func (m *Image) IsMonochrome() bool {
	return m.Bpp == 1
}

// SetBpp changes the pixel depth, growing Data when needed. Pixel content is
// not preserved.
func (m *Image) SetBpp(bpp int) {
	m.Bpp = bpp
	if n := m.Size() * bpp; cap(m.Data) < n {
		m.Data = make([]byte, n)
	} else {
		m.Data = m.Data[:n]
	}
}

// MakeMonochrome writes the luma of m into dst, which must have the same
// geometry and Bpp 1. A nil dst converts m in place.
func (m *Image) MakeMonochrome(dst *Image) error {
	if m.Bpp != 3 && m.Bpp != 1 {
		return fmt.Errorf("cannot convert %d bytes per pixel to monochrome", m.Bpp)
	}
	if dst == nil {
		dst = m
	} else if dst.Width != m.Width || dst.Height != m.Height || dst.Bpp != 1 {
		return fmt.Errorf("destination %dx%dx%d does not match %dx%d", dst.Width, dst.Height, dst.Bpp, m.Width, m.Height)
	}
	if m.Bpp == 1 {
		if dst != m {
			copy(dst.Data, m.Data)
		}
		return nil
	}

	n := m.Size()
	for i := 0; i < n; i++ {
		s := m.Data[i*3 : i*3+3 : i*3+3]
		dst.Data[i] = byte((299*int(s[0]) + 587*int(s[1]) + 114*int(s[2]) + 500) / 1000)
	}
	if dst == m {
		m.Bpp = 1
		m.Data = m.Data[:n]
	}

	return nil
}

func (m *Image) ColorModel() color.Model {
	if m.Bpp == 1 {
		return color.GrayModel
	}
	return color.RGBAModel
}

func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Bounds())) {
		if m.Bpp == 1 {
			return color.Gray{}
		}
		return color.RGBA{}
	}
	i := (y*m.Width + x) * m.Bpp
	if m.Bpp == 1 {
		return color.Gray{Y: m.Data[i]}
	}
	s := m.Data[i : i+3 : i+3] // Small cap improves performance, see https://golang.org/issue/27857
	return color.RGBA{R: s[0], G: s[1], B: s[2], A: 0xff}
}

// Std returns a copy as *image.Gray or *image.RGBA, the types the standard
// encoders have fast paths for.
func (m *Image) Std() image.Image {
	r := m.Bounds()
	if m.Bpp == 1 {
		g := image.NewGray(r)
		copy(g.Pix, m.Data)
		return g
	}
	out := image.NewRGBA(r)
	RGBToRGBA(m.Data, out.Pix, m.Width, m.Height)
	return out
}

// FromImage copies any image into a new buffer of the given depth.
func FromImage(src image.Image, bpp int) *Image {
	b := src.Bounds()
	m := New(b.Dx(), b.Dy(), bpp)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c := src.At(b.Min.X+x, b.Min.Y+y)
			i := (y*m.Width + x) * bpp
			if bpp == 1 {
				m.Data[i] = color.GrayModel.Convert(c).(color.Gray).Y
				continue
			}
			rgba := color.RGBAModel.Convert(c).(color.RGBA)
			m.Data[i], m.Data[i+1], m.Data[i+2] = rgba.R, rgba.G, rgba.B
		}
	}
	return m
}

func RGBToRGBA(in, out []byte, width, height int) {
	outStride := width * 4
	inStride := width * 3

	for i := 0; i < height; i++ {
		oIndex := i * outStride
		iIndex := i * inStride
		for j := 0; j < width; j++ {
			out[oIndex] = in[iIndex]
			out[oIndex+1] = in[iIndex+1]
			out[oIndex+2] = in[iIndex+2]
			out[oIndex+3] = 0xff

			oIndex += 4
			iIndex += 3
		}
	}
}
