package camera

import (
	"fmt"

	"cornercam/pkg/yuv"
)

// Capability describes a capture device.
type Capability struct {
	Driver    string `json:"driver"`
	Card      string `json:"card"`
	BusInfo   string `json:"busInfo"`
	Capture   bool   `json:"capture"`
	Streaming bool   `json:"streaming"`
	MaxWidth  int    `json:"maxWidth"`
	MaxHeight int    `json:"maxHeight"`
}

func (c Capability) String() string {
	return fmt.Sprintf("%s (%s) on %s, capture=%t streaming=%t, max %dx%d",
		c.Card, c.Driver, c.BusInfo, c.Capture, c.Streaming, c.MaxWidth, c.MaxHeight)
}

// Format is the picture format of a device: window size and pixel layout.
type Format struct {
	Width  int
	Height int
	FourCC uint32
}

// Layout describes the driver managed capture memory: Count sub-buffers of
// Sizes[i] bytes at Offsets[i] inside a region of Total bytes.
type Layout struct {
	Count   int
	Offsets []int64
	Sizes   []int
	Total   int
}

// Driver is the device control surface used by Camera. Implementations are
// not required to be safe for concurrent use.
type Driver interface {
	Open(path string) error
	Capability() (Capability, error)
	Format() (Format, error)
	SetFormat(f Format) error
	// RequestBuffers asks for count capture buffers and reports what the
	// driver granted.
	RequestBuffers(count int) (Layout, error)
	// Map makes every sub-buffer of l addressable.
	Map(l Layout) ([][]byte, error)
	Unmap() error
	Queue(index int) error
	// Dequeue blocks until a queued sub-buffer holds a frame and returns its
	// index and the number of bytes written. EINTR and EAGAIN are returned
	// unchanged.
	Dequeue() (index, used int, err error)
	StreamOn() error
	StreamOff() error
	Close() error
}

const (
	FourCCUYVY uint32 = 'U' | 'Y'<<8 | 'V'<<16 | 'Y'<<24
	FourCCYUYV uint32 = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
)

// FourCC returns the device pixel format code of p, zero if unknown.
func FourCC(p yuv.Palette) uint32 {
	switch p {
	case yuv.UYVY:
		return FourCCUYVY
	case yuv.YUYV:
		return FourCCYUYV
	}
	return 0
}

func PaletteOf(fourcc uint32) yuv.Palette {
	switch fourcc {
	case FourCCUYVY:
		return yuv.UYVY
	case FourCCYUYV:
		return yuv.YUYV
	}
	return yuv.Unknown
}

func FourCCString(v uint32) string {
	b := []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	for _, c := range b {
		if c < ' ' || c > '~' {
			return fmt.Sprintf("0x%08x", v)
		}
	}
	return string(b)
}
