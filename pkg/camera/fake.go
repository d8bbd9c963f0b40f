package camera

import (
	"errors"
	"fmt"
	"syscall"

	"cornercam/pkg/yuv"
)

var errFakeState = errors.New("fake driver: invalid state")

// FakeDriver is an in-memory Driver. By default it accepts any format and
// produces a moving checkerboard in the negotiated palette.
type FakeDriver struct {
	Cap Capability
	// FourCCs restricts the accepted pixel formats. Empty accepts any.
	FourCCs []uint32
	// Adjust rewrites a requested window the way a driver rounding to its
	// supported sizes would.
	Adjust func(width, height int) (int, int)
	// Short shrinks every sub-buffer by this many bytes.
	Short int
	// ZeroUsed makes Dequeue report no bytes used, as drivers do for
	// frames dropped on error.
	ZeroUsed bool
	// Transient errors are returned by Dequeue, one per call, before any
	// frame is delivered.
	Transient []error
	// Fill renders frame number seq into buf.
	Fill func(f Format, seq int, buf []byte)

	OpenErr    error
	RequestErr error
	MapErr     error

	Opened    bool
	Streaming bool
	Queued    int
	Dequeued  int

	format  Format
	layout  Layout
	buffers [][]byte
	ready   []int
	seq     int
}

func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		Cap: Capability{
			Driver:    "fake",
			Card:      "Fake Camera",
			BusInfo:   "memory",
			Capture:   true,
			Streaming: true,
			MaxWidth:  1280,
			MaxHeight: 960,
		},
		format: Format{Width: 640, Height: 480, FourCC: FourCCYUYV},
	}
}

func (d *FakeDriver) Open(string) error {
	if d.OpenErr != nil {
		return d.OpenErr
	}
	d.Opened = true
	return nil
}

func (d *FakeDriver) Capability() (Capability, error) {
	return d.Cap, nil
}

func (d *FakeDriver) Format() (Format, error) {
	return d.format, nil
}

func (d *FakeDriver) SetFormat(f Format) error {
	if len(d.FourCCs) > 0 {
		ok := false
		for _, c := range d.FourCCs {
			ok = ok || c == f.FourCC
		}
		if !ok {
			return syscall.EINVAL
		}
	}
	if d.Adjust != nil {
		f.Width, f.Height = d.Adjust(f.Width, f.Height)
	}
	d.format = f
	return nil
}

func (d *FakeDriver) RequestBuffers(count int) (Layout, error) {
	if d.RequestErr != nil {
		return Layout{}, d.RequestErr
	}
	size := yuv.FrameSize(d.format.Width, d.format.Height) - d.Short
	if size < 0 {
		size = 0
	}
	l := Layout{Count: count}
	for i := 0; i < count; i++ {
		l.Offsets = append(l.Offsets, int64(l.Total))
		l.Sizes = append(l.Sizes, size)
		l.Total += size
	}
	d.layout = l
	return l, nil
}

func (d *FakeDriver) Map(l Layout) ([][]byte, error) {
	if d.MapErr != nil {
		return nil, d.MapErr
	}
	mem := make([]byte, l.Total)
	d.buffers = make([][]byte, l.Count)
	for i := range d.buffers {
		off := int(l.Offsets[i])
		d.buffers[i] = mem[off : off+l.Sizes[i] : off+l.Sizes[i]]
	}
	return d.buffers, nil
}

func (d *FakeDriver) Unmap() error {
	d.buffers = nil
	d.ready = nil
	return nil
}

func (d *FakeDriver) Queue(index int) error {
	if index < 0 || index >= len(d.buffers) {
		return fmt.Errorf("%w: queue buffer %d", errFakeState, index)
	}
	d.ready = append(d.ready, index)
	d.Queued++
	return nil
}

func (d *FakeDriver) Dequeue() (int, int, error) {
	if !d.Streaming {
		return 0, 0, fmt.Errorf("%w: not streaming", errFakeState)
	}
	if len(d.Transient) > 0 {
		err := d.Transient[0]
		d.Transient = d.Transient[1:]
		return 0, 0, err
	}
	if len(d.ready) == 0 {
		return 0, 0, fmt.Errorf("%w: no buffer queued", errFakeState)
	}
	idx := d.ready[0]
	d.ready = d.ready[1:]

	buf := d.buffers[idx]
	fill := d.Fill
	if fill == nil {
		fill = Checkerboard
	}
	fill(d.format, d.seq, buf)
	d.seq++
	d.Dequeued++
	if d.ZeroUsed {
		return idx, 0, nil
	}

	return idx, len(buf), nil
}

func (d *FakeDriver) StreamOn() error {
	d.Streaming = true
	return nil
}

func (d *FakeDriver) StreamOff() error {
	d.Streaming = false
	return nil
}

func (d *FakeDriver) Close() error {
	d.Opened = false
	return nil
}

const checkerTile = 32

// Checkerboard renders a black and white checkerboard scrolling one pixel
// per frame to the right, in the palette of f.
func Checkerboard(f Format, seq int, buf []byte) {
	yOff := [2]int{1, 3}
	if PaletteOf(f.FourCC) == yuv.YUYV {
		yOff = [2]int{0, 2}
	}
	for i := range buf {
		buf[i] = 128
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x += 2 {
			i := (y*f.Width + x) * 2
			if i+3 >= len(buf) {
				return
			}
			for k := 0; k < 2; k++ {
				v := byte(16)
				if ((x+k+seq)/checkerTile+y/checkerTile)%2 == 1 {
					v = 235
				}
				buf[i+yOff[k]] = v
			}
		}
	}
}
