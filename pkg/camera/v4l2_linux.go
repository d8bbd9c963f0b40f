//go:build linux

package camera

import (
	"context"
	"fmt"

	"github.com/vladimirvivien/go4vl/v4l2"
	"golang.org/x/sys/unix"
)

// V4L2Driver drives a Video4Linux2 capture device with memory mapped
// streaming I/O. The device is opened in blocking mode.
type V4L2Driver struct {
	path    string
	fd      uintptr
	open    bool
	cap     v4l2.Capability
	count   uint32
	buffers [][]byte
}

func NewV4L2Driver() Driver {
	return &V4L2Driver{}
}

func (d *V4L2Driver) Open(path string) error {
	fd, err := v4l2.OpenDevice(path, unix.O_RDWR, 0)
	if err != nil {
		return err
	}
	d.path = path
	d.fd = fd
	d.open = true
	return nil
}

func (d *V4L2Driver) Capability() (Capability, error) {
	cp, err := v4l2.GetCapability(d.fd)
	if err != nil {
		return Capability{}, err
	}
	d.cap = cp
	res := Capability{
		Driver:    cp.Driver,
		Card:      cp.Card,
		BusInfo:   cp.BusInfo,
		Capture:   cp.IsVideoCaptureSupported(),
		Streaming: cp.IsStreamingSupported(),
	}

	sizes, err := v4l2.GetAllFormatFrameSizes(d.fd)
	if err != nil {
		logger.Debugf("enumerate frame sizes: %v", err)
		return res, nil
	}
	for _, size := range sizes {
		w, h := int(size.Size.MaxWidth), int(size.Size.MaxHeight)
		if w*h > res.MaxWidth*res.MaxHeight {
			res.MaxWidth, res.MaxHeight = w, h
		}
	}

	return res, nil
}

func (d *V4L2Driver) Format() (Format, error) {
	pix, err := v4l2.GetPixFormat(d.fd)
	if err != nil {
		return Format{}, err
	}
	return Format{
		Width:  int(pix.Width),
		Height: int(pix.Height),
		FourCC: uint32(pix.PixelFormat),
	}, nil
}

func (d *V4L2Driver) SetFormat(f Format) error {
	return v4l2.SetPixFormat(d.fd, v4l2.PixFormat{
		Width:       uint32(f.Width),
		Height:      uint32(f.Height),
		PixelFormat: v4l2.FourCCType(f.FourCC),
		Field:       v4l2.FieldNone,
	})
}

func (d *V4L2Driver) RequestBuffers(count int) (Layout, error) {
	d.count = uint32(count)
	req, err := v4l2.InitBuffers(d.stream())
	if err != nil {
		return Layout{}, err
	}
	d.count = req.Count

	l := Layout{Count: int(req.Count)}
	for i := uint32(0); i < req.Count; i++ {
		buf, err := v4l2.GetBuffer(d.stream(), i)
		if err != nil {
			return Layout{}, fmt.Errorf("buffer %d: %w", i, err)
		}
		l.Offsets = append(l.Offsets, int64(buf.Info.Offset))
		l.Sizes = append(l.Sizes, int(buf.Length))
		l.Total += int(buf.Length)
	}

	return l, nil
}

func (d *V4L2Driver) Map(l Layout) ([][]byte, error) {
	if uint32(l.Count) != d.count {
		return nil, fmt.Errorf("layout has %d buffers, device granted %d", l.Count, d.count)
	}
	buffers, err := v4l2.MapMemoryBuffers(d.stream())
	if err != nil {
		return nil, err
	}
	d.buffers = buffers
	return d.buffers, nil
}

func (d *V4L2Driver) Unmap() error {
	if d.buffers == nil {
		return nil
	}
	err := v4l2.UnmapMemoryBuffers(d.stream())
	d.buffers = nil
	return err
}

func (d *V4L2Driver) Queue(index int) error {
	_, err := v4l2.QueueBuffer(d.fd, v4l2.IOTypeMMAP, v4l2.BufTypeVideoCapture, uint32(index))
	return err
}

// Dequeue returns the raw errno for EINTR and EAGAIN so callers can retry.
func (d *V4L2Driver) Dequeue() (int, int, error) {
	buf, err := v4l2.DequeueBuffer(d.fd, v4l2.IOTypeMMAP, v4l2.BufTypeVideoCapture)
	if err != nil {
		return 0, 0, err
	}
	return int(buf.Index), int(buf.BytesUsed), nil
}

func (d *V4L2Driver) StreamOn() error {
	return v4l2.StreamOn(d.stream())
}

func (d *V4L2Driver) StreamOff() error {
	return v4l2.StreamOff(d.stream())
}

func (d *V4L2Driver) Close() error {
	if !d.open {
		return nil
	}
	d.open = false
	return v4l2.CloseDevice(d.fd)
}

func (d *V4L2Driver) stream() v4l2.StreamingDevice {
	return streamDevice{d}
}

// streamDevice presents the driver to the v4l2 buffer helpers. Streaming is
// driven by Camera, so the channel based Start and output are not provided.
type streamDevice struct {
	d *V4L2Driver
}

func (s streamDevice) Name() string                { return s.d.path }
func (s streamDevice) Fd() uintptr                 { return s.d.fd }
func (s streamDevice) Capability() v4l2.Capability { return s.d.cap }
func (s streamDevice) MemIOType() v4l2.IOType      { return v4l2.IOTypeMMAP }
func (s streamDevice) GetOutput() <-chan []byte    { return nil }
func (s streamDevice) SetInput(<-chan []byte)      {}
func (s streamDevice) Close() error                { return s.d.Close() }
func (s streamDevice) Buffers() [][]byte           { return s.d.buffers }
func (s streamDevice) BufferType() v4l2.BufType    { return v4l2.BufTypeVideoCapture }
func (s streamDevice) BufferCount() uint32         { return s.d.count }
func (s streamDevice) Start(context.Context) error { return v4l2.ErrorUnsupported }
func (s streamDevice) Stop() error                 { return v4l2.StreamOff(s) }
