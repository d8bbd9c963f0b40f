package camera

import (
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"cornercam/pkg/utils"
	"cornercam/pkg/yuv"
)

const (
	DefaultDevice  = "/dev/video0"
	DefaultBuffers = 4
)

var (
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrNegotiationFailed = errors.New("format negotiation failed")
	ErrMappingFailed     = errors.New("buffer mapping failed")
	ErrCaptureFailed     = errors.New("capture failed")
	ErrNotOpen           = errors.New("camera not open")
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

type Option func(*Camera)

// WithPalette selects the requested pixel layout, UYVY by default.
func WithPalette(p yuv.Palette) Option {
	return func(c *Camera) {
		c.palette = p
	}
}

// WithBufferCount sets how many capture buffers are requested from the
// driver. The driver may grant a different number.
func WithBufferCount(n int) Option {
	return func(c *Camera) {
		c.bufCount = n
	}
}

func WithDriver(d Driver) Option {
	return func(c *Camera) {
		c.drv = d
	}
}

// Camera is an open capture device negotiated to a fixed window and palette.
// It owns the driver memory mapping exclusively.
type Camera struct {
	path     string
	drv      Driver
	width    int
	height   int
	palette  yuv.Palette
	bufCount int

	lock      sync.Mutex
	open      bool
	layout    Layout
	mapped    [][]byte
	queued    []bool
	streaming bool
	raw       []byte
}

// Open opens the device at path and negotiates a width x height window in
// the requested palette. A device that cannot deliver exactly that window
// is rejected with ErrNegotiationFailed.
func Open(path string, width, height int, opts ...Option) (*Camera, error) {
	c := &Camera{
		path:     path,
		width:    width,
		height:   height,
		palette:  yuv.UYVY,
		bufCount: DefaultBuffers,
	}
	for _, o := range opts {
		o(c)
	}
	if c.drv == nil {
		c.drv = NewV4L2Driver()
	}
	if width <= 0 || height <= 0 || width%2 != 0 {
		return nil, fmt.Errorf("%w: invalid window %dx%d", ErrNegotiationFailed, width, height)
	}
	if FourCC(c.palette) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegotiationFailed, c.palette)
	}

	if err := c.drv.Open(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, path, err)
	}
	c.open = true

	if err := c.negotiate(); err != nil {
		_ = c.drv.Close()
		c.open = false
		return nil, err
	}
	c.raw = make([]byte, c.FrameSize())
	logger.Infof("camera %s: %dx%d %s, frame buffer %s", path, width, height, c.palette, humanize.IBytes(uint64(len(c.raw))))

	return c, nil
}

func (c *Camera) negotiate() error {
	cp, err := c.drv.Capability()
	if err != nil {
		logger.Warnf("camera %s: query capabilities: %v", c.path, err)
	} else {
		logger.Infof("camera %s: %s", c.path, cp)
	}

	cur, err := c.drv.Format()
	if err != nil {
		return fmt.Errorf("%w: read format: %w", ErrNegotiationFailed, err)
	}
	logger.Debugf("camera %s: current format %dx%d %s", c.path, cur.Width, cur.Height, FourCCString(cur.FourCC))

	want := cur
	want.FourCC = FourCC(c.palette)
	if err := c.drv.SetFormat(want); err != nil {
		return fmt.Errorf("%w: set palette %s: %w", ErrNegotiationFailed, c.palette, err)
	}
	got, err := c.drv.Format()
	if err != nil {
		return fmt.Errorf("%w: read format: %w", ErrNegotiationFailed, err)
	}
	if got.FourCC != want.FourCC {
		return fmt.Errorf("%w: palette %s not supported, device chose %s", ErrNegotiationFailed, c.palette, FourCCString(got.FourCC))
	}

	want = got
	want.Width, want.Height = c.width, c.height
	if err := c.drv.SetFormat(want); err != nil {
		return fmt.Errorf("%w: set window %dx%d: %w", ErrNegotiationFailed, c.width, c.height, err)
	}
	got, err = c.drv.Format()
	if err != nil {
		return fmt.Errorf("%w: read format: %w", ErrNegotiationFailed, err)
	}
	if got.Width != c.width || got.Height != c.height {
		return fmt.Errorf("%w: requested %dx%d, device set %dx%d", ErrNegotiationFailed, c.width, c.height, got.Width, got.Height)
	}

	return nil
}

// Probe reports the capabilities of the device at path without changing its
// format.
func Probe(path string, opts ...Option) (Capability, error) {
	c := &Camera{}
	for _, o := range opts {
		o(c)
	}
	if c.drv == nil {
		c.drv = NewV4L2Driver()
	}
	if err := c.drv.Open(path); err != nil {
		return Capability{}, fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, path, err)
	}
	defer c.drv.Close()

	return c.drv.Capability()
}

func (c *Camera) Width() int {
	return c.width
}

func (c *Camera) Height() int {
	return c.height
}

func (c *Camera) Palette() yuv.Palette {
	return c.palette
}

// FrameSize is the number of bytes of one packed 4:2:2 frame.
func (c *Camera) FrameSize() int {
	return yuv.FrameSize(c.width, c.height)
}

// Buffer returns the working buffer sized for one frame. It is owned by the
// camera; Grab(c.Buffer()) fills it in place.
func (c *Camera) Buffer() []byte {
	return c.raw
}

// Layout returns the capture memory layout, zero before the first Grab.
func (c *Camera) Layout() Layout {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.layout
}

// Grab waits for the next completed frame and copies it into out. The
// mapping is established on first use. While the driver reports EINTR or
// EAGAIN the wait is retried without limit.
func (c *Camera) Grab(out []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.open {
		return ErrNotOpen
	}
	n := c.FrameSize()
	if len(out) < n {
		return fmt.Errorf("%w: output is %d bytes, frame is %d", ErrCaptureFailed, len(out), n)
	}
	if err := c.mapBuffers(); err != nil {
		return err
	}

	for i, q := range c.queued {
		if q {
			continue
		}
		if err := c.drv.Queue(i); err != nil {
			return fmt.Errorf("%w: queue buffer %d: %w", ErrCaptureFailed, i, err)
		}
		c.queued[i] = true
	}
	if !c.streaming {
		if err := c.drv.StreamOn(); err != nil {
			return fmt.Errorf("%w: stream on: %w", ErrCaptureFailed, err)
		}
		c.streaming = true
	}

	var (
		idx, used int
		err       error
	)
	for {
		idx, used, err = c.drv.Dequeue()
		if err == nil {
			break
		}
		if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) {
			continue
		}
		return fmt.Errorf("%w: dequeue: %w", ErrCaptureFailed, err)
	}
	if idx < 0 || idx >= len(c.mapped) {
		return fmt.Errorf("%w: driver returned buffer %d of %d", ErrCaptureFailed, idx, len(c.mapped))
	}
	c.queued[idx] = false

	sub := c.mapped[idx]
	if used < n || len(sub) < n {
		return fmt.Errorf("%w: buffer %d holds %d bytes, frame is %d", ErrCaptureFailed, idx, min(used, len(sub)), n)
	}
	copy(out, sub[:n])

	return nil
}

func (c *Camera) mapBuffers() error {
	if c.mapped != nil {
		return nil
	}
	l, err := c.drv.RequestBuffers(c.bufCount)
	if err != nil {
		return fmt.Errorf("%w: request %d buffers: %w", ErrMappingFailed, c.bufCount, err)
	}
	if l.Count <= 0 || len(l.Offsets) != l.Count || len(l.Sizes) != l.Count {
		return fmt.Errorf("%w: driver granted %d buffers", ErrMappingFailed, l.Count)
	}
	mapped, err := c.drv.Map(l)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMappingFailed, err)
	}
	c.layout = l
	c.mapped = mapped
	c.queued = make([]bool, l.Count)
	logger.Infof("camera %s: mapped %d buffers, %s", c.path, l.Count, humanize.IBytes(uint64(l.Total)))

	return nil
}

// Close stops streaming, releases the mapping and closes the device.
// Closing a closed camera is a no-op.
func (c *Camera) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.open {
		return nil
	}
	c.open = false

	var errs []error
	if c.streaming {
		errs = append(errs, c.drv.StreamOff())
		c.streaming = false
	}
	if c.mapped != nil {
		errs = append(errs, c.drv.Unmap())
		c.mapped = nil
		c.queued = nil
	}
	errs = append(errs, c.drv.Close())
	logger.Infof("camera %s closed", c.path)

	return errors.Join(errs...)
}
