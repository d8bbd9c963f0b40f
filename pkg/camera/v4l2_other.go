//go:build !linux

package camera

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("video capture is only supported on linux, on " + runtime.GOOS)

// V4L2Driver is unavailable off linux; every call fails.
type V4L2Driver struct{}

func NewV4L2Driver() Driver {
	return V4L2Driver{}
}

func (V4L2Driver) Open(string) error                  { return errUnsupported }
func (V4L2Driver) Capability() (Capability, error)    { return Capability{}, errUnsupported }
func (V4L2Driver) Format() (Format, error)            { return Format{}, errUnsupported }
func (V4L2Driver) SetFormat(Format) error             { return errUnsupported }
func (V4L2Driver) RequestBuffers(int) (Layout, error) { return Layout{}, errUnsupported }
func (V4L2Driver) Map(Layout) ([][]byte, error)       { return nil, errUnsupported }
func (V4L2Driver) Unmap() error                       { return errUnsupported }
func (V4L2Driver) Queue(int) error                    { return errUnsupported }
func (V4L2Driver) Dequeue() (int, int, error)         { return 0, 0, errUnsupported }
func (V4L2Driver) StreamOn() error                    { return errUnsupported }
func (V4L2Driver) StreamOff() error                   { return errUnsupported }
func (V4L2Driver) Close() error                       { return nil }
