// Package corner extracts corner features from monochrome images.
//
// A Detector owns the derivative buffers sized to the last image handed to
// SetImage and delegates the actual search to a Strategy. Every strategy
// reports candidates through the same border policy: nothing closer than
// Margin pixels to an edge is kept, since such features may leave the field
// of view on the next frame.
package corner

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cornercam/pkg/rawimage"
	"cornercam/pkg/utils"
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

// Margin is the minimum distance between a corner and any image edge.
const Margin = 10

var (
	// ErrInvalidImage is the panic value (wrapped) when SetImage receives a
	// multi-channel image.
	ErrInvalidImage = errors.New("invalid image")
	ErrNoImage      = errors.New("no image set")
	ErrStrategy     = errors.New("unknown strategy")
)

// Corner is a feature position in pixels.
type Corner struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Strategy searches img for corner candidates and reports each through add.
// d is sized to img and may be used as scratch space.
type Strategy interface {
	Name() string
	Detect(img *rawimage.Image, d *Derivatives, add func(x, y int))
}

// StrategyByName returns the default configured strategy for "harris" or
// "fast".
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "harris":
		return NewHarris(), nil
	case "fast":
		return NewFast(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrStrategy, name)
}

type Option func(*Detector)

func WithStrategy(s Strategy) Option {
	return func(d *Detector) {
		d.strategy = s
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Detector) {
		d.logger = l
	}
}

// Detector is not safe for concurrent use; callers that need parallel
// detection use one Detector each.
type Detector struct {
	strategy Strategy
	logger   *zap.SugaredLogger

	img *rawimage.Image
	d   *Derivatives
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		strategy: NewHarris(),
		logger:   logger,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (dt *Detector) Strategy() Strategy {
	return dt.strategy
}

// SetImage selects the image searched by Corners. The image is never
// modified or retained beyond the next SetImage call. Derivative buffers are
// reused while the pixel count stays the same and rebuilt otherwise.
//
// SetImage panics if img is not monochrome.
func (dt *Detector) SetImage(img *rawimage.Image) {
	if img == nil || !img.IsMonochrome() {
		bpp := 0
		if img != nil {
			bpp = img.Bpp
		}
		panic(fmt.Errorf("%w: need 1 byte per pixel, got %d", ErrInvalidImage, bpp))
	}
	dt.img = img

	if dt.d != nil && dt.d.Size() == img.Size() {
		dt.d.Width, dt.d.Height = img.Width, img.Height
		dt.d.Display.Width, dt.d.Display.Height = img.Width, img.Height
		return
	}
	if dt.d != nil {
		dt.logger.Debugf("corner: reallocating derivatives %dx%d -> %dx%d", dt.d.Width, dt.d.Height, img.Width, img.Height)
	}
	dt.d = newDerivatives(img.Width, img.Height)
}

// Derivatives returns the working buffers, nil before the first SetImage.
func (dt *Detector) Derivatives() *Derivatives {
	return dt.d
}

// Display returns the overlay drawn by the last Corners call.
func (dt *Detector) Display() *rawimage.Image {
	if dt.d == nil {
		return nil
	}
	return dt.d.Display
}

// Corners runs the strategy over the current image and renders the result
// into the display buffer.
func (dt *Detector) Corners() ([]Corner, error) {
	if dt.img == nil {
		return nil, ErrNoImage
	}

	var corners []Corner
	dt.strategy.Detect(dt.img, dt.d, func(x, y int) {
		corners = addCorner(corners, dt.img.Width, dt.img.Height, x, y)
	})
	DrawCorners(corners, dt.d.Display)

	return corners, nil
}

// addCorner appends (x, y) unless it lies within Margin of an edge.
func addCorner(corners []Corner, width, height, x, y int) []Corner {
	if x < Margin || y < Margin {
		return corners
	}
	if x > width-Margin || y > height-Margin {
		return corners
	}
	return append(corners, Corner{X: x, Y: y})
}
