package corner

import "cornercam/pkg/rawimage"

// Derivatives holds the per-pixel working buffers of the detector. All seven
// buffers share the geometry of the most recent source image.
type Derivatives struct {
	Width  int
	Height int

	// Gx and Gy are the first order gradients.
	Gx, Gy []float32
	// Gxx, Gyy and Gxy are the smoothed second moments of the gradients.
	Gxx, Gyy, Gxy []float32
	// Response is the cornerness of every pixel.
	Response []float32
	// Display is the overlay rendered by the last detection.
	Display *rawimage.Image

	tmp []float32
}

func newDerivatives(width, height int) *Derivatives {
	n := width * height
	return &Derivatives{
		Width:    width,
		Height:   height,
		Gx:       make([]float32, n),
		Gy:       make([]float32, n),
		Gxx:      make([]float32, n),
		Gyy:      make([]float32, n),
		Gxy:      make([]float32, n),
		Response: make([]float32, n),
		Display:  rawimage.New(width, height, 1),
		tmp:      make([]float32, n),
	}
}

func (d *Derivatives) Size() int {
	return d.Width * d.Height
}
