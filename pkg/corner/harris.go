package corner

import "cornercam/pkg/rawimage"

const (
	DefaultHarrisThreshold = 80
	DefaultEpsilon         = 5
)

// Harris scores every pixel with det(M)/(trace(M)+Epsilon), M being the
// smoothed structure tensor of the image gradients, and reports interior
// pixels scoring above Threshold. The ratio avoids an eigen decomposition
// and is slightly less selective than the minimum eigenvalue.
//
// M is built from products of first derivatives (Ix², Iy², IxIy) smoothed
// by the kernel, not from second-derivative tables. A Hessian determinant
// goes negative at the saddle where four checkerboard tiles meet, while
// det(M) stays positive there.
//
// Without Suppress every pixel above the threshold is reported, so a single
// feature usually yields a small cluster of corners.
type Harris struct {
	Kernel    Kernel
	Threshold float32
	Epsilon   float32
	// Suppress keeps only pixels that are maximal in their 3x3 neighbourhood.
	Suppress bool
}

func NewHarris() *Harris {
	return &Harris{
		Kernel:    Kernel7,
		Threshold: DefaultHarrisThreshold,
		Epsilon:   DefaultEpsilon,
	}
}

func (h *Harris) Name() string {
	return "harris"
}

func (h *Harris) Detect(img *rawimage.Image, d *Derivatives, add func(x, y int)) {
	h.Response(img, d)

	w, ht := img.Width, img.Height
	for x := 1; x < w-1; x++ {
		for y := 1; y < ht-1; y++ {
			v := d.Response[y*w+x]
			if v <= h.Threshold {
				continue
			}
			if h.Suppress && !localMax(d.Response, w, x, y) {
				continue
			}
			add(x, y)
		}
	}
}

// Response fills the gradient, tensor and response buffers of d for img.
func (h *Harris) Response(img *rawimage.Image, d *Derivatives) {
	w, ht := img.Width, img.Height
	n := w * ht
	p, d1 := h.Kernel.Smooth, h.Kernel.Deriv
	src := img.Data[:n]

	convolveSeparable(src, d.Gx, d.tmp, w, ht, d1, p)
	convolveSeparable(src, d.Gy, d.tmp, w, ht, p, d1)

	gx, gy := d.Gx[:n], d.Gy[:n]
	xx, yy, xy := d.Gxx[:n], d.Gyy[:n], d.Gxy[:n]
	for i := range gx {
		xx[i] = gx[i] * gx[i]
		yy[i] = gy[i] * gy[i]
		xy[i] = gx[i] * gy[i]
	}
	convolveSeparable(xx, xx, d.tmp, w, ht, p, p)
	convolveSeparable(yy, yy, d.tmp, w, ht, p, p)
	convolveSeparable(xy, xy, d.tmp, w, ht, p, p)

	eps := h.Epsilon
	r := d.Response[:n]
	for i := range r {
		a, b, c := xx[i], yy[i], xy[i]
		r[i] = (a*b - c*c) / (a + b + eps)
	}
}

func localMax(r []float32, width, x, y int) bool {
	v := r[y*width+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := r[(y+dy)*width+x+dx]
			// ties go to the first pixel in scan order
			if n > v || (n == v && (dx < 0 || (dx == 0 && dy < 0))) {
				return false
			}
		}
	}
	return true
}
