//go:build !gocv

package corner

import (
	"cornercam/pkg/fast"
	"cornercam/pkg/rawimage"
)

func (f *Fast) Detect(img *rawimage.Image, _ *Derivatives, add func(x, y int)) {
	for _, p := range fast.Detect(img.Data, img.Width, img.Height, img.Stride(), f.Threshold) {
		add(p.X, p.Y)
	}
}
