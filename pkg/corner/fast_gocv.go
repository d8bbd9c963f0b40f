//go:build gocv

package corner

import (
	"gocv.io/x/gocv"

	"cornercam/pkg/rawimage"
)

func (f *Fast) Detect(img *rawimage.Image, _ *Derivatives, add func(x, y int)) {
	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8U, img.Data[:img.Size()])
	if err != nil {
		logger.Errorf("corner: wrap image: %v", err)
		return
	}
	defer mat.Close()

	detector := gocv.NewFastFeatureDetectorWithParams(f.Threshold, false, gocv.FastFeatureDetectorType9To16)
	defer detector.Close()

	for _, kp := range detector.Detect(mat) {
		add(int(kp.X+0.5), int(kp.Y+0.5))
	}
}
