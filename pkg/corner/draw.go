package corner

import "cornercam/pkg/rawimage"

const (
	white = 255
	black = 0

	// crossArm is the half length of a drawn cross.
	crossArm = 4
)

// DrawCorners clears canvas to white and draws a black cross on every corner,
// clipped to the canvas.
func DrawCorners(corners []Corner, canvas *rawimage.Image) {
	data := canvas.Data[:canvas.Size()*canvas.Bpp]
	for i := range data {
		data[i] = white
	}

	set := func(x, y int) {
		if x < 0 || x >= canvas.Width || y < 0 || y >= canvas.Height {
			return
		}
		i := (y*canvas.Width + x) * canvas.Bpp
		for c := 0; c < canvas.Bpp; c++ {
			data[i+c] = black
		}
	}
	for _, c := range corners {
		for d := -crossArm; d < crossArm; d++ {
			set(c.X+d, c.Y)
			set(c.X, c.Y+d)
		}
	}
}
