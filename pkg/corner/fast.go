package corner

const DefaultFastThreshold = 20

// Fast runs the FAST segment test on the raw image. Gradient buffers are not
// touched.
type Fast struct {
	Threshold int
}

func NewFast() *Fast {
	return &Fast{Threshold: DefaultFastThreshold}
}

func (f *Fast) Name() string {
	return "fast"
}
