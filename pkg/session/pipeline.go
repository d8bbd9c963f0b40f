package session

import (
	"context"
	"errors"
	"time"

	"cornercam/pkg/corner"
	"cornercam/pkg/rawimage"
)

// Frame is handed to every sink after a detection pass. The images are
// owned by the pipeline and only valid during the call.
type Frame struct {
	Result  Result
	RGB     *rawimage.Image
	Gray    *rawimage.Image
	Overlay *rawimage.Image
}

type Sink func(f Frame) error

// Pipeline runs capture, monochrome conversion and corner detection on a
// single goroutine.
type Pipeline struct {
	sess  *Session
	det   *corner.Detector
	sinks []Sink

	rgb  rawimage.Image
	gray rawimage.Image
}

func NewPipeline(sess *Session, det *corner.Detector, sinks ...Sink) *Pipeline {
	return &Pipeline{sess: sess, det: det, sinks: sinks}
}

// Step processes one frame. Capture errors are returned after being counted
// by the session.
func (p *Pipeline) Step(ctx context.Context) error {
	if err := p.sess.Renew(ctx); err != nil {
		return err
	}
	seq := p.sess.Snapshot(&p.rgb)

	p.gray.Width, p.gray.Height = p.rgb.Width, p.rgb.Height
	p.gray.SetBpp(1)
	if err := p.rgb.MakeMonochrome(&p.gray); err != nil {
		return err
	}
	p.det.SetImage(&p.gray)
	corners, err := p.det.Corners()
	if err != nil {
		return err
	}

	res := Result{
		Seq:     seq,
		Method:  p.det.Strategy().Name(),
		Corners: corners,
		At:      time.Now(),
	}
	p.sess.SetResult(res)
	logger.Debugf("frame %d: %d %s corners", seq, len(corners), res.Method)

	f := Frame{Result: res, RGB: &p.rgb, Gray: &p.gray, Overlay: p.det.Display()}
	var errs []error
	for _, s := range p.sinks {
		if err := s(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run calls Step until ctx is done or, when frames > 0, that many frames
// were attempted. Failed frames are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, frames int) error {
	for i := 0; frames <= 0 || i < frames; i++ {
		err := p.Step(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logger.Warnf("frame %d: %v", i, err)
		}
	}
	return nil
}
