// Package session ties a capture device to the shared RGB frame read by
// consumers such as the preview server.
//
// The acquisition goroutine calls Renew in a loop. Capture happens outside
// the session lock, conversion into the shared image happens inside it, so
// readers using View or Snapshot never observe a half written frame.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"cornercam/pkg/corner"
	"cornercam/pkg/rawimage"
	"cornercam/pkg/utils"
	"cornercam/pkg/yuv"
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

// Grabber is the capture side of a session, satisfied by *camera.Camera.
// Buffer is the grabber's own working buffer of one packed frame; the
// session captures into it.
type Grabber interface {
	Buffer() []byte
	Grab(out []byte) error
	Width() int
	Height() int
	Palette() yuv.Palette
}

// Result is the outcome of one detection pass.
type Result struct {
	Seq     uint64          `json:"seq"`
	Method  string          `json:"method"`
	Corners []corner.Corner `json:"corners"`
	At      time.Time       `json:"at"`
}

type Stats struct {
	Frames      uint64    `json:"frames"`
	Failures    uint64    `json:"failures"`
	LastError   string    `json:"lastError,omitempty"`
	LastFrameAt time.Time `json:"lastFrameAt"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Palette     string    `json:"palette"`
}

type Session struct {
	cam Grabber
	raw []byte

	frames   atomic.Uint64
	failures atomic.Uint64

	lock        sync.Mutex
	rgb         *rawimage.Image
	seq         uint64
	lastFrameAt time.Time
	lastErr     error
	result      Result
}

func New(cam Grabber) *Session {
	w, h := cam.Width(), cam.Height()
	s := &Session{
		cam: cam,
		raw: cam.Buffer(),
		rgb: rawimage.New(w, h, 3),
	}
	logger.Debugf("session %dx%d: raw %s, rgb %s", w, h,
		humanize.IBytes(uint64(len(s.raw))), humanize.IBytes(uint64(len(s.rgb.Data))))
	return s
}

// Renew captures one frame and publishes it as the shared RGB image. A
// failed capture is counted and returned; the session stays usable.
func (s *Session) Renew(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.cam.Grab(s.raw); err != nil {
		s.fail(err)
		return err
	}

	s.lock.Lock()
	err := yuv.Convert(s.cam.Palette(), s.raw, s.rgb.Data, s.rgb.Width, s.rgb.Height)
	if err == nil {
		s.seq++
		s.lastFrameAt = time.Now()
	}
	s.lock.Unlock()

	if err != nil {
		err = fmt.Errorf("convert frame: %w", err)
		s.fail(err)
		return err
	}
	s.frames.Add(1)

	return nil
}

func (s *Session) fail(err error) {
	n := s.failures.Add(1)
	s.lock.Lock()
	s.lastErr = err
	s.lock.Unlock()
	logger.Warnf("session: frame failed (%d so far): %v", n, err)
}

// View runs fn with the shared image and its sequence number while holding
// the session lock. fn must not retain img.
func (s *Session) View(fn func(img *rawimage.Image, seq uint64)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	fn(s.rgb, s.seq)
}

// Snapshot copies the shared image into dst, reallocating dst if its
// geometry differs, and returns the sequence number of the copied frame.
func (s *Session) Snapshot(dst *rawimage.Image) uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	if dst.Width != s.rgb.Width || dst.Height != s.rgb.Height || dst.Bpp != s.rgb.Bpp {
		*dst = *rawimage.New(s.rgb.Width, s.rgb.Height, s.rgb.Bpp)
	}
	copy(dst.Data, s.rgb.Data)
	return s.seq
}

// Seq is the number of frames published so far.
func (s *Session) Seq() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.seq
}

func (s *Session) SetResult(r Result) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.result = r
}

func (s *Session) Result() Result {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.result
}

func (s *Session) Stats() Stats {
	st := Stats{
		Frames:   s.frames.Load(),
		Failures: s.failures.Load(),
		Width:    s.cam.Width(),
		Height:   s.cam.Height(),
		Palette:  s.cam.Palette().String(),
	}

	s.lock.Lock()
	st.LastFrameAt = s.lastFrameAt
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	s.lock.Unlock()

	return st
}
