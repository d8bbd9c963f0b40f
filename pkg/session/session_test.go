package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cornercam/pkg/corner"
	"cornercam/pkg/rawimage"
	"cornercam/pkg/yuv"
)

var errGrab = errors.New("grab failed")

// stubGrabber produces a UYVY checkerboard, optionally failing every
// frame listed in fail.
type stubGrabber struct {
	w, h  int
	n     int
	fail  map[int]bool
	tile  int
	luma0 byte
	buf   []byte
}

func (g *stubGrabber) Width() int           { return g.w }
func (g *stubGrabber) Height() int          { return g.h }
func (g *stubGrabber) Palette() yuv.Palette { return yuv.UYVY }

func (g *stubGrabber) Buffer() []byte {
	if g.buf == nil {
		g.buf = make([]byte, yuv.FrameSize(g.w, g.h))
	}
	return g.buf
}

func (g *stubGrabber) Grab(out []byte) error {
	n := g.n
	g.n++
	if g.fail[n] {
		return errGrab
	}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			i := (y*g.w + x) * 2
			out[i] = 128
			v := g.luma0
			if g.tile > 0 && (x/g.tile+y/g.tile)%2 == 1 {
				v = 255
			}
			out[i+1] = v
		}
	}
	return nil
}

func TestRenew(t *testing.T) {
	g := &stubGrabber{w: 16, h: 8, luma0: 200}
	s := New(g)

	if err := s.Renew(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.View(func(img *rawimage.Image, seq uint64) {
		if seq != 1 {
			t.Errorf("seq = %d", seq)
		}
		if img.Bpp != 3 || img.Data[0] != 200 || img.Data[len(img.Data)-1] != 200 {
			t.Errorf("rgb not converted: %v", img.Data[:3])
		}
	})

	var dst rawimage.Image
	if seq := s.Snapshot(&dst); seq != 1 || dst.Width != 16 || dst.Data[5] != 200 {
		t.Errorf("snapshot seq %d, %dx%d", seq, dst.Width, dst.Height)
	}
}

func TestRenewUsesGrabberBuffer(t *testing.T) {
	g := &stubGrabber{w: 16, h: 8, luma0: 150}
	buf := g.Buffer()
	s := New(g)
	if err := s.Renew(context.Background()); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 128 || buf[1] != 150 {
		t.Errorf("frame not captured into the grabber buffer: % x", buf[:4])
	}
	if len(g.Buffer()) != yuv.FrameSize(16, 8) || &g.Buffer()[0] != &buf[0] {
		t.Error("grabber buffer replaced")
	}
}

func TestRenewFailureKeepsSession(t *testing.T) {
	g := &stubGrabber{w: 16, h: 8, fail: map[int]bool{1: true}}
	s := New(g)
	ctx := context.Background()

	if err := s.Renew(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Renew(ctx); !errors.Is(err, errGrab) {
		t.Fatalf("err = %v", err)
	}
	if err := s.Renew(ctx); err != nil {
		t.Fatal(err)
	}

	st := s.Stats()
	if st.Frames != 2 || st.Failures != 1 || st.LastError != errGrab.Error() {
		t.Errorf("stats = %+v", st)
	}
	if s.Seq() != 2 {
		t.Errorf("seq = %d", s.Seq())
	}
}

func TestRenewCancelled(t *testing.T) {
	g := &stubGrabber{w: 16, h: 8}
	s := New(g)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Renew(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if g.n != 0 {
		t.Errorf("grabbed after cancel")
	}
}

func TestConcurrentReaders(t *testing.T) {
	g := &stubGrabber{w: 32, h: 16, luma0: 90}
	s := New(g)
	ctx := context.Background()

	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var dst rawimage.Image
			for {
				select {
				case <-done:
					return
				default:
				}
				s.Snapshot(&dst)
				_ = s.Stats()
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if err := s.Renew(ctx); err != nil {
			t.Fatal(err)
		}
	}
	close(done)
	wg.Wait()

	if s.Seq() != 50 {
		t.Errorf("seq = %d", s.Seq())
	}
}

func TestPipeline(t *testing.T) {
	g := &stubGrabber{w: 64, h: 64, tile: 8, fail: map[int]bool{2: true}}
	s := New(g)

	var got []Frame
	sink := func(f Frame) error {
		if f.Gray.Bpp != 1 || f.Overlay.Width != 64 {
			t.Errorf("bad frame images")
		}
		got = append(got, Frame{Result: f.Result})
		return nil
	}
	p := NewPipeline(s, corner.NewDetector(), sink)
	if err := p.Run(context.Background(), 4); err != nil {
		t.Fatal(err)
	}

	if len(got) != 3 {
		t.Fatalf("sink saw %d frames", len(got))
	}
	for _, f := range got {
		if f.Result.Method != "harris" || len(f.Result.Corners) == 0 {
			t.Errorf("result %d: %s with %d corners", f.Result.Seq, f.Result.Method, len(f.Result.Corners))
		}
	}
	if r := s.Result(); r.Seq != 3 {
		t.Errorf("latest result seq = %d", r.Seq)
	}
	if st := s.Stats(); st.Failures != 1 {
		t.Errorf("failures = %d", st.Failures)
	}
}
