package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cornercam/pkg/corner"
	"cornercam/pkg/rawimage"
	"cornercam/pkg/session"
	"cornercam/pkg/storage"
	"cornercam/pkg/types"
	"cornercam/pkg/webdav"
	"cornercam/pkg/yuv"
)

type grayGrabber struct {
	w, h int
	luma byte
	buf  []byte
}

func (g *grayGrabber) Width() int           { return g.w }
func (g *grayGrabber) Height() int          { return g.h }
func (g *grayGrabber) Palette() yuv.Palette { return yuv.YUYV }

func (g *grayGrabber) Buffer() []byte {
	if g.buf == nil {
		g.buf = make([]byte, yuv.FrameSize(g.w, g.h))
	}
	return g.buf
}

func (g *grayGrabber) Grab(out []byte) error {
	for i := 0; i < len(out); i += 2 {
		out[i] = g.luma
		out[i+1] = 128
	}
	return nil
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *session.Session) {
	t.Helper()
	sess := session.New(&grayGrabber{w: 32, h: 24, luma: 180})
	if err := sess.Renew(context.Background()); err != nil {
		t.Fatal(err)
	}
	s, err := New(sess, opts)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, sess
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s: status %d", url, resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Status != "success" {
		t.Fatalf("%s: envelope status %q", url, env.Status)
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFrame(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/api/frame")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content type %q", ct)
	}
	if resp.Header.Get("X-Frame-Seq") != "1" {
		t.Errorf("seq header %q", resp.Header.Get("X-Frame-Seq"))
	}
	img, err := jpeg.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("frame is %v", b)
	}
	r, _, _, _ := img.At(16, 12).RGBA()
	if v := r >> 8; v < 170 || v > 190 {
		t.Errorf("frame value %d, want about 180", v)
	}
}

func TestCorners(t *testing.T) {
	srv, sess := newTestServer(t, Options{})
	sess.SetResult(session.Result{Seq: 1, Method: "fast", Corners: []corner.Corner{{X: 11, Y: 12}}})

	var res session.Result
	getJSON(t, srv.URL+"/api/corners", &res)
	if res.Method != "fast" || len(res.Corners) != 1 || res.Corners[0].X != 11 {
		t.Errorf("result = %+v", res)
	}
}

func TestStatus(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	var st struct {
		Session session.Stats `json:"session"`
	}
	getJSON(t, srv.URL+"/api/status", &st)
	if st.Session.Frames != 1 || st.Session.Width != 32 || st.Session.Palette != "yuyv" {
		t.Errorf("status = %+v", st.Session)
	}
}

func TestImages(t *testing.T) {
	stg, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	name, err := stg.SaveOverlay("harris", rawimage.New(20, 20, 1))
	if err != nil {
		t.Fatal(err)
	}
	srv, _ := newTestServer(t, Options{Storage: stg})

	var files []types.File
	getJSON(t, srv.URL+"/api/images", &files)
	if len(files) != 1 || files[0].Name != name || files[0].Bytes == 0 {
		t.Errorf("images = %+v", files)
	}

	resp, err := http.Get(srv.URL + "/api/images/" + name)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if _, err := jpeg.Decode(resp.Body); err != nil {
		t.Errorf("image: %v", err)
	}

	resp2, err := http.Get(srv.URL + "/api/images/missing.bmp")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("missing image status %d", resp2.StatusCode)
	}
}

func TestImageCorners(t *testing.T) {
	stg, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	name, err := stg.SaveOverlay("fast", rawimage.New(20, 20, 1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stg.SaveCorners(session.Result{Seq: 4, Method: "fast", Corners: []corner.Corner{{X: 7, Y: 9}}}); err != nil {
		t.Fatal(err)
	}
	srv, _ := newTestServer(t, Options{Storage: stg})

	var res session.Result
	getJSON(t, srv.URL+"/api/images/"+name+"/corners", &res)
	if res.Seq != 4 || len(res.Corners) != 1 || res.Corners[0].Y != 9 {
		t.Errorf("corners = %+v", res)
	}

	resp, err := http.Get(srv.URL + "/api/images/corners_fast_9.bmp/corners")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing corners status %d", resp.StatusCode)
	}
}

func TestWebdavStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv, _ := newTestServer(t, Options{Webdav: webdav.New(ctx, 0, t.TempDir())})

	var st struct {
		Webdav *bool `json:"webdav"`
	}
	getJSON(t, srv.URL+"/api/status", &st)
	if st.Webdav == nil || *st.Webdav {
		t.Errorf("webdav = %v", st.Webdav)
	}
}

func TestCorsAllowsPut(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/webdav", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if allowed := resp.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(allowed, http.MethodPut) {
		t.Errorf("allowed methods %q, status %d", allowed, resp.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/api/nothing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestStream(t *testing.T) {
	srv, sess := newTestServer(t, Options{StreamInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		t.Fatal(err)
	}
	mr := multipart.NewReader(bufio.NewReader(resp.Body), params["boundary"])

	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				_ = sess.Renew(ctx)
			}
		}
	}()

	for i := 0; i < 2; i++ {
		part, err := mr.NextPart()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
			t.Fatalf("part %d: %v", i, err)
		}
	}
}

func TestStatics(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>cornercam</html>"), 0600); err != nil {
		t.Fatal(err)
	}
	srv, _ := newTestServer(t, Options{Statics: dir})
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("cornercam")) {
		t.Errorf("index = %q", body)
	}

	if _, err := New(nil, Options{Statics: filepath.Join(dir, "missing")}); err == nil {
		t.Errorf("missing statics dir accepted")
	}
}
