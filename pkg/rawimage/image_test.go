package rawimage

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"
)

func gradient(width, height int) *Image {
	m := New(width, height, 1)
	for i := range m.Data {
		m.Data[i] = byte(i % 251)
	}
	return m
}

func TestMakeMonochrome(t *testing.T) {
	m := New(2, 1, 3)
	copy(m.Data, []byte{255, 255, 255, 255, 0, 0})
	gray := New(2, 1, 1)
	if err := m.MakeMonochrome(gray); err != nil {
		t.Fatal(err)
	}
	if gray.Data[0] != 255 || gray.Data[1] != 76 {
		t.Fatalf("got %v", gray.Data)
	}
	if m.IsMonochrome() {
		t.Fatal("source must stay rgb")
	}

	if err := m.MakeMonochrome(nil); err != nil {
		t.Fatal(err)
	}
	if !m.IsMonochrome() || !bytes.Equal(m.Data, gray.Data) {
		t.Fatalf("in place conversion: bpp %d data %v", m.Bpp, m.Data)
	}

	if err := New(3, 1, 3).MakeMonochrome(New(2, 1, 1)); err == nil {
		t.Fatal("mismatched destination accepted")
	}
}

func TestAt(t *testing.T) {
	m := New(2, 2, 3)
	copy(m.Data[3:6], []byte{1, 2, 3})
	if got := m.At(1, 0); got != (color.RGBA{R: 1, G: 2, B: 3, A: 0xff}) {
		t.Fatalf("At(1,0) = %v", got)
	}
	if got := m.At(5, 5); got != (color.RGBA{}) {
		t.Fatalf("out of bounds = %v", got)
	}
	g := gradient(4, 4)
	if got := g.At(3, 1); got != (color.Gray{Y: 7}) {
		t.Fatalf("gray At = %v", got)
	}
}

func TestBMPRoundTrip(t *testing.T) {
	m := gradient(33, 17)
	path := filepath.Join(t.TempDir(), "gray.bmp")
	if err := m.SaveBMP(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != m.Width || got.Height != m.Height || !bytes.Equal(got.Data, m.Data) {
		t.Fatal("bmp round trip changed the image")
	}
}

func TestEncodeJPEG(t *testing.T) {
	m := New(16, 16, 3)
	var buf bytes.Buffer
	if err := m.EncodeJPEG(&buf, 90); err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 16 || cfg.Height != 16 {
		t.Fatalf("jpeg is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestSetBpp(t *testing.T) {
	m := New(4, 4, 1)
	m.SetBpp(3)
	if len(m.Data) != 48 {
		t.Fatalf("len = %d", len(m.Data))
	}
	m.SetBpp(1)
	if len(m.Data) != 16 {
		t.Fatalf("len = %d", len(m.Data))
	}
}
