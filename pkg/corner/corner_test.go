package corner

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"cornercam/pkg/rawimage"
)

func checkerboard(width, height, tile int) *rawimage.Image {
	img := rawimage.New(width, height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/tile+y/tile)%2 == 1 {
				img.Data[y*width+x] = 255
			}
		}
	}
	return img
}

func flat(width, height int, v byte) *rawimage.Image {
	img := rawimage.New(width, height, 1)
	for i := range img.Data {
		img.Data[i] = v
	}
	return img
}

func near(corners []Corner, x, y, dist int) bool {
	for _, c := range corners {
		if abs(c.X-x) <= dist && abs(c.Y-y) <= dist {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func checkMargin(t *testing.T, corners []Corner, width, height int) {
	t.Helper()
	for _, c := range corners {
		if c.X < Margin || c.Y < Margin || c.X > width-Margin || c.Y > height-Margin {
			t.Errorf("corner %v violates margin in %dx%d", c, width, height)
		}
	}
}

func TestHarrisCheckerboard(t *testing.T) {
	img := checkerboard(64, 64, 8)
	d := NewDetector()
	d.SetImage(img)

	corners, err := d.Corners()
	if err != nil {
		t.Fatal(err)
	}
	if len(corners) == 0 {
		t.Fatal("no corners")
	}
	checkMargin(t, corners, 64, 64)

	for y := 16; y <= 48; y += 8 {
		for x := 16; x <= 48; x += 8 {
			if !near(corners, x, y, 2) {
				t.Errorf("no corner near intersection (%d,%d)", x, y)
			}
		}
	}
}

func TestHarrisKernel5(t *testing.T) {
	h := NewHarris()
	h.Kernel = Kernel5
	d := NewDetector(WithStrategy(h))
	d.SetImage(checkerboard(64, 64, 8))

	corners, err := d.Corners()
	if err != nil {
		t.Fatal(err)
	}
	if !near(corners, 32, 32, 2) {
		t.Errorf("no corner near the centre intersection")
	}
}

func TestHarrisSuppress(t *testing.T) {
	img := checkerboard(64, 64, 8)

	all := NewDetector()
	all.SetImage(img)
	dense, err := all.Corners()
	if err != nil {
		t.Fatal(err)
	}

	h := NewHarris()
	h.Suppress = true
	sup := NewDetector(WithStrategy(h))
	sup.SetImage(img)
	sparse, err := sup.Corners()
	if err != nil {
		t.Fatal(err)
	}

	if len(sparse) == 0 || len(sparse) >= len(dense) {
		t.Errorf("suppressed %d corners, unsuppressed %d", len(sparse), len(dense))
	}
	if !near(sparse, 32, 32, 2) {
		t.Errorf("suppression dropped the centre intersection")
	}
}

func TestFlatHasNoCorners(t *testing.T) {
	for _, size := range [][2]int{{64, 64}, {64, 48}} {
		for _, s := range []Strategy{NewHarris(), NewFast()} {
			d := NewDetector(WithStrategy(s))
			d.SetImage(flat(size[0], size[1], 128))
			corners, err := d.Corners()
			if err != nil {
				t.Fatal(err)
			}
			if len(corners) != 0 {
				t.Errorf("%s %dx%d: %d corners on a flat image", s.Name(), size[0], size[1], len(corners))
			}
		}
	}
}

func TestHarrisSaddleScoresPositive(t *testing.T) {
	h := NewHarris()
	d := NewDetector(WithStrategy(h))
	d.SetImage(checkerboard(64, 64, 8))
	if _, err := d.Corners(); err != nil {
		t.Fatal(err)
	}

	r := d.Derivatives().Response
	best := float32(0)
	for y := 30; y <= 34; y++ {
		for x := 30; x <= 34; x++ {
			best = max(best, r[y*64+x])
		}
	}
	if best <= h.Threshold {
		t.Errorf("saddle response %f, threshold %f", best, h.Threshold)
	}
}

func TestStraightEdgeHasNoCorners(t *testing.T) {
	img := rawimage.New(64, 64, 1)
	for y := 0; y < 64; y++ {
		for x := 32; x < 64; x++ {
			img.Data[y*64+x] = 255
		}
	}
	d := NewDetector()
	d.SetImage(img)
	corners, err := d.Corners()
	if err != nil {
		t.Fatal(err)
	}
	if len(corners) != 0 {
		t.Errorf("%d corners on a straight edge", len(corners))
	}
}

func TestFastSquare(t *testing.T) {
	img := rawimage.New(64, 64, 1)
	for y := 20; y < 44; y++ {
		for x := 20; x < 44; x++ {
			img.Data[y*64+x] = 255
		}
	}
	d := NewDetector(WithStrategy(NewFast()))
	d.SetImage(img)
	corners, err := d.Corners()
	if err != nil {
		t.Fatal(err)
	}
	checkMargin(t, corners, 64, 64)
	for _, p := range [][2]int{{20, 20}, {43, 20}, {20, 43}, {43, 43}} {
		if !near(corners, p[0], p[1], 2) {
			t.Errorf("no corner near %v", p)
		}
	}
}

func TestMarginBoundary(t *testing.T) {
	var corners []Corner
	for _, p := range [][2]int{{9, 20}, {10, 20}, {54, 20}, {55, 20}, {20, 9}, {20, 10}, {20, 54}, {20, 55}} {
		corners = addCorner(corners, 64, 64, p[0], p[1])
	}
	want := []Corner{{10, 20}, {54, 20}, {20, 10}, {20, 54}}
	if len(corners) != len(want) {
		t.Fatalf("corners = %v, want %v", corners, want)
	}
	for i := range want {
		if corners[i] != want[i] {
			t.Errorf("corners[%d] = %v, want %v", i, corners[i], want[i])
		}
	}
}

func TestResponseFinite(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	img := rawimage.New(40, 30, 1)
	rnd.Read(img.Data)

	d := NewDetector()
	d.SetImage(img)
	if _, err := d.Corners(); err != nil {
		t.Fatal(err)
	}
	for i, v := range d.Derivatives().Response {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("response[%d] = %v", i, v)
		}
	}
}

func TestSetImageReuse(t *testing.T) {
	d := NewDetector()
	d.SetImage(flat(64, 64, 0))
	first := d.Derivatives()
	gx := &first.Gx[0]

	d.SetImage(checkerboard(64, 64, 8))
	if d.Derivatives() != first || &d.Derivatives().Gx[0] != gx {
		t.Errorf("same geometry reallocated derivatives")
	}

	d.SetImage(flat(32, 128, 0))
	if d.Derivatives() != first {
		t.Errorf("same pixel count reallocated derivatives")
	}
	if first.Width != 32 || first.Height != 128 || d.Display().Width != 32 {
		t.Errorf("geometry not updated: %dx%d", first.Width, first.Height)
	}

	d.SetImage(flat(40, 30, 0))
	if d.Derivatives() == first {
		t.Errorf("new pixel count kept old derivatives")
	}
	if n := len(d.Derivatives().Response); n != 40*30 {
		t.Errorf("response has %d entries", n)
	}
}

func TestSetImageRejectsColor(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidImage) {
			t.Errorf("recovered %v, want ErrInvalidImage", r)
		}
	}()
	NewDetector().SetImage(rawimage.New(8, 8, 3))
}

func TestCornersWithoutImage(t *testing.T) {
	if _, err := NewDetector().Corners(); !errors.Is(err, ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
}

func TestDrawCorners(t *testing.T) {
	canvas := rawimage.New(16, 16, 1)
	DrawCorners(nil, canvas)
	for i, v := range canvas.Data {
		if v != 255 {
			t.Fatalf("pixel %d = %d on empty overlay", i, v)
		}
	}

	DrawCorners([]Corner{{X: 1, Y: 8}}, canvas)
	if canvas.Data[8*16+1] != 0 || canvas.Data[8*16+4] != 0 || canvas.Data[4*16+1] != 0 {
		t.Errorf("cross not drawn")
	}
	if canvas.Data[8*16+5] != 255 || canvas.Data[12*16+1] != 255 {
		t.Errorf("cross arm too long")
	}

	rgb := rawimage.New(8, 8, 3)
	DrawCorners([]Corner{{X: 7, Y: 7}}, rgb)
	i := (7*8 + 7) * 3
	if rgb.Data[i] != 0 || rgb.Data[i+1] != 0 || rgb.Data[i+2] != 0 {
		t.Errorf("rgb cross not drawn")
	}
	if rgb.Data[0] != 255 {
		t.Errorf("rgb background not white")
	}
}

func TestStrategyByName(t *testing.T) {
	for name, want := range map[string]string{"harris": "harris", "": "harris", "FAST": "fast"} {
		s, err := StrategyByName(name)
		if err != nil {
			t.Fatal(err)
		}
		if s.Name() != want {
			t.Errorf("StrategyByName(%q) = %s", name, s.Name())
		}
	}
	if _, err := StrategyByName("sobel"); !errors.Is(err, ErrStrategy) {
		t.Errorf("err = %v", err)
	}
}

func TestConvolveSmoothPreservesFlat(t *testing.T) {
	in := make([]float32, 12*9)
	for i := range in {
		in[i] = 100
	}
	out := make([]float32, len(in))
	tmp := make([]float32, len(in))
	convolveSeparable(in, out, tmp, 12, 9, Kernel7.Smooth, Kernel7.Smooth)
	for i, v := range out {
		if math.Abs(float64(v)-100) > 0.01 {
			t.Fatalf("out[%d] = %v", i, v)
		}
	}

	convolveSeparable(in, out, tmp, 12, 9, Kernel7.Deriv, Kernel7.Smooth)
	for i, v := range out {
		if math.Abs(float64(v)) > 0.01 {
			t.Fatalf("derivative of flat out[%d] = %v", i, v)
		}
	}
}
