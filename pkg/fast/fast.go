// Package fast implements the FAST-11 segment test corner detector on 8-bit
// monochrome buffers.
//
// A pixel p is a corner when at least 11 contiguous pixels of the 16 pixel
// Bresenham circle of radius 3 around it are all brighter than p+threshold or
// all darker than p-threshold. Detect does not perform non-maximum
// suppression.
package fast

// Point is a detected corner in pixel coordinates.
type Point struct {
	X, Y int
}

// Arc is the number of contiguous circle pixels required.
const Arc = 11

// circle in clockwise order starting straight below the centre
var circle = [16][2]int{
	{0, 3}, {1, 3}, {2, 2}, {3, 1}, {3, 0}, {3, -1}, {2, -2}, {1, -3},
	{0, -3}, {-1, -3}, {-2, -2}, {-3, -1}, {-3, 0}, {-3, 1}, {-2, 2}, {-1, 3},
}

func offsets(stride int) [16]int {
	var o [16]int
	for i, c := range circle {
		o[i] = c[0] + c[1]*stride
	}
	return o
}

// hasArc reports whether the 16 bit ring mask holds Arc contiguous set bits,
// wrapping around.
func hasArc(mask uint32) bool {
	if mask == 0 {
		return false
	}
	m := mask | mask<<16
	r := m
	for i := 1; i < Arc; i++ {
		r &= m >> i
	}
	return r != 0
}

// IsCorner evaluates the segment test at (x, y). The caller guarantees the
// pixel is at least 3 pixels away from every edge.
func IsCorner(img []byte, stride, x, y, threshold int) bool {
	return isCorner(img, offsets(stride), y*stride+x, threshold)
}

func isCorner(img []byte, off [16]int, at, threshold int) bool {
	p := int(img[at])
	hi, lo := p+threshold, p-threshold

	// any arc of 11 covers at least two of the four compass pixels
	var nb, nd int
	for i := 0; i < 16; i += 4 {
		v := int(img[at+off[i]])
		if v > hi {
			nb++
		} else if v < lo {
			nd++
		}
	}
	if nb < 2 && nd < 2 {
		return false
	}

	var bright, dark uint32
	for i, o := range off {
		v := int(img[at+o])
		if v > hi {
			bright |= 1 << i
		} else if v < lo {
			dark |= 1 << i
		}
	}
	return hasArc(bright) || hasArc(dark)
}

// Detect returns every pixel passing the segment test, row by row. stride is
// the distance in bytes between vertically adjacent pixels.
func Detect(img []byte, width, height, stride, threshold int) []Point {
	if width < 7 || height < 7 || len(img) < (height-1)*stride+width {
		return nil
	}
	off := offsets(stride)
	var res []Point
	for y := 3; y < height-3; y++ {
		row := y * stride
		for x := 3; x < width-3; x++ {
			if isCorner(img, off, row+x, threshold) {
				res = append(res, Point{X: x, Y: y})
			}
		}
	}
	return res
}
