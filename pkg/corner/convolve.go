package corner

// Kernel pairs a symmetric smoothing kernel with the antisymmetric first
// derivative kernel of the same support.
type Kernel struct {
	Smooth []float32
	Deriv  []float32
}

var (
	// Kernel5 is the 5-tap pair; cheaper, less accurate.
	Kernel5 = Kernel{
		Smooth: []float32{0.030320, 0.249724, 0.439911, 0.249724, 0.030320},
		Deriv:  []float32{0.104550, 0.292315, 0.000000, -0.292315, -0.104550},
	}
	// Kernel7 is the 7-tap pair used by default.
	Kernel7 = Kernel{
		Smooth: []float32{0.004711, 0.069321, 0.245410, 0.361117, 0.245410, 0.069321, 0.004711},
		Deriv:  []float32{0.018708, 0.125376, 0.193091, 0.000000, -0.193091, -0.125376, -0.018708},
	}
)

func KernelFor(taps int) (Kernel, bool) {
	switch taps {
	case 5:
		return Kernel5, true
	case 7:
		return Kernel7, true
	}
	return Kernel{}, false
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// convolveRows filters every row of in with k, replicating edge pixels.
func convolveRows[T byte | float32](in []T, out []float32, width, height int, k []float32) {
	r := len(k) / 2
	for y := 0; y < height; y++ {
		row := in[y*width : y*width+width]
		o := out[y*width : y*width+width]
		for x := 0; x < width; x++ {
			var s float32
			if x >= r && x+r < width {
				for i, c := range k {
					s += float32(row[x+i-r]) * c
				}
			} else {
				for i, c := range k {
					s += float32(row[clampIndex(x+i-r, width)]) * c
				}
			}
			o[x] = s
		}
	}
}

// convolveCols filters every column of in with k, replicating edge pixels.
func convolveCols(in, out []float32, width, height int, k []float32) {
	r := len(k) / 2
	for y := 0; y < height; y++ {
		o := out[y*width : y*width+width]
		for x := range o {
			o[x] = 0
		}
		for i, c := range k {
			yy := clampIndex(y+i-r, height)
			src := in[yy*width : yy*width+width]
			for x, v := range src {
				o[x] += v * c
			}
		}
	}
}

// convolveSeparable computes out = ky * (kx * in) where kx runs along rows
// and ky along columns. tmp must not alias in or out.
func convolveSeparable[T byte | float32](in []T, out, tmp []float32, width, height int, kx, ky []float32) {
	convolveRows(in, tmp, width, height, kx)
	convolveCols(tmp, out, width, height, ky)
}
