package ov7670

// Register addresses.
const (
	RegGain    = 0x00
	RegBlue    = 0x01
	RegRed     = 0x02
	RegVref    = 0x03
	RegCom1    = 0x04
	RegPID     = 0x0a
	RegVer     = 0x0b
	RegCom3    = 0x0c
	RegCom4    = 0x0d
	RegCom5    = 0x0e
	RegCom6    = 0x0f
	RegAech    = 0x10
	RegClkrc   = 0x11
	RegCom7    = 0x12
	RegCom8    = 0x13
	RegCom9    = 0x14
	RegCom10   = 0x15
	RegHstart  = 0x17
	RegHstop   = 0x18
	RegVstart  = 0x19
	RegVstop   = 0x1a
	RegMIDH    = 0x1c
	RegMIDL    = 0x1d
	RegMvfp    = 0x1e
	RegAew     = 0x24
	RegAeb     = 0x25
	RegVpt     = 0x26
	RegHref    = 0x32
	RegTslb    = 0x3a
	RegCom11   = 0x3b
	RegCom12   = 0x3c
	RegCom13   = 0x3d
	RegCom14   = 0x3e
	RegEdge    = 0x3f
	RegCom15   = 0x40
	RegCom16   = 0x41
	RegGfix    = 0x69
	RegRGB444  = 0x8c
	RegHaecc1  = 0x9f
	RegHaecc2  = 0xa0
	RegBD50Max = 0xa5
	RegHaecc3  = 0xa6
	RegHaecc4  = 0xa7
	RegHaecc5  = 0xa8
	RegHaecc6  = 0xa9
	RegHaecc7  = 0xaa
	RegBD60Max = 0xab
)

// Register bits.
const (
	Com7Reset   = 0x80
	Com7FmtVGA  = 0x00
	Com7FmtCIF  = 0x20
	Com7FmtQVGA = 0x10
	Com7FmtQCIF = 0x08

	Com8FastAEC = 0x80
	Com8AECStep = 0x40
	Com8BFilt   = 0x20
	Com8AGC     = 0x04
	Com8AWB     = 0x02
	Com8AEC     = 0x01

	Com11HzAuto = 0x10
	Com11Exp    = 0x02

	Com13Gamma = 0x80
	Com13UVSat = 0x40

	Com15R00FF = 0xc0

	Com16AWBGain = 0x08
)

// Reg is one register write.
type Reg struct {
	Addr  byte
	Value byte
}

// DefaultConfig programs VGA YUV 4:2:2 output in UYVY order at 30 fps with
// automatic gain, exposure and white balance.
var DefaultConfig = []Reg{
	{RegClkrc, 0x81},
	{RegTslb, 0x0c},
	{RegCom7, Com7FmtVGA},
	{RegHstart, 0x13},
	{RegHstop, 0x01},
	{RegHref, 0xb6},
	{RegVstart, 0x02},
	{RegVstop, 0x7a},
	{RegVref, 0x0a},
	{RegCom3, 0},
	{RegCom14, 0},
	// scaling
	{0x70, 0x3a}, {0x71, 0x35}, {0x72, 0x11}, {0x73, 0xf0},
	{0xa2, 0x02},
	{RegCom10, 0},
	// gamma curve
	{0x7a, 0x20}, {0x7b, 0x10}, {0x7c, 0x1e}, {0x7d, 0x35},
	{0x7e, 0x5a}, {0x7f, 0x69}, {0x80, 0x76}, {0x81, 0x80},
	{0x82, 0x88}, {0x83, 0x8f}, {0x84, 0x96}, {0x85, 0xa3},
	{0x86, 0xaf}, {0x87, 0xc4}, {0x88, 0xd7}, {0x89, 0xe8},
	// AGC and AEC
	{RegCom8, Com8FastAEC | Com8AECStep | Com8BFilt},
	{RegGain, 0},
	{RegAech, 0},
	{RegCom4, 0x40},
	{RegCom9, 0x18},
	{RegBD50Max, 0x05},
	{RegBD60Max, 0x07},
	{RegAew, 0x95},
	{RegAeb, 0x33},
	{RegVpt, 0xe3},
	{RegHaecc1, 0x78},
	{RegHaecc2, 0x68},
	{0xa1, 0x03},
	{RegHaecc3, 0xd8},
	{RegHaecc4, 0xd8},
	{RegHaecc5, 0xf0},
	{RegHaecc6, 0x90},
	{RegHaecc7, 0x94},
	{RegCom8, Com8FastAEC | Com8AECStep | Com8BFilt | Com8AGC | Com8AEC},
	// reserved magic
	{RegCom5, 0x61},
	{RegCom6, 0x4b},
	{0x16, 0x02},
	{RegMvfp, 0x07},
	{0x21, 0x02}, {0x22, 0x91}, {0x29, 0x07}, {0x33, 0x0b},
	{0x35, 0x0b}, {0x37, 0x1d}, {0x38, 0x71}, {0x39, 0x2a},
	{RegCom12, 0x78},
	{0x4d, 0x40}, {0x4e, 0x20},
	{RegGfix, 0},
	{0x6b, 0x0a}, {0x74, 0x10},
	{0x8d, 0x4f}, {0x8e, 0}, {0x8f, 0}, {0x90, 0}, {0x91, 0},
	{0x96, 0}, {0x9a, 0},
	{0xb0, 0x84}, {0xb1, 0x0c}, {0xb2, 0x0e}, {0xb3, 0x82}, {0xb8, 0x0a},
	// white balance
	{0x43, 0x0a}, {0x44, 0xf0}, {0x45, 0x34}, {0x46, 0x58},
	{0x47, 0x28}, {0x48, 0x3a}, {0x59, 0x88}, {0x5a, 0x88},
	{0x5b, 0x44}, {0x5c, 0x67}, {0x5d, 0x49}, {0x5e, 0x0e},
	{0x6c, 0x0a}, {0x6d, 0x55}, {0x6e, 0x11}, {0x6f, 0x9f},
	{0x6a, 0x40},
	{RegBlue, 0x40},
	{RegRed, 0x60},
	{RegCom8, Com8FastAEC | Com8AECStep | Com8BFilt | Com8AGC | Com8AEC | Com8AWB},
	// color matrix
	{0x4f, 0x80}, {0x50, 0x80}, {0x51, 0}, {0x52, 0x22},
	{0x53, 0x5e}, {0x54, 0x80}, {0x58, 0x9e},
	{RegCom16, Com16AWBGain},
	{RegEdge, 0},
	{0x75, 0x05}, {0x76, 0xe1}, {0x4c, 0}, {0x77, 0x01},
	{RegCom13, 0xc0},
	{0x4b, 0x09}, {0xc9, 0x60},
	{RegCom16, 0x38},
	{0x56, 0x40},
	{0x34, 0x11},
	{RegCom11, Com11Exp | Com11HzAuto},
	{0xa4, 0x88}, {0x96, 0}, {0x97, 0x30}, {0x98, 0x20},
	{0x99, 0x30}, {0x9a, 0x84}, {0x9b, 0x29}, {0x9c, 0x03},
	{0x9d, 0x4c}, {0x9e, 0x3f}, {0x78, 0x04},
	// indirect registers through 0x79/0xc8
	{0x79, 0x01}, {0xc8, 0xf0},
	{0x79, 0x0f}, {0xc8, 0x00},
	{0x79, 0x10}, {0xc8, 0x7e},
	{0x79, 0x0a}, {0xc8, 0x80},
	{0x79, 0x0b}, {0xc8, 0x01},
	{0x79, 0x0c}, {0xc8, 0x0f},
	{0x79, 0x0d}, {0xc8, 0x20},
	{0x79, 0x09}, {0xc8, 0x80},
	{0x79, 0x02}, {0xc8, 0xc0},
	{0x79, 0x03}, {0xc8, 0x40},
	{0x79, 0x05}, {0xc8, 0x30},
	{0x79, 0x26},
	{RegCom7, Com7FmtVGA},
	{RegRGB444, 0},
	{RegCom1, 0},
	{RegCom15, Com15R00FF},
	{RegCom9, 0x18},
	{0x4f, 0x80}, {0x50, 0x80}, {0x51, 0}, {0x52, 0x22},
	{0x53, 0x5e}, {0x54, 0x80},
	{RegCom13, Com13Gamma | Com13UVSat},
}
