// Package ov7670 programs an OmniVision OV7670 image sensor over its SCCB
// (I²C compatible) control port.
package ov7670

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/periph/conn/i2c"
)

// Addr is the 7 bit bus address (0x42 for writes in 8 bit notation).
const Addr = 0x21

const (
	ProductID = 0x76
	Version   = 0x73
)

// resetDelay is how long the sensor needs after a soft reset.
const resetDelay = time.Millisecond

var ErrUnknownChip = errors.New("not an OV7670")

// ID is the product identification read from the sensor.
type ID struct {
	PID byte
	Ver byte
}

func (id ID) String() string {
	return fmt.Sprintf("PID 0x%02x VER 0x%02x", id.PID, id.Ver)
}

type Dev struct {
	d     i2c.Dev
	sleep func(time.Duration)
}

func New(bus i2c.Bus) *Dev {
	return &Dev{
		d:     i2c.Dev{Bus: bus, Addr: Addr},
		sleep: time.Sleep,
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("ov7670{%s}", d.d.String())
}

func (d *Dev) WriteReg(reg, value byte) error {
	if err := d.d.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("ov7670: write 0x%02x: %w", reg, err)
	}
	return nil
}

func (d *Dev) ReadReg(reg byte) (byte, error) {
	var b [1]byte
	if err := d.d.Tx([]byte{reg}, b[:]); err != nil {
		return 0, fmt.Errorf("ov7670: read 0x%02x: %w", reg, err)
	}
	return b[0], nil
}

// Reset restores every register to its power-on default.
func (d *Dev) Reset() error {
	if err := d.WriteReg(RegCom7, Com7Reset); err != nil {
		return err
	}
	d.sleep(resetDelay)
	return nil
}

// ReadID reads the product registers and fails with ErrUnknownChip when
// they do not identify an OV7670.
func (d *Dev) ReadID() (ID, error) {
	var id ID
	var err error
	if id.PID, err = d.ReadReg(RegPID); err != nil {
		return id, err
	}
	if id.Ver, err = d.ReadReg(RegVer); err != nil {
		return id, err
	}
	if id.PID != ProductID || id.Ver != Version {
		return id, fmt.Errorf("%w: %s", ErrUnknownChip, id)
	}
	return id, nil
}

// Configure writes regs in order, DefaultConfig when regs is nil.
func (d *Dev) Configure(regs []Reg) error {
	if regs == nil {
		regs = DefaultConfig
	}
	for _, r := range regs {
		if err := d.WriteReg(r.Addr, r.Value); err != nil {
			return err
		}
	}
	return nil
}
