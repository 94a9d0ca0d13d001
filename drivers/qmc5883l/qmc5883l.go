// Package qmc5883l provides a driver for the QST QMC5883L 3-axis
// magnetometer.
//
//	d := qmc5883l.New(bus)
//	err := d.Configure()           // soft reset + continuous mode
//	x, y, z, err := d.ReadMag()     // ErrNotReady until a sample lands
//
// A sample is read with a single write-then-read transfer covering the data
// and status registers, so the bus must support repeated START in Tx.
package qmc5883l

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address (fixed on this part).
const Address = 0x0D

// Registers.
const (
	regXOutL  = 0x00
	regStatus = 0x06
	regCtrl1  = 0x09
	regCtrl2  = 0x0A
	regSetRst = 0x0B
	regChipID = 0x0D

	chipID = 0xFF

	statusDRDY = 0x01
	statusOVL  = 0x02

	ctrl2SoftReset = 0x80
	modeStandby    = 0x00
	modeContinuous = 0x01
)

// Rate is the output data rate (CTRL1 bits 2..3).
type Rate uint8

const (
	Rate10Hz  Rate = 0x00
	Rate50Hz  Rate = 0x04
	Rate100Hz Rate = 0x08
	Rate200Hz Rate = 0x0C
)

// Range is the full-scale field (CTRL1 bits 4..5).
type Range uint8

const (
	Range2G Range = 0x00
	Range8G Range = 0x10
)

// Oversampling is the over-sample ratio (CTRL1 bits 6..7).
type Oversampling uint8

const (
	OSR512 Oversampling = 0x00
	OSR256 Oversampling = 0x40
	OSR128 Oversampling = 0x80
	OSR64  Oversampling = 0xC0
)

// Errors returned by the driver.
var (
	ErrNotFound = errors.New("qmc5883l: chip id mismatch")
	ErrNotReady = errors.New("qmc5883l: not ready")
	ErrOverflow = errors.New("qmc5883l: field overflow")
)

// Config selects the measurement setup. Fields are applied as given, so the
// zero value is 10 Hz, 2 G, OSR 512; start from DefaultConfig to change only
// some of them.
type Config struct {
	Address      uint16
	Rate         Rate
	Range        Range
	Oversampling Oversampling
}

// DefaultConfig is the setup Configure uses when no Config is passed:
// 200 Hz, 8 G, OSR 512 at the fixed address.
func DefaultConfig() Config {
	return Config{Address: Address, Rate: Rate200Hz, Range: Range8G, Oversampling: OSR512}
}

// Device wraps an I2C connection to a QMC5883L.
type Device struct {
	bus     drivers.I2C
	Address uint16

	ctrl1 uint8
	w     [2]byte
	buf   [7]byte // X,Y,Z little-endian + status
}

// New creates a device handle. It does not touch the bus.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
		ctrl1:   uint8(Rate200Hz) | uint8(Range8G) | uint8(OSR512),
	}
}

// Connected reads the chip id register.
func (d *Device) Connected() bool {
	id, err := d.read8(regChipID)
	return err == nil && id == chipID
}

// Configure resets the chip and starts continuous measurement.
func (d *Device) Configure(cfgs ...Config) error {
	if len(cfgs) > 0 {
		c := cfgs[0]
		if c.Address != 0 {
			d.Address = c.Address
		}
		d.ctrl1 = uint8(c.Rate) | uint8(c.Range) | uint8(c.Oversampling)
	}

	id, err := d.read8(regChipID)
	if err != nil {
		return err
	}
	if id != chipID {
		return ErrNotFound
	}
	if err := d.write8(regCtrl2, ctrl2SoftReset); err != nil {
		return err
	}
	// Datasheet recommends SET/RESET period 0x01.
	if err := d.write8(regSetRst, 0x01); err != nil {
		return err
	}
	return d.Continuous()
}

// Continuous switches to continuous measurement with the configured setup.
func (d *Device) Continuous() error {
	return d.write8(regCtrl1, d.ctrl1|modeContinuous)
}

// Standby stops measuring.
func (d *Device) Standby() error {
	return d.write8(regCtrl1, d.ctrl1|modeStandby)
}

// Status returns the raw status register.
func (d *Device) Status() (uint8, error) { return d.read8(regStatus) }

// ReadMag returns the raw field on each axis. It fails with ErrNotReady when
// no new sample is available and ErrOverflow when an axis saturated.
func (d *Device) ReadMag() (x, y, z int16, err error) {
	d.w[0] = regXOutL
	if err = d.bus.Tx(d.Address, d.w[:1], d.buf[:]); err != nil {
		return 0, 0, 0, err
	}
	st := d.buf[6]
	if st&statusDRDY == 0 {
		return 0, 0, 0, ErrNotReady
	}
	if st&statusOVL != 0 {
		return 0, 0, 0, ErrOverflow
	}
	x = int16(uint16(d.buf[0]) | uint16(d.buf[1])<<8)
	y = int16(uint16(d.buf[2]) | uint16(d.buf[3])<<8)
	z = int16(uint16(d.buf[4]) | uint16(d.buf[5])<<8)
	return x, y, z, nil
}

func (d *Device) read8(reg uint8) (uint8, error) {
	d.w[0] = reg
	var r [1]byte
	if err := d.bus.Tx(d.Address, d.w[:1], r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (d *Device) write8(reg, val uint8) error {
	d.w[0], d.w[1] = reg, val
	return d.bus.Tx(d.Address, d.w[:2], nil)
}
