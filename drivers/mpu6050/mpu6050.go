// Package mpu6050 provides a driver for the InvenSense MPU-6050 6-axis IMU.
//
// The driver avoids floating point: raw samples are int16 and the scaled
// helpers return milli-degrees per second and milli-g.
package mpu6050

import (
	"errors"

	"tinygo.org/x/drivers"

	"sharedbus-go/x/mathx"
)

// Default I2C address (AD0 low). AD0 high selects AddressAlt.
const (
	Address    = 0x68
	AddressAlt = 0x69
)

// Registers.
const (
	regSmplrtDiv   = 0x19
	regConfig      = 0x1A
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXOutH  = 0x3B
	regGyroXOutH   = 0x43
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	whoAmI = 0x68

	pwrReset   = 0x80
	pwrClkPLLX = 0x01 // PLL with X gyro reference, SLEEP cleared
)

// GyroRange selects the gyroscope full scale.
type GyroRange uint8

const (
	Gyro250 GyroRange = iota
	Gyro500
	Gyro1000
	Gyro2000
)

// AccelRange selects the accelerometer full scale.
type AccelRange uint8

const (
	Accel2G AccelRange = iota
	Accel4G
	Accel8G
	Accel16G
)

// LSB per °/s, times ten, for each gyro range.
var gyroLSBx10 = [...]int32{1310, 655, 328, 164}

// LSB per g for each accel range.
var accelLSB = [...]int32{16384, 8192, 4096, 2048}

// Errors returned by the driver.
var (
	ErrNotFound = errors.New("mpu6050: WHO_AM_I mismatch")
	ErrRange    = errors.New("mpu6050: invalid range")
)

// Config is optional. Without one, Configure selects ±250 °/s, ±2 g,
// 1 kHz / (1+7) sample rate and the 44 Hz low-pass filter.
type Config struct {
	Address   uint16
	Gyro      GyroRange
	Accel     AccelRange
	SampleDiv uint8
	LowPass   uint8 // DLPF_CFG 0..6
}

// Device wraps an I2C connection to an MPU-6050.
type Device struct {
	bus     drivers.I2C
	Address uint16

	gyro  GyroRange
	accel AccelRange
	w     [2]byte
	buf   [6]byte
}

// New creates a device handle. It does not touch the bus.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Connected checks WHO_AM_I. Bits 1..6 carry the address regardless of AD0.
func (d *Device) Connected() bool {
	v, err := d.read8(regWhoAmI)
	return err == nil && v&0x7E == whoAmI
}

// Configure wakes the device and programs ranges and filtering.
func (d *Device) Configure(cfgs ...Config) error {
	c := Config{SampleDiv: 7, LowPass: 3}
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if int(c.Gyro) >= len(gyroLSBx10) || int(c.Accel) >= len(accelLSB) || c.LowPass > 6 {
		return ErrRange
	}

	v, err := d.read8(regWhoAmI)
	if err != nil {
		return err
	}
	if v&0x7E != whoAmI {
		return ErrNotFound
	}

	steps := [...][2]uint8{
		{regPwrMgmt1, pwrClkPLLX},
		{regSmplrtDiv, c.SampleDiv},
		{regConfig, c.LowPass},
		{regGyroConfig, uint8(c.Gyro) << 3},
		{regAccelConfig, uint8(c.Accel) << 3},
	}
	for _, s := range steps {
		if err := d.write8(s[0], s[1]); err != nil {
			return err
		}
	}
	d.gyro, d.accel = c.Gyro, c.Accel
	return nil
}

// Reset sets DEVICE_RESET. The part needs ~100 ms before Configure.
func (d *Device) Reset() error { return d.write8(regPwrMgmt1, pwrReset) }

// Sleep puts the device into low-power sleep.
func (d *Device) Sleep() error { return d.write8(regPwrMgmt1, 0x40) }

// ReadGyro returns raw angular rate samples.
func (d *Device) ReadGyro() (x, y, z int16, err error) {
	return d.read3(regGyroXOutH)
}

// ReadAccel returns raw acceleration samples.
func (d *Device) ReadAccel() (x, y, z int16, err error) {
	return d.read3(regAccelXOutH)
}

// GyroMilliDPS returns angular rate in milli-degrees per second.
func (d *Device) GyroMilliDPS() (x, y, z int32, err error) {
	rx, ry, rz, err := d.ReadGyro()
	if err != nil {
		return 0, 0, 0, err
	}
	div := gyroLSBx10[d.gyro]
	return mathx.RoundDiv(int32(rx)*10000, div),
		mathx.RoundDiv(int32(ry)*10000, div),
		mathx.RoundDiv(int32(rz)*10000, div), nil
}

// AccelMilliG returns acceleration in milli-g.
func (d *Device) AccelMilliG() (x, y, z int32, err error) {
	rx, ry, rz, err := d.ReadAccel()
	if err != nil {
		return 0, 0, 0, err
	}
	div := accelLSB[d.accel]
	return mathx.RoundDiv(int32(rx)*1000, div),
		mathx.RoundDiv(int32(ry)*1000, div),
		mathx.RoundDiv(int32(rz)*1000, div), nil
}

func (d *Device) read3(reg uint8) (x, y, z int16, err error) {
	d.w[0] = reg
	if err = d.bus.Tx(d.Address, d.w[:1], d.buf[:]); err != nil {
		return 0, 0, 0, err
	}
	x = int16(uint16(d.buf[0])<<8 | uint16(d.buf[1]))
	y = int16(uint16(d.buf[2])<<8 | uint16(d.buf[3]))
	z = int16(uint16(d.buf[4])<<8 | uint16(d.buf[5]))
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
