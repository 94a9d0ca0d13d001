// Package config loads the board configuration: bus pins and clock, lock
// timeout, and which sensors run at what period.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"sharedbus-go/errcode"
)

type Config struct {
	Bus     BusConfig     `yaml:"bus"`
	Compass CompassConfig `yaml:"compass"`
	Gyro    GyroConfig    `yaml:"gyro"`
	Log     LogConfig     `yaml:"log"`
}

type BusConfig struct {
	ID          string        `yaml:"id"`
	SDA         uint8         `yaml:"sda"`
	SCL         uint8         `yaml:"scl"`
	Hz          uint32        `yaml:"hz"`
	LockTimeout time.Duration `yaml:"lock_timeout"` // 0 waits forever
}

type CompassConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           uint16        `yaml:"addr"`
	Period         time.Duration `yaml:"period"`
	DeclinationRad float64       `yaml:"declination_rad"`
}

type GyroConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     uint16        `yaml:"addr"`
	Period   time.Duration `yaml:"period"`
	RangeDPS int           `yaml:"range_dps"`
}

type LogConfig struct {
	Verbosity int `yaml:"verbosity"`
}

// Default returns the configuration used when a document omits a field.
func Default() Config {
	var c Config
	c.Bus = BusConfig{ID: "i2c0", SDA: 4, SCL: 5, Hz: 400_000, LockTimeout: 250 * time.Millisecond}
	c.Compass = CompassConfig{Enabled: true, Addr: 0x0d, Period: time.Second, DeclinationRad: 0.024434609}
	c.Gyro = GyroConfig{Enabled: true, Addr: 0x68, Period: 500 * time.Millisecond, RangeDPS: 250}
	return c
}

// Parse decodes a YAML document over Default and validates the result.
// Unknown keys are rejected.
func Parse(raw []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &errcode.E{C: errcode.InvalidConfig, Op: "config.parse", Msg: err.Error(), Err: err}
	}
	if err := c.Validate(); err != nil {
		return Config{}, &errcode.E{C: errcode.InvalidConfig, Op: "config.validate", Msg: flatten(err), Err: err}
	}
	return c, nil
}

// Load resolves the embedded configuration for device.
func Load(device string) (Config, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return Config{}, &errcode.E{C: errcode.UnknownDevice, Op: "config.load", Msg: "no embedded config for device: " + device}
	}
	return Parse(raw)
}

// LoadFile reads and parses a configuration file.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &errcode.E{C: errcode.InvalidConfig, Op: "config.load", Msg: err.Error(), Err: err}
	}
	return Parse(raw)
}

var validGyroRanges = map[int]bool{250: true, 500: true, 1000: true, 2000: true}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs *multierror.Error
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	if c.Bus.ID == "" {
		add("bus.id: required")
	}
	if c.Bus.Hz == 0 || c.Bus.Hz > 1_000_000 {
		add("bus.hz: %d out of range (1..1000000)", c.Bus.Hz)
	}
	if c.Bus.SDA == c.Bus.SCL {
		add("bus.sda and bus.scl: both on pin %d", c.Bus.SDA)
	}
	if c.Bus.LockTimeout < 0 {
		add("bus.lock_timeout: negative")
	}

	if c.Compass.Enabled {
		checkAddr(add, "compass.addr", c.Compass.Addr)
		if c.Compass.Period <= 0 {
			add("compass.period: must be positive")
		}
	}
	if c.Gyro.Enabled {
		checkAddr(add, "gyro.addr", c.Gyro.Addr)
		if c.Gyro.Period <= 0 {
			add("gyro.period: must be positive")
		}
		if !validGyroRanges[c.Gyro.RangeDPS] {
			add("gyro.range_dps: %d not one of 250, 500, 1000, 2000", c.Gyro.RangeDPS)
		}
	}
	if c.Compass.Enabled && c.Gyro.Enabled && c.Compass.Addr == c.Gyro.Addr {
		add("compass.addr and gyro.addr: both 0x%02x", c.Gyro.Addr)
	}
	if c.Log.Verbosity < 0 {
		add("log.verbosity: negative")
	}
	return errs.ErrorOrNil()
}

// 7-bit addresses outside 0x08..0x77 are reserved.
func checkAddr(add func(string, ...any), field string, a uint16) {
	if a < 0x08 || a > 0x77 {
		add("%s: 0x%02x is reserved or not 7-bit", field, a)
	}
}

func flatten(err error) string {
	var m *multierror.Error
	if !errors.As(err, &m) {
		return err.Error()
	}
	s := ""
	for i, e := range m.Errors {
		if i > 0 {
			s += "; "
		}
		s += e.Error()
	}
	return s
}
