//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"io"
	"math"
	"os"
	"time"

	"tinygo.org/x/drivers"

	"sharedbus-go/config"
	"sharedbus-go/internal/i2csim"
	"sharedbus-go/x/mathx"
)

// Device names the embedded configuration used on this platform.
const Device = "sim"

const logTimestamps = true

// BootDelay is how long main waits before its first output.
const BootDelay = 0

// Sim is a simulated bus carrying a QMC5883L and an MPU-6050.
type Sim struct {
	*i2csim.Bus
	Compass *i2csim.QMC5883L
	IMU     *i2csim.MPU6050
}

// NewSim attaches the sensors enabled in cfg at their configured addresses.
// The bus clock follows cfg.Bus.Hz so transfers take realistic time.
func NewSim(cfg config.Config) *Sim {
	s := &Sim{
		Bus:     i2csim.NewBus(),
		Compass: i2csim.NewQMC5883L(),
		IMU:     i2csim.NewMPU6050(),
	}
	s.SetClock(cfg.Bus.Hz)
	if cfg.Compass.Enabled {
		s.Attach(cfg.Compass.Addr, s.Compass)
	}
	if cfg.Gyro.Enabled {
		s.Attach(cfg.Gyro.Addr, s.IMU)
	}
	return s
}

// Animate rotates the simulated field at dps degrees per second, matching
// the gyro's Z rate, until ctx is done.
func (s *Sim) Animate(ctx context.Context, every time.Duration, dps float64) {
	t := time.NewTicker(every)
	defer t.Stop()
	start := time.Now()
	rawZ := int16(mathx.Clamp(math.Round(dps*131), math.MinInt16, math.MaxInt16))
	for {
		s.step(time.Since(start).Seconds()*dps, rawZ)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *Sim) step(deg float64, rawZ int16) {
	rad := deg * math.Pi / 180
	s.Compass.SetField(int16(3000*math.Cos(rad)), int16(3000*math.Sin(rad)), -1200)
	s.IMU.SetGyro(0, 0, rawZ)
	s.IMU.SetAccel(0, 0, 16384)
}

// DefaultI2CFactory exposes a simulated bus under cfg.Bus.ID.
func DefaultI2CFactory(cfg config.Config) I2CFactory {
	s := NewSim(cfg)
	s.step(0, 0)
	return &i2cFactory{buses: map[string]drivers.I2C{cfg.Bus.ID: s}}
}

// Console is where logs go.
func Console() io.Writer { return os.Stdout }
