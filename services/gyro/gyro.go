// Package gyro runs the IMU task: an MPU-6050 on its own handle, publishing
// angular rate and acceleration.
package gyro

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"sharedbus-go/bus"
	"sharedbus-go/drivers/mpu6050"
	"sharedbus-go/i2cshare"
	"sharedbus-go/services/sensor"
	"sharedbus-go/types"
	"sharedbus-go/x/timex"
)

const Name = "gyro"

type Config struct {
	Addr     uint16
	Period   time.Duration
	RangeDPS int
	BusID    string
}

var ranges = map[int]mpu6050.GyroRange{
	250:  mpu6050.Gyro250,
	500:  mpu6050.Gyro500,
	1000: mpu6050.Gyro1000,
	2000: mpu6050.Gyro2000,
}

type Service struct {
	h   i2cshare.Handle
	cfg Config
	log logr.Logger
}

func New(h i2cshare.Handle, cfg Config, log logr.Logger) *Service {
	if cfg.Addr == 0 {
		cfg.Addr = mpu6050.Address
	}
	if cfg.Period <= 0 {
		cfg.Period = 500 * time.Millisecond
	}
	if _, ok := ranges[cfg.RangeDPS]; !ok {
		cfg.RangeDPS = 250
	}
	return &Service{h: h.Named(Name), cfg: cfg, log: log.WithName(Name)}
}

// Run samples every period until ctx is done, reporting bus failures as
// status without stopping.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) error {
	rep := sensor.NewReporter(conn, Name, s.log)
	rep.Info(types.Info{Sensor: "mpu6050", Addr: s.cfg.Addr, Bus: s.cfg.BusID})

	dev := mpu6050.New(s.h.Bind(ctx))
	devCfg := mpu6050.Config{Address: s.cfg.Addr, Gyro: ranges[s.cfg.RangeDPS], SampleDiv: 7, LowPass: 3}
	configured := false

	tick := time.NewTicker(s.cfg.Period)
	defer tick.Stop()

	s.log.Info("starting", "addr", s.cfg.Addr, "period", s.cfg.Period.String(), "range_dps", s.cfg.RangeDPS)
	for {
		if !configured {
			if err := dev.Configure(devCfg); err != nil {
				if ctx.Err() == nil {
					rep.Fail("configure", err)
				}
			} else {
				configured = true
				rep.Up()
			}
		} else if err := s.sample(&dev, rep); err != nil && ctx.Err() == nil {
			if rep.Fail("read", err) == types.LinkDown {
				configured = false
			}
		}

		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return nil
		case <-tick.C:
		}
	}
}

func (s *Service) sample(dev *mpu6050.Device, rep *sensor.Reporter) error {
	gx, gy, gz, err := dev.GyroMilliDPS()
	if err != nil {
		return err
	}
	ax, ay, az, err := dev.AccelMilliG()
	if err != nil {
		return err
	}
	ts := timex.NowMs()
	rep.Publish(types.KindRate, types.RateValue{X: gx, Y: gy, Z: gz, TS: ts})
	rep.Publish(types.KindAccel, types.AccelValue{X: ax, Y: ay, Z: az, TS: ts})
	rep.Up()
	s.log.V(1).Info("rate", "x_mdps", gx, "y_mdps", gy, "z_mdps", gz)
	return nil
}
