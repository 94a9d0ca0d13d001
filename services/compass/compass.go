// Package compass runs the magnetometer task: it samples a QMC5883L over its
// own handle on the shared bus and publishes heading and raw field.
package compass

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-logr/logr"

	"sharedbus-go/bus"
	"sharedbus-go/drivers/qmc5883l"
	"sharedbus-go/i2cshare"
	"sharedbus-go/services/sensor"
	"sharedbus-go/types"
	"sharedbus-go/x/mathx"
	"sharedbus-go/x/timex"
)

const Name = "compass"

type Config struct {
	Addr           uint16
	Period         time.Duration
	DeclinationRad float64
	BusID          string
}

type Service struct {
	h   i2cshare.Handle
	cfg Config
	log logr.Logger
}

func New(h i2cshare.Handle, cfg Config, log logr.Logger) *Service {
	if cfg.Addr == 0 {
		cfg.Addr = qmc5883l.Address
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	return &Service{h: h.Named(Name), cfg: cfg, log: log.WithName(Name)}
}

// Heading converts a field sample to degrees in [0, 360), adding declination.
func Heading(x, y int16, declinationRad float64) float32 {
	rad := math.Atan2(float64(y), float64(x)) + declinationRad
	return mathx.Wrap(float32(mathx.Degrees(rad)), 360)
}

// Run samples every period until ctx is done. Bus failures are published as
// status and the loop carries on; Run only returns when ctx ends.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) error {
	rep := sensor.NewReporter(conn, Name, s.log)
	rep.Info(types.Info{Sensor: "qmc5883l", Addr: s.cfg.Addr, Bus: s.cfg.BusID})

	dev := qmc5883l.New(s.h.Bind(ctx))
	setup := qmc5883l.DefaultConfig()
	setup.Address = s.cfg.Addr
	configured := false

	tick := time.NewTicker(s.cfg.Period)
	defer tick.Stop()

	s.log.Info("starting", "addr", s.cfg.Addr, "period", s.cfg.Period.String())
	for {
		if !configured {
			if err := dev.Configure(setup); err != nil {
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

func (s *Service) sample(dev *qmc5883l.Device, rep *sensor.Reporter) error {
	x, y, z, err := dev.ReadMag()
	if errors.Is(err, qmc5883l.ErrNotReady) {
		s.log.V(1).Info("no new sample")
		return nil
	}
	if err != nil {
		return err
	}
	ts := timex.NowMs()
	deg := Heading(x, y, s.cfg.DeclinationRad)

	rep.Publish(types.KindMagnetic, types.MagneticValue{X: x, Y: y, Z: z, TS: ts})
	rep.Publish(types.KindHeading, types.HeadingValue{Degrees: deg, X: x, Y: y, Z: z, TS: ts})
	rep.Up()
	s.log.Info("heading", "deg", deg)
	return nil
}
