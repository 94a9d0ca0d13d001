//go:build !rp2040 && !rp2350

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"sharedbus-go/app"
	"sharedbus-go/bus"
	"sharedbus-go/config"
	"sharedbus-go/i2cshare/promstats"
	"sharedbus-go/internal/platform"
	"sharedbus-go/services/heartbeat"
	"sharedbus-go/types"
)

type Options struct {
	ConfigPath  string
	Device      string
	Duration    time.Duration
	MetricsAddr string
	Verbosity   int
	SpinDPS     float64

	cfg config.Config
}

// AddFlags adds flags for the options to a flagset
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}

	fs.StringVar(&o.ConfigPath, "config", "", "path to a YAML board config (overrides --device)")
	fs.StringVar(&o.Device, "device", platform.Device, "embedded board config to use")
	fs.DurationVar(&o.Duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9102")
	fs.IntVarP(&o.Verbosity, "verbosity", "v", -1, "log verbosity (-1 uses the config value)")
	fs.Float64Var(&o.SpinDPS, "spin", 30, "rotation of the simulated board in degrees per second")
}

func (o *Options) Complete() error {
	if err := o.Validate(); err != nil {
		return err
	}

	var err error
	if o.ConfigPath != "" {
		o.cfg, err = config.LoadFile(o.ConfigPath)
	} else {
		o.cfg, err = config.Load(o.Device)
	}
	if err != nil {
		return err
	}
	if o.Verbosity >= 0 {
		o.cfg.Log.Verbosity = o.Verbosity
	}
	return nil
}

func (o *Options) Validate() error {
	if o.Duration < 0 {
		return errors.New("--duration must not be negative")
	}
	if o.SpinDPS < -250 || o.SpinDPS > 250 {
		return errors.New("--spin must be within the gyro's ±250 dps range")
	}
	return nil
}

func (o *Options) Run(ctx context.Context, stdout, stderr io.Writer) error {
	cfg := o.cfg
	log := platform.NewLogger(stderr, cfg.Log.Verbosity)

	if o.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Duration)
		defer cancel()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	obs, err := promstats.New(reg, cfg.Bus.ID)
	if err != nil {
		return err
	}

	sim := platform.NewSim(cfg)
	b := bus.NewBus(16)
	opts := []app.Option{app.WithObserver(obs), app.WithHeartbeat()}
	if cfg.Log.Verbosity >= 2 {
		opts = append(opts, app.WithPhysicalTrace())
	}
	a := app.New(cfg, sim, b, log, opts...)

	probe := b.NewConnection("sim")
	readings := probe.Subscribe(bus.T("sensor", "+", "+"))
	beats := probe.Subscribe(bus.T("sys", "heartbeat"))
	defer probe.Disconnect()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sim.Animate(gctx, 10*time.Millisecond, o.SpinDPS)
		return nil
	})
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case m := <-readings.Channel():
				printReading(stdout, m)
			case m := <-beats.Channel():
				if hb, ok := m.Payload.(heartbeat.Beat); ok {
					fmt.Fprintf(stdout, "%-8s txs=%d errors=%d contended=%d max_wait=%s\n",
						"bus", hb.I2C.Transactions, hb.I2C.Errors, hb.I2C.Contended, hb.I2C.MaxWait)
				}
			}
		}
	})
	if o.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              o.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return gctx },
		}
		g.Go(func() error {
			log.Info("serving metrics", "addr", o.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

func printReading(w io.Writer, m *bus.Message) {
	name := m.Topic[1]
	switch v := m.Payload.(type) {
	case types.HeadingValue:
		fmt.Fprintf(w, "%-8s heading %6.1f deg  field=(%d,%d,%d)\n", name, v.Degrees, v.X, v.Y, v.Z)
	case types.RateValue:
		fmt.Fprintf(w, "%-8s rate    x=%d y=%d z=%d mdps\n", name, v.X, v.Y, v.Z)
	case types.SensorStatus:
		if v.Error != "" {
			fmt.Fprintf(w, "%-8s status  %s (%s)\n", name, v.Link, v.Error)
		} else {
			fmt.Fprintf(w, "%-8s status  %s\n", name, v.Link)
		}
	case types.Info:
		fmt.Fprintf(w, "%-8s info    %s @0x%02x on %s\n", name, v.Sensor, v.Addr, v.Bus)
	}
}
