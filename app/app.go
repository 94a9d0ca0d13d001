// Package app wires one shared bus to the sensor services: a single Owner
// over the physical controller and one Handle per service, all run as a
// group that stops together.
package app

import (
	"context"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"tinygo.org/x/drivers"

	"sharedbus-go/bus"
	"sharedbus-go/config"
	"sharedbus-go/i2cshare"
	"sharedbus-go/services/compass"
	"sharedbus-go/services/gyro"
	"sharedbus-go/services/heartbeat"
)

type service interface {
	Run(ctx context.Context, conn *bus.Connection) error
}

type task struct {
	name string
	svc  service
}

type App struct {
	cfg   config.Config
	owner *i2cshare.Owner
	bus   *bus.Bus
	log   logr.Logger
	tasks []task
}

type options struct {
	obs       i2cshare.Observer
	heartbeat bool
	trace     bool
}

type Option func(*options)

// WithObserver forwards lock and transaction events, e.g. to promstats.
func WithObserver(obs i2cshare.Observer) Option { return func(o *options) { o.obs = obs } }

// WithHeartbeat adds the heartbeat task publishing bus counters.
func WithHeartbeat() Option { return func(o *options) { o.heartbeat = true } }

// WithPhysicalTrace logs every physical transfer at V(2).
func WithPhysicalTrace() Option { return func(o *options) { o.trace = true } }

// New builds the Owner over phy and the enabled services. It does not touch
// the bus.
func New(cfg config.Config, phy drivers.I2C, b *bus.Bus, log logr.Logger, opts ...Option) *App {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var pb i2cshare.Bus = i2cshare.FromTx(phy)
	if o.trace {
		pb = i2cshare.NewLoggedBus(pb, log)
	}
	ownerOpts := []i2cshare.OwnerOption{i2cshare.WithLogger(log)}
	if o.obs != nil {
		ownerOpts = append(ownerOpts, i2cshare.WithObserver(o.obs))
	}
	owner := i2cshare.NewOwner(pb, ownerOpts...)

	a := &App{cfg: cfg, owner: owner, bus: b, log: log}
	handle := func() i2cshare.Handle {
		return i2cshare.NewHandle(owner).WithTimeout(cfg.Bus.LockTimeout)
	}

	if cfg.Compass.Enabled {
		a.tasks = append(a.tasks, task{compass.Name, compass.New(handle(), compass.Config{
			Addr:           cfg.Compass.Addr,
			Period:         cfg.Compass.Period,
			DeclinationRad: cfg.Compass.DeclinationRad,
			BusID:          cfg.Bus.ID,
		}, log)})
	}
	if cfg.Gyro.Enabled {
		a.tasks = append(a.tasks, task{gyro.Name, gyro.New(handle(), gyro.Config{
			Addr:     cfg.Gyro.Addr,
			Period:   cfg.Gyro.Period,
			RangeDPS: cfg.Gyro.RangeDPS,
			BusID:    cfg.Bus.ID,
		}, log)})
	}
	if o.heartbeat {
		a.tasks = append(a.tasks, task{"heartbeat", heartbeat.New(owner, 0, log)})
	}
	return a
}

// Owner returns the single bus owner, e.g. for stats.
func (a *App) Owner() *i2cshare.Owner { return a.owner }

// Services lists the task names in start order.
func (a *App) Services() []string {
	out := make([]string, len(a.tasks))
	for i, t := range a.tasks {
		out[i] = t.name
	}
	return out
}

// Run starts every task and blocks until ctx is done or a task fails. Each
// task gets its own bus connection, torn down when it returns.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting", "bus", a.cfg.Bus.ID, "hz", a.cfg.Bus.Hz, "services", a.Services())
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range a.tasks {
		t := t
		g.Go(func() error {
			conn := a.bus.NewConnection(t.name)
			defer conn.Disconnect()
			return t.svc.Run(gctx, conn)
		})
	}
	err := g.Wait()
	st := a.owner.Stats()
	a.log.Info("stopped", "txs", st.Transactions, "errors", st.Errors, "contended", st.Contended)
	return err
}
