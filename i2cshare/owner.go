package i2cshare

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/semaphore"
)

// Observer receives lock and transaction events. It is called with the lock
// held (OnTx) or just acquired (OnLock) and must not block.
type Observer interface {
	OnLock(client string, wait time.Duration)
	OnTx(client, op string, addr uint16, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) OnLock(string, time.Duration)                      {}
func (nopObserver) OnTx(string, string, uint16, time.Duration, error) {}

// OwnerStats is a snapshot of an Owner's counters.
type OwnerStats struct {
	Transactions uint64        // completed physical transactions
	Errors       uint64        // transactions that returned an error
	Contended    uint64        // lock acquisitions that had to wait
	LockFailures uint64        // acquisitions abandoned on deadline/cancel
	TotalWait    time.Duration // summed wait of all acquisitions
	MaxWait      time.Duration
}

type ownerCounters struct {
	txs       atomic.Uint64
	errs      atomic.Uint64
	contended atomic.Uint64
	failures  atomic.Uint64
	waitNs    atomic.Int64
	maxWaitNs atomic.Int64
}

// Owner holds the one physical bus driver of a process and serialises all
// access to it. Create it once at start-up and hand its pointer to every
// client; it is never copied or recreated.
type Owner struct {
	bus Bus
	sem *semaphore.Weighted // weight 1; FIFO among waiters
	log logr.Logger
	obs Observer
	cnt ownerCounters
}

type OwnerOption func(*Owner)

// WithLogger enables lock and transaction tracing at V(1) and error logs.
func WithLogger(l logr.Logger) OwnerOption {
	return func(o *Owner) { o.log = l.WithName("i2c") }
}

// WithObserver installs a metrics hook.
func WithObserver(obs Observer) OwnerOption {
	return func(o *Owner) {
		if obs != nil {
			o.obs = obs
		}
	}
}

// NewOwner wraps bus. No I/O is performed.
func NewOwner(bus Bus, opts ...OwnerOption) *Owner {
	if bus == nil {
		panic("i2cshare: NewOwner with nil bus")
	}
	o := &Owner{
		bus: bus,
		sem: semaphore.NewWeighted(1),
		log: logr.Discard(),
		obs: nopObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Guard is the scoped, exclusive right to use the physical bus. It must be
// released exactly once; Release is idempotent so it is safe to defer.
type Guard struct {
	o        *Owner
	released atomic.Bool
}

// Bus returns the physical driver. It panics after Release.
func (g *Guard) Bus() Bus {
	if g.released.Load() {
		panic("i2cshare: use of released Guard")
	}
	return g.o.bus
}

// Release unlocks the bus and wakes the next waiter.
func (g *Guard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.o.sem.Release(1)
	}
}

// Lock blocks until the bus is free and returns a Guard. Waiters are served
// in arrival order. With a context that never ends Lock cannot fail; if ctx
// ends first the caller leaves the queue with a timeout or cancelled error.
func (o *Owner) Lock(ctx context.Context) (*Guard, error) {
	return o.lock(ctx, "")
}

// TryLock acquires the bus only if it is free right now.
func (o *Owner) TryLock() (*Guard, bool) {
	if !o.sem.TryAcquire(1) {
		return nil, false
	}
	o.obs.OnLock("", 0)
	return &Guard{o: o}, true
}

func (o *Owner) lock(ctx context.Context, client string) (*Guard, error) {
	if o.sem.TryAcquire(1) {
		o.obs.OnLock(client, 0)
		return &Guard{o: o}, nil
	}

	o.cnt.contended.Add(1)
	start := time.Now()
	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.cnt.failures.Add(1)
		o.log.Error(err, "lock abandoned", "client", client, "waited", time.Since(start))
		return nil, lockError(err)
	}
	wait := time.Since(start)
	o.recordWait(wait)
	o.obs.OnLock(client, wait)
	o.log.V(1).Info("lock acquired", "client", client, "waited", wait)
	return &Guard{o: o}, nil
}

func (o *Owner) recordWait(d time.Duration) {
	ns := int64(d)
	o.cnt.waitNs.Add(ns)
	for {
		cur := o.cnt.maxWaitNs.Load()
		if ns <= cur || o.cnt.maxWaitNs.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// do runs fn against the physical bus under the lock. The lock is released
// on every exit path, including a panic inside the driver. Errors from fn are
// returned as-is; lock failures come back as *errcode.E.
func (o *Owner) do(ctx context.Context, client, op string, addr uint16, fn func(Bus) error) error {
	g, err := o.lock(ctx, client)
	if err != nil {
		return err
	}
	defer g.Release()

	// The semaphore may hand over the lock to a context that is already done.
	if err := ctx.Err(); err != nil {
		o.cnt.failures.Add(1)
		return lockError(err)
	}

	start := time.Now()
	err = fn(g.Bus())
	d := time.Since(start)

	o.cnt.txs.Add(1)
	if err != nil {
		o.cnt.errs.Add(1)
		o.log.Error(err, "transaction failed", "client", client, "op", op, "addr", addr, "kind", KindOf(err).String())
	} else {
		o.log.V(1).Info("transaction", "client", client, "op", op, "addr", addr, "took", d)
	}
	o.obs.OnTx(client, op, addr, d, err)
	return err
}

// Stats returns a snapshot of the Owner's counters.
func (o *Owner) Stats() OwnerStats {
	return OwnerStats{
		Transactions: o.cnt.txs.Load(),
		Errors:       o.cnt.errs.Load(),
		Contended:    o.cnt.contended.Load(),
		LockFailures: o.cnt.failures.Load(),
		TotalWait:    time.Duration(o.cnt.waitNs.Load()),
		MaxWait:      time.Duration(o.cnt.maxWaitNs.Load()),
	}
}
