package i2cshare

import (
	"context"
	"time"

	"tinygo.org/x/drivers"
)

// DefaultTxTimeout bounds lock wait plus transfer for calls made through the
// drivers.I2C Tx method, which has no context of its own.
const DefaultTxTimeout = 250 * time.Millisecond

// Handle is one client's view of a shared bus. It is a small value holding a
// pointer to the Owner; copies are independent handles to the same bus. A
// Handle keeps no state between calls and is safe for concurrent use.
type Handle struct {
	owner   *Owner
	name    string
	timeout time.Duration
}

// Ensure compile-time conformance with drivers.I2C.
var _ drivers.I2C = Handle{}

// NewHandle returns a handle on owner with the default Tx timeout.
func NewHandle(owner *Owner) Handle {
	if owner == nil {
		panic("i2cshare: NewHandle with nil owner")
	}
	return Handle{owner: owner, timeout: DefaultTxTimeout}
}

// Named labels the handle in logs, metrics and errors.
func (h Handle) Named(name string) Handle {
	h.name = name
	return h
}

// WithTimeout sets the Tx timeout. Zero waits forever.
func (h Handle) WithTimeout(d time.Duration) Handle {
	if d >= 0 {
		h.timeout = d
	}
	return h
}

func (h Handle) Name() string { return h.name }

// Read fills buf from the device at addr.
func (h Handle) Read(ctx context.Context, addr uint16, buf []byte) error {
	return h.owner.do(ctx, h.name, opRead, addr, func(b Bus) error {
		return h.wrap(opRead, addr, b.Read(ctx, addr, buf))
	})
}

// Write sends p to the device at addr.
func (h Handle) Write(ctx context.Context, addr uint16, p []byte) error {
	return h.owner.do(ctx, h.name, opWrite, addr, func(b Bus) error {
		return h.wrap(opWrite, addr, b.Write(ctx, addr, p))
	})
}

// WriteRead writes w and then reads into r under one lock acquisition. No
// other client's traffic can reach the bus between the two phases.
func (h Handle) WriteRead(ctx context.Context, addr uint16, w, r []byte) error {
	return h.owner.do(ctx, h.name, opWriteRead, addr, func(b Bus) error {
		return h.wrap(opWriteRead, addr, b.WriteRead(ctx, addr, w, r))
	})
}

// Transaction runs ops in order as one atomic unit under a single lock
// acquisition. Operations of unknown kind fail with ErrUnsupportedOp before
// the lock is taken. An empty list succeeds without touching the bus.
func (h Handle) Transaction(ctx context.Context, addr uint16, ops []Operation) error {
	if err := validateOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}
	return h.owner.do(ctx, h.name, opTransaction, addr, func(b Bus) error {
		return h.wrap(opTransaction, addr, b.Transaction(ctx, addr, ops))
	})
}

// ReadRegister reads len(buf) bytes starting at register reg.
func (h Handle) ReadRegister(ctx context.Context, addr uint16, reg uint8, buf []byte) error {
	return h.WriteRead(ctx, addr, []byte{reg}, buf)
}

// WriteRegister writes p starting at register reg in a single write.
func (h Handle) WriteRegister(ctx context.Context, addr uint16, reg uint8, p []byte) error {
	w := make([]byte, 1+len(p))
	w[0] = reg
	copy(w[1:], p)
	return h.Write(ctx, addr, w)
}

// Tx implements drivers.I2C so stock TinyGo drivers can run on a shared
// handle: w only is a write, r only a read, both a write-read with repeated
// START. The handle's timeout applies.
func (h Handle) Tx(addr uint16, w, r []byte) error {
	return h.tx(context.Background(), addr, w, r)
}

// Bind returns a drivers.I2C whose calls are also cancelled with ctx. Use it
// to hand a driver a bus that stops when its service does.
func (h Handle) Bind(ctx context.Context) drivers.I2C {
	return boundHandle{h: h, ctx: ctx}
}

type boundHandle struct {
	h   Handle
	ctx context.Context
}

func (b boundHandle) Tx(addr uint16, w, r []byte) error { return b.h.tx(b.ctx, addr, w, r) }

func (h Handle) tx(ctx context.Context, addr uint16, w, r []byte) error {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	switch {
	case len(w) > 0 && len(r) > 0:
		return h.WriteRead(ctx, addr, w, r)
	case len(r) > 0:
		return h.Read(ctx, addr, r)
	default:
		return h.Write(ctx, addr, w)
	}
}

func (h Handle) wrap(op string, addr uint16, err error) error {
	if err == nil {
		return nil
	}
	return &BusError{Op: op, Addr: addr, Client: h.name, Err: err}
}
