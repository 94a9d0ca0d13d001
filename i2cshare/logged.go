package i2cshare

import (
	"context"

	"github.com/go-logr/logr"
)

// traceLevel is the verbosity at which physical transfers are logged, one
// step more verbose than the Owner's lock and transaction tracing.
const traceLevel = 2

// NewLoggedBus wraps a physical Bus and logs every operation at V(2), and
// every failure at error level with its kind. Wrap the physical driver, not
// a Handle, so the log shows the serialised order seen by the hardware.
func NewLoggedBus(inner Bus, log logr.Logger) Bus {
	return &loggedBus{inner: inner, log: log.WithName("phy")}
}

type loggedBus struct {
	inner Bus
	log   logr.Logger
}

func (l *loggedBus) Read(ctx context.Context, addr uint16, buf []byte) error {
	err := l.inner.Read(ctx, addr, buf)
	l.report(opRead, addr, err, "rlen", len(buf), "data", buf)
	return err
}

func (l *loggedBus) Write(ctx context.Context, addr uint16, p []byte) error {
	l.log.V(traceLevel).Info("i2c write", "addr", addr, "data", p)
	err := l.inner.Write(ctx, addr, p)
	l.report(opWrite, addr, err)
	return err
}

func (l *loggedBus) WriteRead(ctx context.Context, addr uint16, w, r []byte) error {
	l.log.V(traceLevel).Info("i2c write_read", "addr", addr, "data", w, "rlen", len(r))
	err := l.inner.WriteRead(ctx, addr, w, r)
	l.report(opWriteRead, addr, err, "rdata", r)
	return err
}

func (l *loggedBus) Transaction(ctx context.Context, addr uint16, ops []Operation) error {
	l.log.V(traceLevel).Info("i2c transaction", "addr", addr, "ops", len(ops))
	err := l.inner.Transaction(ctx, addr, ops)
	l.report(opTransaction, addr, err)
	return err
}

func (l *loggedBus) report(op string, addr uint16, err error, kv ...any) {
	if err != nil {
		l.log.Error(err, "i2c "+op+" error", "addr", addr, "kind", KindOf(err).String())
		return
	}
	if op == opRead || op == opWriteRead {
		l.log.V(traceLevel).Info("i2c "+op+" done", append([]any{"addr", addr}, kv...)...)
	}
}
