package i2cshare

import (
	"context"

	"tinygo.org/x/drivers"
)

// txBus adapts a TinyGo drivers.I2C (for example *machine.I2C) to Bus.
// drivers.I2C has no context, so ctx is not consulted once a transfer starts.
type txBus struct {
	i2c drivers.I2C
}

// FromTx returns a Bus issuing every operation through i2c.Tx. Driver errors
// are passed through Classify so they carry an ErrorKind.
func FromTx(i2c drivers.I2C) Bus {
	if i2c == nil {
		panic("i2cshare: FromTx with nil drivers.I2C")
	}
	return &txBus{i2c: i2c}
}

func (b *txBus) Read(_ context.Context, addr uint16, buf []byte) error {
	return Classify(b.i2c.Tx(addr, nil, buf))
}

func (b *txBus) Write(_ context.Context, addr uint16, p []byte) error {
	return Classify(b.i2c.Tx(addr, p, nil))
}

func (b *txBus) WriteRead(_ context.Context, addr uint16, w, r []byte) error {
	return Classify(b.i2c.Tx(addr, w, r))
}

// Transaction issues ops in order. Adjacent ops of the same direction are
// one continuous transfer: a run of writes is sent as a single write phase
// and a run of reads is filled from a single read phase. A write run followed
// by a read run shares one Tx, so the device sees a repeated START between
// them, which register-pointer devices need.
func (b *txBus) Transaction(_ context.Context, addr uint16, ops []Operation) error {
	if err := validateOps(ops); err != nil {
		return err
	}
	for i := 0; i < len(ops); {
		w, next := run(ops, i, OpWrite)
		var r []byte
		var reads []Operation
		if next < len(ops) {
			var end int
			r, end = run(ops, next, OpRead)
			reads = ops[next:end]
			next = end
		}
		if err := b.i2c.Tx(addr, w, r); err != nil {
			return Classify(err)
		}
		scatter(r, reads)
		i = next
	}
	return nil
}

// run returns the buffer for the ops of kind k starting at i and the index
// just past them. A single op uses its own buffer; longer runs are joined.
func run(ops []Operation, i int, k OpKind) ([]byte, int) {
	j := i
	n := 0
	for j < len(ops) && ops[j].Kind == k {
		n += len(ops[j].Buf)
		j++
	}
	switch j - i {
	case 0:
		return nil, i
	case 1:
		return ops[i].Buf, j
	}
	buf := make([]byte, 0, n)
	if k == OpWrite {
		for _, op := range ops[i:j] {
			buf = append(buf, op.Buf...)
		}
		return buf, j
	}
	return buf[:n], j
}

// scatter copies a joined read phase back into the read ops' buffers.
func scatter(r []byte, reads []Operation) {
	if len(reads) < 2 {
		return
	}
	for _, op := range reads {
		r = r[copy(op.Buf, r):]
	}
}
