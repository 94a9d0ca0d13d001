// Package i2cshare shares one physical I²C bus between independent clients.
//
// An Owner wraps the physical driver behind a FIFO lock. Each client gets its
// own Handle, which looks like a private bus but takes the Owner's lock for
// every call:
//
//	owner := i2cshare.NewOwner(i2cshare.FromTx(machine.I2C0))
//	compass := i2cshare.NewHandle(owner).Named("compass")
//	gyro := i2cshare.NewHandle(owner).Named("gyro")
//
// WriteRead and Transaction hold the lock across all of their phases, so no
// other client's traffic can land between a register write and its read.
// Errors from the physical driver are wrapped in *BusError and keep their
// ErrorKind.
package i2cshare

import "context"

// Bus is the contract of a physical I²C driver. Implementations need not be
// safe for concurrent use; the Owner guarantees at most one call in flight.
type Bus interface {
	Read(ctx context.Context, addr uint16, buf []byte) error
	Write(ctx context.Context, addr uint16, p []byte) error
	// WriteRead writes w then reads into r with a repeated START.
	WriteRead(ctx context.Context, addr uint16, w, r []byte) error
	// Transaction runs ops in order against one device.
	Transaction(ctx context.Context, addr uint16, ops []Operation) error
}

// OpKind selects the direction of one Operation.
type OpKind uint8

// The zero OpKind is invalid so that an unset operation fails loudly.
const (
	OpRead OpKind = iota + 1
	OpWrite
)

func (k OpKind) String() string {
	switch k {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return "invalid"
	}
}

// Operation is one step of a Transaction. For OpRead, Buf is filled; for
// OpWrite, Buf is sent.
type Operation struct {
	Kind OpKind
	Buf  []byte
}

func ReadOp(buf []byte) Operation { return Operation{Kind: OpRead, Buf: buf} }
func WriteOp(p []byte) Operation  { return Operation{Kind: OpWrite, Buf: p} }

// validateOps rejects any operation with an unknown kind.
func validateOps(ops []Operation) error {
	for i := range ops {
		if ops[i].Kind != OpRead && ops[i].Kind != OpWrite {
			return ErrUnsupportedOp
		}
	}
	return nil
}

// Names used in logs, metrics and BusError.Op.
const (
	opRead        = "read"
	opWrite       = "write"
	opWriteRead   = "write_read"
	opTransaction = "transaction"
)
