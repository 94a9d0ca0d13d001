package i2cshare

import (
	"context"
	"errors"

	"sharedbus-go/errcode"
	"sharedbus-go/x/conv"
)

// ErrUnsupportedOp is returned, before the bus is touched, for a transaction
// containing an operation whose kind is neither OpRead nor OpWrite.
var ErrUnsupportedOp = &errcode.E{C: errcode.Unsupported, Op: "i2c.transaction", Msg: "unknown operation kind"}

// BusError is the error type of a Handle. It wraps whatever the physical
// driver returned and reports the same Kind, so code written against Error
// cannot tell a shared handle from a private bus.
type BusError struct {
	Op     string // read, write, write_read, transaction
	Addr   uint16
	Client string // handle name, may be empty
	Err    error
}

func (e *BusError) Error() string {
	var hb [4]byte
	s := "i2c " + e.Op + " @0x" + string(conv.AddrHex(hb[:], e.Addr))
	if e.Client != "" {
		s += " (" + e.Client + ")"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *BusError) Unwrap() error            { return e.Err }
func (e *BusError) Kind() ErrorKind          { return KindOf(e.Err) }
func (e *BusError) NoAckSource() NoAckSource { return SourceOf(e.Err) }
func (e *BusError) Code() errcode.Code       { return e.Kind().Code() }

// lockError reports a failed lock acquisition. These are not bus errors and
// are never wrapped in BusError.
func lockError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &errcode.E{C: errcode.Timeout, Op: "i2c.lock", Err: err}
	}
	return &errcode.E{C: errcode.Cancelled, Op: "i2c.lock", Err: err}
}
