package errcode

import "errors"

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	InvalidConfig Code = "invalid_config"
	UnknownBus    Code = "unknown_bus"
	UnknownDevice Code = "unknown_device"
	Timeout       Code = "timeout"
	Cancelled     Code = "cancelled"
	NotReady      Code = "not_ready"
	ProtocolError Code = "protocol_error"

	// I²C bus failures, one per error kind.
	Nack            Code = "nack"
	ArbitrationLost Code = "arbitration_lost"
	BusError        Code = "bus_error"
	Overrun         Code = "overrun"
	IOError         Code = "io_error"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Timeout) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

type coder interface{ Code() Code }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// MapDriverErr maps low-level driver errors to a Code. Errors that carry
// no code of their own are reported as io_error.
func MapDriverErr(err error) Code {
	if c := Of(err); c != Error {
		return c
	}
	return IOError
}
