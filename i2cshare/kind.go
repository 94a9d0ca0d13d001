package i2cshare

import (
	"errors"
	"strings"

	"sharedbus-go/errcode"
)

// ErrorKind is the fixed classification of an I²C failure. It survives every
// layer of wrapping between the physical driver and the client.
type ErrorKind uint8

const (
	KindOther           ErrorKind = iota // anything not covered below
	KindBus                              // misplaced START/STOP, bus held busy
	KindArbitrationLoss                  // lost arbitration to another master
	KindNoAcknowledge                    // address or data byte not ACKed
	KindOverrun                          // receive overrun / transmit underrun
)

func (k ErrorKind) String() string {
	switch k {
	case KindBus:
		return "bus"
	case KindArbitrationLoss:
		return "arbitration_loss"
	case KindNoAcknowledge:
		return "no_acknowledge"
	case KindOverrun:
		return "overrun"
	default:
		return "other"
	}
}

// Code maps a kind onto the project's short error codes.
func (k ErrorKind) Code() errcode.Code {
	switch k {
	case KindBus:
		return errcode.BusError
	case KindArbitrationLoss:
		return errcode.ArbitrationLost
	case KindNoAcknowledge:
		return errcode.Nack
	case KindOverrun:
		return errcode.Overrun
	default:
		return errcode.IOError
	}
}

// NoAckSource refines KindNoAcknowledge.
type NoAckSource uint8

const (
	NoAckUnknown NoAckSource = iota
	NoAckAddress
	NoAckData
)

func (s NoAckSource) String() string {
	switch s {
	case NoAckAddress:
		return "address"
	case NoAckData:
		return "data"
	default:
		return "unknown"
	}
}

// Error is the contract every bus error satisfies: an error that knows its
// kind. Physical drivers should return values implementing it.
type Error interface {
	error
	Kind() ErrorKind
}

type noAckSourcer interface{ NoAckSource() NoAckSource }

// kindError is the plain Error used by drivers and by Classify.
type kindError struct {
	kind ErrorKind
	src  NoAckSource
	msg  string
	err  error // optional original cause
}

func (e *kindError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.msg
}
func (e *kindError) Kind() ErrorKind          { return e.kind }
func (e *kindError) NoAckSource() NoAckSource { return e.src }
func (e *kindError) Unwrap() error            { return e.err }

// NewError returns an Error of the given kind.
func NewError(kind ErrorKind, msg string) error {
	if msg == "" {
		msg = "i2c: " + kind.String()
	}
	return &kindError{kind: kind, msg: msg}
}

// NoAck returns a KindNoAcknowledge error with the given source.
func NoAck(src NoAckSource) error {
	return &kindError{kind: KindNoAcknowledge, src: src, msg: "i2c: no acknowledge (" + src.String() + ")"}
}

// KindOf reports the kind carried anywhere in err's chain. Errors that carry
// no kind, and nil, are KindOther.
func KindOf(err error) ErrorKind {
	var e Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindOther
}

// SourceOf reports which phase was not acknowledged, if known.
func SourceOf(err error) NoAckSource {
	var s noAckSourcer
	if errors.As(err, &s) {
		return s.NoAckSource()
	}
	return NoAckUnknown
}

// Classify attaches a kind to a raw driver error. Errors that already carry
// a kind are returned untouched; everything else keeps its text and is
// reachable through errors.Unwrap.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		return err
	}
	kind, src := guessKind(err)
	return &kindError{kind: kind, src: src, err: err}
}

// guessKind recognises project codes and the messages produced by common
// TinyGo/Linux I²C drivers. Extend per platform.
func guessKind(err error) (ErrorKind, NoAckSource) {
	switch errcode.Of(err) {
	case errcode.Nack:
		return KindNoAcknowledge, NoAckUnknown
	case errcode.ArbitrationLost:
		return KindArbitrationLoss, NoAckUnknown
	case errcode.BusError, errcode.Busy:
		return KindBus, NoAckUnknown
	case errcode.Overrun:
		return KindOverrun, NoAckUnknown
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "arbitration"):
		return KindArbitrationLoss, NoAckUnknown
	case strings.Contains(msg, "no device"), strings.Contains(msg, "address nack"),
		strings.Contains(msg, "remote i/o"):
		return KindNoAcknowledge, NoAckAddress
	case strings.Contains(msg, "nack"), strings.Contains(msg, "no ack"),
		strings.Contains(msg, "not acknowledged"):
		return KindNoAcknowledge, NoAckUnknown
	case strings.Contains(msg, "overrun"), strings.Contains(msg, "overflow"),
		strings.Contains(msg, "underrun"):
		return KindOverrun, NoAckUnknown
	case strings.Contains(msg, "bus busy"), strings.Contains(msg, "bus error"),
		strings.Contains(msg, "misplaced"):
		return KindBus, NoAckUnknown
	}
	return KindOther, NoAckUnknown
}
