// Package i2csim is a host-side I²C bus simulator implementing the TinyGo
// drivers.I2C contract. Peripherals are modelled as register files; the bus
// NACKs absent addresses, can inject faults, and counts overlapping calls so
// tests can prove that access was serialised.
package i2csim

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"

	"sharedbus-go/x/timex"
)

// Device models one peripheral. Write receives a whole write phase, Read
// fills a whole read phase.
type Device interface {
	Write(p []byte) error
	Read(p []byte) error
}

// ErrNoDevice mimics the address NACK returned by real controllers.
var ErrNoDevice = errors.New("i2csim: no device at address (address nack)")

// Bus is a simulated I²C controller.
type Bus struct {
	mu     sync.Mutex
	devs   map[uint16]Device
	faults map[uint16]error
	bitDur time.Duration // 0 => transfers are instantaneous

	txs      atomic.Uint64
	inflight atomic.Int32
	overlaps atomic.Uint64

	LastTx struct {
		Addr uint16
		W    []byte
		Rn   int
	}
}

var _ drivers.I2C = (*Bus)(nil)

// NewBus returns an empty bus with no simulated clock.
func NewBus() *Bus {
	return &Bus{devs: make(map[uint16]Device), faults: make(map[uint16]error)}
}

// SetClock makes each transfer take as long as it would on a real bus at hz
// (9 clocks per byte plus the address byte). 0 disables the delay.
func (b *Bus) SetClock(hz uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if hz == 0 {
		b.bitDur = 0
		return
	}
	b.bitDur = timex.PeriodFromHz(hz)
}

// Attach places d at addr, replacing any existing device.
func (b *Bus) Attach(addr uint16, d Device) {
	b.mu.Lock()
	b.devs[addr] = d
	b.mu.Unlock()
}

// Detach removes the device at addr; later transfers to it NACK.
func (b *Bus) Detach(addr uint16) {
	b.mu.Lock()
	delete(b.devs, addr)
	b.mu.Unlock()
}

// InjectFault makes every transfer to addr fail with err until cleared with
// a nil err.
func (b *Bus) InjectFault(addr uint16, err error) {
	b.mu.Lock()
	if err == nil {
		delete(b.faults, addr)
	} else {
		b.faults[addr] = err
	}
	b.mu.Unlock()
}

// Transfers returns the number of Tx calls.
func (b *Bus) Transfers() uint64 { return b.txs.Load() }

// Overlaps returns how many Tx calls started while another was in flight.
// A correctly shared bus always reports zero.
func (b *Bus) Overlaps() uint64 { return b.overlaps.Load() }

// Tx performs a write phase, a read phase, or both with a repeated START.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if b.inflight.Add(1) > 1 {
		b.overlaps.Add(1)
	}
	defer b.inflight.Add(-1)
	b.txs.Add(1)

	b.mu.Lock()
	dev := b.devs[addr]
	fault := b.faults[addr]
	bit := b.bitDur
	b.LastTx.Addr = addr
	b.LastTx.W = append(b.LastTx.W[:0], w...)
	b.LastTx.Rn = len(r)
	b.mu.Unlock()

	if bit > 0 {
		time.Sleep(bit * time.Duration(9*(1+len(w)+len(r))))
	}
	if fault != nil {
		return fault
	}
	if dev == nil {
		return ErrNoDevice
	}
	if len(w) > 0 {
		if err := dev.Write(w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return dev.Read(r)
	}
	return nil
}
