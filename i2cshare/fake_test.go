package i2cshare

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"sharedbus-go/x/conv"
)

// recBus is a physical Bus that records every phase it executes and tracks
// how many calls are in flight at once.
type recBus struct {
	mu    sync.Mutex
	trace []string
	errs  map[uint16]error // injected per address
	panic map[uint16]bool

	delay       time.Duration // per phase; 0 yields instead
	calls       atomic.Int32
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newRecBus() *recBus {
	return &recBus{errs: map[uint16]error{}, panic: map[uint16]bool{}}
}

func (f *recBus) setErr(addr uint16, err error) {
	f.mu.Lock()
	f.errs[addr] = err
	f.mu.Unlock()
}

func (f *recBus) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *recBus) enter(addr uint16) error {
	f.calls.Add(1)
	n := f.inflight.Add(1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	f.mu.Lock()
	err, boom := f.errs[addr], f.panic[addr]
	f.mu.Unlock()
	if boom {
		f.inflight.Add(-1)
		panic("recBus: injected panic")
	}
	return err
}

func (f *recBus) leave() { f.inflight.Add(-1) }

// step records one bus phase and gives other goroutines a chance to run, so
// a broken lock would show up as interleaving.
func (f *recBus) step(s string) {
	f.mu.Lock()
	f.trace = append(f.trace, s)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	} else {
		runtime.Gosched()
	}
}

func ev(dir string, addr uint16, p []byte) string {
	var b [4]byte
	s := dir + " " + string(conv.AddrHex(b[:], addr))
	for _, c := range p {
		s += " " + string(conv.U8Hex(b[:], c))
	}
	return s
}

func evRead(addr uint16, n int) string {
	var b [4]byte
	return "r " + string(conv.AddrHex(b[:], addr)) + " #" + strconv.Itoa(n)
}

func (f *recBus) Read(_ context.Context, addr uint16, buf []byte) error {
	if err := f.enter(addr); err != nil {
		f.leave()
		return err
	}
	defer f.leave()
	for i := range buf {
		buf[i] = byte(addr) + byte(i)
	}
	f.step(evRead(addr, len(buf)))
	return nil
}

func (f *recBus) Write(_ context.Context, addr uint16, p []byte) error {
	if err := f.enter(addr); err != nil {
		f.leave()
		return err
	}
	defer f.leave()
	f.step(ev("w", addr, p))
	return nil
}

func (f *recBus) WriteRead(_ context.Context, addr uint16, w, r []byte) error {
	if err := f.enter(addr); err != nil {
		f.leave()
		return err
	}
	defer f.leave()
	f.step(ev("w", addr, w))
	for i := range r {
		r[i] = byte(addr) + byte(i)
	}
	f.step(evRead(addr, len(r)))
	return nil
}

func (f *recBus) Transaction(_ context.Context, addr uint16, ops []Operation) error {
	if err := f.enter(addr); err != nil {
		f.leave()
		return err
	}
	defer f.leave()
	for _, op := range ops {
		switch op.Kind {
		case OpWrite:
			f.step(ev("w", addr, op.Buf))
		case OpRead:
			f.step(evRead(addr, len(op.Buf)))
		}
	}
	return nil
}
