package i2csim

import "sync"

// Registers is a register-pointer peripheral: the first byte of a write
// selects the register, further bytes are stored with auto-increment, and
// reads continue from the pointer.
type Registers struct {
	mu  sync.Mutex
	mem [256]byte
	ptr uint8

	// Optional hooks, called with the register lock held.
	onWrite func(reg, val byte)
	onRead  func(first uint8, n int)
}

func NewRegisters() *Registers { return &Registers{} }

func (r *Registers) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ptr = p[0]
	for _, v := range p[1:] {
		r.mem[r.ptr] = v
		if r.onWrite != nil {
			r.onWrite(r.ptr, v)
		}
		r.ptr++
	}
	return nil
}

func (r *Registers) Read(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	first := r.ptr
	for i := range p {
		p[i] = r.mem[r.ptr]
		r.ptr++
	}
	if r.onRead != nil {
		r.onRead(first, len(p))
	}
	return nil
}

// Set stores vals from reg upward without triggering hooks.
func (r *Registers) Set(reg uint8, vals ...byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range vals {
		r.mem[reg+uint8(i)] = v
	}
}

// Get returns the value of reg.
func (r *Registers) Get(reg uint8) byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mem[reg]
}

// covers reports whether a read of n bytes from first touched reg.
func covers(first uint8, n int, reg uint8) bool {
	return reg >= first && int(reg-first) < n
}
