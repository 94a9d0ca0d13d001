package i2csim

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBus_RegisterPointerAndNack(t *testing.T) {
	b := NewBus()
	r := NewRegisters()
	b.Attach(0x40, r)

	if err := b.Tx(0x40, []byte{0x10, 0xaa, 0xbb}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := make([]byte, 2)
	if err := b.Tx(0x40, []byte{0x10}, got); err != nil {
		t.Fatalf("write_read: %v", err)
	}
	if got[0] != 0xaa || got[1] != 0xbb {
		t.Fatalf("read back %x", got)
	}
	// Pointer keeps auto-incrementing across a bare read.
	one := make([]byte, 1)
	if err := b.Tx(0x40, nil, one); err != nil || one[0] != 0 {
		t.Fatalf("bare read = %x, %v", one, err)
	}

	if err := b.Tx(0x41, []byte{0}, nil); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("absent device: %v", err)
	}
	b.Detach(0x40)
	if err := b.Tx(0x40, []byte{0}, nil); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("detached device: %v", err)
	}
	if b.Transfers() != 5 {
		t.Fatalf("Transfers = %d, want 5", b.Transfers())
	}
}

func TestBus_InjectFault(t *testing.T) {
	b := NewBus()
	b.Attach(0x0d, NewQMC5883L())
	boom := errors.New("arbitration lost")

	b.InjectFault(0x0d, boom)
	if err := b.Tx(0x0d, []byte{0x0d}, make([]byte, 1)); err != boom {
		t.Fatalf("err = %v, want injected fault", err)
	}
	b.InjectFault(0x0d, nil)
	if err := b.Tx(0x0d, []byte{0x0d}, make([]byte, 1)); err != nil {
		t.Fatalf("after clear: %v", err)
	}
}

func TestBus_OverlapsDetected(t *testing.T) {
	b := NewBus()
	b.SetClock(10_000) // 27 clocks at 100 µs each for a 2-byte write
	b.Attach(0x68, NewMPU6050())

	var wg sync.WaitGroup
	gate := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			_ = b.Tx(0x68, []byte{0x6b, 0x00}, nil)
		}()
	}
	close(gate)
	wg.Wait()
	if b.Overlaps() == 0 {
		t.Fatal("unserialised concurrent calls not detected")
	}

	b.SetClock(0)
	start := time.Now()
	_ = b.Tx(0x68, []byte{0x6b, 0x00}, nil)
	if time.Since(start) > 50*time.Millisecond {
		t.Fatal("SetClock(0) should make transfers instantaneous")
	}
}

func TestQMC5883L_DataReadyCycle(t *testing.T) {
	m := NewQMC5883L()
	m.SetField(1, 2, 3)
	if m.Get(qmcStatus)&qmcDRDY != 0 {
		t.Fatal("DRDY set while in standby")
	}
	_ = m.Write([]byte{qmcCtrl1, 0x1d})
	m.SetField(1, 2, 3)
	if m.Get(qmcStatus)&qmcDRDY == 0 {
		t.Fatal("DRDY not set in continuous mode")
	}

	_ = m.Write([]byte{qmcData})
	buf := make([]byte, 7)
	_ = m.Read(buf)
	if buf[6]&qmcDRDY == 0 || buf[0] != 1 || buf[2] != 2 || buf[4] != 3 {
		t.Fatalf("sample %x", buf)
	}
	if m.Get(qmcStatus)&qmcDRDY != 0 {
		t.Fatal("DRDY not cleared by reading the sample")
	}

	_ = m.Write([]byte{qmcCtrl2, 0x80})
	if m.Continuous() {
		t.Fatal("soft reset should return to standby")
	}
}
