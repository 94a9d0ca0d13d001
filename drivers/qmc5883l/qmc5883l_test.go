package qmc5883l

import (
	"errors"
	"testing"

	"sharedbus-go/internal/i2csim"
)

func newSim(t *testing.T) (*i2csim.Bus, *i2csim.QMC5883L, Device) {
	t.Helper()
	bus := i2csim.NewBus()
	chip := i2csim.NewQMC5883L()
	bus.Attach(Address, chip)
	return bus, chip, New(bus)
}

func TestConfigureStartsContinuous(t *testing.T) {
	_, chip, d := newSim(t)
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if !chip.Continuous() {
		t.Fatal("device not in continuous mode")
	}
	if got := chip.Get(regCtrl1); got != 0x1D {
		t.Fatalf("CTRL1 = %#02x, want 0x1d", got)
	}
	if got := chip.Get(regSetRst); got != 0x01 {
		t.Fatalf("SET/RESET = %#02x, want 0x01", got)
	}
}

func TestConfigureCustomSetup(t *testing.T) {
	_, chip, d := newSim(t)
	if err := d.Configure(Config{Rate: Rate50Hz, Range: Range2G, Oversampling: OSR64}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got := chip.Get(regCtrl1); got != 0xC5 {
		t.Fatalf("CTRL1 = %#02x, want 0xc5", got)
	}
}

func TestConfigureSlowestSetup(t *testing.T) {
	_, chip, d := newSim(t)
	// 10 Hz, 2 G and OSR 512 are all zero bits.
	if err := d.Configure(Config{Rate: Rate10Hz, Range: Range2G, Oversampling: OSR512}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got := chip.Get(regCtrl1); got != 0x01 {
		t.Fatalf("CTRL1 = %#02x, want 0x01", got)
	}
}

func TestConfigureDefaultConfigMatchesNoArgs(t *testing.T) {
	_, chip, d := newSim(t)
	if err := d.Configure(DefaultConfig()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got := chip.Get(regCtrl1); got != 0x1D {
		t.Fatalf("CTRL1 = %#02x, want 0x1d", got)
	}
}

func TestConfigureWrongChip(t *testing.T) {
	_, chip, d := newSim(t)
	chip.Set(regChipID, 0x00)
	if err := d.Configure(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestConfigureAbsentDevice(t *testing.T) {
	bus := i2csim.NewBus()
	d := New(bus)
	if err := d.Configure(); !errors.Is(err, i2csim.ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
	if d.Connected() {
		t.Fatal("Connected on empty bus")
	}
}

func TestReadMag(t *testing.T) {
	bus, chip, d := newSim(t)
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if _, _, _, err := d.ReadMag(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("before sample: err = %v, want ErrNotReady", err)
	}

	chip.SetField(1200, -340, -32768)
	x, y, z, err := d.ReadMag()
	if err != nil {
		t.Fatalf("ReadMag: %v", err)
	}
	if x != 1200 || y != -340 || z != -32768 {
		t.Fatalf("got (%d,%d,%d)", x, y, z)
	}
	if bus.LastTx.Rn != 7 || len(bus.LastTx.W) != 1 || bus.LastTx.W[0] != regXOutL {
		t.Fatalf("sample not read in one transfer: %+v", bus.LastTx)
	}

	// DRDY clears once the sample has been read.
	if _, _, _, err := d.ReadMag(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("second read: err = %v, want ErrNotReady", err)
	}
}

func TestReadMagOverflow(t *testing.T) {
	_, chip, d := newSim(t)
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	chip.SetField(1, 2, 3)
	chip.Set(regStatus, statusDRDY|statusOVL)
	if _, _, _, err := d.ReadMag(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

func TestStandby(t *testing.T) {
	_, chip, d := newSim(t)
	if err := d.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := d.Standby(); err != nil {
		t.Fatalf("Standby: %v", err)
	}
	if chip.Continuous() {
		t.Fatal("still continuous after Standby")
	}
	st, err := d.Status()
	if err != nil || st&statusDRDY != 0 {
		t.Fatalf("Status = %#02x, %v", st, err)
	}
}
