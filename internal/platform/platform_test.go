//go:build !rp2040 && !rp2350

package platform

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedbus-go/config"
	"sharedbus-go/internal/i2csim"
)

func TestDefaultI2CFactory_SimulatedSensors(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Hz = 0 // no simulated transfer time
	f := DefaultI2CFactory(cfg)

	_, ok := f.ByID("i2c1")
	assert.False(t, ok)

	bus, ok := f.ByID(cfg.Bus.ID)
	require.True(t, ok)

	id := make([]byte, 1)
	require.NoError(t, bus.Tx(0x0d, []byte{0x0d}, id))
	assert.Equal(t, byte(0xff), id[0])
	require.NoError(t, bus.Tx(0x68, []byte{0x75}, id))
	assert.Equal(t, byte(0x68), id[0])

	assert.ErrorIs(t, bus.Tx(0x50, []byte{0}, nil), i2csim.ErrNoDevice)
}

func TestNewSim_DisabledSensorIsAbsent(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Hz = 0
	cfg.Gyro.Enabled = false
	s := NewSim(cfg)

	assert.ErrorIs(t, s.Tx(cfg.Gyro.Addr, []byte{0x75}, make([]byte, 1)), i2csim.ErrNoDevice)
	assert.NoError(t, s.Tx(cfg.Compass.Addr, []byte{0x0d}, make([]byte, 1)))
}

func TestSim_AnimateStopsWithContext(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Hz = 0
	s := NewSim(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Animate(ctx, time.Millisecond, 90)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Animate did not return after cancel")
	}

	// Gyro Z carries 90 dps at ±250 dps scale.
	buf := make([]byte, 6)
	require.NoError(t, s.Tx(cfg.Gyro.Addr, []byte{0x43}, buf))
	assert.Equal(t, int16(90*131), int16(uint16(buf[4])<<8|uint16(buf[5])))
}

func TestNewLogger_Verbosity(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, 0)
	log.Info("boot", "bus", "i2c0")
	log.V(1).Info("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg"="boot"`)
	assert.Contains(t, out, `"bus"="i2c0"`)
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}
