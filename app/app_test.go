package app

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedbus-go/bus"
	"sharedbus-go/config"
	"sharedbus-go/i2cshare/promstats"
	"sharedbus-go/internal/platform"
	"sharedbus-go/services/sensor"
	"sharedbus-go/types"
)

func testConfig() config.Config {
	c := config.Default()
	c.Bus.Hz = 1_000_000 // real transfer times so the services contend
	c.Compass.Period = 2 * time.Millisecond
	c.Compass.DeclinationRad = 0
	c.Gyro.Period = 2 * time.Millisecond
	return c
}

func TestRun_SensorsShareOneBus(t *testing.T) {
	cfg := testConfig()
	sim := platform.NewSim(cfg)
	sim.Compass.SetField(0, 0, 0)
	sim.IMU.SetGyro(0, 0, 131)

	reg := prometheus.NewRegistry()
	obs, err := promstats.New(reg, cfg.Bus.ID)
	require.NoError(t, err)

	b := bus.NewBus(64)
	a := New(cfg, sim, b, testr.New(t), WithObserver(obs), WithHeartbeat())
	assert.Equal(t, []string{"compass", "gyro", "heartbeat"}, a.Services())

	probe := b.NewConnection("probe")
	heading := probe.Subscribe(sensor.Topic("compass", types.KindHeading))
	rate := probe.Subscribe(sensor.Topic("gyro", types.KindRate))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Keep feeding the magnetometer so it has fresh samples.
	feed := time.NewTicker(time.Millisecond)
	defer feed.Stop()
	var gotHeading, gotRate bool
	deadline := time.After(3 * time.Second)
	for !(gotHeading && gotRate) {
		select {
		case m := <-heading.Channel():
			assert.InDelta(t, 90, m.Payload.(types.HeadingValue).Degrees, 1e-3)
			gotHeading = true
		case m := <-rate.Channel():
			assert.Equal(t, int32(1000), m.Payload.(types.RateValue).Z)
			gotRate = true
		case <-feed.C:
			sim.Compass.SetField(0, 500, 0)
		case <-deadline:
			t.Fatalf("heading=%v rate=%v", gotHeading, gotRate)
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}

	assert.Zero(t, sim.Overlaps(), "physical bus saw concurrent transfers")
	st := a.Owner().Stats()
	assert.Positive(t, st.Transactions)
	series, err := testutil.GatherAndCount(reg, "sharedbus_i2c_transactions_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, series, 2, "one series per client and op")
}

func TestNew_DisabledServices(t *testing.T) {
	cfg := testConfig()
	cfg.Compass.Enabled = false
	a := New(cfg, platform.NewSim(cfg), bus.NewBus(4), testr.New(t))
	assert.Equal(t, []string{"gyro"}, a.Services())
}

func TestRun_StopsPromptlyWhileBusIsSlow(t *testing.T) {
	cfg := testConfig()
	cfg.Bus.Hz = 1_000 // each transfer takes tens of milliseconds
	cfg.Bus.LockTimeout = 0
	a := New(cfg, platform.NewSim(cfg), bus.NewBus(4), testr.New(t), WithPhysicalTrace())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.NoError(t, a.Run(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)
}
