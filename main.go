package main

import (
	"context"
	"time"

	"sharedbus-go/app"
	"sharedbus-go/bus"
	"sharedbus-go/config"
	"sharedbus-go/internal/platform"
)

func main() {
	time.Sleep(platform.BootDelay)
	println("boot")

	cfg, err := config.Load(platform.Device)
	if err != nil {
		println("config:", err.Error(), "- using defaults")
		cfg = config.Default()
	}
	log := platform.NewLogger(platform.Console(), cfg.Log.Verbosity)

	phy, ok := platform.DefaultI2CFactory(cfg).ByID(cfg.Bus.ID)
	if !ok {
		log.Info("no I2C controller for bus", "id", cfg.Bus.ID)
		select {}
	}

	a := app.New(cfg, phy, bus.NewBus(8), log, app.WithHeartbeat())
	if err := a.Run(context.Background()); err != nil {
		log.Error(err, "stopped")
	}
}
