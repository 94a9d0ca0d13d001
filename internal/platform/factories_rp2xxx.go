//go:build rp2040 || rp2350

package platform

import (
	"io"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"sharedbus-go/config"
)

// Device names the embedded configuration used on this platform.
const Device = "pico"

// No RTC on the board; timestamps would only show uptime since 1970.
const logTimestamps = false

// BootDelay lets USB CDC enumerate before the first print.
const BootDelay = 2 * time.Second

// DefaultI2CFactory configures the controller named by cfg.Bus.ID on the
// configured pins and clock.
func DefaultI2CFactory(cfg config.Config) I2CFactory {
	f := &i2cFactory{buses: make(map[string]drivers.I2C)}

	var hw *machine.I2C
	switch cfg.Bus.ID {
	case "i2c0":
		hw = machine.I2C0
	case "i2c1":
		hw = machine.I2C1
	default:
		return f
	}
	if err := hw.Configure(machine.I2CConfig{
		Frequency: cfg.Bus.Hz,
		SDA:       machine.Pin(cfg.Bus.SDA),
		SCL:       machine.Pin(cfg.Bus.SCL),
	}); err != nil {
		println("[platform] i2c configure failed:", err.Error())
		return f
	}
	f.buses[cfg.Bus.ID] = hw
	return f
}

var console io.Writer

// Console is UART0 on GP0/GP1 at 115200 baud.
func Console() io.Writer {
	if console == nil {
		u := uartx.UART0
		_ = u.Configure(uartx.UARTConfig{
			BaudRate: 115200,
			TX:       machine.UART0_TX_PIN,
			RX:       machine.UART0_RX_PIN,
		})
		console = u
	}
	return console
}
