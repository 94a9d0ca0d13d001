// Package platform supplies the board-specific pieces: the physical I²C
// controller for the configured bus and a console for logs. RP2 builds use
// machine and uartx; host builds use a simulated bus with both sensors
// attached.
package platform

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"tinygo.org/x/drivers"
)

// I2CFactory resolves configured buses by id.
type I2CFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

type i2cFactory struct {
	buses map[string]drivers.I2C
}

func (f *i2cFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// NewLogger renders structured logs as one line per entry on w.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		line := make([]byte, 0, len(prefix)+len(args)+2)
		if prefix != "" {
			line = append(line, prefix...)
			line = append(line, ' ')
		}
		line = append(line, args...)
		line = append(line, '\n')
		_, _ = w.Write(line)
	}, funcr.Options{Verbosity: verbosity, LogTimestamp: logTimestamps})
}
