// Package heartbeat periodically reports that the node is alive together
// with the shared bus counters.
package heartbeat

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"sharedbus-go/bus"
	"sharedbus-go/i2cshare"
	"sharedbus-go/x/timex"
)

// Beat is the retained payload on sys/heartbeat.
type Beat struct {
	TS     int64               `json:"ts_ms"`
	Uptime time.Duration       `json:"uptime"`
	I2C    i2cshare.OwnerStats `json:"i2c"`
}

var topicHeartbeat = bus.T("sys", "heartbeat")

type Service struct {
	owner  *i2cshare.Owner
	period time.Duration
	log    logr.Logger
}

func New(owner *i2cshare.Owner, period time.Duration, log logr.Logger) *Service {
	if period <= 0 {
		period = 10 * time.Second
	}
	return &Service{owner: owner, period: period, log: log.WithName("heartbeat")}
}

// Run publishes a beat every period until ctx is done.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) error {
	start := time.Now()
	tick := time.NewTicker(s.period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return nil
		case <-tick.C:
			st := s.owner.Stats()
			conn.Publish(conn.NewMessage(topicHeartbeat, Beat{TS: timex.NowMs(), Uptime: time.Since(start), I2C: st}, true))
			s.log.Info("alive",
				"txs", st.Transactions,
				"errors", st.Errors,
				"contended", st.Contended,
				"lock_failures", st.LockFailures,
				"max_wait", st.MaxWait.String())
		}
	}
}
