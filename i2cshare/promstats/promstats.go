// Package promstats exports shared-bus lock and transaction metrics to
// Prometheus. It implements i2cshare.Observer; host builds only.
package promstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sharedbus-go/i2cshare"
)

// Collector records per-client lock waits and per-operation latencies.
type Collector struct {
	lockWait *prometheus.HistogramVec
	txDur    *prometheus.HistogramVec
	txTotal  *prometheus.CounterVec
}

var _ i2cshare.Observer = (*Collector)(nil)

// New creates the metrics for one bus and registers them with reg.
func New(reg prometheus.Registerer, bus string) (*Collector, error) {
	labels := prometheus.Labels{"bus": bus}
	c := &Collector{
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "sharedbus",
			Subsystem:   "i2c",
			Name:        "lock_wait_seconds",
			Help:        "Time a client waited for the bus lock.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"client"}),
		txDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "sharedbus",
			Subsystem:   "i2c",
			Name:        "transaction_seconds",
			Help:        "Time spent in the physical driver per transaction.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"client", "op"}),
		txTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sharedbus",
			Subsystem:   "i2c",
			Name:        "transactions_total",
			Help:        "Transactions by client, operation and result kind.",
			ConstLabels: labels,
		}, []string{"client", "op", "result"}),
	}
	for _, col := range []prometheus.Collector{c.lockWait, c.txDur, c.txTotal} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OnLock(client string, wait time.Duration) {
	c.lockWait.WithLabelValues(client).Observe(wait.Seconds())
}

func (c *Collector) OnTx(client, op string, _ uint16, d time.Duration, err error) {
	c.txDur.WithLabelValues(client, op).Observe(d.Seconds())
	result := "ok"
	if err != nil {
		result = i2cshare.KindOf(err).String()
	}
	c.txTotal.WithLabelValues(client, op, result).Inc()
}
