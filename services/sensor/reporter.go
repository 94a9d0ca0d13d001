// Package sensor holds what the sensor services share: topic layout and
// status reporting on the message bus.
package sensor

import (
	"github.com/go-logr/logr"

	"sharedbus-go/bus"
	"sharedbus-go/errcode"
	"sharedbus-go/i2cshare"
	"sharedbus-go/types"
	"sharedbus-go/x/timex"
)

const topicInfo = "info"

// Topic is sensor/<name>/<kind>.
func Topic(name string, kind types.Kind) bus.Topic {
	return bus.T("sensor", name, string(kind))
}

// Reporter publishes a sensor's readings and link status. Status is only
// republished when it changes or an error occurs.
type Reporter struct {
	conn *bus.Connection
	name string
	log  logr.Logger
	link types.Link
}

func NewReporter(conn *bus.Connection, name string, log logr.Logger) *Reporter {
	return &Reporter{conn: conn, name: name, log: log}
}

// Link returns the last reported link state ("" before the first report).
func (r *Reporter) Link() types.Link { return r.link }

// Info publishes the retained sensor description.
func (r *Reporter) Info(info types.Info) {
	r.conn.Publish(r.conn.NewMessage(bus.T("sensor", r.name, topicInfo), info, true))
}

// Publish sends a retained reading of the given kind.
func (r *Reporter) Publish(kind types.Kind, v any) {
	r.conn.Publish(r.conn.NewMessage(Topic(r.name, kind), v, true))
}

// Up marks the sensor healthy.
func (r *Reporter) Up() {
	if r.link == types.LinkUp {
		return
	}
	r.link = types.LinkUp
	r.log.Info("link up")
	r.status(types.SensorStatus{Link: types.LinkUp, TS: timex.NowMs()})
}

// Fail reports err from op. An address NACK means the device is gone and the
// link goes down; any other failure degrades it. The new link is returned.
func (r *Reporter) Fail(op string, err error) types.Link {
	link := types.LinkDegraded
	if i2cshare.KindOf(err) == i2cshare.KindNoAcknowledge && i2cshare.SourceOf(err) == i2cshare.NoAckAddress {
		link = types.LinkDown
	}
	code := errcode.MapDriverErr(err)
	r.log.Error(err, "sensor "+op+" failed", "code", string(code), "link", string(link))
	r.link = link
	r.status(types.SensorStatus{Link: link, TS: timex.NowMs(), Error: string(code)})
	return link
}

func (r *Reporter) status(s types.SensorStatus) {
	r.Publish(types.KindStatus, s)
}
