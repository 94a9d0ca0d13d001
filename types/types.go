package types

// ---- Sensor status (retained) ----

// Link is the link/state reported for a sensor.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

type SensorStatus struct {
	Link  Link   `json:"link"`
	TS    int64  `json:"ts_ms"`
	Error string `json:"error,omitempty"` // errcode, e.g. "nack", "timeout"
}

// ---- Reading kinds ----

type Kind string

const (
	KindHeading  Kind = "heading"
	KindMagnetic Kind = "magnetic"
	KindRate     Kind = "rate"
	KindAccel    Kind = "accel"
	KindStatus   Kind = "status"
)

// Info describes a sensor on the shared bus (retained).
type Info struct {
	Sensor string `json:"sensor"` // "qmc5883l", "mpu6050"
	Addr   uint16 `json:"addr"`   // I2C address
	Bus    string `json:"bus"`    // "i2c0", ...
}
