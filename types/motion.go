package types

// ------------------------
// Magnetometer / compass
// ------------------------

// MagneticValue is a raw field sample in sensor counts.
type MagneticValue struct {
	X  int16 `json:"x"`
	Y  int16 `json:"y"`
	Z  int16 `json:"z"`
	TS int64 `json:"ts_ms"`
}

// HeadingValue is the compass heading, corrected for declination.
type HeadingValue struct {
	// Degrees clockwise from magnetic north plus declination, [0, 360).
	Degrees float32 `json:"deg"`
	X       int16   `json:"x"`
	Y       int16   `json:"y"`
	Z       int16   `json:"z"`
	TS      int64   `json:"ts_ms"`
}

// ------------------------
// Gyroscope
// ------------------------

// RateValue is angular velocity in milli-degrees per second.
type RateValue struct {
	X  int32 `json:"x_mdps"`
	Y  int32 `json:"y_mdps"`
	Z  int32 `json:"z_mdps"`
	TS int64 `json:"ts_ms"`
}

// AccelValue is acceleration in milli-g.
type AccelValue struct {
	X  int32 `json:"x_mg"`
	Y  int32 `json:"y_mg"`
	Z  int32 `json:"z_mg"`
	TS int64 `json:"ts_ms"`
}
