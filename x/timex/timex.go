// Package timex holds the time helpers shared by services and the bus
// simulator.
package timex

import "time"

// NowMs returns Unix milliseconds; reading timestamps use it.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns one clock period at hz. hz == 0 is treated as 1 Hz.
func PeriodFromHz(hz uint32) time.Duration {
	if hz == 0 {
		hz = 1
	}
	return time.Second / time.Duration(hz)
}
