package timex

import (
	"testing"
	"time"
)

func TestPeriodFromHz(t *testing.T) {
	cases := map[uint32]time.Duration{
		0:         time.Second,
		1:         time.Second,
		100_000:   10 * time.Microsecond,
		400_000:   2500 * time.Nanosecond,
		1_000_000: time.Microsecond,
	}
	for hz, want := range cases {
		if got := PeriodFromHz(hz); got != want {
			t.Fatalf("PeriodFromHz(%d) = %v, want %v", hz, got, want)
		}
	}
}

func TestNowMs(t *testing.T) {
	before := time.Now().UnixMilli()
	got := NowMs()
	if got < before || got > time.Now().UnixMilli() {
		t.Fatalf("NowMs = %d outside [%d, now]", got, before)
	}
}
