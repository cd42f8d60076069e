package platform

import (
	"fmt"
	"syscall"
	"time"
)

// managedOrigin anchors the managed monotonic clock.
var managedOrigin = time.Now()

// managedClock reads time from the Go runtime instead of clock_gettime(2).
// It supports only the realtime and monotonic clocks.
type managedClock struct{}

// ManagedClock returns a ClockSource backed by the Go runtime clock.
func ManagedClock() ClockSource {
	return managedClock{}
}

func (managedClock) Native() bool { return false }

func (managedClock) ClockGettime(id ClockID) (Timespec, error) {
	switch id {
	case ClockRealtime:
		now := time.Now()
		return Timespec{Sec: now.Unix(), Nsec: int64(now.Nanosecond())}, nil
	case ClockMonotonic:
		d := time.Since(managedOrigin)
		return Timespec{Sec: int64(d / time.Second), Nsec: int64(d % time.Second)}, nil
	default:
		return Timespec{}, fmt.Errorf("%w: managed clock has no %s", syscall.EINVAL, id)
	}
}
