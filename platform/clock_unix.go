//go:build linux || darwin || freebsd

package platform

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

var nativeClockIDs = map[ClockID]int32{
	ClockRealtime:       unix.CLOCK_REALTIME,
	ClockMonotonic:      unix.CLOCK_MONOTONIC,
	ClockProcessCPUTime: unix.CLOCK_PROCESS_CPUTIME_ID,
	ClockThreadCPUTime:  unix.CLOCK_THREAD_CPUTIME_ID,
}

// clockGettimeFn is the clock_gettime(2) wrapper, overridden in tests.
var clockGettimeFn = unix.ClockGettime

// nativeClock calls clock_gettime(2).
type nativeClock struct{}

// NativeClock returns a ClockSource backed by clock_gettime(2).
func NativeClock() ClockSource {
	return nativeClock{}
}

func (nativeClock) Native() bool { return true }

func (nativeClock) ClockGettime(id ClockID) (Timespec, error) {
	cid, ok := nativeClockIDs[id]
	if !ok {
		return Timespec{}, fmt.Errorf("%w: clock %d", syscall.EINVAL, int(id))
	}
	var ts unix.Timespec
	if err := clockGettimeFn(cid, &ts); err != nil {
		return Timespec{}, fmt.Errorf("clock_gettime(%s): %w", id, err)
	}
	sec, nsec := ts.Unix()
	return Timespec{Sec: sec, Nsec: nsec}, nil
}
