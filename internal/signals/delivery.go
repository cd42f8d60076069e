//go:build linux || darwin || freebsd

package signals

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/zhangyunhao116/nativeplat/platform"
)

// osDelivery installs dispositions through os/signal.
type osDelivery struct{}

// OSDelivery returns the os/signal backed delivery mechanism.
func OSDelivery() platform.SignalDelivery {
	return osDelivery{}
}

func (osDelivery) Install(c chan<- os.Signal, sig syscall.Signal) { signal.Notify(c, sig) }

// Remove stops delivery to c only. c carries sig alone, so other
// subscribers to sig keep receiving it.
func (osDelivery) Remove(c chan<- os.Signal, _ syscall.Signal) { signal.Stop(c) }

func (osDelivery) Ignore(sig syscall.Signal) { signal.Ignore(sig) }

func (osDelivery) Raise(sig syscall.Signal) error {
	return unix.Kill(unix.Getpid(), sig)
}
