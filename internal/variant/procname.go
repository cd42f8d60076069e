//go:build linux || darwin || freebsd

package variant

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/zhangyunhao116/nativeplat/platform"
)

// processNameFn reads the name of process pid, overridden in tests.
var processNameFn = func(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return p.Name()
}

// readOnlyName reports the process name the kernel shows for this process.
// The families that use it cannot rename a running process.
type readOnlyName struct{}

// ReadOnlyProcessName returns a ProcessName whose Set always fails with
// a *platform.CapabilityError.
func ReadOnlyProcessName() platform.ProcessName { return readOnlyName{} }

func (readOnlyName) CanSet() bool { return false }

func (readOnlyName) Set(string) error {
	return &platform.CapabilityError{Capability: "process renaming", Op: "ProcessName.Set"}
}

func (readOnlyName) Get() (string, error) {
	name, err := processNameFn(int32(os.Getpid()))
	if err != nil {
		return "", fmt.Errorf("get process name: %w", err)
	}
	return name, nil
}
