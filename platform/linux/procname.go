//go:build linux

package linux

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// taskCommLen is TASK_COMM_LEN, the kernel's name buffer including NUL.
const taskCommLen = 16

// Function variables for the name backends, overridden in tests.
var (
	commPath = "/proc/self/comm"
	prctlFn  = unix.Prctl
)

// processName names the main thread through /proc/self/comm. Without
// procfs it falls back to prctl, which only affects the calling thread.
type processName struct{}

func (processName) CanSet() bool { return true }

// Set renames the process. Names longer than 15 bytes are truncated.
func (processName) Set(name string) error {
	if len(name) >= taskCommLen {
		name = name[:taskCommLen-1]
	}
	werr := os.WriteFile(commPath, []byte(name), 0)
	if werr == nil {
		return nil
	}
	buf := make([]byte, taskCommLen)
	copy(buf, name)
	if err := prctlFn(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0); err != nil {
		return fmt.Errorf("set process name: %w", errors.Join(werr, err))
	}
	return nil
}

func (processName) Get() (string, error) {
	data, rerr := os.ReadFile(commPath)
	if rerr == nil {
		return strings.TrimSuffix(string(data), "\n"), nil
	}
	var buf [taskCommLen]byte
	if err := prctlFn(unix.PR_GET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0); err != nil {
		return "", fmt.Errorf("get process name: %w", errors.Join(rerr, err))
	}
	return unix.ByteSliceToString(buf[:]), nil
}
