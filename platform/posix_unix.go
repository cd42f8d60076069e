//go:build linux || darwin || freebsd

package platform

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// unixPosix implements Posix with golang.org/x/sys/unix.
type unixPosix struct{}

// UnixPosix returns the POSIX table shared by every unix family.
func UnixPosix() Posix {
	return unixPosix{}
}

func (unixPosix) Getpid() int  { return unix.Getpid() }
func (unixPosix) Getppid() int { return unix.Getppid() }
func (unixPosix) Getuid() int  { return unix.Getuid() }
func (unixPosix) Geteuid() int { return unix.Geteuid() }
func (unixPosix) Getgid() int  { return unix.Getgid() }

func (unixPosix) Kill(pid int, sig syscall.Signal) error {
	return unix.Kill(pid, sig)
}

func (unixPosix) Getcwd() (string, error) { return unix.Getwd() }

func (unixPosix) Umask(mask int) int { return unix.Umask(mask) }

func (unixPosix) Uname() (Uname, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return Uname{}, err
	}
	return Uname{
		Sysname:  unix.ByteSliceToString(u.Sysname[:]),
		Nodename: unix.ByteSliceToString(u.Nodename[:]),
		Release:  unix.ByteSliceToString(u.Release[:]),
		Version:  unix.ByteSliceToString(u.Version[:]),
		Machine:  unix.ByteSliceToString(u.Machine[:]),
	}, nil
}
