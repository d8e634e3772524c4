//go:build linux || darwin

// Package unix provides platform-specific process group control.
package unix

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// SysProcAttr places the child in a new process group whose id equals its
// pid, so KillGroup also reaches processes the router forks.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// KillGroup sends SIGKILL to the process group led by pid. A group that
// no longer exists is not an error.
func KillGroup(pid int) error {
	return signalGroup(pid, unix.SIGKILL)
}

// Hangup sends SIGHUP to pid alone
func Hangup(pid int) error {
	if err := unix.Kill(pid, unix.SIGHUP); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}

func signalGroup(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return unix.EINVAL
	}
	if err := unix.Kill(-pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}
