//go:build !linux && !darwin

// Package unix provides platform-specific process group control.
package unix

import (
	"errors"
	"os"
	"syscall"
)

// SysProcAttr returns nil; process groups are not used on this platform
func SysProcAttr() *syscall.SysProcAttr {
	return nil
}

// KillGroup kills pid alone
func KillGroup(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Hangup is not supported on this platform
func Hangup(int) error {
	return errors.New("hangup not supported on this platform")
}
