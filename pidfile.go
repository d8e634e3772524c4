package torproc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// writePIDFile atomically writes the child's PID to path
func (s *Supervisor) writePIDFile(path string) error {
	pid := s.PID()
	if err := renameio.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), PIDFileMode); err != nil {
		return &OpError{Op: OpWritePID, Path: path, Err: err}
	}

	s.mu.Lock()
	s.pidFile = path
	s.mu.Unlock()

	s.logger.Debug("pid file written", "path", path, "pid", pid)
	return nil
}

// removePIDFile deletes the PID file written by this supervisor, if any
func (s *Supervisor) removePIDFile() {
	s.mu.Lock()
	path := s.pidFile
	s.pidFile = ""
	s.mu.Unlock()

	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("removing pid file", "path", path, "error", err)
	}
}

// ReadPIDFile returns the PID stored in a file written by a Supervisor
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing pid file %s: %w", path, err)
	}
	return pid, nil
}
