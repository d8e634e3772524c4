package torproc

// WithBinary sets the router executable
func (s *Supervisor) WithBinary(path string) *Supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Binary = path
	return s
}

// WithConfigFile sets the configuration file passed as "-f <path>"
func (s *Supervisor) WithConfigFile(path string) *Supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.ConfigFile = path
	return s
}

// WithArg appends one argument
func (s *Supervisor) WithArg(arg string) *Supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Args = append(s.config.Args, arg)
	return s
}

// WithArgs appends arguments in order
func (s *Supervisor) WithArgs(args ...string) *Supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Args = append(s.config.Args, args...)
	return s
}

// WithTargetPercent sets the bootstrap percent at which Launch succeeds.
// Values above 100 make Launch fail with ErrInvalidConfig.
func (s *Supervisor) WithTargetPercent(percent uint8) *Supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.TargetPercent = percent
	return s
}

// WithDeadlineSeconds bounds Launch; 0 waits indefinitely
func (s *Supervisor) WithDeadlineSeconds(seconds uint) *Supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.DeadlineSeconds = seconds
	return s
}

// WithPIDFile writes the child's PID to path after spawn and removes it on Close
func (s *Supervisor) WithPIDFile(path string) *Supervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.PIDFile = path
	return s
}
