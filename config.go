package torproc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LaunchConfig describes how to start the router and when to consider it
// bootstrapped
type LaunchConfig struct {
	// Binary is the router executable, resolved through PATH when relative
	Binary string `yaml:"binary"`
	// ConfigFile is passed as "-f <ConfigFile>" when non-empty
	ConfigFile string `yaml:"config_file,omitempty"`
	// Args are appended after the config file flag, verbatim and in order
	Args []string `yaml:"args,omitempty"`
	// TargetPercent is the smallest bootstrap percent accepted as success
	TargetPercent uint8 `yaml:"target_percent"`
	// DeadlineSeconds bounds the launch; 0 disables the deadline. Values
	// above MaxDeadlineSeconds are rejected.
	DeadlineSeconds uint `yaml:"deadline_seconds,omitempty"`
	// PIDFile, when set, receives the child's PID after spawn
	PIDFile string `yaml:"pid_file,omitempty"`
}

// DefaultLaunchConfig returns the configuration of a fresh supervisor
func DefaultLaunchConfig() *LaunchConfig {
	return &LaunchConfig{
		Binary:        DefaultBinary,
		TargetPercent: DefaultTargetPercent,
	}
}

// Argv returns the router arguments, excluding the program name
func (c *LaunchConfig) Argv() []string {
	argv := make([]string, 0, len(c.Args)+2)
	if c.ConfigFile != "" {
		argv = append(argv, ConfigFileFlag, c.ConfigFile)
	}
	return append(argv, c.Args...)
}

// Validate reports whether the configuration can be launched
func (c *LaunchConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("%w: binary not specified", ErrInvalidConfig)
	}
	if c.TargetPercent > MaxTargetPercent {
		return fmt.Errorf("%w: target percent %d exceeds %d", ErrInvalidConfig, c.TargetPercent, MaxTargetPercent)
	}
	if uint64(c.DeadlineSeconds) > MaxDeadlineSeconds {
		return fmt.Errorf("%w: deadline %ds exceeds %ds", ErrInvalidConfig, c.DeadlineSeconds, MaxDeadlineSeconds)
	}
	return nil
}

// Clone creates a deep copy of the LaunchConfig
func (c *LaunchConfig) Clone() *LaunchConfig {
	if c == nil {
		return nil
	}

	clone := *c
	if c.Args != nil {
		clone.Args = append([]string(nil), c.Args...)
	}
	return &clone
}

// LoadConfig reads a YAML LaunchConfig from path. Fields missing from the
// file keep the values of DefaultLaunchConfig; unknown fields are rejected.
func LoadConfig(path string) (*LaunchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &OpError{Op: OpLoadConfig, Path: path, Err: err}
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, &OpError{Op: OpLoadConfig, Path: path, Err: err}
	}
	return cfg, nil
}

// ParseConfig decodes a YAML LaunchConfig on top of DefaultLaunchConfig
func ParseConfig(data []byte) (*LaunchConfig, error) {
	cfg := DefaultLaunchConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing launch config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
