package torproc

import (
	"math"
	"time"
)

// Router invocation constants
const (
	// DefaultBinary is the router binary looked up in PATH when none is configured
	DefaultBinary = "tor"

	// DefaultTargetPercent is the bootstrap percent at which launch succeeds
	DefaultTargetPercent = 100

	// MaxTargetPercent is the largest bootstrap percent the router reports
	MaxTargetPercent = 100

	// ConfigFileFlag precedes the configuration file path on the command line
	ConfigFileFlag = "-f"

	// MaxDeadlineSeconds is the largest deadline a time.Duration can hold
	MaxDeadlineSeconds uint64 = math.MaxInt64 / uint64(time.Second)

	// DefaultKillGrace bounds how long Close and a failed Launch wait for the
	// killed child to be reaped
	DefaultKillGrace = 5 * time.Second

	// DefaultWatchDebounce is the default debounce time for config file watching
	DefaultWatchDebounce = 25 * time.Millisecond

	// stopperGrace is the grace period given to background goroutines on stop
	stopperGrace = 100 * time.Millisecond
)

// Log format constants
const (
	// TimestampSample is a representative router log timestamp.
	// The router writes "Mon DD HH:MM:SS.mmm" before every line.
	TimestampSample = "May 16 02:50:08.792"

	// TimestampLen is the fixed width of the timestamp prefix
	TimestampLen = len(TimestampSample)

	// MinLineLen is the shortest raw line that carries a timestamp and separator
	MinLineLen = TimestampLen + 1

	// bootstrapPattern matches the bootstrap notice at the start of a body
	bootstrapPattern = `^\[notice\] Bootstrapped (?P<perc>[0-9]+)%: `
)

// Severity tags the supervisor interprets
const (
	tagNotice       = "[notice]"
	tagWarn         = "[warn]"
	tagErr          = "[err]"
	wordBootstrap   = "Bootstrapped"
	percentCaptured = "perc"
)

// File modes
const (
	// PIDFileMode is the mode of the written PID file
	PIDFileMode = 0o644
)

// Operation represents a process-level operation that can fail
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpSpawn creates the child process
	OpSpawn
	// OpRead reads a line from the child's standard output
	OpRead
	// OpKill sends SIGKILL to the child's process group
	OpKill
	// OpReload sends SIGHUP to the child
	OpReload
	// OpWritePID writes the PID file
	OpWritePID
	// OpWatch watches the configuration file
	OpWatch
	// OpLoadConfig reads a LaunchConfig from disk
	OpLoadConfig
)

// Operation string constants
const (
	opUnknownStr    = "unknown"
	opSpawnStr      = "spawn"
	opReadStr       = "read"
	opKillStr       = "kill"
	opReloadStr     = "reload"
	opWritePIDStr   = "write-pid"
	opWatchStr      = "watch"
	opLoadConfigStr = "load-config"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpSpawn:
		return opSpawnStr
	case OpRead:
		return opReadStr
	case OpKill:
		return opKillStr
	case OpReload:
		return opReloadStr
	case OpWritePID:
		return opWritePIDStr
	case OpWatch:
		return opWatchStr
	case OpLoadConfig:
		return opLoadConfigStr
	default:
		return opUnknownStr
	}
}

// State is the lifecycle state of a Supervisor
type State int32

const (
	// StateCreated is a configured supervisor that has not launched
	StateCreated State = iota
	// StateLaunching is a supervisor waiting for the bootstrap target
	StateLaunching
	// StateLaunched is a supervisor whose router reached the bootstrap target
	StateLaunched
	// StateTerminated is a supervisor whose child was killed or failed to launch
	StateTerminated
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLaunching:
		return "launching"
	case StateLaunched:
		return "launched"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
