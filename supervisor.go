package torproc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"vawter.tech/stopper"

	"github.com/axondata/go-torproc/internal/clock"
	"github.com/axondata/go-torproc/internal/unix"
)

// Supervisor launches the router, waits for it to bootstrap and owns the
// child process until Close.
//
// A Supervisor supervises at most one child. Kill, Close, Reload and the
// accessors are safe to call from other goroutines while Launch is running;
// Launch itself must be called once.
type Supervisor struct {
	id            string
	logger        *slog.Logger
	clock         clock.Clock
	stderrSink    io.Writer
	killGrace     time.Duration
	watchDebounce time.Duration

	// state holds a State
	state atomic.Int32

	// mu protects the fields below
	mu       sync.Mutex
	config   *LaunchConfig
	active   *LaunchConfig
	process  *os.Process
	stdin    io.WriteCloser
	stdout   *os.File
	stderr   *os.File
	reader   *bufio.Reader
	done     chan struct{}
	exitErr  error
	tasks    *stopper.Context
	watchers []WatchCleanupFunc
	pidFile  string
	closed   bool
}

// Option configures a Supervisor
type Option func(*Supervisor)

// WithLogger sets the structured logger. The default discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used for the launch deadline and watch debouncing
func WithClock(c clock.Clock) Option {
	return func(s *Supervisor) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithStderr copies the router's standard error to w
func WithStderr(w io.Writer) Option {
	return func(s *Supervisor) {
		s.stderrSink = w
	}
}

// WithKillGrace bounds how long a kill waits for the child to be reaped
func WithKillGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		s.killGrace = d
	}
}

// WithWatchDebounce sets the debounce duration for config file events
func WithWatchDebounce(d time.Duration) Option {
	return func(s *Supervisor) {
		s.watchDebounce = d
	}
}

// New creates a Supervisor with default settings: binary "tor", target 100,
// no deadline, no config file and no extra arguments
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		id:            uuid.NewString(),
		logger:        slog.New(slog.DiscardHandler),
		clock:         clock.Real(),
		stderrSink:    io.Discard,
		killGrace:     DefaultKillGrace,
		watchDebounce: DefaultWatchDebounce,
		config:        DefaultLaunchConfig(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("supervisor", s.id)
	s.state.Store(int32(StateCreated))
	return s
}

// NewFromConfig creates a Supervisor that launches cfg
func NewFromConfig(cfg *LaunchConfig, opts ...Option) *Supervisor {
	s := New(opts...)
	if cfg != nil {
		s.config = cfg.Clone()
	}
	return s
}

// launchResult is the single value the monitor or the deadline delivers
type launchResult struct {
	reader *bufio.Reader
	err    error
}

// Launch spawns the router and blocks until its stdout reports a bootstrap
// percent at or above the target.
//
// On success the returned reader is positioned right after the bootstrap
// notice and stays available through Stdout. On any failure the child is
// killed and reaped before Launch returns. Cancelling ctx aborts the launch
// the same way the deadline does; it has no effect after Launch returns.
//
// Collected [warn] lines are only reported through a *RouterError. Other
// failures, including a timeout or end of stream, do not carry them; they
// remain visible in the Warn-level log records.
//
// Launch returns ErrTerminated if Close has been called, or if Close or
// Kill ran while the launch was in progress.
func (s *Supervisor) Launch(ctx context.Context) (*bufio.Reader, error) {
	cfg, err := s.beginLaunch()
	if err != nil {
		return nil, err
	}

	stdout, err := s.spawn(cfg)
	if err != nil {
		s.state.Store(int32(StateTerminated))
		return nil, err
	}

	// Close may have run before the child was visible to Kill.
	if s.isClosed() {
		s.abort()
		return nil, ErrTerminated
	}

	if cfg.PIDFile != "" {
		if err := s.writePIDFile(cfg.PIDFile); err != nil {
			s.abort()
			return nil, err
		}
	}

	reader := bufio.NewReader(stdout)
	results := make(chan launchResult, 2)

	monitor := stopper.WithContext(context.Background())
	monitor.Go(func(*stopper.Context) error {
		r, err := monitorStdout(reader, cfg.TargetPercent, s.logger)
		results <- launchResult{reader: r, err: err}
		return nil
	})

	deadline := time.Duration(cfg.DeadlineSeconds) * time.Second
	cancelDeadline := armDeadline(s.clock, deadline, results)

	var res launchResult
	select {
	case res = <-results:
	case <-ctx.Done():
		res = launchResult{err: ctx.Err()}
	}
	cancelDeadline()

	if res.err != nil {
		s.logger.Warn("launch failed", "error", res.err, "kind", KindOf(res.err).String())
		// Killing the child and closing the read end unblocks the monitor.
		s.abort()
		monitor.Stop(stopperGrace)
		_ = monitor.Wait()
		return nil, res.err
	}

	monitor.Stop(stopperGrace)
	_ = monitor.Wait()

	if !s.state.CompareAndSwap(int32(StateLaunching), int32(StateLaunched)) {
		s.logger.Warn("router terminated during launch")
		s.abort()
		return nil, ErrTerminated
	}

	s.mu.Lock()
	s.reader = res.reader
	s.mu.Unlock()
	s.logger.Info("router launched", "pid", s.PID())

	return res.reader, nil
}

// beginLaunch moves the supervisor into StateLaunching and freezes its config
func (s *Supervisor) beginLaunch() (*LaunchConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrTerminated
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateLaunching)) {
		return nil, ErrAlreadyLaunched
	}

	s.active = s.config.Clone()
	return s.active.Clone(), nil
}

// spawn starts the child with stdin piped, stdout and stderr on pipes whose
// read ends the supervisor owns, and starts the waiter and stderr drain.
// It returns the read end of stdout.
func (s *Supervisor) spawn(cfg *LaunchConfig) (*os.File, error) {
	cmd := exec.Command(cfg.Binary, cfg.Argv()...)
	cmd.SysProcAttr = unix.SysProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &OpError{Op: OpSpawn, Path: cfg.Binary, Err: err}
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, &OpError{Op: OpSpawn, Path: cfg.Binary, Err: err}
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		closeFiles(stdoutR, stdoutW)
		return nil, &OpError{Op: OpSpawn, Path: cfg.Binary, Err: err}
	}

	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		closeFiles(stdoutR, stdoutW, stderrR, stderrW)
		return nil, &OpError{Op: OpSpawn, Path: cfg.Binary, Err: err}
	}

	// The child holds its own copies of the write ends.
	closeFiles(stdoutW, stderrW)

	done := make(chan struct{})
	tasks := stopper.WithContext(context.Background())

	s.mu.Lock()
	s.process = cmd.Process
	s.stdin = stdin
	s.stdout = stdoutR
	s.stderr = stderrR
	s.done = done
	s.tasks = tasks
	s.mu.Unlock()

	s.logger.Info("router spawned", "binary", cfg.Binary, "args", cfg.Argv(), "pid", cmd.Process.Pid)

	tasks.Go(func(*stopper.Context) error {
		err := cmd.Wait()
		s.mu.Lock()
		s.exitErr = err
		s.mu.Unlock()
		close(done)
		s.logger.Debug("router exited", "pid", cmd.Process.Pid, "error", err)
		return nil
	})
	tasks.Go(func(*stopper.Context) error {
		drainStderr(stderrR, s.stderrSink, s.logger)
		return nil
	})

	return stdoutR, nil
}

// drainStderr consumes the child's stderr so it never blocks on a full pipe
func drainStderr(r io.Reader, sink io.Writer, logger *slog.Logger) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			logger.Debug("router stderr", "line", trimLineEnding(line))
			_, _ = io.WriteString(sink, line)
		}
		if err != nil {
			return
		}
	}
}

// abort kills the child, waits for it to be reaped and releases its streams
func (s *Supervisor) abort() {
	_ = s.Kill()
	reaped := s.awaitExit()
	s.releaseStreams()
	s.removePIDFile()
	s.stopTasks(reaped)
	s.state.Store(int32(StateTerminated))
}

// stopTasks stops the waiter and stderr drain. The waiter only returns once
// the child is reaped, so it is awaited only when reaped is true.
func (s *Supervisor) stopTasks(reaped bool) {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	if tasks == nil {
		return
	}
	tasks.Stop(stopperGrace)
	if reaped {
		_ = tasks.Wait()
	}
}

// awaitExit waits up to the kill grace for the child to be reaped
func (s *Supervisor) awaitExit() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return true
	}

	timer := time.NewTimer(s.killGrace)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		s.logger.Warn("router not reaped after kill", "grace", s.killGrace)
		return false
	}
}

// releaseStreams closes the parent ends of the child's pipes. Closing the
// stdout read end unblocks a monitor still waiting on a line.
func (s *Supervisor) releaseStreams() {
	s.mu.Lock()
	stdin, stdout, stderr := s.stdin, s.stdout, s.stderr
	s.stdin, s.stdout, s.stderr = nil, nil, nil
	s.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	closeFiles(stdout, stderr)
}

// Kill sends SIGKILL to the router's process group. It returns
// ErrNotStarted if no child was ever spawned; killing a child that has
// already exited is a no-op.
func (s *Supervisor) Kill() error {
	s.mu.Lock()
	process, done := s.process, s.done
	binary := ""
	if s.active != nil {
		binary = s.active.Binary
	}
	s.mu.Unlock()

	if process == nil {
		return ErrNotStarted
	}

	select {
	case <-done:
		s.state.Store(int32(StateTerminated))
		return nil
	default:
	}

	if err := unix.KillGroup(process.Pid); err != nil {
		return &OpError{Op: OpKill, Path: binary, Err: err}
	}

	s.state.Store(int32(StateTerminated))
	s.logger.Info("router killed", "pid", process.Pid)
	return nil
}

// Close kills the child, releases its streams and stops every background
// goroutine. The kill result is discarded and Close always returns nil, so
// it is safe to defer right after New. A closed supervisor never launches;
// closing one that never launched does nothing else.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if errors.Is(s.Kill(), ErrNotStarted) {
		return nil
	}

	s.mu.Lock()
	watchers := s.watchers
	s.watchers = nil
	s.mu.Unlock()
	for _, cleanup := range watchers {
		_ = cleanup()
	}

	reaped := s.awaitExit()
	s.releaseStreams()
	s.removePIDFile()
	s.stopTasks(reaped)

	s.state.Store(int32(StateTerminated))
	return nil
}

// Wait blocks until the child exits and returns its exit error
func (s *Supervisor) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return ErrNotStarted
	}

	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// Done returns a channel closed when the child exits, or nil before spawn
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Running reports whether the child has been spawned and not yet exited
func (s *Supervisor) Running() bool {
	done := s.Done()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Stdout returns the reader retained after a successful launch, or nil
func (s *Supervisor) Stdout() *bufio.Reader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader
}

// Stdin returns the write end of the child's standard input, or nil
func (s *Supervisor) Stdin() io.WriteCloser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdin
}

// PID returns the child's process ID, or -1 if not spawned
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.process == nil {
		return -1
	}
	return s.process.Pid
}

// ID returns the unique identifier attached to this supervisor's log records
func (s *Supervisor) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Config returns a copy of the configuration; after Launch it is the
// configuration that was launched
func (s *Supervisor) Config() *LaunchConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return s.active.Clone()
	}
	return s.config.Clone()
}

// isClosed reports whether Close has been called
func (s *Supervisor) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
