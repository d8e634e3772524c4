package torproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"

	"github.com/axondata/go-torproc/internal/clock"
	"github.com/axondata/go-torproc/internal/unix"
)

// ReloadEvent reports one reload triggered by a configuration file change
type ReloadEvent struct {
	// Path is the watched configuration file
	Path string
	// Err is the reload or watch error, nil when the router was signalled
	Err error
}

// WatchCleanupFunc stops a watch and waits for its goroutine to exit
type WatchCleanupFunc func() error

// Reload sends SIGHUP to the router, which makes it re-read its
// configuration file
func (s *Supervisor) Reload() error {
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
		return &OpError{Op: OpReload, Path: binary, Err: os.ErrProcessDone}
	default:
	}

	if err := unix.Hangup(process.Pid); err != nil {
		return &OpError{Op: OpReload, Path: binary, Err: err}
	}

	s.logger.Info("router reloaded", "pid", process.Pid)
	return nil
}

// WatchConfig reloads the router whenever its configuration file is
// written or replaced. Bursts of events are coalesced by the watch
// debounce. Each reload, successful or not, is reported on the returned
// channel, which is closed once the cleanup function has run. Close also
// stops the watch.
func (s *Supervisor) WatchConfig(ctx context.Context) (<-chan ReloadEvent, WatchCleanupFunc, error) {
	if s.State() != StateLaunched {
		return nil, nil, ErrNotStarted
	}

	cfg := s.Config()
	if cfg.ConfigFile == "" {
		return nil, nil, fmt.Errorf("%w: no config file to watch", ErrInvalidConfig)
	}

	path, err := filepath.Abs(cfg.ConfigFile)
	if err != nil {
		return nil, nil, &OpError{Op: OpWatch, Path: cfg.ConfigFile, Err: err}
	}

	// Editors replace files by rename, so the directory is watched.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &OpError{Op: OpWatch, Path: path, Err: err}
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, nil, &OpError{Op: OpWatch, Path: path, Err: err}
	}

	ch := make(chan ReloadEvent, 10)
	fire := make(chan struct{}, 1)
	done := s.Done()

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		close(ch)
	})

	var (
		mu        sync.Mutex
		debouncer *clock.Timer
	)

	send := func(sctx *stopper.Context, ev ReloadEvent) {
		select {
		case ch <- ev:
		case <-sctx.Stopping():
		}
	}

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			mu.Lock()
			if debouncer != nil {
				debouncer.Stop()
			}
			mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case <-done:
				return nil

			case <-fire:
				send(sctx, ReloadEvent{Path: path, Err: s.Reload()})

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}

				mu.Lock()
				if debouncer != nil {
					debouncer.Stop()
				}
				debouncer = s.clock.AfterFunc(s.watchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					send(sctx, ReloadEvent{Path: path, Err: &OpError{Op: OpWatch, Path: path, Err: err}})
				}
			}
		}
		return nil
	})

	var once sync.Once
	var cleanupErr error
	cleanup := func() error {
		once.Do(func() {
			sctx.Stop(stopperGrace)
			cleanupErr = sctx.Wait()
			if errors.Is(cleanupErr, context.Canceled) {
				cleanupErr = nil
			}
		})
		return cleanupErr
	}

	s.mu.Lock()
	s.watchers = append(s.watchers, cleanup)
	s.mu.Unlock()

	s.logger.Debug("watching config file", "path", path)
	return ch, cleanup, nil
}
