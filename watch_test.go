//go:build linux || darwin

package torproc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// reloadingRouter prints a notice on every SIGHUP. The trap is installed
// before bootstrap so a reload can never race it.
const reloadingRouter = `trap 'echo "Apr 01 12:00:05.000 [notice] Received reload signal (hup). Reloading config"' HUP
echo 'Apr 01 12:00:02.000 [notice] Bootstrapped 100%: Done'
while :; do sleep 0.1; done
`

func (s *SupervisorSuite) TestReload() {
	sup := s.newSupervisor(reloadingRouter)

	r, err := sup.Launch(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(sup.Reload())

	line, err := readLine(r, 5*time.Second)
	s.Require().NoError(err)
	s.Contains(line, "Reloading config")
	s.True(sup.Running())
}

func (s *SupervisorSuite) TestWatchConfigReloads() {
	torrc := filepath.Join(s.dir, "torrc")
	s.Require().NoError(os.WriteFile(torrc, []byte("SocksPort 9050\n"), 0o644))

	sup := s.newSupervisor(reloadingRouter, WithWatchDebounce(10*time.Millisecond)).
		WithConfigFile(torrc)

	r, err := sup.Launch(context.Background())
	s.Require().NoError(err)

	events, cleanup, err := sup.WatchConfig(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(os.WriteFile(torrc, []byte("SocksPort 9150\n"), 0o644))

	select {
	case ev := <-events:
		s.NoError(ev.Err)
		s.Equal(torrc, ev.Path)
	case <-time.After(5 * time.Second):
		s.FailNow("no reload event")
	}

	line, err := readLine(r, 5*time.Second)
	s.Require().NoError(err)
	s.True(strings.Contains(line, "Reloading config"), "unexpected line %q", line)

	s.NoError(cleanup())
	s.NoError(cleanup())
	for range events {
	}
}

func (s *SupervisorSuite) TestWatchConfigIgnoresOtherFiles() {
	torrc := filepath.Join(s.dir, "torrc")
	s.Require().NoError(os.WriteFile(torrc, []byte("SocksPort 9050\n"), 0o644))

	sup := s.newSupervisor(reloadingRouter, WithWatchDebounce(10*time.Millisecond)).
		WithConfigFile(torrc)

	_, err := sup.Launch(context.Background())
	s.Require().NoError(err)

	events, cleanup, err := sup.WatchConfig(context.Background())
	s.Require().NoError(err)
	defer cleanup()

	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "unrelated"), []byte("x"), 0o644))

	select {
	case ev := <-events:
		s.Failf("unexpected reload", "event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func (s *SupervisorSuite) TestWatchConfigStoppedByClose() {
	torrc := filepath.Join(s.dir, "torrc")
	s.Require().NoError(os.WriteFile(torrc, []byte("SocksPort 9050\n"), 0o644))

	sup := s.newSupervisor(reloadingRouter).WithConfigFile(torrc)

	_, err := sup.Launch(context.Background())
	s.Require().NoError(err)

	events, _, err := sup.WatchConfig(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(sup.Close())

	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		s.Fail("event channel not closed by Close")
	}
}

func (s *SupervisorSuite) TestWatchConfigRequiresLaunch() {
	sup := New().WithConfigFile(filepath.Join(s.dir, "torrc"))

	_, _, err := sup.WatchConfig(context.Background())
	s.ErrorIs(err, ErrNotStarted)
}

func (s *SupervisorSuite) TestWatchConfigRequiresConfigFile() {
	sup := s.newSupervisor(reloadingRouter)

	_, err := sup.Launch(context.Background())
	s.Require().NoError(err)

	_, _, err = sup.WatchConfig(context.Background())
	s.ErrorIs(err, ErrInvalidConfig)
}
