// Package clock abstracts the timers the supervisor schedules so tests can
// fire deadlines deterministically.
//
// Production code uses Real(). Tests use Fake(), which advances only when
// Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	sup := torproc.New(torproc.WithClock(c))
//	// ... start the launch in a goroutine ...
//	c.WaitForTimers(1)
//	c.Advance(time.Minute)
package clock

import "time"

// Clock is the subset of the time package the supervisor depends on
type Clock interface {
	// Now returns the current time
	Now() time.Time

	// AfterFunc waits for d, then calls f in its own goroutine (real) or
	// synchronously during Advance (fake). If d <= 0, f is called
	// immediately.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a scheduled call created by AfterFunc
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the Timer from firing. It returns true if the call stops
// the timer, false if the timer has already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Real returns a Clock backed by the time package
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stopFunc: timer.Stop}
}
