package torproc

import (
	"fmt"
	"time"

	"github.com/axondata/go-torproc/internal/clock"
)

// armDeadline delivers a timeout result on sink once d has elapsed. The
// returned function cancels the pending delivery and must be called when
// the launch is resolved, whichever side won. A zero d arms nothing.
func armDeadline(clk clock.Clock, d time.Duration, sink chan<- launchResult) func() {
	if d <= 0 {
		return func() {}
	}

	timer := clk.AfterFunc(d, func() {
		select {
		case sink <- launchResult{err: fmt.Errorf("%w after %s", ErrTimeout, d)}:
		default:
		}
	})
	return func() { timer.Stop() }
}
