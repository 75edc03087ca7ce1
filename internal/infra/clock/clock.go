// Package clock provides the time source used by every expiry calculation and schedule.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the clockwork interface; tickers and timers come from it so schedules can be faked.
type Clock interface {
	clockwork.Clock
}

// Real reads the wall clock in UTC.
type Real struct {
	clockwork.Clock
}

func NewReal() Real {
	return Real{Clock: clockwork.NewRealClock()}
}

func (r Real) Now() time.Time { return r.Clock.Now().UTC() }

// Fake is a settable clock for tests. Tickers created from it fire on Advance.
type Fake struct {
	*clockwork.FakeClock
}

func NewFake(now time.Time) *Fake {
	return &Fake{FakeClock: clockwork.NewFakeClockAt(now.UTC())}
}

func (f *Fake) Now() time.Time { return f.FakeClock.Now().UTC() }

// Set moves the clock to now; tickers due in between fire.
func (f *Fake) Set(now time.Time) {
	f.FakeClock.Advance(now.Sub(f.FakeClock.Now()))
}

func (f *Fake) Advance(d time.Duration) time.Time {
	f.FakeClock.Advance(d)
	return f.Now()
}
