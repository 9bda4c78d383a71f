package clock

import "time"

// Clock abstracts the service's timing authority so TTL and auction
// decisions are testable. All lifecycle deadlines are evaluated against
// this clock, never against caller-supplied time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a clock pinned to a settable instant, for tests.
type Fixed struct {
	now time.Time
}

// NewFixed returns a clock that reports t until advanced.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Set pins the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.now = t.UTC()
}
