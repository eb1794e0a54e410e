package data

import "time"

// TimeProvider abstracts the clock so repositories can be tested with a
// fixed time.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider returns the wall clock.
type RealTimeProvider struct{}

// Now implements TimeProvider.
func (RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider always returns T. Useful for tests.
type FixedTimeProvider struct{ T time.Time }

// Now implements TimeProvider.
func (f FixedTimeProvider) Now() time.Time { return f.T }
