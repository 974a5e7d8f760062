package clock

import "time"

// Clock abstracts wall-clock reads so rolling windows are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock in UTC.
type SystemClock struct{}

// NewSystemClock returns the production clock.
func NewSystemClock() Clock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }
