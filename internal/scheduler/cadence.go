package scheduler

import "time"

// Cadence decides how long a loop sleeps after a cycle completes.
// Implementations are used from the loop goroutine only.
type Cadence interface {
	// Next returns the delay before the next cycle given how many
	// changes the finished cycle applied and its top-level error.
	Next(changes int, err error) time.Duration
}

// FixedCadence always waits the same interval.
type FixedCadence struct {
	Interval time.Duration
}

func (c FixedCadence) Next(int, error) time.Duration {
	return c.Interval
}

// AdaptiveCadence backs off while the fleet is quiescent.
//
// It starts at Fast. A cycle with no changes and no error doubles the
// delay, capped at Slow. A top-level error or any change resets to Fast.
type AdaptiveCadence struct {
	fast    time.Duration
	slow    time.Duration
	current time.Duration
}

// NewAdaptiveCadence builds a cadence; slow below fast is raised to fast.
func NewAdaptiveCadence(fast, slow time.Duration) *AdaptiveCadence {
	if slow < fast {
		slow = fast
	}
	return &AdaptiveCadence{fast: fast, slow: slow, current: fast}
}

func (c *AdaptiveCadence) Next(changes int, err error) time.Duration {
	switch {
	case err != nil, changes > 0:
		c.current = c.fast
	default:
		c.current *= 2
		if c.current > c.slow {
			c.current = c.slow
		}
	}
	return c.current
}
