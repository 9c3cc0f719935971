package game

import "time"

// spinWindow is how close to the deadline Wait stops sleeping and polls.
const spinWindow = 200 * time.Microsecond

// FrameLimiter paces a loop to a fixed tick rate.
type FrameLimiter struct {
	budget   time.Duration
	deadline time.Time
}

// NewFrameLimiter creates a limiter for rate ticks per second.
// A non-positive rate disables limiting.
func NewFrameLimiter(rate int) *FrameLimiter {
	f := &FrameLimiter{}
	if rate > 0 {
		f.budget = time.Second / time.Duration(rate)
	}
	return f
}

// Budget is the duration of one tick, zero when unlimited.
func (f *FrameLimiter) Budget() time.Duration { return f.budget }

// Wait blocks until the next tick is due. Deadlines advance by whole budgets
// so short frames make up for long ones; after a stall longer than one budget
// the schedule restarts from now.
func (f *FrameLimiter) Wait() {
	if f.budget == 0 {
		return
	}
	now := time.Now()
	switch {
	case f.deadline.IsZero():
		f.deadline = now.Add(f.budget)
	case now.Sub(f.deadline) > f.budget:
		f.deadline = now.Add(f.budget)
	default:
		f.deadline = f.deadline.Add(f.budget)
	}
	sleepUntil(f.deadline)
}

// sleepUntil sleeps until spinWindow before t, then polls.
func sleepUntil(t time.Time) {
	for {
		left := time.Until(t)
		if left <= 0 {
			return
		}
		if left > spinWindow {
			time.Sleep(left - spinWindow)
		}
	}
}
