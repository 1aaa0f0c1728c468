// Package clock abstracts time so components that reason about elapsed
// time (the admission controller in particular) can be tested
// deterministically.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// MockClock is a manually advanced clock. Safe for concurrent use; the
// admission tests advance it from multiple goroutines.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
}

func NewMockClock(at time.Time) *MockClock {
	return &MockClock{current: at}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}
