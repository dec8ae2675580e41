package utils

import "time"

// Clock supplies the current time. Ledger created-at timestamps, budget
// update times and the seeded sample dates all come from an injected
// Clock, so tests can pin time instead of sleeping.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock returns FixedNow until SetNow moves it.
type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}
