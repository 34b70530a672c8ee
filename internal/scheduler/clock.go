package scheduler

import "time"

// Clock is the single time source of the dispatch engine. All reference
// times are taken from it and normalized to UTC, so calculators and the
// loop can be driven by a fake clock in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
