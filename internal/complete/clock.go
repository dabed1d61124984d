package complete

import "time"

// Timer is a pending AfterFunc call that can be stopped.
type Timer interface {
	Stop() bool
}

// Clock abstracts timers so debounce behaviour can be driven by tests.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// SystemClock is the wall-clock implementation.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) Now() time.Time {
	return time.Now()
}
