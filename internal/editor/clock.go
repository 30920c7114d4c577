package editor

import "time"

// Clock schedules delayed callbacks. Sessions take one so autosave debounce and
// retry backoff can be driven by tests without sleeping.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	// Stop reports whether the call prevented f from running.
	Stop() bool
}

type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
