package portal

import "time"

// Timer is a cancelable handle to a scheduled action.
type Timer interface {
	// Stop cancels the pending action. It reports whether the call
	// prevented the action from firing.
	Stop() bool
}

// Scheduler schedules one-shot actions. The engine routes all of its
// delayed work (reconnect backoff, polling ticks) through a Scheduler
// so tests can drive timing without wall-clock waits.
type Scheduler interface {
	// After runs fn in its own goroutine once d has elapsed.
	After(d time.Duration, fn func()) Timer
}

type clockScheduler struct{}

// NewScheduler returns the production Scheduler backed by
// time.AfterFunc.
func NewScheduler() Scheduler {
	return clockScheduler{}
}

func (clockScheduler) After(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

var _ Timer = (*time.Timer)(nil)
