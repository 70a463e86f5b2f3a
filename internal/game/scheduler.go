package game

import "time"

// The opponent's "thinking" pause. Pure pacing: correctness never
// depends on these values and tests run with a zero-delay scheduler.
const (
	opponentDelayMin = 900 * time.Millisecond
	opponentDelayMax = 2200 * time.Millisecond
)

// Task is a scheduled, cancellable piece of work.
type Task interface {
	// Stop cancels the task. It reports whether the call prevented the
	// task from running (time.Timer semantics).
	Stop() bool
}

// Scheduler schedules a function to run after a delay. The game uses it
// for the opponent's simulated thinking time; injecting it keeps the
// state machine testable without real waiting.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// NewScheduler returns the production scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler {
	return realScheduler{}
}
