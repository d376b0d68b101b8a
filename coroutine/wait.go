// Package coroutine provides timed callbacks, looping timers and frame-stepped
// value ramps as suspendable routines.
//
// A Routine does nothing on its own. It is a generator of Wait requests that an
// external host scheduler pulls once per frame or tick; the host decides when
// each suspended routine resumes, and stops a routine simply by not resuming it.
package coroutine

import (
	"fmt"
	"time"
)

// Callback is a zero-argument function invoked when a routine fires.
type Callback func()

// Kind identifies what a suspended routine is waiting for.
type Kind int

const (
	WaitTick     Kind = iota // One scheduler tick
	WaitFrame                // End of the next rendered frame
	WaitDuration             // Host-measured time
)

func (k Kind) String() string {
	switch k {
	case WaitTick:
		return "tick"
	case WaitFrame:
		return "frame"
	case WaitDuration:
		return "duration"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Wait is a suspension request yielded by a routine.
type Wait struct {
	Kind     Kind
	Duration time.Duration // WaitDuration only
}

// Delay asks the host to resume after d of host time. d is not validated.
func Delay(d time.Duration) Wait {
	return Wait{Kind: WaitDuration, Duration: d}
}

// NextFrame asks the host to resume at the end of a rendered frame.
func NextFrame() Wait {
	return Wait{Kind: WaitFrame}
}

// NextTick asks the host to resume on its next tick.
func NextTick() Wait {
	return Wait{Kind: WaitTick}
}

func (w Wait) String() string {
	if w.Kind == WaitDuration {
		return fmt.Sprintf("duration(%v)", w.Duration)
	}
	return w.Kind.String()
}

// Routine is a suspendable routine. Each value passed to yield is the point it
// suspends at; a false return from yield means the host stopped it.
//
// Routine is range-over-func compatible, so a host can drive it with
// iter.Pull(iter.Seq[Wait](r)).
type Routine func(yield func(Wait) bool)
