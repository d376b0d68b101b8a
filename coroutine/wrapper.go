package coroutine

import "time"

// DelayedCall waits d then calls cb once.
func DelayedCall(d time.Duration, cb Callback) Routine {
	return func(yield func(Wait) bool) {
		if !yield(Delay(d)) {
			return
		}
		cb()
	}
}

// RepeatingCall calls cb every d, forever. With delayFirst the first call
// happens after the first wait, otherwise immediately. The routine has no stop
// condition of its own; the host ends it by stopping it.
func RepeatingCall(d time.Duration, cb Callback, delayFirst bool) Routine {
	return func(yield func(Wait) bool) {
		for {
			if delayFirst {
				if !yield(Delay(d)) {
					return
				}
				cb()
				continue
			}
			cb()
			if !yield(Delay(d)) {
				return
			}
		}
	}
}

// RampUntil moves value toward limit by step once per frame, passing each new
// value to onStep, and calls onComplete (if set) once limit is reached or
// crossed.
//
// The direction is fixed at entry: value > limit ramps down, anything else
// ramps up. step is a magnitude; zero or a negative step never reaches limit
// and the routine runs until stopped. Each run ramps its own copy of value, so
// the same Routine can be ranged or started more than once.
func RampUntil(value, limit, step float64, onStep func(float64), onComplete Callback) Routine {
	return func(yield func(Wait) bool) {
		v := value
		descending := v > limit
		for {
			if descending {
				if v <= limit {
					break
				}
				v -= step
			} else {
				if v >= limit {
					break
				}
				v += step
			}
			onStep(v)
			if !yield(NextFrame()) {
				return
			}
		}
		if onComplete != nil {
			onComplete()
		}
	}
}

// RepeatUntilEqual calls onStep once per tick while *value != target, then
// calls onComplete (if set).
//
// The routine never writes *value. It only ends when something outside it,
// usually onStep, changes *value to target; otherwise it runs until stopped.
func RepeatUntilEqual[T comparable](value *T, target T, onStep, onComplete Callback) Routine {
	return RepeatUntilFunc(func() T { return *value }, target, onStep, onComplete)
}

// RepeatUntilFunc is RepeatUntilEqual for state read through a function, such
// as a field of a script table. value is evaluated before every step.
func RepeatUntilFunc[T comparable](value func() T, target T, onStep, onComplete Callback) Routine {
	return func(yield func(Wait) bool) {
		for value() != target {
			onStep()
			if !yield(NextTick()) {
				return
			}
		}
		if onComplete != nil {
			onComplete()
		}
	}
}

// RunOnceDeferred calls cb, then holds for exactly one tick.
func RunOnceDeferred(cb Callback) Routine {
	return func(yield func(Wait) bool) {
		cb()
		yield(NextTick())
	}
}
