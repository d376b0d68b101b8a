// Package host provides a reference frame scheduler for coroutine routines.
package host

import (
	"fmt"
	"io"
	"iter"
	"log"
	"time"

	"github.com/lorenalexm/coroutinewrapper/coroutine"
)

// Fault is reported when a routine panics while being resumed.
// The routine is dropped; other routines are unaffected.
type Fault struct {
	ID  int
	Err error
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Frame    uint64
	Now      time.Duration
	Active   int
	Started  uint64
	Finished uint64
	Stopped  uint64
	Faults   uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for faults when no fault handler is set.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithFaultHandler sets the function called when a routine panics.
func WithFaultHandler(fn func(Fault)) Option {
	return func(s *Scheduler) { s.onFault = fn }
}

// Scheduler owns running routines: ID generation, resumption, cancellation.
// Time only moves when Tick is called.
//
// A Scheduler is not safe for concurrent use. Routines may call Start and Stop
// from their callbacks.
type Scheduler struct {
	tasks  map[int]*task
	order  []int // start order
	nextID int

	now   time.Duration
	frame uint64
	pos   uint64 // frame*2 + phase

	stats   Stats
	logger  *log.Logger
	onFault func(Fault)
}

const (
	phaseUpdate     = 0
	phaseEndOfFrame = 1
)

type task struct {
	id    int
	next  func() (coroutine.Wait, bool)
	stop  func()
	wait  coroutine.Wait
	since time.Duration // clock at suspension
	at    uint64        // pos at suspension

	pulling   bool // inside next; stop must wait
	cancelled bool
}

// New creates an idle scheduler at frame 0.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks:  make(map[int]*task),
		pos:    phaseEndOfFrame,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs r up to its first suspension and returns its ID.
// A routine that finishes without suspending is not kept.
func (s *Scheduler) Start(r coroutine.Routine) int {
	next, stop := iter.Pull(iter.Seq[coroutine.Wait](r))

	s.nextID++
	t := &task{id: s.nextID, next: next, stop: stop}
	s.tasks[t.id] = t
	s.order = append(s.order, t.id)
	s.stats.Started++

	s.resume(t)
	return t.id
}

// Stop cancels a routine. It reports whether the routine was running.
// A routine stopped while it is running, such as from its own callback,
// unwinds as soon as it next suspends.
func (s *Scheduler) Stop(id int) bool {
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	s.drop(t)
	s.stats.Stopped++
	if !t.pulling {
		t.stop()
	}
	return true
}

// StopAll cancels every routine.
func (s *Scheduler) StopAll() {
	for _, id := range append([]int(nil), s.order...) {
		s.Stop(id)
	}
}

// Running reports whether id refers to a live routine.
func (s *Scheduler) Running(id int) bool {
	_, ok := s.tasks[id]
	return ok
}

// Active returns the number of live routines.
func (s *Scheduler) Active() int {
	return len(s.tasks)
}

// Now returns the total host time passed to Tick.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Frame returns the number of completed or in-progress frames.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	st := s.stats
	st.Frame = s.frame
	st.Now = s.now
	st.Active = len(s.tasks)
	return st
}

// Tick advances the clock by dt and runs one frame.
//
// Update phase: routines waiting on a tick, and routines whose delay has
// elapsed, resume in start order. End-of-frame phase: routines waiting on a
// frame resume, including ones that suspended during this frame's update.
// Nothing resumes twice in one phase.
func (s *Scheduler) Tick(dt time.Duration) {
	s.now += dt
	s.frame++

	s.pos = s.frame*2 + phaseUpdate
	s.sweep(func(t *task) bool {
		switch t.wait.Kind {
		case coroutine.WaitTick:
			return true
		case coroutine.WaitDuration:
			return s.now-t.since >= t.wait.Duration
		}
		return false
	})

	s.pos = s.frame*2 + phaseEndOfFrame
	s.sweep(func(t *task) bool {
		return t.wait.Kind == coroutine.WaitFrame
	})
}

func (s *Scheduler) sweep(ready func(*task) bool) {
	ids := append([]int(nil), s.order...)
	for _, id := range ids {
		t, ok := s.tasks[id]
		if !ok || t.at >= s.pos || !ready(t) {
			continue
		}
		s.resume(t)
	}
}

// resume pulls t to its next suspension, recording the wait or retiring it.
func (s *Scheduler) resume(t *task) {
	t.pulling = true
	w, ok, err := s.pull(t)
	t.pulling = false

	switch {
	case err != nil:
		s.drop(t)
		t.stop()
		s.fault(Fault{ID: t.id, Err: err})
	case t.cancelled:
		// Stopped while it was running.
		t.stop()
	case !ok:
		s.drop(t)
		s.stats.Finished++
	default:
		t.wait = w
		t.since = s.now
		t.at = s.pos
	}
}

func (s *Scheduler) pull(t *task) (w coroutine.Wait, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, isErr := r.(error); isErr {
				err = fmt.Errorf("routine %d: %w", t.id, e)
			} else {
				err = fmt.Errorf("routine %d: panic: %v", t.id, r)
			}
		}
	}()
	w, ok = t.next()
	return w, ok, nil
}

func (s *Scheduler) drop(t *task) {
	if t.cancelled {
		return
	}
	t.cancelled = true
	delete(s.tasks, t.id)
	for i, id := range s.order {
		if id == t.id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Scheduler) fault(f Fault) {
	s.stats.Faults++
	if s.onFault != nil {
		s.onFault(f)
		return
	}
	s.logger.Printf("[host] fault: %v", f.Err)
}
