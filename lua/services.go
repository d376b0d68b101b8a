package lua

import (
	"time"

	"github.com/lorenalexm/coroutinewrapper/coroutine"
)

// RoutineService runs routines. *host.Scheduler implements it.
type RoutineService interface {
	Start(r coroutine.Routine) int
	Stop(id int) bool
	StopAll()
	Now() time.Duration
	Frame() uint64
}

// OutputService receives script output.
type OutputService interface {
	Print(text string)
}
