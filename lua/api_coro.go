package lua

import (
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/lorenalexm/coroutinewrapper/coroutine"
)

// registerCoroFuncs registers the coro.* API. Every starter returns the
// routine ID accepted by coro.stop.
func (e *Engine) registerCoroFuncs() {
	e.coroTable = e.L.NewTable()
	e.L.SetGlobal("coro", e.coroTable)

	// coro.after(seconds, fn): call fn once after a delay
	e.L.SetField(e.coroTable, "after", e.L.NewFunction(func(L *glua.LState) int {
		seconds := L.CheckNumber(1)
		fn := L.CheckFunction(2)

		id := e.routines.Start(coroutine.DelayedCall(toDuration(seconds), e.callback(fn)))
		L.Push(glua.LNumber(id))
		return 1
	}))

	// coro.every(seconds, fn [, delay_first]): call fn forever, every interval
	e.L.SetField(e.coroTable, "every", e.L.NewFunction(func(L *glua.LState) int {
		seconds := L.CheckNumber(1)
		fn := L.CheckFunction(2)
		delayFirst := L.OptBool(3, true)

		id := e.routines.Start(coroutine.RepeatingCall(toDuration(seconds), e.callback(fn), delayFirst))
		L.Push(glua.LNumber(id))
		return 1
	}))

	// coro.ramp(value, limit, step, on_step [, on_complete]): step a value once per frame
	e.L.SetField(e.coroTable, "ramp", e.L.NewFunction(func(L *glua.LState) int {
		value := float64(L.CheckNumber(1))
		limit := float64(L.CheckNumber(2))
		step := float64(L.CheckNumber(3))
		onStep := L.CheckFunction(4)
		onComplete := L.OptFunction(5, nil)

		r := coroutine.RampUntil(value, limit, step,
			func(v float64) { e.call(onStep, glua.LNumber(v)) },
			e.callback(onComplete),
		)
		L.Push(glua.LNumber(e.routines.Start(r)))
		return 1
	}))

	// coro.until_equal(tbl, key, target, on_step [, on_complete]): call on_step
	// each tick until tbl[key] == target
	e.L.SetField(e.coroTable, "until_equal", e.L.NewFunction(func(L *glua.LState) int {
		tbl := L.CheckTable(1)
		key := L.CheckAny(2)
		target := L.CheckAny(3)
		onStep := L.CheckFunction(4)
		onComplete := L.OptFunction(5, nil)

		r := coroutine.RepeatUntilFunc(
			func() glua.LValue { return tbl.RawGet(key) },
			target,
			e.callback(onStep),
			e.callback(onComplete),
		)
		L.Push(glua.LNumber(e.routines.Start(r)))
		return 1
	}))

	// coro.defer(fn): call fn now, then hold one tick
	e.L.SetField(e.coroTable, "defer", e.L.NewFunction(func(L *glua.LState) int {
		fn := L.CheckFunction(1)

		L.Push(glua.LNumber(e.routines.Start(coroutine.RunOnceDeferred(e.callback(fn)))))
		return 1
	}))

	// coro.stop(id): stop a routine, true if it was running
	e.L.SetField(e.coroTable, "stop", e.L.NewFunction(func(L *glua.LState) int {
		id := L.CheckInt(1)
		L.Push(glua.LBool(e.routines.Stop(id)))
		return 1
	}))

	// coro.stop_all(): stop every routine
	e.L.SetField(e.coroTable, "stop_all", e.L.NewFunction(func(L *glua.LState) int {
		e.routines.StopAll()
		return 0
	}))

	// coro.now(): host time in seconds
	e.L.SetField(e.coroTable, "now", e.L.NewFunction(func(L *glua.LState) int {
		L.Push(glua.LNumber(e.routines.Now().Seconds()))
		return 1
	}))

	// coro.frame(): current frame number
	e.L.SetField(e.coroTable, "frame", e.L.NewFunction(func(L *glua.LState) int {
		L.Push(glua.LNumber(e.routines.Frame()))
		return 1
	}))
}

// toDuration converts Lua number seconds to Go duration
func toDuration(seconds glua.LNumber) time.Duration {
	return time.Duration(float64(seconds) * float64(time.Second))
}
