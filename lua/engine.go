package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

const chunkCacheSize = 128

// CallbackError is raised, as a panic, when a Lua callback fails inside a
// routine. The host scheduler recovers it as a fault for that routine.
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string { return "lua callback: " + e.Err.Error() }
func (e *CallbackError) Unwrap() error { return e.Err }

// Engine wraps gopher-lua and exposes routines to scripts as the coro table.
// It must only be used from the goroutine that drives the RoutineService.
type Engine struct {
	L *glua.LState

	routines RoutineService
	out      OutputService

	// Compiled chunks survive Init, so reloading scripts skips the compiler.
	chunks *lru.Cache[string, *glua.FunctionProto]

	coroTable *glua.LTable
}

// NewEngine creates an Engine. Call Init before running code.
func NewEngine(routines RoutineService, out OutputService) *Engine {
	chunks, _ := lru.New[string, *glua.FunctionProto](chunkCacheSize)
	return &Engine{
		routines: routines,
		out:      out,
		chunks:   chunks,
	}
}

// --- Lifecycle ---

// Init creates (or re-creates) the Lua VM. Routines started by a previous VM
// are stopped, since their callbacks belong to a closed state.
func (e *Engine) Init() error {
	if e.L != nil {
		e.L.Close()
	}
	e.routines.StopAll()

	e.L = glua.NewState()
	e.registerAPIs()
	return nil
}

// Close stops all routines and closes the VM.
func (e *Engine) Close() {
	e.routines.StopAll()
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
}

// --- Execution ---

// DoString runs a chunk of Lua code. name is used in error messages.
func (e *Engine) DoString(name, code string) error {
	proto, err := e.compile(name, code)
	if err != nil {
		return err
	}
	e.L.Push(e.L.NewFunctionFromProto(proto))
	return e.L.PCall(0, 0, nil)
}

// DoFile runs a Lua file. The file's directory is on package.path while it
// runs, so it can require its neighbours.
func (e *Engine) DoFile(path string) error {
	absPath, err := filepath.Abs(expandTilde(path))
	if err != nil {
		return err
	}
	code, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	pkg := e.L.GetGlobal("package").(*glua.LTable)
	oldPath := e.L.GetField(pkg, "path").String()
	e.L.SetField(pkg, "path", glua.LString(filepath.Dir(absPath)+"/?.lua;"+oldPath))
	defer e.L.SetField(pkg, "path", glua.LString(oldPath))

	return e.DoString(absPath, string(code))
}

// LoadFiles runs each script in order, stopping at the first failure.
func (e *Engine) LoadFiles(paths []string) error {
	for _, p := range paths {
		if err := e.DoFile(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (e *Engine) compile(name, code string) (*glua.FunctionProto, error) {
	key := name + "\x00" + code
	if proto, ok := e.chunks.Get(key); ok {
		return proto, nil
	}

	chunk, err := parse.Parse(strings.NewReader(code), name)
	if err != nil {
		return nil, err
	}
	proto, err := glua.Compile(chunk, name)
	if err != nil {
		return nil, err
	}
	e.chunks.Add(key, proto)
	return proto, nil
}

// call runs a Lua callback from inside a routine.
func (e *Engine) call(fn *glua.LFunction, args ...glua.LValue) {
	if e.L == nil {
		return
	}
	err := e.L.CallByParam(glua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...)
	if err != nil {
		panic(&CallbackError{Err: err})
	}
}

// callback adapts an optional Lua function into a coroutine callback.
func (e *Engine) callback(fn *glua.LFunction) func() {
	if fn == nil {
		return nil
	}
	return func() { e.call(fn) }
}

func (e *Engine) registerAPIs() {
	e.registerCoreFuncs()
	e.registerCoroFuncs()
}

// expandTilde expands ~ to home directory.
func expandTilde(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
