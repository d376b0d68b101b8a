package lua

import (
	"strings"

	glua "github.com/yuin/gopher-lua"
)

// registerCoreFuncs replaces print so script output reaches the host.
func (e *Engine) registerCoreFuncs() {
	e.L.SetGlobal("print", e.L.NewFunction(func(L *glua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		e.out.Print(strings.Join(parts, "\t"))
		return 0
	}))
}
