package lua

import (
	"sync"

	"github.com/lorenalexm/coroutinewrapper/coroutine"
	"github.com/lorenalexm/coroutinewrapper/host"
)

// MockHost implements RoutineService and OutputService for testing.
// Routines run on a real host.Scheduler driven by Advance.
type MockHost struct {
	*host.Scheduler

	mu sync.Mutex

	// Captured calls
	PrintCalls  []string
	StartCalls  int
	StopCalls   []int
	StopAllSeen int
	Faults      []host.Fault
}

func NewMockHost() *MockHost {
	m := &MockHost{}
	m.Scheduler = host.New(host.WithFaultHandler(func(f host.Fault) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Faults = append(m.Faults, f)
	}))
	return m
}

func (m *MockHost) Print(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PrintCalls = append(m.PrintCalls, text)
}

func (m *MockHost) Start(r coroutine.Routine) int {
	m.mu.Lock()
	m.StartCalls++
	m.mu.Unlock()
	return m.Scheduler.Start(r)
}

func (m *MockHost) Stop(id int) bool {
	m.mu.Lock()
	m.StopCalls = append(m.StopCalls, id)
	m.mu.Unlock()
	return m.Scheduler.Stop(id)
}

func (m *MockHost) StopAll() {
	m.mu.Lock()
	m.StopAllSeen++
	m.mu.Unlock()
	m.Scheduler.StopAll()
}

// Prints returns a copy of the captured output.
func (m *MockHost) Prints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.PrintCalls...)
}
