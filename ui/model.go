// Package ui is a terminal host that drives routines from Bubble Tea frames.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lorenalexm/coroutinewrapper/host"
	"github.com/lorenalexm/coroutinewrapper/internal/loop"
)

const maxLines = 1000

// frameMsg drives one scheduler frame.
type frameMsg time.Time

// PrintMsg appends a line of output from outside the program loop.
type PrintMsg string

// Writer returns an io.Writer that sends each write to p as a PrintMsg.
// It is safe to use from any goroutine.
func Writer(p *tea.Program) io.Writer {
	return programWriter{p: p}
}

type programWriter struct {
	p *tea.Program
}

func (w programWriter) Write(b []byte) (int, error) {
	w.p.Send(PrintMsg(strings.TrimRight(string(b), "\n")))
	return len(b), nil
}

// doFrame returns a command that sends a frameMsg after the given duration.
func doFrame(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Model is the Bubble Tea model. Each frame it ticks the scheduler by the
// wall time since the previous frame, so script callbacks run inside Update.
type Model struct {
	sched    *host.Scheduler
	interval time.Duration
	styles   Styles

	viewport viewport.Model
	lines    []string
	dirty    bool

	last   time.Time
	paused bool
	width  int
	height int

	mu     sync.Mutex
	frames uint64
	host   host.Stats
}

// NewModel creates a model that ticks s every interval.
func NewModel(s *host.Scheduler, interval time.Duration) *Model {
	return &Model{
		sched:    s,
		interval: interval,
		styles:   DefaultStyles(),
		viewport: viewport.New(80, 23),
	}
}

// Print appends a line of output. It must be called from the program loop,
// which is where script callbacks run.
func (m *Model) Print(text string) {
	m.lines = append(m.lines, strings.Split(text, "\n")...)
	if over := len(m.lines) - maxLines; over > 0 {
		m.lines = m.lines[over:]
	}
	m.dirty = true
}

// PrintError appends a line styled as an error.
func (m *Model) PrintError(text string) {
	m.Print(m.styles.Error.Render(text))
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return doFrame(m.interval)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-1, 1)
		m.dirty = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			return m, nil
		case "x":
			m.sched.StopAll()
			m.Print(m.styles.Muted.Render("[stopped all routines]"))
			m.refresh()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case frameMsg:
		now := time.Time(msg)
		// Paused frames still move last, so resuming does not replay the gap.
		if !m.last.IsZero() && !m.paused {
			m.sched.Tick(now.Sub(m.last))
		}
		m.last = now
		m.snapshot()
		m.refresh()
		return m, doFrame(m.interval)

	case PrintMsg:
		m.Print(string(msg))
		m.refresh()
		return m, nil
	}

	return m, nil
}

func (m *Model) snapshot() {
	m.mu.Lock()
	m.frames++
	m.host = m.sched.Stats()
	m.mu.Unlock()
}

// Stats returns the counters as of the last frame. Safe from any goroutine.
// The TUI has no job queue, so Jobs and Dropped stay zero.
func (m *Model) Stats() loop.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return loop.Stats{Frames: m.frames, Host: m.host}
}

func (m *Model) refresh() {
	if !m.dirty {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
	m.dirty = false
}

// View implements tea.Model.
func (m *Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.statusView())
}

func (m *Model) statusView() string {
	st := m.sched.Stats()

	state := m.styles.Running.Render("● running")
	if m.paused {
		state = m.styles.Paused.Render("● paused")
	}
	info := fmt.Sprintf(" frame %d  %.1fs  %d active  %d faults ",
		st.Frame, st.Now.Seconds(), st.Active, st.Faults)

	bar := state + m.styles.Muted.Render(info)
	if m.width > 0 {
		return m.styles.StatusBar.Width(m.width).Render(bar)
	}
	return m.styles.StatusBar.Render(bar)
}
