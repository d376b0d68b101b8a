// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/lorenalexm/coroutinewrapper/internal/loop"
)

// StatsSource is anything that reports loop statistics.
type StatsSource interface {
	Stats() loop.Stats
}

// Monitor periodically logs loop statistics.
type Monitor struct {
	src      StatsSource
	interval time.Duration
	logger   *log.Logger
	done     chan struct{}
}

// NewMonitor creates a monitor for src. If enabled is false or interval is
// not positive, it returns nil; a nil Monitor does nothing.
func NewMonitor(src StatsSource, interval time.Duration, logger *log.Logger, enabled bool) *Monitor {
	if !enabled || interval <= 0 {
		return nil
	}
	return &Monitor{
		src:      src,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the monitoring loop in a goroutine. It stops with ctx.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil {
		return
	}
	go m.run(ctx)
}

// Wait blocks until a started monitor has stopped.
func (m *Monitor) Wait() {
	if m == nil {
		return
	}
	<-m.done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Println("[DEBUG] Monitor started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Println("[DEBUG] Monitor stopped")
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Monitor) logStats() {
	s := m.src.Stats()

	m.logger.Printf("[DEBUG] frames=%d jobs=%d dropped=%d goroutines=%d | host: frame=%d now=%v active=%d started=%d finished=%d stopped=%d faults=%d",
		s.Frames,
		s.Jobs,
		s.Dropped,
		runtime.NumGoroutine(),
		s.Host.Frame,
		s.Host.Now.Round(time.Millisecond),
		s.Host.Active,
		s.Host.Started,
		s.Host.Finished,
		s.Host.Stopped,
		s.Host.Faults,
	)
}
