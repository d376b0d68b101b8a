// Package loop drives a host scheduler from wall-clock time.
package loop

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lorenalexm/coroutinewrapper/coroutine"
	"github.com/lorenalexm/coroutinewrapper/host"
	"github.com/lorenalexm/coroutinewrapper/internal/buffer"
)

const (
	DefaultFrameRate  = 60
	DefaultQueueLimit = 10000
)

// Config holds loop settings. Zero fields take defaults.
type Config struct {
	FrameRate  int              // Frames per second
	QueueLimit int              // Max queued jobs before the oldest is dropped
	Clock      func() time.Time // Defaults to time.Now
	Logger     *log.Logger
}

// Stats is a snapshot of loop counters.
type Stats struct {
	Frames  uint64
	Jobs    uint64
	Dropped uint64
	Host    host.Stats
}

// Loop is the single goroutine that owns a host.Scheduler. Other goroutines
// reach the scheduler only through Post.
type Loop struct {
	sched    *host.Scheduler
	interval time.Duration
	clock    func() time.Time
	logger   *log.Logger

	jobsIn  chan<- func()
	jobsOut <-chan func()

	frames  atomic.Uint64
	jobs    atomic.Uint64
	dropped atomic.Uint64

	mu        sync.Mutex
	hostStats host.Stats
}

// New creates a loop for s. It is passive until Run is called.
func New(s *host.Scheduler, cfg Config) *Loop {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = DefaultQueueLimit
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	l := &Loop{
		sched:     s,
		interval:  time.Second / time.Duration(cfg.FrameRate),
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		hostStats: s.Stats(),
	}
	l.jobsIn, l.jobsOut = buffer.Unbounded(64, cfg.QueueLimit, func(func()) {
		l.dropped.Add(1)
		l.logger.Printf("[loop] queue limit reached (%d), dropping oldest job", cfg.QueueLimit)
	})
	return l
}

// Interval returns the target frame duration.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Post queues job to run on the loop goroutine. It never blocks.
func (l *Loop) Post(job func()) {
	l.jobsIn <- job
}

// Go starts r on the loop goroutine.
func (l *Loop) Go(r coroutine.Routine) {
	l.Post(func() { l.sched.Start(r) })
}

// Run drives frames until ctx is done. Posted jobs run between frames.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Printf("[loop] running at %v per frame", l.interval)
	last := l.clock()

	for {
		select {
		case <-ctx.Done():
			l.logger.Println("[loop] stopped")
			return nil
		case job := <-l.jobsOut:
			l.run(job)
		case <-ticker.C:
			l.drain()
			now := l.clock()
			l.sched.Tick(now.Sub(last))
			last = now
			l.frames.Add(1)

			l.mu.Lock()
			l.hostStats = l.sched.Stats()
			l.mu.Unlock()
		}
	}
}

// drain runs jobs that are already queued, without waiting for more.
func (l *Loop) drain() {
	for {
		select {
		case job := <-l.jobsOut:
			l.run(job)
		default:
			return
		}
	}
}

func (l *Loop) run(job func()) {
	l.jobs.Add(1)
	job()
}

// Stats returns a snapshot of the loop counters. Safe from any goroutine.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	hs := l.hostStats
	l.mu.Unlock()

	return Stats{
		Frames:  l.frames.Load(),
		Jobs:    l.jobs.Load(),
		Dropped: l.dropped.Load(),
		Host:    hs,
	}
}
