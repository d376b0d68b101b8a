package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenalexm/coroutinewrapper/coroutine"
	"github.com/lorenalexm/coroutinewrapper/host"
)

func startLoop(t *testing.T, l *Loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestDefaults(t *testing.T) {
	l := New(host.New(), Config{})
	assert.Equal(t, time.Second/DefaultFrameRate, l.Interval())
}

func TestGoRunsDelayedCall(t *testing.T) {
	l := New(host.New(), Config{FrameRate: 200})
	startLoop(t, l)

	fired := make(chan struct{})
	l.Go(coroutine.DelayedCall(20*time.Millisecond, func() { close(fired) }))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed call never fired")
	}
}

func TestFakeClockDrivesHostTime(t *testing.T) {
	// Every frame reads the clock once; each read moves a second forward.
	base := time.Unix(0, 0)
	var reads int64
	clock := func() time.Time {
		n := atomic.AddInt64(&reads, 1)
		return base.Add(time.Duration(n) * time.Second)
	}

	l := New(host.New(), Config{FrameRate: 500, Clock: clock})
	startLoop(t, l)

	var calls atomic.Int32
	l.Go(coroutine.RepeatingCall(time.Second, func() { calls.Add(1) }, true))

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
}

func TestPostRunsOnLoopGoroutine(t *testing.T) {
	s := host.New()
	l := New(s, Config{FrameRate: 200})
	startLoop(t, l)

	ids := make(chan int, 1)
	l.Post(func() {
		ids <- s.Start(coroutine.RepeatingCall(time.Hour, func() {}, true))
	})

	var id int
	select {
	case id = <-ids:
	case <-time.After(2 * time.Second):
		t.Fatal("posted job never ran")
	}

	l.Post(func() { s.Stop(id) })
	require.Eventually(t, func() bool {
		st := l.Stats()
		return st.Host.Stopped == 1 && st.Host.Active == 0
	}, 2*time.Second, time.Millisecond)

	st := l.Stats()
	assert.GreaterOrEqual(t, st.Jobs, uint64(2))
	assert.Positive(t, st.Frames)
	assert.Zero(t, st.Dropped)
}
