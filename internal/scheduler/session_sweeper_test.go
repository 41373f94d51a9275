package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvicter struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (f *fakeEvicter) EvictIdle(ttl time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ttl)
	return 0
}

func (f *fakeEvicter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSessionSweeper_Sweep(t *testing.T) {
	ev := &fakeEvicter{}
	s := NewSessionSweeper(ev, "@every 5m", 30*time.Minute)

	s.Sweep()

	assert.Equal(t, []time.Duration{30 * time.Minute}, ev.calls)
}

func TestSessionSweeper_RunsOnSchedule(t *testing.T) {
	ev := &fakeEvicter{}
	s := NewSessionSweeper(ev, "@every 1s", time.Minute)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return ev.count() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestSessionSweeper_InvalidSchedule(t *testing.T) {
	s := NewSessionSweeper(&fakeEvicter{}, "every now and then", time.Minute)
	assert.Error(t, s.Start())
}
