package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAcquireSerializesPerGame(t *testing.T) {
	m := NewManager(nil, 0, zap.NewNop())
	ctx := context.Background()

	release, err := m.Acquire(ctx, "g1")
	require.NoError(t, err)

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r2, err := m.Acquire(ctx, "g1")
		require.NoError(t, err)
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		r2()
	}()

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	release()
	wg.Wait()

	assert.Equal(t, []int{1, 2}, order, "second acquire waits for the first release")
}

func TestAcquireIndependentGames(t *testing.T) {
	m := NewManager(nil, 0, zap.NewNop())
	ctx := context.Background()

	r1, err := m.Acquire(ctx, "g1")
	require.NoError(t, err)
	defer r1()

	// A different game is never blocked.
	done := make(chan struct{})
	go func() {
		r2, err := m.Acquire(ctx, "g2")
		require.NoError(t, err)
		r2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire on an unrelated game blocked")
	}
}
