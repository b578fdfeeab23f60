package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateBoundsConcurrentHolders(t *testing.T) {
	t.Parallel()

	g := New(3)
	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.Acquire(context.Background()))
			defer g.Release()
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int32(3))
	require.Equal(t, int32(0), current.Load())
}

func TestGateAcquireHonorsContext(t *testing.T) {
	t.Parallel()

	g := New(1)
	require.NoError(t, g.Acquire(context.Background()))
	defer g.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGateDefaultLimit(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultLimit, New(0).Limit())
	require.Equal(t, 7, New(7).Limit())
}
