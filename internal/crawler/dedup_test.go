package crawler

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDedupStoreClaimOnce(t *testing.T) {
	t.Parallel()

	d := NewDedupStore(nil)
	require.True(t, d.Claim("Great service"))
	require.False(t, d.Claim("Great service"))
	require.True(t, d.Contains("Great service"))
	require.Equal(t, 1, d.Len())
}

func TestDedupStoreSeeded(t *testing.T) {
	t.Parallel()

	seed := map[string]struct{}{"old review": {}}
	d := NewDedupStore(seed)
	require.False(t, d.Claim("old review"))
	require.True(t, d.Claim("new review"))

	// the seed map is copied, not shared
	seed["another"] = struct{}{}
	require.False(t, d.Contains("another"))
}

func TestDedupStoreConcurrentClaim(t *testing.T) {
	t.Parallel()

	d := NewDedupStore(nil)
	const workers = 64
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if d.Claim("identical text") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	require.Equal(t, 1, d.Len())
}
