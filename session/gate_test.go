package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateFIFO(t *testing.T) {
	ctx := context.Background()
	g := newGate()
	require.NoError(t, g.Acquire(ctx))

	var (
		locker sync.Mutex
		order  []int
		wg     sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := g.Acquire(ctx); err != nil {
				t.Error(err)
				return
			}
			locker.Lock()
			order = append(order, i)
			locker.Unlock()
			g.Release(ctx)
		}(i)
		// let the waiter get queued before starting the next one
		time.Sleep(5 * time.Millisecond)
	}

	g.Release(ctx)
	wg.Wait()
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, order)
}

func TestGateAcquireCancelled(t *testing.T) {
	g := newGate()
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancelFn()
	require.ErrorIs(t, g.Acquire(ctx), context.DeadlineExceeded)

	g.Release(context.Background())
	require.NoError(t, g.Acquire(context.Background()))
}
