package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEach_VisitsEveryIndex(t *testing.T) {
	var visited [100]atomic.Int32
	err := ForEach(context.Background(), len(visited), 4, func(_ context.Context, i int) error {
		visited[i].Add(1)
		return nil
	})
	require.NoError(t, err)
	for i := range visited {
		assert.Equal(t, int32(1), visited[i].Load(), "index %d", i)
	}
}

func TestForEach_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	err := ForEach(context.Background(), 20, 3, func(_ context.Context, _ int) error {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestForEach_FirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(context.Background(), 10, 2, func(ctx context.Context, i int) error {
		if i == 0 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, boom)
}

func TestForEach_Empty(t *testing.T) {
	called := false
	require.NoError(t, ForEach(context.Background(), 0, 0, func(context.Context, int) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestForEachWithThreshold_Sequential(t *testing.T) {
	var order []int
	err := ForEachWithThreshold(context.Background(), 5, 10, func(_ context.Context, i int) error {
		order = append(order, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}
