package parallel

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesInputOrder(t *testing.T) {
	// Given: work items that finish in random order
	in := make([]int, 200)
	for i := range in {
		in[i] = i
	}

	// When: mapping in parallel
	out, err := Map(context.Background(), 8, in, func(_ context.Context, i int) (string, error) {
		time.Sleep(time.Duration(rand.IntN(200)) * time.Microsecond)
		return strconv.Itoa(i), nil
	})

	// Then: results line up with inputs
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i, s := range out {
		assert.Equal(t, strconv.Itoa(i), s)
	}
}

func TestMap_FirstErrorAbortsWholeBatch(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int64

	out, err := Map(context.Background(), 2, []int{1, 2, 3, 4, 5, 6, 7, 8}, func(ctx context.Context, i int) (int, error) {
		calls.Add(1)
		if i == 3 {
			return 0, boom
		}
		return i, nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

func TestMap_EmptyInput(t *testing.T) {
	out, err := Map(context.Background(), 4, []int(nil), func(context.Context, int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Map(ctx, 4, []int{1, 2, 3}, func(context.Context, int) (int, error) {
		return 1, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilter_PreservesOrderAcrossWorkerCounts(t *testing.T) {
	in := make([]int, 1001)
	for i := range in {
		in[i] = i
	}
	var want []int
	for _, i := range in {
		if i%3 == 0 {
			want = append(want, i)
		}
	}

	for _, workers := range []int{1, 2, 7, 64, 5000} {
		got, err := Filter(context.Background(), workers, in, func(i int) bool { return i%3 == 0 })

		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestFilter_NoMatches(t *testing.T) {
	got, err := Filter(context.Background(), 4, []string{"a", "b"}, func(string) bool { return false })

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWorkers_DefaultsToNumCPU(t *testing.T) {
	assert.Positive(t, Workers(0))
	assert.Equal(t, 3, Workers(3))
}
