package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelLimiter(t *testing.T) {
	l := NewModelLimiter(2)
	require.NoError(t, l.Increment())
	require.NoError(t, l.Increment())
	assert.Equal(t, 0, l.Remaining())

	err := l.Increment()
	assert.ErrorIs(t, err, ErrModelCallLimit)
	assert.Equal(t, 3, l.Count())
}

func TestModelLimiter_Unlimited(t *testing.T) {
	l := NewModelLimiter(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Increment())
	}
	assert.Equal(t, -1, l.Remaining())
}

func TestModelLimiter_Concurrent(t *testing.T) {
	l := NewModelLimiter(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Increment()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, l.Count())
}

func TestModelLimiterContext(t *testing.T) {
	assert.Nil(t, ModelLimiterFrom(context.Background()))

	l := NewModelLimiter(1)
	ctx := WithModelLimiter(context.Background(), l)
	assert.Same(t, l, ModelLimiterFrom(ctx))
}
