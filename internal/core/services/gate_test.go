package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGate_ClampsSlots(t *testing.T) {
	g := NewGate(0, 0)
	assert.Equal(t, 1, cap(g.slots))

	g = NewGate(-3, 0)
	assert.Equal(t, 1, cap(g.slots))

	g = NewGate(4, 0)
	assert.Equal(t, 4, cap(g.slots))
}

func TestNewGate_ZeroRateDisablesLimiter(t *testing.T) {
	assert.Nil(t, NewGate(1, 0).limiter)
	assert.NotNil(t, NewGate(1, 5).limiter)
}

func TestGate_SingleSlotSerialises(t *testing.T) {
	g := NewGate(1, 0)

	release, err := g.acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := g.acquire(context.Background())
		if err == nil {
			close(acquired)
			r()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the slot is held")
	case <-time.After(20 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire should proceed after release")
	}
}

func TestGate_ContextCancelled(t *testing.T) {
	g := NewGate(1, 0)

	release, err := g.acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGate_RateLimiterThrottles(t *testing.T) {
	// Burst 1 at 50 calls/s: the second acquire waits ~20ms.
	g := NewGate(2, 50)

	start := time.Now()
	for i := 0; i < 2; i++ {
		release, err := g.acquire(context.Background())
		require.NoError(t, err)
		release()
	}

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
