package macro

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateInitialState(t *testing.T) {
	set := newGate(true)
	assert.True(t, set.IsSet())

	clear := newGate(false)
	assert.False(t, clear.IsSet())
}

func TestGateSetThenWaitReturnsImmediately(t *testing.T) {
	g := newGate(false)
	g.Set()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, g.Wait(ctx))
}

func TestGateWaitBlocksUntilSet(t *testing.T) {
	g := newGate(false)

	done := make(chan error, 1)
	go func() {
		done <- g.Wait(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Set was called")
	case <-time.After(10 * time.Millisecond):
	}

	g.Set()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Wait did not return after Set")
	}
}

func TestGateWaitCanceledByContext(t *testing.T) {
	g := newGate(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, g.Wait(ctx))
}

func TestGateClearResetsWithoutWakingWaiters(t *testing.T) {
	g := newGate(true)
	g.Clear()
	assert.False(t, g.IsSet())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, g.Wait(ctx), "a cleared gate should not satisfy Wait")
}
