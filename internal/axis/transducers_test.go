package axis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsToRelFeedDeadzoneAndEdge(t *testing.T) {
	a := &AbsToRel{Deadzone: 0.1, Gain: 1}

	start, inDeadzone, err := a.Feed(0, -100, 100)
	require.NoError(t, err)
	assert.False(t, start)
	assert.True(t, inDeadzone)

	start, inDeadzone, err = a.Feed(50, -100, 100)
	require.NoError(t, err)
	assert.False(t, inDeadzone)
	assert.True(t, start, "first sample past the deadzone should request a start")

	start, _, err = a.Feed(60, -100, 100)
	require.NoError(t, err)
	assert.False(t, start, "already running, shouldn't request another start")
}

func TestAbsToRelRunEmitsUntilStopped(t *testing.T) {
	a := &AbsToRel{RateHz: 1000}
	_, _, err := a.Feed(100, -100, 100)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := 0
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx, func(delta int32) { ticks++ })
	}()

	time.Sleep(15 * time.Millisecond)
	a.Stop()
	cancel()
	<-done

	assert.Greater(t, ticks, 0)
}

func TestRelToRelAccumulatesFractionalGain(t *testing.T) {
	r := &RelToRel{Gain: 0.5}
	total := int32(0)
	for i := 0; i < 4; i++ {
		total += r.Convert(1)
	}
	assert.Equal(t, int32(2), total)
}

func TestAbsToAbsRemapsRange(t *testing.T) {
	a := &AbsToAbs{}
	out, err := a.Convert(0, -100, 100, 0, 255)
	require.NoError(t, err)
	assert.InDelta(t, 127, out, 2)

	out, err = a.Convert(100, -100, 100, 0, 255)
	require.NoError(t, err)
	assert.Equal(t, int32(255), out)
}

func TestRelToAbsFeedClampsAndDecays(t *testing.T) {
	r := &RelToAbs{Gain: 1, DecayPerTick: 1, OutMin: -255, OutMax: 255}

	start := r.Feed(5)
	assert.True(t, start)
	assert.InDelta(t, 1, r.position, 1e-9, "position clamps to 1 after a large delta")

	start = r.Feed(1)
	assert.False(t, start)
}

func TestAbsToBtnEvaluate(t *testing.T) {
	positive := &AbsToBtn{Threshold: 0.5}
	assert.True(t, positive.Evaluate(80, -100, 100))
	assert.False(t, positive.Evaluate(10, -100, 100))

	negative := &AbsToBtn{Threshold: -0.5}
	assert.True(t, negative.Evaluate(-80, -100, 100))
	assert.False(t, negative.Evaluate(-10, -100, 100))
}

func TestRelToBtnEvaluate(t *testing.T) {
	positive := &RelToBtn{Threshold: 5}
	assert.True(t, positive.Evaluate(10))
	assert.False(t, positive.Evaluate(2))

	negative := &RelToBtn{Threshold: -5}
	assert.True(t, negative.Evaluate(-10))
	assert.False(t, negative.Evaluate(-2))
}
