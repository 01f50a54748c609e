package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victortrac/inputcore/internal/axis"
	"github.com/victortrac/inputcore/internal/model"
)

func TestAbsToRelHandlerEmitsWhileOutOfDeadzone(t *testing.T) {
	w := &fakeWriter{}
	transducer := &axis.AbsToRel{Deadzone: 0.1, Gain: 1, RateHz: 1000}
	h := NewAbsToRelHandler(transducer, w, 0, -100, 100, "mouse")

	consumed, err := h.Notify(model.InputEvent{Type: model.EvAbs, Value: 80}, false)
	require.NoError(t, err)
	assert.True(t, consumed)

	time.Sleep(15 * time.Millisecond)

	consumed, err = h.Notify(model.InputEvent{Type: model.EvAbs, Value: 0}, false)
	require.NoError(t, err)
	assert.True(t, consumed)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.NotEmpty(t, w.events, "rate loop should have emitted at least one EV_REL sample before returning to center")
	for _, tc := range w.events {
		assert.Equal(t, uint16(0), tc.Code)
	}
}

func TestAbsToRelHandlerResetStopsLoop(t *testing.T) {
	w := &fakeWriter{}
	transducer := &axis.AbsToRel{Deadzone: 0.1, Gain: 1, RateHz: 1000}
	h := NewAbsToRelHandler(transducer, w, 0, -100, 100, "mouse")

	h.Notify(model.InputEvent{Type: model.EvAbs, Value: 80}, false)
	time.Sleep(5 * time.Millisecond)
	h.Reset()
	time.Sleep(2 * time.Millisecond)

	countAfterReset := w.eventCount()
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, countAfterReset, w.eventCount(), "no further samples should arrive once the loop is cancelled")
}
