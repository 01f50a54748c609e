package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victortrac/inputcore/internal/model"
)

func TestKeyHandlerWritesThroughAndTracksActive(t *testing.T) {
	w := &fakeWriter{}
	k := NewKeyHandler(w, model.EvKey, 30, "keyboard")

	consumed, err := k.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.True(t, k.Active())
	assert.Equal(t, []model.TypeAndCode{{Type: model.EvKey, Code: 30}}, w.events)
	assert.Equal(t, int32(1), w.values[0])
	assert.Equal(t, 1, w.syns)

	_, err = k.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 0}, false)
	require.NoError(t, err)
	assert.False(t, k.Active())
}

func TestKeyHandlerPropagatesWriteError(t *testing.T) {
	w := &fakeWriter{err: errBoom}
	k := NewKeyHandler(w, model.EvKey, 30, "keyboard")

	_, err := k.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	assert.ErrorIs(t, err, errBoom)
}

func TestKeyHandlerSuppressedTracksStateWithoutWriting(t *testing.T) {
	w := &fakeWriter{}
	k := NewKeyHandler(w, model.EvKey, 30, "keyboard")

	consumed, err := k.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, true)
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.True(t, k.Active())
	assert.Empty(t, w.events, "a suppressed notify must not write through")
}

func TestKeyHandlerReset(t *testing.T) {
	w := &fakeWriter{}
	k := NewKeyHandler(w, model.EvKey, 30, "keyboard")
	k.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	require.True(t, k.Active())

	k.Reset()
	assert.False(t, k.Active())
	require.Len(t, w.events, 2, "reset must emit a compensating key-up")
	assert.Equal(t, model.TypeAndCode{Type: model.EvKey, Code: 30}, w.events[1])
	assert.Equal(t, int32(0), w.values[1])
	assert.Equal(t, 2, w.syns)
}

func TestKeyHandlerResetIsNoopWhenNotActive(t *testing.T) {
	w := &fakeWriter{}
	k := NewKeyHandler(w, model.EvKey, 30, "keyboard")

	k.Reset()
	assert.Empty(t, w.events)
	assert.Equal(t, 0, w.syns)
}
