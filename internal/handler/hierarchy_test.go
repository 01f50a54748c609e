package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/model"
)

func asHandlers(hs ...*fakeHandler) []icontext.Handler {
	out := make([]icontext.Handler, len(hs))
	for i, h := range hs {
		out[i] = h
	}
	return out
}

func TestHierarchyHandlerFirstSuccessWins(t *testing.T) {
	first := &fakeHandler{consume: false}
	second := &fakeHandler{consume: true}
	third := &fakeHandler{consume: true}

	hh := &HierarchyHandler{Handlers: asHandlers(first, second, third)}

	ev := model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}
	consumed, err := hh.Notify(ev, false)
	require.NoError(t, err)
	assert.True(t, consumed)

	assert.Len(t, first.notified, 1)
	assert.Len(t, second.notified, 1)

	// third is notified fire-and-forget in its own goroutine; give it a
	// moment to land before asserting.
	time.Sleep(5 * time.Millisecond)
	assert.Len(t, third.notified, 1)
}

func TestHierarchyHandlerLosersAreNotifiedSuppressed(t *testing.T) {
	first := &fakeHandler{consume: true}
	second := &fakeHandler{consume: true}
	hh := &HierarchyHandler{Handlers: asHandlers(first, second)}

	_, err := hh.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	require.NoError(t, err)

	require.Len(t, first.suppressed, 1)
	assert.False(t, first.suppressed[0], "the winner is notified unsuppressed")

	time.Sleep(5 * time.Millisecond)
	require.Len(t, second.suppressed, 1)
	assert.True(t, second.suppressed[0], "a handler behind the winner is notified suppressed")
}

func TestHierarchyHandlerNoneConsume(t *testing.T) {
	first := &fakeHandler{consume: false}
	second := &fakeHandler{consume: false}
	hh := &HierarchyHandler{Handlers: asHandlers(first, second)}

	consumed, err := hh.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestHierarchyHandlerPropagatesFirstError(t *testing.T) {
	first := &fakeHandler{err: errBoom}
	second := &fakeHandler{consume: true}
	hh := &HierarchyHandler{Handlers: asHandlers(first, second)}

	_, err := hh.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	assert.ErrorIs(t, err, errBoom)
}

func TestHierarchyHandlerResetPropagatesToAll(t *testing.T) {
	first := &fakeHandler{}
	second := &fakeHandler{}
	hh := &HierarchyHandler{Handlers: asHandlers(first, second)}

	hh.Reset()
	assert.Equal(t, 1, first.resets)
	assert.Equal(t, 1, second.resets)
}
