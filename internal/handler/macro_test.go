package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victortrac/inputcore/internal/keyboardlayout"
	"github.com/victortrac/inputcore/internal/macro"
	"github.com/victortrac/inputcore/internal/model"
)

func buildKeyMacro(t *testing.T) *macro.Macro {
	t.Helper()
	layout := keyboardlayout.New()
	rt := &macro.Runtime{Layout: layout, KeystrokeSleep: time.Millisecond}
	tree, err := macro.ParseMacro("k(a)", rt)
	require.NoError(t, err)
	return tree
}

func TestMacroHandlerRunsOnPressAndReleases(t *testing.T) {
	w := &fakeWriter{}
	tree := buildKeyMacro(t)
	h := NewMacroHandler(w, tree, "keyboard")

	consumed, err := h.Notify(model.InputEvent{Type: model.EvKey, Value: 1}, false)
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.True(t, h.Active())

	// let the macro's k(a) task run to completion.
	assert.Eventually(t, func() bool { return w.eventCount() > 0 }, 200*time.Millisecond, time.Millisecond)

	consumed, err = h.Notify(model.InputEvent{Type: model.EvKey, Value: 0}, false)
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.False(t, h.Active())
}

func TestMacroHandlerPressWhileRunningIsNoop(t *testing.T) {
	w := &fakeWriter{}
	tree := buildKeyMacro(t)
	h := NewMacroHandler(w, tree, "keyboard")

	h.Notify(model.InputEvent{Type: model.EvKey, Value: 1}, false)
	consumed, err := h.Notify(model.InputEvent{Type: model.EvKey, Value: 1}, false)
	require.NoError(t, err)
	assert.True(t, consumed, "a press while already running is still consumed, but doesn't start a second run")
}

func TestMacroHandlerReset(t *testing.T) {
	w := &fakeWriter{}
	tree := buildKeyMacro(t)
	h := NewMacroHandler(w, tree, "keyboard")

	h.Notify(model.InputEvent{Type: model.EvKey, Value: 1}, false)
	h.Reset()
	assert.False(t, h.Active())
}
