package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victortrac/inputcore/internal/model"
)

func TestCombinationHandlerFiresOnlyWhenAllMembersActive(t *testing.T) {
	sub := &fakeHandler{consume: true}
	keys := []model.TypeAndCode{{Type: model.EvKey, Code: 1}, {Type: model.EvKey, Code: 2}}
	trigger := model.TypeAndCode{Type: model.EvKey, Code: 2}
	c := NewCombinationHandler(keys, trigger, sub, nil)

	consumed, err := c.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	require.NoError(t, err)
	assert.False(t, consumed, "a non-transitioning member event isn't consumed, so it may still be forwarded")
	assert.Empty(t, sub.notified, "one of two members pressed shouldn't fire yet")

	consumed, err = c.Notify(model.InputEvent{Type: model.EvKey, Code: 2, Value: 1}, false)
	require.NoError(t, err)
	assert.True(t, consumed)
	require.Len(t, sub.notified, 1)
	assert.Equal(t, int32(1), sub.notified[0].Value)
}

func TestCombinationHandlerReleasesOnFirstMemberLetGo(t *testing.T) {
	sub := &fakeHandler{consume: true}
	keys := []model.TypeAndCode{{Type: model.EvKey, Code: 1}, {Type: model.EvKey, Code: 2}}
	trigger := model.TypeAndCode{Type: model.EvKey, Code: 2}
	c := NewCombinationHandler(keys, trigger, sub, nil)

	c.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	c.Notify(model.InputEvent{Type: model.EvKey, Code: 2, Value: 1}, false)
	require.Len(t, sub.notified, 1)

	c.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 0}, false)
	require.Len(t, sub.notified, 2)
	assert.Equal(t, int32(0), sub.notified[1].Value)
}

func TestCombinationHandlerIgnoresNonMemberEvents(t *testing.T) {
	sub := &fakeHandler{consume: true}
	keys := []model.TypeAndCode{{Type: model.EvKey, Code: 1}}
	c := NewCombinationHandler(keys, keys[0], sub, nil)

	consumed, err := c.Notify(model.InputEvent{Type: model.EvKey, Code: 99, Value: 1}, false)
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Empty(t, sub.notified)
}

func TestCombinationHandlerResetClearsStateAndPropagates(t *testing.T) {
	sub := &fakeHandler{consume: true}
	keys := []model.TypeAndCode{{Type: model.EvKey, Code: 1}}
	c := NewCombinationHandler(keys, keys[0], sub, nil)

	c.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	require.True(t, c.active)

	c.Reset()
	assert.False(t, c.active)
	assert.Equal(t, 1, sub.resets)
}

func TestCombinationHandlerForwardReleaseCorrectsStrayMemberPresses(t *testing.T) {
	sub := &fakeHandler{consume: true}
	keys := []model.TypeAndCode{{Type: model.EvKey, Code: 1}, {Type: model.EvKey, Code: 2}}
	trigger := model.TypeAndCode{Type: model.EvKey, Code: 2}

	var forwarded []model.InputEvent
	forward := func(ev model.InputEvent) error {
		forwarded = append(forwarded, ev)
		return nil
	}
	c := NewCombinationHandler(keys, trigger, sub, forward)

	consumed, err := c.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1, Origin: 7}, false)
	require.NoError(t, err)
	assert.False(t, consumed, "BTN_A must be left unconsumed so the event reader forwards it")
	assert.Empty(t, forwarded, "nothing to correct until the combination actually fires")

	_, err = c.Notify(model.InputEvent{Type: model.EvKey, Code: 2, Value: 1, Origin: 7}, false)
	require.NoError(t, err)
	require.Len(t, forwarded, 3, "a release per member plus a trailing syn")
	assert.Equal(t, model.InputEvent{Type: model.EvKey, Code: 1, Value: 0, Origin: 7}, forwarded[0])
	assert.Equal(t, model.InputEvent{Type: model.EvKey, Code: 2, Value: 0, Origin: 7}, forwarded[1])
	assert.Equal(t, model.EvSyn, int(forwarded[2].Type))
}

func TestCombinationHandlerSuppressedSkipsSubButTracksState(t *testing.T) {
	sub := &fakeHandler{consume: true}
	keys := []model.TypeAndCode{{Type: model.EvKey, Code: 1}, {Type: model.EvKey, Code: 2}}
	trigger := model.TypeAndCode{Type: model.EvKey, Code: 2}
	c := NewCombinationHandler(keys, trigger, sub, nil)

	c.Notify(model.InputEvent{Type: model.EvKey, Code: 1, Value: 1}, false)
	consumed, err := c.Notify(model.InputEvent{Type: model.EvKey, Code: 2, Value: 1}, true)
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Empty(t, sub.notified, "a suppressed loser must never reach its sub-handler")
	assert.True(t, c.active, "the combined state itself is still tracked while suppressed")
}
