package eventreader

import (
	"testing"

	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/evdevio"
	"github.com/victortrac/inputcore/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForward struct {
	written []model.InputEvent
}

func (f *fakeForward) Write(ev model.InputEvent) error {
	f.written = append(f.written, ev)
	return nil
}

func newTestReader(forward icontext.ForwardWriter, ctx *icontext.Context) *EventReader {
	return New(new(evdevio.SourceDevice), forward, ctx)
}

func TestHandleDropsAutoRepeat(t *testing.T) {
	fwd := &fakeForward{}
	ctx := icontext.New()
	r := newTestReader(fwd, ctx)

	err := r.handle(model.InputEvent{Type: model.EvKey, Code: 30, Value: 2})
	require.NoError(t, err)
	assert.Empty(t, fwd.written)
}

func TestHandlePassesSynAndMscStraightThrough(t *testing.T) {
	fwd := &fakeForward{}
	ctx := icontext.New()
	r := newTestReader(fwd, ctx)

	err := r.handle(model.InputEvent{Type: model.EvSyn})
	require.NoError(t, err)
	require.Len(t, fwd.written, 1)

	err = r.handle(model.InputEvent{Type: model.EvMsc})
	require.NoError(t, err)
	assert.Len(t, fwd.written, 2)
}

func TestHandleForwardsUnclaimedEvent(t *testing.T) {
	fwd := &fakeForward{}
	ctx := icontext.New()
	r := newTestReader(fwd, ctx)

	err := r.handle(model.InputEvent{Type: model.EvKey, Code: 30, Value: 1})
	require.NoError(t, err)
	require.Len(t, fwd.written, 1)
}

type consumingHandler struct{ notified int }

func (c *consumingHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	c.notified++
	return true, nil
}
func (c *consumingHandler) Reset() {}

func TestHandleDoesNotForwardClaimedEvent(t *testing.T) {
	fwd := &fakeForward{}
	ctx := icontext.New()
	h := &consumingHandler{}
	ctx.AddHandler(model.TypeAndCode{Type: model.EvKey, Code: 30}, h)
	r := newTestReader(fwd, ctx)

	err := r.handle(model.InputEvent{Type: model.EvKey, Code: 30, Value: 1})
	require.NoError(t, err)
	assert.Empty(t, fwd.written)
	assert.Equal(t, 1, h.notified)
}

func TestHandleListenerSuppressesEvent(t *testing.T) {
	fwd := &fakeForward{}
	ctx := icontext.New()
	ctx.AddListener(func(ev model.InputEvent) bool { return true })
	r := newTestReader(fwd, ctx)

	err := r.handle(model.InputEvent{Type: model.EvKey, Code: 30, Value: 1})
	require.NoError(t, err)
	assert.Empty(t, fwd.written, "a suppressing listener should stop the event before dispatch/forward")
}
