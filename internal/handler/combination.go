package handler

import (
	"sync"

	icontext "github.com/victortrac/inputcore/internal/context"
	"github.com/victortrac/inputcore/internal/model"
)

// CombinationHandler implements a multi-key chord: every (type, code)
// in Keys must be simultaneously active before Sub sees a synthetic
// press, and Sub sees the matching release as soon as any one member
// lets go. A member event that doesn't change the combined state is
// left unconsumed (spec §4.4: "otherwise return false; the event may
// still be forwarded") — grounded on mapping_handler.py's
// CombinationHandler, whose _key_map tracks the same per-member
// pressed state and whose notify() returns False whenever
// get_active() == the sub-handler's prior active flag.
type CombinationHandler struct {
	Sub icontext.Handler

	// Trigger is the (type, code) passed through as the synthetic event
	// Sub is notified with; its own Type/Code are irrelevant to Sub
	// (KeyHandler and MacroHandler only read Value), so any member
	// works, but using the configured trigger matches spec §3's
	// "combination's last element is the trigger" framing.
	Trigger model.TypeAndCode

	// Forward re-emits a release for every member key, through the
	// forward sink the triggering event's Origin device registered,
	// the moment the combination completes. mapping_handler.py's
	// forward_release exists because the members that preceded the
	// final one were themselves returned unconsumed and so already got
	// forwarded raw; once the chord fires those stray presses need a
	// correcting release so they don't stick in whatever read the
	// forward stream. nil disables this (e.g. a handler built for
	// tests, or one with only a single member). Grounded on
	// internal/context.Context.Replay, which already knows how to look
	// up a device's forward sink by Origin.
	Forward func(ev model.InputEvent) error

	mu     sync.Mutex
	keys   []model.TypeAndCode
	keyMap map[model.TypeAndCode]bool
	active bool
}

// NewCombinationHandler builds a handler consuming every key in keys
// (order irrelevant) and dispatching the combined press/release to
// sub. forward is used for the per-member forward_release correction
// on activation; pass nil to disable it.
func NewCombinationHandler(keys []model.TypeAndCode, trigger model.TypeAndCode, sub icontext.Handler, forward func(ev model.InputEvent) error) *CombinationHandler {
	keyMap := make(map[model.TypeAndCode]bool, len(keys))
	for _, k := range keys {
		keyMap[k] = false
	}
	cp := make([]model.TypeAndCode, len(keys))
	copy(cp, keys)
	return &CombinationHandler{Sub: sub, Trigger: trigger, Forward: forward, keys: cp, keyMap: keyMap}
}

// forwardRelease re-emits a release for every member key plus a
// trailing SYN_REPORT, correcting the stray presses that reached the
// forward sink before the chord completed. A single-member combination
// never had anything forwarded in the first place (mirroring
// mapping_handler.py's `if len(self._key) == 1: return`).
func (c *CombinationHandler) forwardRelease(origin model.DeviceID) {
	if c.Forward == nil || len(c.keys) < 2 {
		return
	}
	for _, key := range c.keys {
		_ = c.Forward(model.InputEvent{Type: key.Type, Code: key.Code, Value: 0, Origin: origin})
	}
	_ = c.Forward(model.InputEvent{Type: model.EvSyn, Origin: origin})
}

func (c *CombinationHandler) allActive() bool {
	for _, active := range c.keyMap {
		if !active {
			return false
		}
	}
	return true
}

func (c *CombinationHandler) Notify(ev model.InputEvent, suppressed bool) (bool, error) {
	key := typeAndCodeOf(ev)

	c.mu.Lock()
	if _, member := c.keyMap[key]; !member {
		c.mu.Unlock()
		return false, nil
	}
	c.keyMap[key] = ev.Value != 0
	wasActive := c.active
	nowActive := c.allActive()
	c.active = nowActive
	c.mu.Unlock()

	if nowActive == wasActive {
		// member event with no effect on the combined state: not
		// consumed, may still be forwarded (e.g. releasing one
		// modifier while others were already not fully pressed).
		return false, nil
	}

	if nowActive && ev.Value != 0 {
		c.forwardRelease(ev.Origin)
	}

	if suppressed {
		return false, nil
	}

	value := int32(0)
	if nowActive {
		value = 1
	}
	return c.Sub.Notify(model.InputEvent{
		Type:   c.Trigger.Type,
		Code:   c.Trigger.Code,
		Value:  value,
		Origin: ev.Origin,
	}, false)
}

func (c *CombinationHandler) Reset() {
	c.mu.Lock()
	for k := range c.keyMap {
		c.keyMap[k] = false
	}
	c.active = false
	c.mu.Unlock()
	c.Sub.Reset()
}
