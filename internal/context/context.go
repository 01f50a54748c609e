// Package context implements the per-injection-process shared state of
// spec §4.2/§4.3: the handler graph keyed by (type, code), the
// broadcast listener set macro tasks like if_single/mod_tap register
// against, and the forward-sink lookup mod_tap's replay needs.
//
// Grounded on original_source/inputremapper/injection/context.py:
// same three members (listeners, callbacks, handlers), same
// parse-once-at-construction-time shape, same reset() that fans out to
// every handler.
package context

import (
	"sync"

	"github.com/victortrac/inputcore/internal/macro"
	"github.com/victortrac/inputcore/internal/model"
)

// Handler is the InputEventHandler contract of spec §2: notify
// receives a raw event and reports whether it was consumed; reset
// clears any held-down/hierarchy state when the injector needs to
// start clean (e.g. after a device is re-grabbed).
//
// suppressed is HierarchyHandler's losers signal (spec §4.3's
// hierarchy, mirroring mapping_handler.py's supress kwarg): a
// suppressed handler must still update whatever internal state a later
// event depends on (keyMap membership, active flags, trigger gates)
// but must not perform the real output write or hand the event to a
// Sub that would.
type Handler interface {
	Notify(ev model.InputEvent, suppressed bool) (bool, error)
	Reset()
}

// ForwardWriter lets mod_tap's replay re-inject a buffered event
// through the sink that originally forwarded it unmodified (spec §9's
// "replay looks up the forward sink registered under that id").
type ForwardWriter interface {
	Write(ev model.InputEvent) error
}

// Context is one per injected device, shared by its EventReader, every
// compiled Handler, and every Macro tree reachable from them.
type Context struct {
	mu sync.RWMutex

	listeners   map[int]macro.ListenerFunc
	nextID      int
	callbacks   map[model.TypeAndCode][]Handler
	handlersAll []Handler

	forwardSinks map[model.DeviceID]ForwardWriter
}

// New builds an empty Context. The compiler (internal/compiler) adds
// handlers via AddHandler once the preset has been parsed into a
// handler graph, mirroring context.py's parse_mappings-then-
// create_callbacks two-step construction.
func New() *Context {
	return &Context{
		listeners:    make(map[int]macro.ListenerFunc),
		callbacks:    make(map[model.TypeAndCode][]Handler),
		forwardSinks: make(map[model.DeviceID]ForwardWriter),
	}
}

// AddHandler registers handler under the given (type,code) key, and
// tracks it for Reset. A handler that watches several keys is added
// once per key.
func (c *Context) AddHandler(key model.TypeAndCode, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks[key] = append(c.callbacks[key], handler)
	c.handlersAll = append(c.handlersAll, handler)
}

// CallbacksFor returns the handlers registered for (type, code), in
// registration order (spec §4.3's "ordered handlers sharing a
// trigger").
func (c *Context) CallbacksFor(key model.TypeAndCode) []Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Handler, len(c.callbacks[key]))
	copy(out, c.callbacks[key])
	return out
}

// Reset calls Reset on every handler, used when the injector needs to
// clear held-down state (context.py's reset()).
func (c *Context) Reset() {
	c.mu.RLock()
	handlers := make([]Handler, len(c.handlersAll))
	copy(handlers, c.handlersAll)
	c.mu.RUnlock()

	for _, h := range handlers {
		h.Reset()
	}
}

// AddListener registers fn as a broadcast listener (spec §4.7's
// if_single/mod_tap hook) and returns an id for RemoveListener.
// Implements macro.Listeners.
func (c *Context) AddListener(fn macro.ListenerFunc) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return id
}

// RemoveListener unregisters a listener previously added with
// AddListener.
func (c *Context) RemoveListener(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, id)
}

// Broadcast calls every registered listener with ev, in unspecified
// order, and reports whether any of them asked to suppress the event
// from further forwarding.
func (c *Context) Broadcast(ev model.InputEvent) (suppress bool) {
	c.mu.RLock()
	fns := make([]macro.ListenerFunc, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		if fn(ev) {
			suppress = true
		}
	}
	return suppress
}

// RegisterForwardSink associates a device's forward sink with its
// DeviceID so mod_tap can replay buffered events through it.
func (c *Context) RegisterForwardSink(id model.DeviceID, sink ForwardWriter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forwardSinks[id] = sink
}

// Replay re-injects ev through the forward sink registered for its
// Origin device. Satisfies macro.Runtime.Replay's signature.
func (c *Context) Replay(ev model.InputEvent) error {
	c.mu.RLock()
	sink, ok := c.forwardSinks[ev.Origin]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	return sink.Write(ev)
}
